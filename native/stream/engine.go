package stream

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"streamvault/core/events"
	"streamvault/core/types"
	"streamvault/native/common"
)

var errNilState = errors.New("stream engine: state not configured")

type engineState interface {
	StreamPut(*Stream) error
	StreamGet(id uint64) (*Stream, bool)
	StreamNextID() (uint64, error)
	StreamVaultAddress() [20]byte
	StreamCredit(id uint64, amt *big.Int) error
	StreamDebit(id uint64, amt *big.Int) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Engine wires the stream accrual and settlement logic with external state and
// event emitters. Accrual is computed on demand; nothing runs on a timer.
type Engine struct {
	state   engineState
	emitter events.Emitter
	pauses  common.PauseView
	nowFn   func() int64
}

// NewEngine creates a stream engine with a no-op emitter. Callers can override
// the emitter via SetEmitter.
func NewEngine() *Engine {
	return &Engine{
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetState configures the state backend used by the engine.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetPauses configures the pause view consulted before every mutation.
func (e *Engine) SetPauses(p common.PauseView) { e.pauses = p }

// SetNowFunc overrides the time source used by the engine. Primarily intended
// for tests to provide deterministic timestamps.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetEmitter configures the event emitter used by the engine. Passing nil
// resets the emitter to a no-op implementation.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

func (e *Engine) emit(event events.Event) {
	if e == nil || e.emitter == nil || event == nil {
		return
	}
	e.emitter.Emit(event)
}

func (e *Engine) now() int64 {
	if e == nil || e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func cloneBigInt(v *big.Int) *big.Int {
	if v == nil {
		return big.NewInt(0)
	}
	return new(big.Int).Set(v)
}

func (e *Engine) loadStream(id uint64) (*Stream, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if id == 0 {
		return nil, ErrNotFound
	}
	stream, ok := e.state.StreamGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	return stream, nil
}

func (e *Engine) transfer(from, to [20]byte, amount *big.Int) error {
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("stream: negative transfer amount")
	}
	// A self-transfer would load two independent copies of the account and the
	// second PutAccount would re-add the debited amount, minting value.
	if from == to {
		return nil
	}
	fromAcc, err := e.state.GetAccount(from[:])
	if err != nil {
		return err
	}
	toAcc, err := e.state.GetAccount(to[:])
	if err != nil {
		return err
	}
	fromAcc = fromAcc.Normalize()
	toAcc = toAcc.Normalize()
	if fromAcc.Balance.Cmp(amt) < 0 {
		return ErrInsufficientFunds
	}
	fromAcc.Balance = new(big.Int).Sub(fromAcc.Balance, amt)
	toAcc.Balance = new(big.Int).Add(toAcc.Balance, amt)
	if err := e.state.PutAccount(from[:], fromAcc); err != nil {
		return err
	}
	return e.state.PutAccount(to[:], toAcc)
}

// Create initialises a new stream, escrowing the committed value in the stream
// vault. The supplied deposit must equal the committed amount exactly.
func (e *Engine) Create(sender, recipient [20]byte, totalAmount *big.Int, duration int64, supplied *big.Int) (*Stream, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := common.Guard(e.pauses, common.ModuleStream); err != nil {
		return nil, err
	}
	if common.ZeroAddress(sender) {
		return nil, ErrInvalidSender
	}
	if common.ZeroAddress(recipient) || recipient == e.state.StreamVaultAddress() {
		return nil, ErrInvalidRecipient
	}
	if duration <= 0 {
		return nil, ErrInvalidDuration
	}
	if !common.PositiveAmount(totalAmount) || !common.SameAmount(totalAmount, supplied) {
		return nil, ErrInvalidAmount
	}
	amt := cloneBigInt(totalAmount)
	now := e.now()
	vault := e.state.StreamVaultAddress()
	if err := e.transfer(sender, vault, amt); err != nil {
		return nil, err
	}
	rollback := func(cause error) error {
		if rbErr := e.transfer(vault, sender, amt); rbErr != nil {
			return fmt.Errorf("%w; deposit rollback failed: %v", cause, rbErr)
		}
		return cause
	}
	id, err := e.state.StreamNextID()
	if err != nil {
		return nil, rollback(err)
	}
	s := &Stream{
		ID:          id,
		Sender:      sender,
		Recipient:   recipient,
		TotalAmount: amt,
		StartTime:   now,
		Duration:    duration,
		Withdrawn:   big.NewInt(0),
		Active:      true,
	}
	if err := e.state.StreamPut(s); err != nil {
		return nil, rollback(err)
	}
	if err := e.state.StreamCredit(id, amt); err != nil {
		return nil, rollback(err)
	}
	e.emit(events.StreamCreated{
		ID:          s.ID,
		Sender:      s.Sender,
		Recipient:   s.Recipient,
		TotalAmount: cloneBigInt(s.TotalAmount),
		StartTime:   s.StartTime,
		Duration:    s.Duration,
	})
	return s.Clone(), nil
}

func accruedAt(s *Stream, now int64) *big.Int {
	if s == nil || !s.Active {
		return big.NewInt(0)
	}
	elapsed := common.ClampElapsed(now, s.StartTime, s.Duration)
	available := common.ProRata(s.TotalAmount, elapsed, s.Duration)
	available.Sub(available, s.Withdrawn)
	if available.Sign() < 0 {
		return big.NewInt(0)
	}
	return available
}

// AccruedAmount reports the value eligible for withdrawal at the supplied
// instant, net of prior withdrawals. It never mutates the stream; an inactive
// stream has nothing left to accrue.
func (e *Engine) AccruedAmount(id uint64, now int64) (*big.Int, error) {
	s, err := e.loadStream(id)
	if err != nil {
		return nil, err
	}
	return accruedAt(s, now), nil
}

// CurrentAccrued is AccruedAmount evaluated against the engine clock.
func (e *Engine) CurrentAccrued(id uint64) (*big.Int, error) {
	return e.AccruedAmount(id, e.now())
}

// Get returns a copy of the stored stream.
func (e *Engine) Get(id uint64) (*Stream, error) {
	s, err := e.loadStream(id)
	if err != nil {
		return nil, err
	}
	return s.Clone(), nil
}

// Withdraw settles the accrued slice to the recipient. The stream record is
// committed before the value leaves the vault so a re-entrant call observes
// the post-withdrawal state and cannot double-spend.
func (e *Engine) Withdraw(id uint64, caller [20]byte) (*big.Int, error) {
	if err := common.Guard(e.pauses, common.ModuleStream); err != nil {
		return nil, err
	}
	s, err := e.loadStream(id)
	if err != nil {
		return nil, err
	}
	if !s.Active {
		return nil, ErrInactive
	}
	if caller != s.Recipient {
		return nil, ErrUnauthorized
	}
	now := e.now()
	withdrawable := accruedAt(s, now)
	if withdrawable.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}
	prev := s.Clone()
	s.Withdrawn = new(big.Int).Add(s.Withdrawn, withdrawable)
	closed := now >= s.EndTime()
	if closed {
		s.Active = false
	}
	if err := e.state.StreamPut(s); err != nil {
		return nil, err
	}
	if err := e.state.StreamDebit(id, withdrawable); err != nil {
		e.state.StreamPut(prev)
		return nil, err
	}
	if err := e.transfer(e.state.StreamVaultAddress(), s.Recipient, withdrawable); err != nil {
		e.state.StreamCredit(id, withdrawable)
		e.state.StreamPut(prev)
		return nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	e.emit(events.StreamWithdrawn{
		ID:        s.ID,
		Sender:    s.Sender,
		Recipient: s.Recipient,
		Amount:    cloneBigInt(withdrawable),
		Closed:    closed,
	})
	return withdrawable, nil
}

// Cancel terminates the stream early. The accrued slice is settled to the
// recipient and the never-accrued remainder returned to the sender; both
// transfers land or the record is restored untouched. Only the sender may
// cancel.
func (e *Engine) Cancel(id uint64, caller [20]byte) (paid, refunded *big.Int, err error) {
	if err := common.Guard(e.pauses, common.ModuleStream); err != nil {
		return nil, nil, err
	}
	s, err := e.loadStream(id)
	if err != nil {
		return nil, nil, err
	}
	if !s.Active {
		return nil, nil, ErrInactive
	}
	if caller != s.Sender {
		return nil, nil, ErrUnauthorized
	}
	now := e.now()
	owed := accruedAt(s, now)
	remainder := new(big.Int).Sub(s.TotalAmount, s.Withdrawn)
	remainder.Sub(remainder, owed)
	if remainder.Sign() < 0 {
		remainder = big.NewInt(0)
	}
	prev := s.Clone()
	s.Withdrawn = cloneBigInt(s.TotalAmount)
	s.Active = false
	outstanding := new(big.Int).Add(owed, remainder)
	if err := e.state.StreamPut(s); err != nil {
		return nil, nil, err
	}
	if err := e.state.StreamDebit(id, outstanding); err != nil {
		e.state.StreamPut(prev)
		return nil, nil, err
	}
	vault := e.state.StreamVaultAddress()
	if err := e.transfer(vault, s.Recipient, owed); err != nil {
		e.state.StreamCredit(id, outstanding)
		e.state.StreamPut(prev)
		return nil, nil, fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	if err := e.transfer(vault, s.Sender, remainder); err != nil {
		cause := fmt.Errorf("%w: %v", ErrTransferFailed, err)
		if rbErr := e.transfer(s.Recipient, vault, owed); rbErr != nil {
			cause = fmt.Errorf("%w; reversal failed: %v", cause, rbErr)
		}
		e.state.StreamCredit(id, outstanding)
		e.state.StreamPut(prev)
		return nil, nil, cause
	}
	e.emit(events.StreamCancelled{
		ID:        s.ID,
		Sender:    s.Sender,
		Recipient: s.Recipient,
		Paid:      cloneBigInt(owed),
		Refunded:  cloneBigInt(remainder),
	})
	return owed, remainder, nil
}
