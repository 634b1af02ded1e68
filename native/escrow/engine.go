package escrow

import (
	"errors"
	"fmt"
	"math/big"
	"time"

	"streamvault/core/events"
	"streamvault/core/types"
	"streamvault/native/common"
)

var errNilState = errors.New("escrow engine: state not configured")

type engineState interface {
	EscrowPut(*Escrow) error
	EscrowGet(id uint64) (*Escrow, bool)
	EscrowNextID() (uint64, error)
	EscrowVaultAddress() [20]byte
	EscrowCredit(id uint64, amt *big.Int) error
	EscrowDebit(id uint64, amt *big.Int) error
	GetAccount(addr []byte) (*types.Account, error)
	PutAccount(addr []byte, account *types.Account) error
}

// Engine wires the escrow state machine with external state and event
// emitters. Every hold settles exactly once, by release or by post-deadline
// refund.
type Engine struct {
	state   engineState
	emitter events.Emitter
	pauses  common.PauseView
	nowFn   func() int64
}

// NewEngine creates an escrow engine with a no-op emitter. Callers can
// override the emitter via SetEmitter.
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

func (e *Engine) loadEscrow(id uint64) (*Escrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if id == 0 {
		return nil, ErrNotFound
	}
	esc, ok := e.state.EscrowGet(id)
	if !ok {
		return nil, ErrNotFound
	}
	return esc, nil
}

func (e *Engine) transfer(from, to [20]byte, amount *big.Int) error {
	amt := cloneBigInt(amount)
	if amt.Sign() == 0 {
		return nil
	}
	if amt.Sign() < 0 {
		return fmt.Errorf("escrow: negative transfer amount")
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

// Create initialises a new escrow hold, moving the supplied deposit from the
// payer into the escrow vault. The deposit must equal the committed amount
// exactly and the deadline must lie strictly in the future.
func (e *Engine) Create(payer, payee [20]byte, amount *big.Int, deadline int64, supplied *big.Int) (*Escrow, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	if err := common.Guard(e.pauses, common.ModuleEscrow); err != nil {
		return nil, err
	}
	if common.ZeroAddress(payer) {
		return nil, ErrInvalidPayer
	}
	if common.ZeroAddress(payee) || payee == e.state.EscrowVaultAddress() {
		return nil, ErrInvalidPayee
	}
	if !common.PositiveAmount(amount) || !common.SameAmount(amount, supplied) {
		return nil, ErrInvalidAmount
	}
	now := e.now()
	if deadline <= now {
		return nil, ErrInvalidDeadline
	}
	amt := cloneBigInt(amount)
	vault := e.state.EscrowVaultAddress()
	if err := e.transfer(payer, vault, amt); err != nil {
		return nil, err
	}
	rollback := func(cause error) error {
		if rbErr := e.transfer(vault, payer, amt); rbErr != nil {
			return fmt.Errorf("%w; deposit rollback failed: %v", cause, rbErr)
		}
		return cause
	}
	id, err := e.state.EscrowNextID()
	if err != nil {
		return nil, rollback(err)
	}
	esc := &Escrow{
		ID:        id,
		Payer:     payer,
		Payee:     payee,
		Amount:    amt,
		Deadline:  deadline,
		CreatedAt: now,
	}
	if err := e.state.EscrowPut(esc); err != nil {
		return nil, rollback(err)
	}
	if err := e.state.EscrowCredit(id, amt); err != nil {
		return nil, rollback(err)
	}
	e.emit(events.EscrowCreated{
		ID:        esc.ID,
		Payer:     esc.Payer,
		Payee:     esc.Payee,
		Amount:    cloneBigInt(esc.Amount),
		Deadline:  esc.Deadline,
		CreatedAt: esc.CreatedAt,
	})
	return esc.Clone(), nil
}

// Get returns a copy of the stored escrow.
func (e *Engine) Get(id uint64) (*Escrow, error) {
	esc, err := e.loadEscrow(id)
	if err != nil {
		return nil, err
	}
	return esc.Clone(), nil
}

// Release settles the escrow in favour of the payee. Only the payer may
// release, at any time before settlement; the record is committed before the
// value leaves the vault.
func (e *Engine) Release(id uint64, caller [20]byte) error {
	if err := common.Guard(e.pauses, common.ModuleEscrow); err != nil {
		return err
	}
	esc, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	if esc.Settled() {
		return ErrAlreadySettled
	}
	if caller != esc.Payer {
		return ErrUnauthorized
	}
	return e.settle(esc, esc.Payee, func(c *Escrow) { c.Released = true }, events.EscrowReleased{
		ID:     esc.ID,
		Payer:  esc.Payer,
		Payee:  esc.Payee,
		Amount: cloneBigInt(esc.Amount),
	})
}

// Refund returns the escrowed value to the payer once the deadline has
// passed. Only the payer may refund.
func (e *Engine) Refund(id uint64, caller [20]byte) error {
	if err := common.Guard(e.pauses, common.ModuleEscrow); err != nil {
		return err
	}
	esc, err := e.loadEscrow(id)
	if err != nil {
		return err
	}
	if esc.Settled() {
		return ErrAlreadySettled
	}
	if caller != esc.Payer {
		return ErrUnauthorized
	}
	if e.now() < esc.Deadline {
		return ErrDeadlineNotPassed
	}
	return e.settle(esc, esc.Payer, func(c *Escrow) { c.Refunded = true }, events.EscrowRefunded{
		ID:     esc.ID,
		Payer:  esc.Payer,
		Payee:  esc.Payee,
		Amount: cloneBigInt(esc.Amount),
	})
}

func (e *Engine) settle(esc *Escrow, recipient [20]byte, mark func(*Escrow), event events.Event) error {
	amount := cloneBigInt(esc.Amount)
	if amount.Sign() <= 0 {
		return ErrInvalidAmount
	}
	prev := esc.Clone()
	mark(esc)
	if err := e.state.EscrowPut(esc); err != nil {
		return err
	}
	if err := e.state.EscrowDebit(esc.ID, amount); err != nil {
		e.state.EscrowPut(prev)
		return err
	}
	if err := e.transfer(e.state.EscrowVaultAddress(), recipient, amount); err != nil {
		e.state.EscrowCredit(esc.ID, amount)
		e.state.EscrowPut(prev)
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	e.emit(event)
	return nil
}
