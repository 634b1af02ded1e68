package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"streamvault/crypto"
	"streamvault/native/escrow"
)

var escrowVaultAddress = crypto.ModuleAddress("escrow-vault")

type storedEscrow struct {
	ID        uint64
	Payer     [20]byte
	Payee     [20]byte
	Amount    *big.Int
	Deadline  *big.Int
	CreatedAt *big.Int
	Released  bool
	Refunded  bool
}

func newStoredEscrow(e *escrow.Escrow) *storedEscrow {
	return &storedEscrow{
		ID:        e.ID,
		Payer:     e.Payer,
		Payee:     e.Payee,
		Amount:    e.Amount,
		Deadline:  big.NewInt(e.Deadline),
		CreatedAt: big.NewInt(e.CreatedAt),
		Released:  e.Released,
		Refunded:  e.Refunded,
	}
}

func (s *storedEscrow) toEscrow() (*escrow.Escrow, error) {
	if s == nil {
		return nil, fmt.Errorf("state: nil escrow record")
	}
	out := &escrow.Escrow{
		ID:       s.ID,
		Payer:    s.Payer,
		Payee:    s.Payee,
		Amount:   s.Amount,
		Released: s.Released,
		Refunded: s.Refunded,
	}
	if s.Deadline != nil {
		if !s.Deadline.IsInt64() {
			return nil, fmt.Errorf("state: escrow deadline out of range")
		}
		out.Deadline = s.Deadline.Int64()
	}
	if s.CreatedAt != nil {
		if !s.CreatedAt.IsInt64() {
			return nil, fmt.Errorf("state: escrow creation time out of range")
		}
		out.CreatedAt = s.CreatedAt.Int64()
	}
	return escrow.Sanitize(out)
}

// EscrowPut validates and persists the escrow record.
func (m *Manager) EscrowPut(e *escrow.Escrow) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not configured")
	}
	sanitized, err := escrow.Sanitize(e)
	if err != nil {
		return err
	}
	if sanitized.ID == 0 {
		return fmt.Errorf("state: escrow id not allocated")
	}
	raw, err := rlp.EncodeToBytes(newStoredEscrow(sanitized))
	if err != nil {
		return fmt.Errorf("state: encode escrow: %w", err)
	}
	return m.db.Put(recordKey(escrowRecordPrefix, sanitized.ID), raw)
}

// EscrowGet loads the escrow record for id. The second return value reports
// whether the record exists.
func (m *Manager) EscrowGet(id uint64) (*escrow.Escrow, bool) {
	if m == nil || m.db == nil || id == 0 {
		return nil, false
	}
	key := recordKey(escrowRecordPrefix, id)
	ok, err := m.db.Has(key)
	if err != nil || !ok {
		return nil, false
	}
	raw, err := m.db.Get(key)
	if err != nil {
		return nil, false
	}
	var stored storedEscrow
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, false
	}
	out, err := stored.toEscrow()
	if err != nil {
		return nil, false
	}
	return out, true
}

// EscrowVaultAddress returns the module account holding all unsettled escrow
// deposits.
func (m *Manager) EscrowVaultAddress() [20]byte {
	return escrowVaultAddress
}

// EscrowCredit records value entering the vault on behalf of an escrow.
func (m *Manager) EscrowCredit(id uint64, amt *big.Int) error {
	return m.vaultAdjust(escrowVaultPrefix, id, amt, 1)
}

// EscrowDebit records value leaving the vault on behalf of an escrow.
func (m *Manager) EscrowDebit(id uint64, amt *big.Int) error {
	return m.vaultAdjust(escrowVaultPrefix, id, amt, -1)
}

// EscrowVaultBalance reports the unsettled value still held for an escrow.
func (m *Manager) EscrowVaultBalance(id uint64) (*big.Int, error) {
	return m.vaultBalance(escrowVaultPrefix, id)
}
