package escrow

import (
	"fmt"
	"math/big"
)

// Escrow captures a bilateral, binary-outcome hold. The payer either releases
// the full amount to the payee or, once the deadline has passed, reclaims it.
// Exactly one of Released and Refunded may ever become true.
type Escrow struct {
	ID        uint64
	Payer     [20]byte
	Payee     [20]byte
	Amount    *big.Int
	Deadline  int64
	CreatedAt int64
	Released  bool
	Refunded  bool
}

// Settled reports whether the escrow has reached a terminal state.
func (e *Escrow) Settled() bool {
	if e == nil {
		return false
	}
	return e.Released || e.Refunded
}

// Clone returns a deep copy of the escrow object so callers can safely mutate
// the copy without affecting the stored instance.
func (e *Escrow) Clone() *Escrow {
	if e == nil {
		return nil
	}
	clone := *e
	if e.Amount != nil {
		clone.Amount = new(big.Int).Set(e.Amount)
	} else {
		clone.Amount = big.NewInt(0)
	}
	return &clone
}

// Sanitize validates the escrow invariants and returns a cloned instance with
// a non-nil amount field. The original value is not mutated.
func Sanitize(e *Escrow) (*Escrow, error) {
	if e == nil {
		return nil, fmt.Errorf("nil escrow")
	}
	clone := e.Clone()
	if clone.Amount.Sign() <= 0 {
		return nil, fmt.Errorf("escrow amount must be positive")
	}
	if clone.Released && clone.Refunded {
		return nil, fmt.Errorf("escrow cannot be both released and refunded")
	}
	return clone, nil
}
