package events

import (
	"math/big"

	"streamvault/core/types"
)

const (
	TypeEscrowCreated  = "escrow.created"
	TypeEscrowReleased = "escrow.released"
	TypeEscrowRefunded = "escrow.refunded"
)

// EscrowCreated is emitted when a payer locks value behind a deadline.
type EscrowCreated struct {
	ID        uint64
	Payer     [20]byte
	Payee     [20]byte
	Amount    *big.Int
	Deadline  int64
	CreatedAt int64
}

func (EscrowCreated) EventType() string { return TypeEscrowCreated }

func (e EscrowCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeEscrowCreated,
		Attributes: map[string]string{
			"id":        uintToString(e.ID),
			"payer":     formatAddress(e.Payer),
			"payee":     formatAddress(e.Payee),
			"amount":    formatAmount(e.Amount),
			"deadline":  intToString(e.Deadline),
			"createdAt": intToString(e.CreatedAt),
		},
	}
}

// EscrowReleased is emitted when the payer settles the hold in favour of the
// payee.
type EscrowReleased struct {
	ID     uint64
	Payer  [20]byte
	Payee  [20]byte
	Amount *big.Int
}

func (EscrowReleased) EventType() string { return TypeEscrowReleased }

func (e EscrowReleased) Event() *types.Event {
	return &types.Event{
		Type: TypeEscrowReleased,
		Attributes: map[string]string{
			"id":     uintToString(e.ID),
			"payer":  formatAddress(e.Payer),
			"payee":  formatAddress(e.Payee),
			"amount": formatAmount(e.Amount),
		},
	}
}

// EscrowRefunded is emitted when the payer reclaims the hold after the
// deadline has passed.
type EscrowRefunded struct {
	ID     uint64
	Payer  [20]byte
	Payee  [20]byte
	Amount *big.Int
}

func (EscrowRefunded) EventType() string { return TypeEscrowRefunded }

func (e EscrowRefunded) Event() *types.Event {
	return &types.Event{
		Type: TypeEscrowRefunded,
		Attributes: map[string]string{
			"id":     uintToString(e.ID),
			"payer":  formatAddress(e.Payer),
			"payee":  formatAddress(e.Payee),
			"amount": formatAmount(e.Amount),
		},
	}
}
