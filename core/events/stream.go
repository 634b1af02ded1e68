package events

import (
	"math/big"

	"streamvault/core/types"
)

const (
	TypeStreamCreated   = "stream.created"
	TypeStreamWithdrawn = "stream.withdrawn"
	TypeStreamCancelled = "stream.cancelled"
)

// StreamCreated is emitted when a sender commits value to a new stream.
type StreamCreated struct {
	ID          uint64
	Sender      [20]byte
	Recipient   [20]byte
	TotalAmount *big.Int
	StartTime   int64
	Duration    int64
}

func (StreamCreated) EventType() string { return TypeStreamCreated }

func (e StreamCreated) Event() *types.Event {
	return &types.Event{
		Type: TypeStreamCreated,
		Attributes: map[string]string{
			"id":          uintToString(e.ID),
			"sender":      formatAddress(e.Sender),
			"recipient":   formatAddress(e.Recipient),
			"totalAmount": formatAmount(e.TotalAmount),
			"startTime":   intToString(e.StartTime),
			"duration":    intToString(e.Duration),
		},
	}
}

// StreamWithdrawn is emitted each time the recipient consumes an accrued
// slice of the stream.
type StreamWithdrawn struct {
	ID        uint64
	Sender    [20]byte
	Recipient [20]byte
	Amount    *big.Int
	Closed    bool
}

func (StreamWithdrawn) EventType() string { return TypeStreamWithdrawn }

func (e StreamWithdrawn) Event() *types.Event {
	attrs := map[string]string{
		"id":        uintToString(e.ID),
		"sender":    formatAddress(e.Sender),
		"recipient": formatAddress(e.Recipient),
		"amount":    formatAmount(e.Amount),
	}
	if e.Closed {
		attrs["closed"] = "true"
	}
	return &types.Event{Type: TypeStreamWithdrawn, Attributes: attrs}
}

// StreamCancelled is emitted when the sender terminates a stream early. Paid
// carries the accrued slice settled to the recipient, Refunded the remainder
// returned to the sender.
type StreamCancelled struct {
	ID        uint64
	Sender    [20]byte
	Recipient [20]byte
	Paid      *big.Int
	Refunded  *big.Int
}

func (StreamCancelled) EventType() string { return TypeStreamCancelled }

func (e StreamCancelled) Event() *types.Event {
	return &types.Event{
		Type: TypeStreamCancelled,
		Attributes: map[string]string{
			"id":        uintToString(e.ID),
			"sender":    formatAddress(e.Sender),
			"recipient": formatAddress(e.Recipient),
			"paid":      formatAmount(e.Paid),
			"refunded":  formatAmount(e.Refunded),
		},
	}
}
