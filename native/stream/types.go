package stream

import (
	"fmt"
	"math/big"
)

// Stream captures a unilateral, time-proportional commitment from a sender to
// a recipient. All fields except Withdrawn and Active are immutable after
// creation; Active flips to false exactly once and never reverts.
type Stream struct {
	ID          uint64
	Sender      [20]byte
	Recipient   [20]byte
	TotalAmount *big.Int
	StartTime   int64
	Duration    int64
	Withdrawn   *big.Int
	Active      bool
}

// EndTime returns the instant at which the full commitment has vested.
func (s *Stream) EndTime() int64 {
	if s == nil {
		return 0
	}
	return s.StartTime + s.Duration
}

// Clone returns a deep copy of the stream so callers can safely mutate the
// copy without affecting the stored instance.
func (s *Stream) Clone() *Stream {
	if s == nil {
		return nil
	}
	clone := *s
	if s.TotalAmount != nil {
		clone.TotalAmount = new(big.Int).Set(s.TotalAmount)
	} else {
		clone.TotalAmount = big.NewInt(0)
	}
	if s.Withdrawn != nil {
		clone.Withdrawn = new(big.Int).Set(s.Withdrawn)
	} else {
		clone.Withdrawn = big.NewInt(0)
	}
	return &clone
}

// Sanitize validates the stream invariants and returns a cloned instance with
// non-nil amount fields. The original value is not mutated.
func Sanitize(s *Stream) (*Stream, error) {
	if s == nil {
		return nil, fmt.Errorf("nil stream")
	}
	clone := s.Clone()
	if clone.TotalAmount.Sign() <= 0 {
		return nil, fmt.Errorf("stream total amount must be positive")
	}
	if clone.Duration <= 0 {
		return nil, fmt.Errorf("stream duration must be positive")
	}
	if clone.Withdrawn.Sign() < 0 {
		return nil, fmt.Errorf("stream withdrawn amount must be non-negative")
	}
	if clone.Withdrawn.Cmp(clone.TotalAmount) > 0 {
		return nil, fmt.Errorf("stream withdrawn amount exceeds total")
	}
	return clone, nil
}
