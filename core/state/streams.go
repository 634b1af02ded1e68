package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"streamvault/crypto"
	"streamvault/native/stream"
)

var streamVaultAddress = crypto.ModuleAddress("stream-vault")

type storedStream struct {
	ID          uint64
	Sender      [20]byte
	Recipient   [20]byte
	TotalAmount *big.Int
	StartTime   *big.Int
	Duration    *big.Int
	Withdrawn   *big.Int
	Active      bool
}

func newStoredStream(s *stream.Stream) *storedStream {
	return &storedStream{
		ID:          s.ID,
		Sender:      s.Sender,
		Recipient:   s.Recipient,
		TotalAmount: s.TotalAmount,
		StartTime:   big.NewInt(s.StartTime),
		Duration:    big.NewInt(s.Duration),
		Withdrawn:   s.Withdrawn,
		Active:      s.Active,
	}
}

func (s *storedStream) toStream() (*stream.Stream, error) {
	if s == nil {
		return nil, fmt.Errorf("state: nil stream record")
	}
	out := &stream.Stream{
		ID:          s.ID,
		Sender:      s.Sender,
		Recipient:   s.Recipient,
		TotalAmount: s.TotalAmount,
		Withdrawn:   s.Withdrawn,
		Active:      s.Active,
	}
	if s.StartTime != nil {
		if !s.StartTime.IsInt64() {
			return nil, fmt.Errorf("state: stream start time out of range")
		}
		out.StartTime = s.StartTime.Int64()
	}
	if s.Duration != nil {
		if !s.Duration.IsInt64() {
			return nil, fmt.Errorf("state: stream duration out of range")
		}
		out.Duration = s.Duration.Int64()
	}
	return stream.Sanitize(out)
}

// StreamPut validates and persists the stream record.
func (m *Manager) StreamPut(s *stream.Stream) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not configured")
	}
	sanitized, err := stream.Sanitize(s)
	if err != nil {
		return err
	}
	if sanitized.ID == 0 {
		return fmt.Errorf("state: stream id not allocated")
	}
	raw, err := rlp.EncodeToBytes(newStoredStream(sanitized))
	if err != nil {
		return fmt.Errorf("state: encode stream: %w", err)
	}
	return m.db.Put(recordKey(streamRecordPrefix, sanitized.ID), raw)
}

// StreamGet loads the stream record for id. The second return value reports
// whether the record exists.
func (m *Manager) StreamGet(id uint64) (*stream.Stream, bool) {
	if m == nil || m.db == nil || id == 0 {
		return nil, false
	}
	key := recordKey(streamRecordPrefix, id)
	ok, err := m.db.Has(key)
	if err != nil || !ok {
		return nil, false
	}
	raw, err := m.db.Get(key)
	if err != nil {
		return nil, false
	}
	var stored storedStream
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, false
	}
	out, err := stored.toStream()
	if err != nil {
		return nil, false
	}
	return out, true
}

// StreamVaultAddress returns the module account holding all undisbursed stream
// deposits.
func (m *Manager) StreamVaultAddress() [20]byte {
	return streamVaultAddress
}

// StreamCredit records value entering the vault on behalf of a stream.
func (m *Manager) StreamCredit(id uint64, amt *big.Int) error {
	return m.vaultAdjust(streamVaultPrefix, id, amt, 1)
}

// StreamDebit records value leaving the vault on behalf of a stream. Debiting
// more than was credited is an underflow error.
func (m *Manager) StreamDebit(id uint64, amt *big.Int) error {
	return m.vaultAdjust(streamVaultPrefix, id, amt, -1)
}

// StreamVaultBalance reports the undisbursed value still held for a stream.
func (m *Manager) StreamVaultBalance(id uint64) (*big.Int, error) {
	return m.vaultBalance(streamVaultPrefix, id)
}
