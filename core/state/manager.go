package state

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"streamvault/storage"
)

var (
	streamRecordPrefix  = []byte("streamvault/stream/record/")
	streamVaultPrefix   = []byte("streamvault/stream/vault/")
	streamCounterKeyRaw = []byte("streamvault/stream/counter")
	escrowRecordPrefix  = []byte("streamvault/escrow/record/")
	escrowVaultPrefix   = []byte("streamvault/escrow/vault/")
	escrowCounterKeyRaw = []byte("streamvault/escrow/counter")
	accountPrefix       = []byte("streamvault/account/")
)

// Manager persists custody records, per-kind id counters and account balances
// on top of a storage.Database. It is the state backend injected into both
// ledger engines.
type Manager struct {
	db storage.Database
	mu sync.Mutex
}

// NewManager wraps the supplied database.
func NewManager(db storage.Database) *Manager {
	return &Manager{db: db}
}

func recordKey(prefix []byte, id uint64) []byte {
	buf := make([]byte, len(prefix)+8)
	copy(buf, prefix)
	binary.BigEndian.PutUint64(buf[len(prefix):], id)
	return ethcrypto.Keccak256(buf)
}

func addressKey(addr []byte) []byte {
	buf := make([]byte, len(accountPrefix)+len(addr))
	copy(buf, accountPrefix)
	copy(buf[len(accountPrefix):], addr)
	return ethcrypto.Keccak256(buf)
}

// nextID atomically advances the counter stored at key and returns the newly
// allocated identifier. The first allocation yields 1; ids are never reused.
func (m *Manager) nextID(key []byte) (uint64, error) {
	if m == nil || m.db == nil {
		return 0, errors.New("state: manager not configured")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var current uint64
	ok, err := m.db.Has(key)
	if err != nil {
		return 0, err
	}
	if ok {
		raw, err := m.db.Get(key)
		if err != nil {
			return 0, err
		}
		if len(raw) != 8 {
			return 0, fmt.Errorf("state: malformed counter value")
		}
		current = binary.BigEndian.Uint64(raw)
	}
	next := current + 1
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, next)
	if err := m.db.Put(key, buf); err != nil {
		return 0, err
	}
	return next, nil
}

func (m *Manager) counterValue(key []byte) (uint64, error) {
	ok, err := m.db.Has(key)
	if err != nil || !ok {
		return 0, err
	}
	raw, err := m.db.Get(key)
	if err != nil {
		return 0, err
	}
	if len(raw) != 8 {
		return 0, fmt.Errorf("state: malformed counter value")
	}
	return binary.BigEndian.Uint64(raw), nil
}

// StreamNextID allocates the next stream identifier.
func (m *Manager) StreamNextID() (uint64, error) {
	return m.nextID(ethcrypto.Keccak256(streamCounterKeyRaw))
}

// StreamCount reports how many streams have ever been allocated.
func (m *Manager) StreamCount() (uint64, error) {
	return m.counterValue(ethcrypto.Keccak256(streamCounterKeyRaw))
}

// EscrowNextID allocates the next escrow identifier.
func (m *Manager) EscrowNextID() (uint64, error) {
	return m.nextID(ethcrypto.Keccak256(escrowCounterKeyRaw))
}

// EscrowCount reports how many escrows have ever been allocated.
func (m *Manager) EscrowCount() (uint64, error) {
	return m.counterValue(ethcrypto.Keccak256(escrowCounterKeyRaw))
}
