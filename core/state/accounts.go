package state

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/rlp"

	"streamvault/core/types"
)

type storedAccount struct {
	Balance *big.Int
	Nonce   uint64
}

// GetAccount loads the account stored for addr. Unknown addresses resolve to a
// fresh zero-balance account rather than an error.
func (m *Manager) GetAccount(addr []byte) (*types.Account, error) {
	if m == nil || m.db == nil {
		return nil, fmt.Errorf("state: manager not configured")
	}
	key := addressKey(addr)
	ok, err := m.db.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return &types.Account{Balance: big.NewInt(0)}, nil
	}
	raw, err := m.db.Get(key)
	if err != nil {
		return nil, err
	}
	var stored storedAccount
	if err := rlp.DecodeBytes(raw, &stored); err != nil {
		return nil, fmt.Errorf("state: decode account: %w", err)
	}
	balance := big.NewInt(0)
	if stored.Balance != nil {
		balance = stored.Balance
	}
	return &types.Account{Balance: balance, Nonce: stored.Nonce}, nil
}

// PutAccount persists the account for addr.
func (m *Manager) PutAccount(addr []byte, account *types.Account) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not configured")
	}
	account = account.Normalize()
	if account.Balance.Sign() < 0 {
		return fmt.Errorf("state: negative account balance")
	}
	raw, err := rlp.EncodeToBytes(&storedAccount{
		Balance: account.Balance,
		Nonce:   account.Nonce,
	})
	if err != nil {
		return fmt.Errorf("state: encode account: %w", err)
	}
	return m.db.Put(addressKey(addr), raw)
}

// vaultBalance tracks the portion of a module vault attributable to a single
// record so stranded or double-spent value is detectable per id.
func (m *Manager) vaultBalance(prefix []byte, id uint64) (*big.Int, error) {
	key := recordKey(prefix, id)
	ok, err := m.db.Has(key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return big.NewInt(0), nil
	}
	raw, err := m.db.Get(key)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(raw), nil
}

func (m *Manager) vaultAdjust(prefix []byte, id uint64, amt *big.Int, sign int) error {
	if m == nil || m.db == nil {
		return fmt.Errorf("state: manager not configured")
	}
	if amt == nil || amt.Sign() < 0 {
		return fmt.Errorf("state: vault adjustment must be non-negative")
	}
	balance, err := m.vaultBalance(prefix, id)
	if err != nil {
		return err
	}
	if sign >= 0 {
		balance.Add(balance, amt)
	} else {
		balance.Sub(balance, amt)
		if balance.Sign() < 0 {
			return fmt.Errorf("state: vault balance underflow for record %d", id)
		}
	}
	return m.db.Put(recordKey(prefix, id), balance.Bytes())
}
