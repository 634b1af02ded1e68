package types

import "math/big"

// Account tracks the spendable balance held by a single address. The custody
// engines move value between accounts through the state manager; they never
// hold balances themselves.
type Account struct {
	Balance *big.Int
	Nonce   uint64
}

// Normalize returns the account with a non-nil balance so callers can do
// arithmetic without nil checks.
func (a *Account) Normalize() *Account {
	if a == nil {
		return &Account{Balance: big.NewInt(0)}
	}
	if a.Balance == nil {
		a.Balance = big.NewInt(0)
	}
	return a
}

// Clone deep-copies the account.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	out := *a
	if a.Balance != nil {
		out.Balance = new(big.Int).Set(a.Balance)
	} else {
		out.Balance = big.NewInt(0)
	}
	return &out
}
