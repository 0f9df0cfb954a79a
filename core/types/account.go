package types

import "math/big"

// Account holds the native-currency position for a single address. Token
// balances (ACDM, STK, RWD) live in the fungible ledger keyed by symbol and
// are not duplicated here.
type Account struct {
	Nonce      uint64   `json:"nonce"`
	BalanceWei *big.Int `json:"balanceWei"`
}

// EnsureAccount returns a usable account value with a non-nil balance. A nil
// input yields a zeroed account.
func EnsureAccount(acc *Account) *Account {
	if acc == nil {
		return &Account{BalanceWei: big.NewInt(0)}
	}
	if acc.BalanceWei == nil {
		acc.BalanceWei = big.NewInt(0)
	}
	return acc
}

// Clone returns a deep copy so callers can mutate without touching the stored
// instance.
func (a *Account) Clone() *Account {
	if a == nil {
		return &Account{BalanceWei: big.NewInt(0)}
	}
	clone := &Account{Nonce: a.Nonce, BalanceWei: big.NewInt(0)}
	if a.BalanceWei != nil {
		clone.BalanceWei = new(big.Int).Set(a.BalanceWei)
	}
	return clone
}
