package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// WalletNumberLength is the number of digits in a public wallet number.
const WalletNumberLength = 10

// Wallet holds the spendable balance of a single user.
type Wallet struct {
	ID           string
	WalletNumber string
	UserID       string
	Balance      decimal.Decimal
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// CanDebit reports whether the wallet balance covers amount.
func (w *Wallet) CanDebit(amount decimal.Decimal) bool {
	return w.Balance.GreaterThanOrEqual(amount)
}
