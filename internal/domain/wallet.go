package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the custodial balance record of a single user.
// Balance is spendable, PendingBalance is held in escrow for unsettled bookings.
type Wallet struct {
	ID             string
	ReadableID     string
	UserID         string
	Balance        decimal.Decimal
	PendingBalance decimal.Decimal
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Total returns the funds owned by the wallet holder, spendable or escrowed.
func (w *Wallet) Total() decimal.Decimal {
	return w.Balance.Add(w.PendingBalance)
}

// ValidateLock checks if amount can move from balance to pending balance.
func (w *Wallet) ValidateLock(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if w.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	return nil
}

// ValidatePendingDebit checks if amount can leave the pending balance.
func (w *Wallet) ValidatePendingDebit(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if w.PendingBalance.LessThan(amount) {
		return ErrFundsNotLocked
	}
	return nil
}
