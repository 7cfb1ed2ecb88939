package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryType classifies a ledger entry.
type EntryType string

const (
	EntryTypeDeposit        EntryType = "DEPOSIT"
	EntryTypeWithdrawal     EntryType = "WITHDRAWAL"
	EntryTypePaymentLock    EntryType = "PAYMENT_LOCK"
	EntryTypePaymentRelease EntryType = "PAYMENT_RELEASE"
	EntryTypeEscrowRelease  EntryType = "ESCROW_RELEASE"
	EntryTypeRefund         EntryType = "REFUND"
)

// IsValid reports whether t is a known entry type.
func (t EntryType) IsValid() bool {
	switch t {
	case EntryTypeDeposit, EntryTypeWithdrawal, EntryTypePaymentLock,
		EntryTypePaymentRelease, EntryTypeEscrowRelease, EntryTypeRefund:
		return true
	}
	return false
}

// Reviewable reports whether entries of this type wait for manual approval
// before they touch the wallet.
func (t EntryType) Reviewable() bool {
	return t == EntryTypeDeposit || t == EntryTypeWithdrawal
}

// EntryStatus is the review state of a ledger entry.
type EntryStatus string

const (
	EntryStatusPending  EntryStatus = "PENDING"
	EntryStatusApproved EntryStatus = "APPROVED"
	EntryStatusRejected EntryStatus = "REJECTED"
)

// LedgerEntry is an immutable record of a wallet mutation. Amount is signed:
// negative when funds leave the wallet's spendable or escrowed balance.
type LedgerEntry struct {
	CreatedAt  time.Time
	ReviewedAt *time.Time
	Metadata   map[string]any
	BookingID  *string
	ID         string
	ReadableID string
	WalletID   string
	Note       string
	ReviewNote string
	Type       EntryType
	Status     EntryStatus
	Amount     decimal.Decimal
}

// Effect returns how an approved entry moved the wallet's balance and pending
// balance. Pending and rejected entries have no effect.
func (e *LedgerEntry) Effect() (balanceDelta, pendingDelta decimal.Decimal) {
	if e.Status != EntryStatusApproved {
		return decimal.Zero, decimal.Zero
	}

	switch e.Type {
	case EntryTypeDeposit, EntryTypeWithdrawal, EntryTypeEscrowRelease:
		return e.Amount, decimal.Zero
	case EntryTypePaymentLock, EntryTypeRefund:
		// Lock is negative (balance -> pending), refund positive (pending -> balance).
		return e.Amount, e.Amount.Neg()
	case EntryTypePaymentRelease:
		return decimal.Zero, e.Amount
	}

	return decimal.Zero, decimal.Zero
}
