package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/tutorescrow/internal/domain"
)

// WalletRepository defines data access for wallets. Every balance mutation is
// a single conditional statement so concurrent callers can never overdraw.
type WalletRepository interface {
	// Create inserts wallet unless the user already owns one.
	// It reports whether a new row was written.
	Create(ctx context.Context, tx Transaction, wallet *domain.Wallet) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Wallet, error)
	GetByIDTx(ctx context.Context, tx Transaction, id string) (*domain.Wallet, error)
	GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error)
	GetByUserIDTx(ctx context.Context, tx Transaction, userID string) (*domain.Wallet, error)
	// Lock moves amount from balance to pending balance.
	// Returns domain.ErrInsufficientBalance when balance < amount.
	Lock(ctx context.Context, tx Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error)
	// ReleasePending removes amount from pending balance.
	// Returns domain.ErrFundsNotLocked when pending balance < amount.
	ReleasePending(ctx context.Context, tx Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error)
	// Refund moves amount from pending balance back to balance.
	// Returns domain.ErrFundsNotLocked when pending balance < amount.
	Refund(ctx context.Context, tx Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error)
	Credit(ctx context.Context, tx Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error)
	// Debit removes amount from balance.
	// Returns domain.ErrInsufficientBalance when balance < amount.
	Debit(ctx context.Context, tx Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error)
	List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error)
}

// LedgerEntryRepository defines data access for ledger entries.
type LedgerEntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.LedgerEntry, error)
	// UpdateStatus finalises a PENDING entry.
	// Returns domain.ErrTransactionAlreadyReviewed when the entry is no longer pending.
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.EntryStatus, reviewNote string, reviewedAt time.Time) error
	ListByWallet(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error)
	ListByStatus(ctx context.Context, status domain.EntryStatus, limit, offset int) ([]*domain.LedgerEntry, error)
	ListByBooking(ctx context.Context, bookingID string) ([]*domain.LedgerEntry, error)
	ListApprovedByWallet(ctx context.Context, tx Transaction, walletID string) ([]*domain.LedgerEntry, error)
}

// LedgerTotals aggregates the whole ledger for conservation checks.
type LedgerTotals struct {
	ApprovedByType     map[domain.EntryType]decimal.Decimal
	WalletBalance      decimal.Decimal
	WalletPending      decimal.Decimal
	PendingDeposits    decimal.Decimal
	PendingWithdrawals decimal.Decimal
	WalletCount        int64
	PendingReviewCount int64
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	// Totals reads every aggregate from tx so the figures share one snapshot.
	Totals(ctx context.Context, tx Transaction) (*LedgerTotals, error)
}

// BookingRepository defines data access for bookings.
type BookingRepository interface {
	// Create inserts the booking. Returns domain.ErrSlotConflict when the
	// teacher already has an active booking at the same start time.
	Create(ctx context.Context, tx Transaction, booking *domain.Booking) error
	GetByID(ctx context.Context, id string) (*domain.Booking, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Booking, error)
	// UpdateStatus persists booking's status and lifecycle timestamps, but
	// only while the stored status is one of from.
	// Returns domain.ErrInvalidTransition when no row matched.
	UpdateStatus(ctx context.Context, tx Transaction, booking *domain.Booking, from []domain.BookingStatus) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Booking, error)
	ListPendingApprovalBefore(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Booking, error)
	ListPaymentOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error)
	ListReleasable(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error)
	CountByStatus(ctx context.Context) (map[domain.BookingStatus]int64, error)
}

// DisputeRepository defines data access for disputes.
type DisputeRepository interface {
	// Create inserts the dispute. Returns domain.ErrDisputeExists when the
	// booking was already disputed.
	Create(ctx context.Context, tx Transaction, dispute *domain.Dispute) error
	GetByID(ctx context.Context, id string) (*domain.Dispute, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Dispute, error)
	GetByBookingID(ctx context.Context, bookingID string) (*domain.Dispute, error)
	// Update persists status and resolution fields while the stored status
	// is one of from. Returns domain.ErrInvalidDisputeState when no row matched.
	Update(ctx context.Context, tx Transaction, dispute *domain.Dispute, from []domain.DisputeStatus) error
	List(ctx context.Context, statuses []domain.DisputeStatus, limit, offset int) ([]*domain.Dispute, error)
}

// CounterRepository defines data access for readable ID sequences.
type CounterRepository interface {
	// Increment atomically bumps the (type, period) counter, creating it at 1.
	Increment(ctx context.Context, tx Transaction, counterType domain.CounterType, period string) (int64, error)
	Current(ctx context.Context, counterType domain.CounterType, period string) (int64, error)
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	GetByAggregate(ctx context.Context, aggregateType, aggregateID string, limit, offset int) ([]*domain.OutboxEvent, error)
	// PurgePublished deletes events published before the cutoff and returns how many were removed.
	PurgePublished(ctx context.Context, before time.Time) (int64, error)
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// IsolationLevel selects the database isolation of a transaction.
type IsolationLevel int

const (
	IsolationReadCommitted IsolationLevel = iota
	IsolationRepeatableRead
	IsolationSerializable
)

// TxOptions configures a transaction.
type TxOptions struct {
	Isolation IsolationLevel
	ReadOnly  bool
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
	BeginTx(ctx context.Context, opts TxOptions) (Transaction, error)
}

// Retrier re-runs an operation that failed with a transient database error
// such as a serialization failure or deadlock.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops the key so a failed request can be retried.
	Release(ctx context.Context, key string) error
}

// DeliveryDeduper remembers which notifications were already delivered.
type DeliveryDeduper interface {
	// MarkDelivered records key and reports whether it was seen for the first time.
	MarkDelivered(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Forget removes key so a failed delivery can be attempted again.
	Forget(ctx context.Context, key string) error
}

// Notifier delivers a notification about event to a single user.
type Notifier interface {
	Notify(ctx context.Context, recipient string, event *domain.OutboxEvent) error
}
