package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// SweepBatchSize bounds how many bookings one sweeper pass touches per category.
	SweepBatchSize = 100

	// StatsCacheTTL is how long the admin ledger statistics stay cached.
	StatsCacheTTL = 30 * time.Second

	// SystemUserID attributes actions that have no authenticated caller.
	SystemUserID = "system"
)
