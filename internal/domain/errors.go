package domain

import "errors"

var (
	// Ledger errors
	ErrInsufficientBalance        = errors.New("balance insufficient")
	ErrWalletNotFound             = errors.New("wallet not found")
	ErrInvalidAmount              = errors.New("amount must be positive")
	ErrTransactionNotFound        = errors.New("transaction not found")
	ErrTransactionAlreadyReviewed = errors.New("transaction already reviewed")
	ErrTransactionNotReviewable   = errors.New("transaction type does not support review")

	// Booking errors
	ErrSlotConflict          = errors.New("time slot no longer available")
	ErrBookingNotFound       = errors.New("booking not found")
	ErrInvalidTransition     = errors.New("booking status transition not allowed")
	ErrInvalidTimeRange      = errors.New("end time must be after start time")
	ErrInvalidCommissionRate = errors.New("commission rate must be between 0 and 1")
	ErrNotParticipant        = errors.New("user is not a participant of this booking")
	ErrFundsNotLocked        = errors.New("booking funds are not held in escrow")

	// Dispute errors
	ErrDisputeNotFound     = errors.New("dispute not found")
	ErrDisputeExists       = errors.New("a dispute already exists for this booking")
	ErrInvalidDisputeState = errors.New("dispute is not pending")
	ErrInvalidDisputeType  = errors.New("invalid dispute type")
	ErrInvalidResolution   = errors.New("invalid resolution type")
	ErrInvalidSplit        = errors.New("split percentage must be between 0 and 100")

	// Invariant violations. These are programming errors and never user recoverable.
	ErrPayoutMismatch   = errors.New("payout and refund do not add up to the locked amount")
	ErrCounterCollision = errors.New("readable id counter issued a non-increasing value")
)
