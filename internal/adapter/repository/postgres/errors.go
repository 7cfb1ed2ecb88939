package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/iho/tutorescrow/internal/domain"
)

// PostgreSQL error codes.
const (
	pgErrUniqueViolation      = "23505"
	pgErrCheckViolation       = "23514"
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

// Constraint names from the migrations.
const (
	activeSlotIndex     = "bookings_active_slot_idx"
	disputeBookingKey   = "disputes_booking_id_key"
	walletBalanceCheck  = "wallets_balance_check"
	walletPendingCheck  = "wallets_pending_balance_check"
	readableIDKeySuffix = "_readable_id_key"
)

// translateError maps constraint violations to domain errors. Errors it
// does not recognise are returned unchanged.
func translateError(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgErrUniqueViolation:
		switch {
		case pgErr.ConstraintName == activeSlotIndex:
			return domain.ErrSlotConflict
		case pgErr.ConstraintName == disputeBookingKey:
			return domain.ErrDisputeExists
		case strings.HasSuffix(pgErr.ConstraintName, readableIDKeySuffix):
			return fmt.Errorf("%w: %s", domain.ErrCounterCollision, pgErr.ConstraintName)
		}
	case pgErrCheckViolation:
		switch pgErr.ConstraintName {
		case walletBalanceCheck:
			return domain.ErrInsufficientBalance
		case walletPendingCheck:
			return domain.ErrFundsNotLocked
		}
	}

	return err
}

// isRetryableError checks if a PostgreSQL error should trigger a retry.
func isRetryableError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure:
			return true
		}
	}
	return false
}
