package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrAmountTooLarge   = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall   = errors.New("amount below minimum allowed")
	ErrTooManyDecimals  = errors.New("amount has more than two decimal places")
	ErrMetadataTooLarge = errors.New("metadata size exceeds limit")
	ErrNoteTooLong      = errors.New("note exceeds maximum length")
	ErrSessionTooLong   = errors.New("session exceeds maximum duration")
)

// Validation constants
const (
	MaxNoteLength      = 1000
	MaxMetadataSize    = 10240     // 10KB
	MaxAmount          = "1000000" // single wallet movement
	MinAmount          = "0.01"
	MaxSessionDuration = 8 * time.Hour
)

// ValidateAmount validates a money amount moving through the ledger.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	minAmount, _ := decimal.NewFromString(MinAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxAmount)
	}

	if !amount.Equal(Round2(amount)) {
		return ErrTooManyDecimals
	}

	return nil
}

// ValidateCommissionRate checks that rate is a fraction in [0, 1].
func ValidateCommissionRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return ErrInvalidCommissionRate
	}
	return nil
}

// ValidateSplitPercent checks that a teacher share is in [0, 100].
func ValidateSplitPercent(percent decimal.Decimal) error {
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return ErrInvalidSplit
	}
	return nil
}

// ValidateTimeRange checks a session's bounds.
func ValidateTimeRange(start, end time.Time) error {
	if start.IsZero() || !end.After(start) {
		return ErrInvalidTimeRange
	}
	if end.Sub(start) > MaxSessionDuration {
		return fmt.Errorf("%w: maximum is %s", ErrSessionTooLong, MaxSessionDuration)
	}
	return nil
}

// ValidateNote validates free text attached to entries, bookings and disputes.
func ValidateNote(note string) error {
	if len(strings.TrimSpace(note)) > MaxNoteLength {
		return fmt.Errorf("%w: %d characters allowed", ErrNoteTooLong, MaxNoteLength)
	}
	return nil
}

// ValidateMetadata validates metadata size
func ValidateMetadata(metadata map[string]any) error {
	if metadata == nil {
		return nil
	}

	// Estimate size (rough approximation)
	size := 0
	for k, v := range metadata {
		size += len(k)
		size += len(fmt.Sprintf("%v", v))
	}

	if size > MaxMetadataSize {
		return fmt.Errorf("%w: metadata size %d bytes exceeds limit of %d bytes", ErrMetadataTooLarge, size, MaxMetadataSize)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
