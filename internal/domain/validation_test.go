package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestValidateAmount(t *testing.T) {
	t.Parallel()

	if err := ValidateAmount(decimal.NewFromFloat(100.25)); err != nil {
		t.Fatalf("expected valid amount, got %v", err)
	}

	if err := ValidateAmount(decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}

	if err := ValidateAmount(decimal.NewFromFloat(0.001)); !errors.Is(err, ErrAmountTooSmall) {
		t.Fatalf("expected ErrAmountTooSmall, got %v", err)
	}

	if err := ValidateAmount(decimal.RequireFromString("10.005")); !errors.Is(err, ErrTooManyDecimals) {
		t.Fatalf("expected ErrTooManyDecimals, got %v", err)
	}

	huge := decimal.RequireFromString(MaxAmount).Add(decimal.NewFromInt(1))
	if err := ValidateAmount(huge); !errors.Is(err, ErrAmountTooLarge) {
		t.Fatalf("expected ErrAmountTooLarge, got %v", err)
	}
}

func TestValidateCommissionRate(t *testing.T) {
	t.Parallel()

	for _, rate := range []string{"0", "0.18", "1"} {
		if err := ValidateCommissionRate(decimal.RequireFromString(rate)); err != nil {
			t.Errorf("rate %s: unexpected error %v", rate, err)
		}
	}

	for _, rate := range []string{"-0.01", "1.01"} {
		if err := ValidateCommissionRate(decimal.RequireFromString(rate)); !errors.Is(err, ErrInvalidCommissionRate) {
			t.Errorf("rate %s: expected ErrInvalidCommissionRate, got %v", rate, err)
		}
	}
}

func TestValidateTimeRange(t *testing.T) {
	t.Parallel()

	start := time.Date(2024, 10, 1, 10, 0, 0, 0, time.UTC)

	if err := ValidateTimeRange(start, start.Add(time.Hour)); err != nil {
		t.Fatalf("expected valid range, got %v", err)
	}
	if err := ValidateTimeRange(start, start); !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
	if err := ValidateTimeRange(start, start.Add(-time.Minute)); !errors.Is(err, ErrInvalidTimeRange) {
		t.Fatalf("expected ErrInvalidTimeRange, got %v", err)
	}
	if err := ValidateTimeRange(start, start.Add(9*time.Hour)); !errors.Is(err, ErrSessionTooLong) {
		t.Fatalf("expected ErrSessionTooLong, got %v", err)
	}
}

func TestValidateNote(t *testing.T) {
	t.Parallel()

	if err := ValidateNote("quick note"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := ValidateNote(strings.Repeat("x", MaxNoteLength+1)); !errors.Is(err, ErrNoteTooLong) {
		t.Fatalf("expected ErrNoteTooLong, got %v", err)
	}
}

func TestValidateMetadata(t *testing.T) {
	t.Parallel()

	if err := ValidateMetadata(nil); err != nil {
		t.Fatalf("expected nil metadata to pass, got %v", err)
	}

	big := map[string]any{"blob": strings.Repeat("a", MaxMetadataSize+1)}
	if err := ValidateMetadata(big); !errors.Is(err, ErrMetadataTooLarge) {
		t.Fatalf("expected ErrMetadataTooLarge, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	limit, offset, _ := ValidatePagination(0, -5)
	if limit != 50 || offset != 0 {
		t.Fatalf("expected defaults 50/0, got %d/%d", limit, offset)
	}

	limit, _, _ = ValidatePagination(5000, 0)
	if limit != 1000 {
		t.Fatalf("expected limit capped at 1000, got %d", limit)
	}
}
