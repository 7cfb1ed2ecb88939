package postgres

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v4"

	"github.com/iho/tutorescrow/internal/domain"
)

func TestCounterRepositoryIncrement(t *testing.T) {
	pool := newMockPool(t)
	repo := NewCounterRepository(pool)
	tx := beginMockTx(t, pool)

	pool.ExpectQuery(`INSERT INTO readable_id_counters`).
		WithArgs("BOOKING", "2410").
		WillReturnRows(pgxmock.NewRows([]string{"value"}).AddRow(int64(7)))

	value, err := repo.Increment(context.Background(), tx, domain.CounterTypeBooking, "2410")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != 7 {
		t.Fatalf("expected 7, got %d", value)
	}

	assertExpectations(t, pool)
}

func TestCounterRepositoryCurrentUnused(t *testing.T) {
	pool := newMockPool(t)
	repo := NewCounterRepository(pool)

	pool.ExpectQuery(`SELECT value\s+FROM readable_id_counters`).
		WithArgs("WALLET", "GLOBAL").
		WillReturnRows(pgxmock.NewRows([]string{"value"}))

	value, err := repo.Current(context.Background(), domain.CounterTypeWallet, "GLOBAL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value != 0 {
		t.Fatalf("expected 0 for an unused counter, got %d", value)
	}

	assertExpectations(t, pool)
}
