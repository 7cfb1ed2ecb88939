package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/infrastructure/postgres/generated"
	"github.com/iho/tutorescrow/internal/usecase"
)

// CounterRepository implements usecase.CounterRepository with an upsert that
// increments under the row lock, so concurrent callers always get distinct
// values and a rolled back caller releases its value.
type CounterRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewCounterRepository creates a new CounterRepository.
func NewCounterRepository(db generated.DBTX) *CounterRepository {
	return &CounterRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// Increment bumps the (type, period) counter and returns the new value.
func (r *CounterRepository) Increment(ctx context.Context, tx usecase.Transaction, counterType domain.CounterType, period string) (int64, error) {
	return queriesFor(r.db, tx).IncrementCounter(ctx, generated.IncrementCounterParams{
		CounterType: string(counterType),
		Period:      period,
	})
}

// Current returns the last issued value, or 0 when nothing was issued yet.
func (r *CounterRepository) Current(ctx context.Context, counterType domain.CounterType, period string) (int64, error) {
	value, err := r.queries.GetCounter(ctx, generated.GetCounterParams{
		CounterType: string(counterType),
		Period:      period,
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}

	return value, err
}
