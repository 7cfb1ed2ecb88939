package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/tutorescrow/internal/domain"
)

// CounterUseCase issues human readable identifiers from per-period sequences.
type CounterUseCase struct {
	txManager   TransactionManager
	counterRepo CounterRepository
	logger      zerolog.Logger
}

// NewCounterUseCase creates a new CounterUseCase.
func NewCounterUseCase(txManager TransactionManager, counterRepo CounterRepository, logger zerolog.Logger) *CounterUseCase {
	return &CounterUseCase{
		txManager:   txManager,
		counterRepo: counterRepo,
		logger:      logger.With().Str("component", "counter").Logger(),
	}
}

// Next returns the next value of the (counterType, period) sequence in its
// own transaction.
func (uc *CounterUseCase) Next(ctx context.Context, counterType domain.CounterType, period string) (int64, error) {
	var value int64

	err := inTx(ctx, uc.txManager, TxOptions{}, func(ctx context.Context, tx Transaction) error {
		var err error
		value, err = uc.nextValue(ctx, tx, counterType, period)
		return err
	})
	if err != nil {
		return 0, err
	}

	return value, nil
}

// Current returns the last issued value, zero when the sequence is unused.
func (uc *CounterUseCase) Current(ctx context.Context, counterType domain.CounterType, period string) (int64, error) {
	return uc.counterRepo.Current(ctx, counterType, period)
}

// NextReadableID issues a readable identifier inside tx, so the sequence
// advances only if the caller's transaction commits.
func (uc *CounterUseCase) NextReadableID(ctx context.Context, tx Transaction, counterType domain.CounterType, at time.Time) (string, error) {
	period := domain.CounterPeriod(counterType, at)

	value, err := uc.nextValue(ctx, tx, counterType, period)
	if err != nil {
		return "", err
	}

	return domain.FormatReadableID(counterType, period, value), nil
}

func (uc *CounterUseCase) nextValue(ctx context.Context, tx Transaction, counterType domain.CounterType, period string) (int64, error) {
	if !counterType.IsValid() {
		return 0, fmt.Errorf("unknown counter type %q", counterType)
	}

	value, err := uc.counterRepo.Increment(ctx, tx, counterType, period)
	if err != nil {
		return 0, err
	}

	if value < 1 {
		uc.logger.Error().
			Str("counter_type", string(counterType)).
			Str("period", period).
			Int64("value", value).
			Msg("counter returned a non-positive value")
		return 0, domain.ErrCounterCollision
	}

	return value, nil
}
