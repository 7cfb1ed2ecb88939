package sweeper

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/tutorescrow/internal/usecase"
)

// Escrow is the part of the escrow engine the worker drives.
type Escrow interface {
	Sweep(ctx context.Context, now time.Time) (*usecase.SweepResult, error)
}

// Worker periodically expires stale bookings and releases bookings whose
// dispute window closed.
type Worker struct {
	escrow   Escrow
	now      func() time.Time
	logger   zerolog.Logger
	interval time.Duration
}

// NewWorker creates a new sweeper Worker.
func NewWorker(escrow Escrow, interval time.Duration, logger zerolog.Logger) *Worker {
	if interval <= 0 {
		interval = time.Minute
	}

	return &Worker{
		escrow:   escrow,
		now:      time.Now,
		logger:   logger.With().Str("component", "sweeper").Logger(),
		interval: interval,
	}
}

// Start runs a pass immediately and then on every tick until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info().Dur("interval", w.interval).Msg("sweeper started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("sweeper shutting down")
			return ctx.Err()
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single sweep and logs its outcome.
func (w *Worker) RunOnce(ctx context.Context) *usecase.SweepResult {
	result, err := w.escrow.Sweep(ctx, w.now().UTC())
	if err != nil {
		w.logger.Error().Err(err).Msg("sweep failed")
		return nil
	}

	if result.Expired+result.Completed+result.Failed > 0 {
		w.logger.Info().
			Int("expired", result.Expired).
			Int("completed", result.Completed).
			Int("failed", result.Failed).
			Msg("sweep finished")
	}

	return result
}
