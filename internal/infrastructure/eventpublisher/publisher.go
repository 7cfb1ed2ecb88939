package eventpublisher

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/infrastructure/metrics"
	"github.com/iho/tutorescrow/internal/usecase"
)

// EventPublisher delivers committed outbox events to every recipient through
// the notification collaborator. An event is marked published once all of its
// recipients were notified; a failed recipient leaves the event for the next
// poll, and the per-recipient dedupe key keeps the others from being notified
// twice. Delivery never touches ledger state.
type EventPublisher struct {
	outboxRepo usecase.OutboxRepository
	notifier   usecase.Notifier
	deduper    usecase.DeliveryDeduper
	metrics    *metrics.Metrics
	now        func() time.Time
	logger     zerolog.Logger
	lastPurge  time.Time
	batchSize  int
	interval   time.Duration
	dedupeTTL  time.Duration
	retention  time.Duration
}

// Config for EventPublisher.
type Config struct {
	OutboxRepo usecase.OutboxRepository
	Notifier   usecase.Notifier
	Deduper    usecase.DeliveryDeduper // optional
	Metrics    *metrics.Metrics        // optional
	Logger     zerolog.Logger
	BatchSize  int           // Number of events to fetch per batch
	Interval   time.Duration // Polling interval
	DedupeTTL  time.Duration // How long a delivery is remembered
	Retention  time.Duration // Published events older than this are purged; 0 keeps them
}

// purgeEvery bounds how often the retention cleanup runs.
const purgeEvery = time.Hour

// NewEventPublisher creates a new EventPublisher.
func NewEventPublisher(cfg Config) *EventPublisher {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.Interval == 0 {
		cfg.Interval = 5 * time.Second
	}
	if cfg.DedupeTTL == 0 {
		cfg.DedupeTTL = 72 * time.Hour
	}

	return &EventPublisher{
		outboxRepo: cfg.OutboxRepo,
		notifier:   cfg.Notifier,
		deduper:    cfg.Deduper,
		metrics:    cfg.Metrics,
		now:        time.Now,
		logger:     cfg.Logger.With().Str("component", "event_publisher").Logger(),
		batchSize:  cfg.BatchSize,
		interval:   cfg.Interval,
		dedupeTTL:  cfg.DedupeTTL,
		retention:  cfg.Retention,
	}
}

// Start begins the event publishing worker.
// It runs continuously until the context is cancelled.
func (ep *EventPublisher) Start(ctx context.Context) error {
	ep.logger.Info().
		Int("batch_size", ep.batchSize).
		Dur("interval", ep.interval).
		Msg("event publisher started")

	ticker := time.NewTicker(ep.interval)
	defer ticker.Stop()

	if _, err := ep.ProcessOnce(ctx); err != nil {
		ep.logger.Error().Err(err).Msg("error processing events on start")
	}

	for {
		select {
		case <-ctx.Done():
			ep.logger.Info().Msg("event publisher shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := ep.ProcessOnce(ctx); err != nil {
				ep.logger.Error().Err(err).Msg("error processing events")
			}
			ep.maybePurge(ctx)
		}
	}
}

// ProcessOnce delivers one batch of unpublished events and returns how many
// of them were marked published.
func (ep *EventPublisher) ProcessOnce(ctx context.Context) (int, error) {
	events, err := ep.outboxRepo.GetUnpublished(ctx, ep.batchSize)
	if err != nil {
		return 0, err
	}

	if len(events) == 0 {
		return 0, nil
	}

	ep.logger.Debug().Int("count", len(events)).Msg("processing events")

	published := 0
	for _, event := range events {
		if err := ep.publishEvent(ctx, event); err != nil {
			ep.logger.Warn().
				Err(err).
				Str("event_id", event.ID).
				Str("event_type", event.EventType).
				Msg("failed to deliver event, will retry")
			continue
		}

		if err := ep.outboxRepo.MarkPublished(ctx, event.ID, ep.now()); err != nil {
			ep.logger.Error().
				Err(err).
				Str("event_id", event.ID).
				Msg("failed to mark event as published")
			continue
		}

		published++
	}

	return published, nil
}

func (ep *EventPublisher) maybePurge(ctx context.Context) {
	if ep.retention <= 0 || ep.now().Sub(ep.lastPurge) < purgeEvery {
		return
	}

	if _, err := ep.Purge(ctx); err != nil {
		ep.logger.Error().Err(err).Msg("failed to purge published events")
	}
}

// Purge deletes events published longer ago than the retention period.
func (ep *EventPublisher) Purge(ctx context.Context) (int64, error) {
	if ep.retention <= 0 {
		return 0, nil
	}

	now := ep.now()
	removed, err := ep.outboxRepo.PurgePublished(ctx, now.Add(-ep.retention))
	if err != nil {
		return 0, err
	}
	ep.lastPurge = now

	if removed > 0 {
		ep.logger.Info().Int64("removed", removed).Msg("purged published events")
	}

	return removed, nil
}

// publishEvent notifies every recipient of event that was not notified yet.
func (ep *EventPublisher) publishEvent(ctx context.Context, event *domain.OutboxEvent) error {
	var errs []error

	for _, recipient := range event.Recipients {
		if recipient == "" {
			continue
		}
		if err := ep.deliver(ctx, event, recipient); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (ep *EventPublisher) deliver(ctx context.Context, event *domain.OutboxEvent, recipient string) error {
	key := DeliveryKey(event.ID, recipient)

	if ep.deduper != nil {
		first, err := ep.deduper.MarkDelivered(ctx, key, ep.dedupeTTL)
		if err != nil {
			ep.count("failed")
			return err
		}
		if !first {
			ep.count("duplicate")
			return nil
		}
	}

	if err := ep.notifier.Notify(ctx, recipient, event); err != nil {
		ep.count("failed")
		if ep.deduper != nil {
			if ferr := ep.deduper.Forget(ctx, key); ferr != nil {
				ep.logger.Error().Err(ferr).Str("key", key).Msg("failed to clear delivery marker")
			}
		}
		return err
	}

	ep.count("delivered")
	ep.logger.Debug().
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("recipient", recipient).
		Msg("notification delivered")

	return nil
}

func (ep *EventPublisher) count(outcome string) {
	if ep.metrics != nil {
		ep.metrics.NotificationsSent.WithLabelValues(outcome).Inc()
	}
}

// DeliveryKey identifies the delivery of one event to one recipient.
func DeliveryKey(eventID, recipient string) string {
	return eventID + ":" + recipient
}

// LogNotifier is a notifier that writes notifications to the log.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With().Str("component", "notifier").Logger()}
}

// Notify logs the event for recipient.
func (n *LogNotifier) Notify(ctx context.Context, recipient string, event *domain.OutboxEvent) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return err
	}

	n.logger.Info().
		Str("recipient", recipient).
		Str("event_id", event.ID).
		Str("event_type", event.EventType).
		Str("aggregate_type", event.AggregateType).
		Str("aggregate_id", event.AggregateID).
		RawJSON("payload", payload).
		Msg("notification")

	return nil
}
