package usecase

import (
	"context"
	"time"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/infrastructure/metrics"
)

func newOutboxEvent(
	idGen IDGenerator,
	aggregateType, aggregateID, eventType string,
	recipients []string,
	payload map[string]any,
	now time.Time,
) *domain.OutboxEvent {
	return &domain.OutboxEvent{
		ID:            idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Recipients:    recipients,
		Payload:       payload,
		CreatedAt:     now,
	}
}

// auditRecord describes an admin action written in the same transaction as its effects.
type auditRecord struct {
	before       any
	after        any
	action       domain.AuditAction
	resourceType string
	resourceID   string
}

func writeAudit(ctx context.Context, tx Transaction, repo AuditRepository, idGen IDGenerator, m *metrics.Metrics, rec auditRecord, now time.Time) error {
	if repo == nil {
		return nil
	}

	log := &domain.AuditLog{
		ID:           idGen.Generate(),
		UserID:       actorID(ctx),
		Action:       string(rec.action),
		ResourceType: rec.resourceType,
		ResourceID:   rec.resourceID,
		BeforeState:  domain.MarshalState(rec.before),
		AfterState:   domain.MarshalState(rec.after),
		Status:       string(domain.AuditStatusSuccess),
		CreatedAt:    now,
	}

	if err := repo.CreateTx(ctx, tx, log); err != nil {
		return err
	}

	if m != nil {
		m.AuditLogsCreated.WithLabelValues(log.Action, log.Status).Inc()
	}

	return nil
}

func bookingPayload(b *domain.Booking) map[string]any {
	return map[string]any{
		"booking_id":  b.ID,
		"readable_id": b.ReadableID,
		"teacher_id":  b.TeacherID,
		"booked_by":   b.BookedByUserID,
		"status":      string(b.Status),
		"start_time":  b.StartTime.UTC().Format(time.RFC3339),
		"price":       b.Price.StringFixed(domain.MoneyScale),
	}
}

func bookingParties(b *domain.Booking) []string {
	return []string{b.BookedByUserID, b.TeacherID}
}
