package domain

import "time"

// Event types
const (
	EventTypeBookingRequested     = "booking.requested"
	EventTypeBookingScheduled     = "booking.scheduled"
	EventTypeBookingPaymentNeeded = "booking.payment_required"
	EventTypeBookingSessionEnded  = "booking.session_ended"
	EventTypeBookingCompleted     = "booking.completed"
	EventTypeBookingCancelled     = "booking.cancelled"
	EventTypeBookingExpired       = "booking.expired"
	EventTypeDisputeRaised        = "dispute.raised"
	EventTypeDisputeUnderReview   = "dispute.under_review"
	EventTypeDisputeResolved      = "dispute.resolved"
	EventTypeTransactionRequested = "wallet.transaction_requested"
	EventTypeTransactionReviewed  = "wallet.transaction_reviewed"
)

// Aggregate types
const (
	AggregateTypeBooking     = "booking"
	AggregateTypeDispute     = "dispute"
	AggregateTypeTransaction = "transaction"
)

// OutboxEvent is a notification recorded in the same transaction as the
// state change it describes and delivered after commit.
type OutboxEvent struct {
	CreatedAt     time.Time
	PublishedAt   *time.Time
	Payload       map[string]any
	ID            string
	AggregateID   string
	AggregateType string
	EventType     string
	Recipients    []string
	Published     bool
}

// DedupeKey identifies one delivery of the event to a recipient.
func (e *OutboxEvent) DedupeKey(recipient string) string {
	return e.ID + ":" + recipient
}
