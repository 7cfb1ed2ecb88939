package domain

import (
	"encoding/json"
	"time"
)

// AuditLog records an administrative action for compliance and debugging.
type AuditLog struct {
	CreatedAt    time.Time
	BeforeState  JSON
	AfterState   JSON
	ID           string
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	RequestID    string
	Status       string
	ErrorMessage string
}

// JSON is a type alias for JSON data
type JSON map[string]any

// AuditAction represents different types of auditable actions
type AuditAction string

const (
	AuditActionTransactionReview AuditAction = "transaction.review"
	AuditActionDisputeReview     AuditAction = "dispute.review"
	AuditActionDisputeResolve    AuditAction = "dispute.resolve"
	AuditActionBookingCancel     AuditAction = "booking.cancel"
	AuditActionBookingComplete   AuditAction = "booking.complete"
)

// AuditStatus represents the status of an audited action
type AuditStatus string

const (
	AuditStatusSuccess AuditStatus = "success"
	AuditStatusFailure AuditStatus = "failure"
)

// MarshalState converts a domain object to JSON for audit logging
func MarshalState(v any) JSON {
	if v == nil {
		return nil
	}

	data, err := json.Marshal(v)
	if err != nil {
		return JSON{"error": "failed to marshal state"}
	}

	var result JSON
	if err := json.Unmarshal(data, &result); err != nil {
		return JSON{"error": "failed to unmarshal state"}
	}

	return result
}

// AuditFilter narrows an audit log query.
type AuditFilter struct {
	StartDate    *time.Time
	EndDate      *time.Time
	UserID       string
	Action       string
	ResourceType string
	ResourceID   string
	Limit        int
	Offset       int
}
