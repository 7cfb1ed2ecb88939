package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DisputeStatus is the review state of a dispute.
type DisputeStatus string

const (
	DisputeStatusPending     DisputeStatus = "PENDING"
	DisputeStatusUnderReview DisputeStatus = "UNDER_REVIEW"
	DisputeStatusResolved    DisputeStatus = "RESOLVED"
	DisputeStatusDismissed   DisputeStatus = "DISMISSED"
)

// OpenDisputeStatuses are the statuses from which a dispute may still be resolved.
var OpenDisputeStatuses = []DisputeStatus{DisputeStatusPending, DisputeStatusUnderReview}

// DisputeType is the complaint category chosen by the raiser.
type DisputeType string

const (
	DisputeTypeTeacherNoShow   DisputeType = "TEACHER_NO_SHOW"
	DisputeTypeSessionTooShort DisputeType = "SESSION_TOO_SHORT"
	DisputeTypeQualityIssue    DisputeType = "QUALITY_ISSUE"
	DisputeTypeTechnicalIssue  DisputeType = "TECHNICAL_ISSUE"
	DisputeTypeOther           DisputeType = "OTHER"
)

// IsValid reports whether t is a known dispute type.
func (t DisputeType) IsValid() bool {
	switch t {
	case DisputeTypeTeacherNoShow, DisputeTypeSessionTooShort, DisputeTypeQualityIssue,
		DisputeTypeTechnicalIssue, DisputeTypeOther:
		return true
	}
	return false
}

// ResolutionType is the admin's decision on a dispute.
type ResolutionType string

const (
	ResolutionTeacherWins ResolutionType = "TEACHER_WINS"
	ResolutionStudentWins ResolutionType = "STUDENT_WINS"
	ResolutionSplit       ResolutionType = "SPLIT"
	ResolutionDismissed   ResolutionType = "DISMISSED"
)

// IsValid reports whether r is a known resolution.
func (r ResolutionType) IsValid() bool {
	switch r {
	case ResolutionTeacherWins, ResolutionStudentWins, ResolutionSplit, ResolutionDismissed:
		return true
	}
	return false
}

// DisputeStatus returns the final dispute status for the resolution.
func (r ResolutionType) DisputeStatus() DisputeStatus {
	if r == ResolutionDismissed {
		return DisputeStatusDismissed
	}
	return DisputeStatusResolved
}

// BookingStatus returns the terminal booking status for the resolution.
func (r ResolutionType) BookingStatus() BookingStatus {
	switch r {
	case ResolutionStudentWins:
		return BookingStatusRefunded
	case ResolutionSplit:
		return BookingStatusPartiallyRefunded
	}
	return BookingStatusCompleted
}

// Dispute is a contest over a booking's escrowed payment.
type Dispute struct {
	CreatedAt          time.Time
	UpdatedAt          time.Time
	ResolvedAt         *time.Time
	Resolution         *ResolutionType
	ID                 string
	ReadableID         string
	BookingID          string
	RaisedByUserID     string
	ResolvedByUserID   string
	Description        string
	ResolutionNote     string
	Type               DisputeType
	Status             DisputeStatus
	TeacherPayout      decimal.Decimal
	StudentRefund      decimal.Decimal
	PlatformCommission decimal.Decimal
}

// IsOpen reports whether the dispute still awaits a decision.
func (d *Dispute) IsOpen() bool {
	return d.Status == DisputeStatusPending || d.Status == DisputeStatusUnderReview
}
