package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// BookingStatus is the lifecycle state of a booking.
type BookingStatus string

const (
	BookingStatusPendingTeacherApproval BookingStatus = "PENDING_TEACHER_APPROVAL"
	BookingStatusWaitingForPayment      BookingStatus = "WAITING_FOR_PAYMENT"
	BookingStatusScheduled              BookingStatus = "SCHEDULED"
	BookingStatusPendingConfirmation    BookingStatus = "PENDING_CONFIRMATION"
	BookingStatusDisputed               BookingStatus = "DISPUTED"
	BookingStatusCompleted              BookingStatus = "COMPLETED"
	BookingStatusRejectedByTeacher      BookingStatus = "REJECTED_BY_TEACHER"
	BookingStatusCancelledByParent      BookingStatus = "CANCELLED_BY_PARENT"
	BookingStatusCancelledByTeacher     BookingStatus = "CANCELLED_BY_TEACHER"
	BookingStatusCancelledByAdmin       BookingStatus = "CANCELLED_BY_ADMIN"
	BookingStatusExpired                BookingStatus = "EXPIRED"
	BookingStatusRefunded               BookingStatus = "REFUNDED"
	BookingStatusPartiallyRefunded      BookingStatus = "PARTIALLY_REFUNDED"
)

// activeBookingStatuses occupy the teacher's time slot.
var activeBookingStatuses = []BookingStatus{
	BookingStatusPendingTeacherApproval,
	BookingStatusWaitingForPayment,
	BookingStatusScheduled,
	BookingStatusPendingConfirmation,
	BookingStatusDisputed,
}

var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusPendingTeacherApproval: {
		BookingStatusScheduled,
		BookingStatusWaitingForPayment,
		BookingStatusRejectedByTeacher,
		BookingStatusCancelledByParent,
		BookingStatusCancelledByAdmin,
		BookingStatusExpired,
	},
	BookingStatusWaitingForPayment: {
		BookingStatusScheduled,
		BookingStatusCancelledByParent,
		BookingStatusCancelledByTeacher,
		BookingStatusCancelledByAdmin,
		BookingStatusExpired,
	},
	BookingStatusScheduled: {
		BookingStatusPendingConfirmation,
		BookingStatusCompleted,
		BookingStatusDisputed,
		BookingStatusCancelledByParent,
		BookingStatusCancelledByTeacher,
		BookingStatusCancelledByAdmin,
	},
	BookingStatusPendingConfirmation: {
		BookingStatusCompleted,
		BookingStatusDisputed,
		BookingStatusCancelledByAdmin,
	},
	BookingStatusDisputed: {
		BookingStatusCompleted,
		BookingStatusRefunded,
		BookingStatusPartiallyRefunded,
	},
}

// ActiveBookingStatuses returns the statuses that hold a slot.
func ActiveBookingStatuses() []BookingStatus {
	out := make([]BookingStatus, len(activeBookingStatuses))
	copy(out, activeBookingStatuses)
	return out
}

// IsValid reports whether s is a known booking status.
func (s BookingStatus) IsValid() bool {
	if _, ok := bookingTransitions[s]; ok {
		return true
	}
	return s.IsTerminal()
}

// IsActive reports whether the booking still holds the teacher's slot.
func (s BookingStatus) IsActive() bool {
	for _, active := range activeBookingStatuses {
		if s == active {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingStatusCompleted, BookingStatusRejectedByTeacher, BookingStatusCancelledByParent,
		BookingStatusCancelledByTeacher, BookingStatusCancelledByAdmin, BookingStatusExpired,
		BookingStatusRefunded, BookingStatusPartiallyRefunded:
		return true
	}
	return false
}

// FundsLocked reports whether the booking price sits in the payer's pending balance.
func (s BookingStatus) FundsLocked() bool {
	return s == BookingStatusScheduled || s == BookingStatusPendingConfirmation || s == BookingStatusDisputed
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// SourcesOf returns every status that may transition into target.
func SourcesOf(target BookingStatus) []BookingStatus {
	var sources []BookingStatus
	for _, from := range activeBookingStatuses {
		if from.CanTransitionTo(target) {
			sources = append(sources, from)
		}
	}
	return sources
}

// Booking is a reservation of a teacher's slot by a parent or student.
type Booking struct {
	StartTime             time.Time
	EndTime               time.Time
	CreatedAt             time.Time
	UpdatedAt             time.Time
	PaymentDeadline       *time.Time
	DisputeWindowClosesAt *time.Time
	PaymentReleasedAt     *time.Time
	ID                    string
	ReadableID            string
	TeacherID             string
	BookedByUserID        string
	StudentUserID         string
	SubjectID             string
	Notes                 string
	CancelReason          string
	Status                BookingStatus
	Price                 decimal.Decimal
	CommissionRate        decimal.Decimal
}

// Duration returns the booked session length.
func (b *Booking) Duration() time.Duration {
	return b.EndTime.Sub(b.StartTime)
}

// IsOwner reports whether userID may act as the paying side of the booking.
func (b *Booking) IsOwner(userID string) bool {
	return userID != "" && (b.BookedByUserID == userID || b.StudentUserID == userID)
}

// BookingDraft carries the fields a client supplies to reserve a slot.
type BookingDraft struct {
	StartTime      time.Time
	EndTime        time.Time
	TeacherID      string
	BookedByUserID string
	StudentUserID  string
	SubjectID      string
	Notes          string
	Price          decimal.Decimal
	CommissionRate decimal.Decimal
}

// Validate checks the draft before any row is written.
func (d BookingDraft) Validate() error {
	if d.TeacherID == "" || d.BookedByUserID == "" {
		return ErrNotParticipant
	}
	if d.TeacherID == d.BookedByUserID {
		return ErrNotParticipant
	}
	if err := ValidateTimeRange(d.StartTime, d.EndTime); err != nil {
		return err
	}
	if err := ValidateAmount(d.Price); err != nil {
		return err
	}
	return ValidateCommissionRate(d.CommissionRate)
}

// MinPaymentWindow is the grace period granted when the regular payment
// deadline already passed but the session has not started yet.
const MinPaymentWindow = 15 * time.Minute

// PaymentDeadline returns the latest instant a payer may fund an approved
// booking: the earlier of now+window and start-lead. When that is already in
// the past the payer gets MinPaymentWindow, capped at the session start.
// ok is false when the session already started.
func PaymentDeadline(now, start time.Time, window, lead time.Duration) (deadline time.Time, ok bool) {
	deadline = now.Add(window)
	if buffer := start.Add(-lead); buffer.Before(deadline) {
		deadline = buffer
	}
	if deadline.After(now) {
		return deadline, true
	}

	untilStart := start.Sub(now)
	if untilStart <= 0 {
		return time.Time{}, false
	}
	return now.Add(min(MinPaymentWindow, untilStart)), true
}
