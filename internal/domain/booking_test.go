package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestBookingStatus_Transitions(t *testing.T) {
	tests := []struct {
		from, to BookingStatus
		allowed  bool
	}{
		{BookingStatusPendingTeacherApproval, BookingStatusScheduled, true},
		{BookingStatusPendingTeacherApproval, BookingStatusWaitingForPayment, true},
		{BookingStatusPendingTeacherApproval, BookingStatusCompleted, false},
		{BookingStatusWaitingForPayment, BookingStatusScheduled, true},
		{BookingStatusScheduled, BookingStatusPendingConfirmation, true},
		{BookingStatusScheduled, BookingStatusDisputed, true},
		{BookingStatusPendingConfirmation, BookingStatusCancelledByParent, false},
		{BookingStatusPendingConfirmation, BookingStatusCancelledByAdmin, true},
		{BookingStatusDisputed, BookingStatusPartiallyRefunded, true},
		{BookingStatusDisputed, BookingStatusScheduled, false},
		{BookingStatusCompleted, BookingStatusDisputed, false},
		{BookingStatusRejectedByTeacher, BookingStatusScheduled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			if got := tt.from.CanTransitionTo(tt.to); got != tt.allowed {
				t.Errorf("CanTransitionTo = %v, want %v", got, tt.allowed)
			}
		})
	}
}

func TestBookingStatus_ActiveAndTerminalAreDisjoint(t *testing.T) {
	all := []BookingStatus{
		BookingStatusPendingTeacherApproval, BookingStatusWaitingForPayment, BookingStatusScheduled,
		BookingStatusPendingConfirmation, BookingStatusDisputed, BookingStatusCompleted,
		BookingStatusRejectedByTeacher, BookingStatusCancelledByParent, BookingStatusCancelledByTeacher,
		BookingStatusCancelledByAdmin, BookingStatusExpired, BookingStatusRefunded, BookingStatusPartiallyRefunded,
	}

	for _, s := range all {
		if !s.IsValid() {
			t.Errorf("%s should be valid", s)
		}
		if s.IsActive() == s.IsTerminal() {
			t.Errorf("%s must be exactly one of active or terminal", s)
		}
	}

	if BookingStatus("LOST").IsValid() {
		t.Error("unknown status must be invalid")
	}
}

func TestBookingStatus_FundsLocked(t *testing.T) {
	if BookingStatusPendingTeacherApproval.FundsLocked() || BookingStatusWaitingForPayment.FundsLocked() {
		t.Fatal("funds are not locked before approval")
	}
	if !BookingStatusScheduled.FundsLocked() || !BookingStatusDisputed.FundsLocked() {
		t.Fatal("funds must be locked once scheduled")
	}
}

func TestSourcesOf(t *testing.T) {
	sources := SourcesOf(BookingStatusCancelledByParent)
	want := map[BookingStatus]bool{
		BookingStatusPendingTeacherApproval: true,
		BookingStatusWaitingForPayment:      true,
		BookingStatusScheduled:              true,
	}

	if len(sources) != len(want) {
		t.Fatalf("expected %d sources, got %v", len(want), sources)
	}
	for _, s := range sources {
		if !want[s] {
			t.Errorf("unexpected source %s", s)
		}
	}
}

func TestBookingDraft_Validate(t *testing.T) {
	start := time.Date(2024, 10, 1, 15, 0, 0, 0, time.UTC)
	valid := BookingDraft{
		TeacherID:      "teacher-1",
		BookedByUserID: "parent-1",
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
		Price:          decimal.NewFromInt(150),
		CommissionRate: decimal.RequireFromString("0.18"),
	}

	if err := valid.Validate(); err != nil {
		t.Fatalf("expected valid draft, got %v", err)
	}

	selfBooking := valid
	selfBooking.BookedByUserID = "teacher-1"
	if err := selfBooking.Validate(); !errors.Is(err, ErrNotParticipant) {
		t.Errorf("expected ErrNotParticipant, got %v", err)
	}

	badRange := valid
	badRange.EndTime = start
	if err := badRange.Validate(); !errors.Is(err, ErrInvalidTimeRange) {
		t.Errorf("expected ErrInvalidTimeRange, got %v", err)
	}

	badRate := valid
	badRate.CommissionRate = decimal.NewFromInt(2)
	if err := badRate.Validate(); !errors.Is(err, ErrInvalidCommissionRate) {
		t.Errorf("expected ErrInvalidCommissionRate, got %v", err)
	}

	freeLesson := valid
	freeLesson.Price = decimal.Zero
	if err := freeLesson.Validate(); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestBooking_IsOwner(t *testing.T) {
	b := &Booking{BookedByUserID: "parent-1", StudentUserID: "student-1"}

	if !b.IsOwner("parent-1") || !b.IsOwner("student-1") {
		t.Fatal("booker and student must both own the booking")
	}
	if b.IsOwner("teacher-1") || b.IsOwner("") {
		t.Fatal("other users must not own the booking")
	}
}

func TestPaymentDeadline(t *testing.T) {
	now := time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name   string
		start  time.Time
		want   time.Time
		wantOK bool
	}{
		{"window ends first", now.Add(72 * time.Hour), now.Add(24 * time.Hour), true},
		{"lead time ends first", now.Add(10 * time.Hour), now.Add(8 * time.Hour), true},
		{"late approval gets grace period", now.Add(time.Hour), now.Add(MinPaymentWindow), true},
		{"grace capped at start", now.Add(5 * time.Minute), now.Add(5 * time.Minute), true},
		{"session already started", now.Add(-time.Minute), time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := PaymentDeadline(now, tt.start, 24*time.Hour, 2*time.Hour)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !got.Equal(tt.want) {
				t.Errorf("deadline = %s, want %s", got, tt.want)
			}
		})
	}
}
