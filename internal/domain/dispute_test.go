package domain

import "testing"

func TestResolutionType_Outcomes(t *testing.T) {
	tests := []struct {
		resolution  ResolutionType
		wantDispute DisputeStatus
		wantBooking BookingStatus
	}{
		{ResolutionTeacherWins, DisputeStatusResolved, BookingStatusCompleted},
		{ResolutionDismissed, DisputeStatusDismissed, BookingStatusCompleted},
		{ResolutionStudentWins, DisputeStatusResolved, BookingStatusRefunded},
		{ResolutionSplit, DisputeStatusResolved, BookingStatusPartiallyRefunded},
	}

	for _, tt := range tests {
		t.Run(string(tt.resolution), func(t *testing.T) {
			if got := tt.resolution.DisputeStatus(); got != tt.wantDispute {
				t.Errorf("DisputeStatus = %s, want %s", got, tt.wantDispute)
			}
			if got := tt.resolution.BookingStatus(); got != tt.wantBooking {
				t.Errorf("BookingStatus = %s, want %s", got, tt.wantBooking)
			}
			if !BookingStatusDisputed.CanTransitionTo(tt.resolution.BookingStatus()) {
				t.Errorf("disputed booking cannot move to %s", tt.resolution.BookingStatus())
			}
		})
	}
}

func TestDispute_IsOpen(t *testing.T) {
	for _, status := range OpenDisputeStatuses {
		d := &Dispute{Status: status}
		if !d.IsOpen() {
			t.Errorf("%s should be open", status)
		}
	}

	for _, status := range []DisputeStatus{DisputeStatusResolved, DisputeStatusDismissed} {
		d := &Dispute{Status: status}
		if d.IsOpen() {
			t.Errorf("%s should be closed", status)
		}
	}
}

func TestDisputeType_IsValid(t *testing.T) {
	if !DisputeTypeTeacherNoShow.IsValid() {
		t.Fatal("TEACHER_NO_SHOW must be valid")
	}
	if DisputeType("BORED").IsValid() {
		t.Fatal("unknown type must be invalid")
	}
}
