package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/usecase"
)

// TransactionRequest asks for a deposit or withdrawal to be reviewed.
type TransactionRequest struct {
	Reference string          `json:"reference"`
	Note      string          `json:"note"`
	Amount    decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *TransactionRequest) ToUseCaseInput(userID string, entryType domain.EntryType) usecase.RequestTransactionInput {
	return usecase.RequestTransactionInput{
		UserID:    userID,
		Reference: r.Reference,
		Note:      r.Note,
		Type:      entryType,
		Amount:    r.Amount,
	}
}

// ReviewTransactionRequest is an admin decision on a pending transaction.
type ReviewTransactionRequest struct {
	Note    string `json:"note"`
	Approve bool   `json:"approve"`
}

// ReserveSlotRequest represents a request to book a teacher's slot.
type ReserveSlotRequest struct {
	StartTime     time.Time       `json:"start_time"`
	EndTime       time.Time       `json:"end_time"`
	TeacherID     string          `json:"teacher_id"`
	StudentUserID string          `json:"student_user_id"`
	SubjectID     string          `json:"subject_id"`
	Notes         string          `json:"notes"`
	Price         decimal.Decimal `json:"price"`
}

// ToUseCaseInput converts to use case input. The caller becomes the payer;
// without an explicit student the caller is also the student.
func (r *ReserveSlotRequest) ToUseCaseInput(callerID string) usecase.ReserveSlotInput {
	student := r.StudentUserID
	if student == "" {
		student = callerID
	}

	return usecase.ReserveSlotInput{
		StartTime:      r.StartTime,
		EndTime:        r.EndTime,
		TeacherID:      r.TeacherID,
		BookedByUserID: callerID,
		StudentUserID:  student,
		SubjectID:      r.SubjectID,
		Notes:          r.Notes,
		Price:          r.Price,
	}
}

// ApproveBookingRequest is a teacher's acceptance of a booking.
type ApproveBookingRequest struct {
	AllowWaitingForPayment bool `json:"allow_waiting_for_payment"`
}

// ReasonRequest carries a free-text reason for rejections and cancellations.
type ReasonRequest struct {
	Reason string `json:"reason"`
}

// RaiseDisputeRequest opens a dispute on a booking.
type RaiseDisputeRequest struct {
	Type        domain.DisputeType `json:"type"`
	Description string             `json:"description"`
}

// ToUseCaseInput converts to use case input.
func (r *RaiseDisputeRequest) ToUseCaseInput(bookingID, userID string) usecase.RaiseDisputeInput {
	return usecase.RaiseDisputeInput{
		BookingID:   bookingID,
		UserID:      userID,
		Description: r.Description,
		Type:        r.Type,
	}
}

// ResolveDisputeRequest is an admin's decision on a dispute.
type ResolveDisputeRequest struct {
	Resolution     domain.ResolutionType `json:"resolution"`
	Note           string                `json:"note"`
	TeacherPercent decimal.Decimal       `json:"teacher_percent"`
}

// ToUseCaseInput converts to use case input.
func (r *ResolveDisputeRequest) ToUseCaseInput(disputeID string) usecase.ResolveDisputeInput {
	return usecase.ResolveDisputeInput{
		DisputeID:      disputeID,
		Note:           r.Note,
		Resolution:     r.Resolution,
		TeacherPercent: r.TeacherPercent,
	}
}
