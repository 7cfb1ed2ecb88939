package dto

import (
	"encoding/json"
	"reflect"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/usecase"
)

func TestReserveSlotRequest_ToUseCaseInput(t *testing.T) {
	start := time.Date(2026, 5, 4, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		student     string
		wantStudent string
	}{
		{name: "caller books for themselves", student: "", wantStudent: "parent-1"},
		{name: "parent books for child", student: "child-1", wantStudent: "child-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &ReserveSlotRequest{
				StartTime:     start,
				EndTime:       start.Add(time.Hour),
				TeacherID:     "teacher-1",
				StudentUserID: tt.student,
				Price:         decimal.RequireFromString("40.00"),
			}

			got := req.ToUseCaseInput("parent-1")

			if got.BookedByUserID != "parent-1" {
				t.Fatalf("expected payer parent-1, got %s", got.BookedByUserID)
			}
			if got.StudentUserID != tt.wantStudent {
				t.Fatalf("expected student %s, got %s", tt.wantStudent, got.StudentUserID)
			}
			if !got.Price.Equal(req.Price) || !got.StartTime.Equal(start) {
				t.Fatalf("unexpected input: %+v", got)
			}
		})
	}
}

func TestReserveSlotRequest_IgnoresClientCommission(t *testing.T) {
	body := `{"teacher_id":"teacher-1","start_time":"2026-05-04T15:00:00Z","end_time":"2026-05-04T16:00:00Z","price":"40.00"}`
	withRate := `{"teacher_id":"teacher-1","start_time":"2026-05-04T15:00:00Z","end_time":"2026-05-04T16:00:00Z","price":"40.00","commission_rate":"0"}`

	var plain, tampered ReserveSlotRequest
	if err := json.Unmarshal([]byte(body), &plain); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal([]byte(withRate), &tampered); err != nil {
		t.Fatalf("decode: %v", err)
	}

	if !reflect.DeepEqual(plain.ToUseCaseInput("parent-1"), tampered.ToUseCaseInput("parent-1")) {
		t.Fatalf("commission_rate in the body changed the booking input")
	}
}

func TestTransactionRequest_DecodesStringAmount(t *testing.T) {
	var req TransactionRequest
	if err := json.Unmarshal([]byte(`{"amount":"125.50","reference":"bank-1"}`), &req); err != nil {
		t.Fatalf("decode: %v", err)
	}

	got := req.ToUseCaseInput("parent-1", domain.EntryTypeDeposit)
	want := usecase.RequestTransactionInput{
		UserID:    "parent-1",
		Reference: "bank-1",
		Type:      domain.EntryTypeDeposit,
		Amount:    decimal.RequireFromString("125.5"),
	}

	if got.UserID != want.UserID || got.Reference != want.Reference || got.Type != want.Type || !got.Amount.Equal(want.Amount) {
		t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, want)
	}
}

func TestBookingFromDomain_FormatsMoney(t *testing.T) {
	b := &domain.Booking{
		ID:             "b-1",
		ReadableID:     "BK-2605-0001",
		Status:         domain.BookingStatusScheduled,
		Price:          decimal.RequireFromString("40"),
		CommissionRate: decimal.RequireFromString("0.18"),
	}

	resp := ApprovalFromUseCase(&usecase.ApprovalResult{Booking: b, PaymentRequired: true})

	if resp.Price != "40.00" {
		t.Fatalf("expected price 40.00, got %s", resp.Price)
	}
	if resp.CommissionRate != "0.18" {
		t.Fatalf("expected commission rate 0.18, got %s", resp.CommissionRate)
	}
	if resp.Status != "SCHEDULED" || !resp.PaymentRequired {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestDisputeFromDomain_IncludesResolution(t *testing.T) {
	resolution := domain.ResolutionSplit
	d := &domain.Dispute{
		ID:            "d-1",
		Status:        domain.DisputeStatusResolved,
		Resolution:    &resolution,
		TeacherPayout: decimal.RequireFromString("30"),
		StudentRefund: decimal.RequireFromString("70"),
	}

	resp := DisputeFromDomain(d)

	if resp.Resolution != string(domain.ResolutionSplit) {
		t.Fatalf("expected resolution %s, got %s", domain.ResolutionSplit, resp.Resolution)
	}
	if resp.TeacherPayout != "30.00" || resp.StudentRefund != "70.00" || resp.PlatformCommission != "0.00" {
		t.Fatalf("unexpected amounts: %+v", resp)
	}
}

func TestReconciliationFromUseCase(t *testing.T) {
	report := &usecase.ReconciliationReport{
		TotalWallets:      2,
		ReconciledWallets: 1,
		Discrepancies: []*usecase.ReconciliationResult{{
			WalletID:          "w-1",
			RecordedBalance:   decimal.RequireFromString("10"),
			CalculatedBalance: decimal.RequireFromString("5"),
		}},
		Conservation: &usecase.ConservationReport{Consistent: true, WalletTotal: decimal.RequireFromString("15")},
	}

	resp := ReconciliationFromUseCase(report)

	if len(resp.Discrepancies) != 1 || resp.Discrepancies[0].CalculatedBalance != "5.00" {
		t.Fatalf("unexpected discrepancies: %+v", resp.Discrepancies)
	}
	if resp.Conservation == nil || !resp.Conservation.Consistent || resp.Conservation.WalletTotal != "15.00" {
		t.Fatalf("unexpected conservation: %+v", resp.Conservation)
	}
}
