package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/usecase"
)

// WalletResponse represents a wallet in API responses.
type WalletResponse struct {
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
	ID             string    `json:"id"`
	ReadableID     string    `json:"readable_id"`
	UserID         string    `json:"user_id"`
	Balance        string    `json:"balance"`
	PendingBalance string    `json:"pending_balance"`
	Version        int64     `json:"version"`
}

// WalletFromDomain converts a domain wallet to a response.
func WalletFromDomain(w *domain.Wallet) *WalletResponse {
	return &WalletResponse{
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
		ID:             w.ID,
		ReadableID:     w.ReadableID,
		UserID:         w.UserID,
		Balance:        money(w.Balance),
		PendingBalance: money(w.PendingBalance),
		Version:        w.Version,
	}
}

// WalletsFromDomain converts domain wallets to responses.
func WalletsFromDomain(wallets []*domain.Wallet) []*WalletResponse {
	result := make([]*WalletResponse, len(wallets))
	for i, w := range wallets {
		result[i] = WalletFromDomain(w)
	}
	return result
}

// LedgerEntryResponse represents a ledger entry in API responses.
type LedgerEntryResponse struct {
	CreatedAt  time.Time      `json:"created_at"`
	ReviewedAt *time.Time     `json:"reviewed_at,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	BookingID  *string        `json:"booking_id,omitempty"`
	ID         string         `json:"id"`
	ReadableID string         `json:"readable_id"`
	WalletID   string         `json:"wallet_id"`
	Type       string         `json:"type"`
	Status     string         `json:"status"`
	Amount     string         `json:"amount"`
	Note       string         `json:"note,omitempty"`
	ReviewNote string         `json:"review_note,omitempty"`
}

// LedgerEntryFromDomain converts a domain entry to a response.
func LedgerEntryFromDomain(e *domain.LedgerEntry) *LedgerEntryResponse {
	return &LedgerEntryResponse{
		CreatedAt:  e.CreatedAt,
		ReviewedAt: e.ReviewedAt,
		Metadata:   e.Metadata,
		BookingID:  e.BookingID,
		ID:         e.ID,
		ReadableID: e.ReadableID,
		WalletID:   e.WalletID,
		Type:       string(e.Type),
		Status:     string(e.Status),
		Amount:     money(e.Amount),
		Note:       e.Note,
		ReviewNote: e.ReviewNote,
	}
}

// LedgerEntriesFromDomain converts domain entries to responses.
func LedgerEntriesFromDomain(entries []*domain.LedgerEntry) []*LedgerEntryResponse {
	result := make([]*LedgerEntryResponse, len(entries))
	for i, e := range entries {
		result[i] = LedgerEntryFromDomain(e)
	}
	return result
}

// BookingResponse represents a booking in API responses.
type BookingResponse struct {
	StartTime             time.Time  `json:"start_time"`
	EndTime               time.Time  `json:"end_time"`
	CreatedAt             time.Time  `json:"created_at"`
	UpdatedAt             time.Time  `json:"updated_at"`
	PaymentDeadline       *time.Time `json:"payment_deadline,omitempty"`
	DisputeWindowClosesAt *time.Time `json:"dispute_window_closes_at,omitempty"`
	PaymentReleasedAt     *time.Time `json:"payment_released_at,omitempty"`
	ID                    string     `json:"id"`
	ReadableID            string     `json:"readable_id"`
	TeacherID             string     `json:"teacher_id"`
	BookedByUserID        string     `json:"booked_by_user_id"`
	StudentUserID         string     `json:"student_user_id"`
	SubjectID             string     `json:"subject_id,omitempty"`
	Notes                 string     `json:"notes,omitempty"`
	CancelReason          string     `json:"cancel_reason,omitempty"`
	Status                string     `json:"status"`
	Price                 string     `json:"price"`
	CommissionRate        string     `json:"commission_rate"`
	PaymentRequired       bool       `json:"payment_required,omitempty"`
}

// BookingFromDomain converts a domain booking to a response.
func BookingFromDomain(b *domain.Booking) *BookingResponse {
	return &BookingResponse{
		StartTime:             b.StartTime,
		EndTime:               b.EndTime,
		CreatedAt:             b.CreatedAt,
		UpdatedAt:             b.UpdatedAt,
		PaymentDeadline:       b.PaymentDeadline,
		DisputeWindowClosesAt: b.DisputeWindowClosesAt,
		PaymentReleasedAt:     b.PaymentReleasedAt,
		ID:                    b.ID,
		ReadableID:            b.ReadableID,
		TeacherID:             b.TeacherID,
		BookedByUserID:        b.BookedByUserID,
		StudentUserID:         b.StudentUserID,
		SubjectID:             b.SubjectID,
		Notes:                 b.Notes,
		CancelReason:          b.CancelReason,
		Status:                string(b.Status),
		Price:                 money(b.Price),
		CommissionRate:        b.CommissionRate.String(),
	}
}

// BookingsFromDomain converts domain bookings to responses.
func BookingsFromDomain(bookings []*domain.Booking) []*BookingResponse {
	result := make([]*BookingResponse, len(bookings))
	for i, b := range bookings {
		result[i] = BookingFromDomain(b)
	}
	return result
}

// ApprovalFromUseCase converts an approval result to a booking response.
func ApprovalFromUseCase(r *usecase.ApprovalResult) *BookingResponse {
	resp := BookingFromDomain(r.Booking)
	resp.PaymentRequired = r.PaymentRequired
	return resp
}

// DisputeResponse represents a dispute in API responses.
type DisputeResponse struct {
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
	ResolvedAt         *time.Time `json:"resolved_at,omitempty"`
	Resolution         string     `json:"resolution,omitempty"`
	ID                 string     `json:"id"`
	ReadableID         string     `json:"readable_id"`
	BookingID          string     `json:"booking_id"`
	RaisedByUserID     string     `json:"raised_by_user_id"`
	ResolvedByUserID   string     `json:"resolved_by_user_id,omitempty"`
	Description        string     `json:"description"`
	ResolutionNote     string     `json:"resolution_note,omitempty"`
	Type               string     `json:"type"`
	Status             string     `json:"status"`
	TeacherPayout      string     `json:"teacher_payout"`
	StudentRefund      string     `json:"student_refund"`
	PlatformCommission string     `json:"platform_commission"`
}

// DisputeFromDomain converts a domain dispute to a response.
func DisputeFromDomain(d *domain.Dispute) *DisputeResponse {
	resp := &DisputeResponse{
		CreatedAt:          d.CreatedAt,
		UpdatedAt:          d.UpdatedAt,
		ResolvedAt:         d.ResolvedAt,
		ID:                 d.ID,
		ReadableID:         d.ReadableID,
		BookingID:          d.BookingID,
		RaisedByUserID:     d.RaisedByUserID,
		ResolvedByUserID:   d.ResolvedByUserID,
		Description:        d.Description,
		ResolutionNote:     d.ResolutionNote,
		Type:               string(d.Type),
		Status:             string(d.Status),
		TeacherPayout:      money(d.TeacherPayout),
		StudentRefund:      money(d.StudentRefund),
		PlatformCommission: money(d.PlatformCommission),
	}
	if d.Resolution != nil {
		resp.Resolution = string(*d.Resolution)
	}
	return resp
}

// DisputesFromDomain converts domain disputes to responses.
func DisputesFromDomain(disputes []*domain.Dispute) []*DisputeResponse {
	result := make([]*DisputeResponse, len(disputes))
	for i, d := range disputes {
		result[i] = DisputeFromDomain(d)
	}
	return result
}

// AuditLogResponse represents an audit log row in API responses.
type AuditLogResponse struct {
	CreatedAt    time.Time   `json:"created_at"`
	BeforeState  domain.JSON `json:"before_state,omitempty"`
	AfterState   domain.JSON `json:"after_state,omitempty"`
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Action       string      `json:"action"`
	ResourceType string      `json:"resource_type"`
	ResourceID   string      `json:"resource_id"`
	Status       string      `json:"status"`
}

// AuditLogsFromDomain converts audit logs to responses.
func AuditLogsFromDomain(logs []*domain.AuditLog) []*AuditLogResponse {
	result := make([]*AuditLogResponse, len(logs))
	for i, l := range logs {
		result[i] = &AuditLogResponse{
			CreatedAt:    l.CreatedAt,
			BeforeState:  l.BeforeState,
			AfterState:   l.AfterState,
			ID:           l.ID,
			UserID:       l.UserID,
			Action:       l.Action,
			ResourceType: l.ResourceType,
			ResourceID:   l.ResourceID,
			Status:       l.Status,
		}
	}
	return result
}

// ReconciliationResponse summarises a reconciliation run.
type ReconciliationResponse struct {
	CheckedAt         time.Time             `json:"checked_at"`
	Discrepancies     []*WalletDiscrepancy  `json:"discrepancies"`
	Conservation      *ConservationResponse `json:"conservation,omitempty"`
	TotalWallets      int                   `json:"total_wallets"`
	ReconciledWallets int                   `json:"reconciled_wallets"`
	LedgerConsistent  bool                  `json:"ledger_consistent"`
}

// WalletDiscrepancy is a wallet whose stored balances disagree with its entries.
type WalletDiscrepancy struct {
	WalletID          string `json:"wallet_id"`
	ReadableID        string `json:"readable_id"`
	RecordedBalance   string `json:"recorded_balance"`
	CalculatedBalance string `json:"calculated_balance"`
	RecordedPending   string `json:"recorded_pending"`
	CalculatedPending string `json:"calculated_pending"`
	EntryCount        int    `json:"entry_count"`
}

// ConservationResponse reports the system-wide money conservation check.
type ConservationResponse struct {
	WalletTotal        string `json:"wallet_total"`
	ExpectedTotal      string `json:"expected_total"`
	EscrowHeld         string `json:"escrow_held"`
	ExpectedEscrow     string `json:"expected_escrow"`
	Deposits           string `json:"deposits"`
	Withdrawals        string `json:"withdrawals"`
	CommissionRetained string `json:"commission_retained"`
	Consistent         bool   `json:"consistent"`
}

// ReconciliationFromUseCase converts a reconciliation report to a response.
func ReconciliationFromUseCase(r *usecase.ReconciliationReport) *ReconciliationResponse {
	resp := &ReconciliationResponse{
		CheckedAt:         r.CheckedAt,
		Discrepancies:     make([]*WalletDiscrepancy, len(r.Discrepancies)),
		TotalWallets:      r.TotalWallets,
		ReconciledWallets: r.ReconciledWallets,
		LedgerConsistent:  r.LedgerConsistent,
	}

	for i, d := range r.Discrepancies {
		resp.Discrepancies[i] = &WalletDiscrepancy{
			WalletID:          d.WalletID,
			ReadableID:        d.ReadableID,
			RecordedBalance:   money(d.RecordedBalance),
			CalculatedBalance: money(d.CalculatedBalance),
			RecordedPending:   money(d.RecordedPending),
			CalculatedPending: money(d.CalculatedPending),
			EntryCount:        d.EntryCount,
		}
	}

	if c := r.Conservation; c != nil {
		resp.Conservation = &ConservationResponse{
			WalletTotal:        money(c.WalletTotal),
			ExpectedTotal:      money(c.ExpectedTotal),
			EscrowHeld:         money(c.EscrowHeld),
			ExpectedEscrow:     money(c.ExpectedEscrow),
			Deposits:           money(c.Deposits),
			Withdrawals:        money(c.Withdrawals),
			CommissionRetained: money(c.CommissionRetained),
			Consistent:         c.Consistent,
		}
	}

	return resp
}

// ListResponse wraps a page of items.
type ListResponse[T any] struct {
	Items  []T `json:"items"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

func money(d decimal.Decimal) string {
	return d.StringFixed(domain.MoneyScale)
}
