package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type AuditLog struct {
	ID           string             `json:"id"`
	UserID       string             `json:"user_id"`
	Action       string             `json:"action"`
	ResourceType string             `json:"resource_type"`
	ResourceID   string             `json:"resource_id"`
	RequestID    string             `json:"request_id"`
	BeforeState  []byte             `json:"before_state"`
	AfterState   []byte             `json:"after_state"`
	Status       string             `json:"status"`
	ErrorMessage string             `json:"error_message"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
}

type Booking struct {
	ID                    string             `json:"id"`
	ReadableID            string             `json:"readable_id"`
	TeacherID             string             `json:"teacher_id"`
	BookedByUserID        string             `json:"booked_by_user_id"`
	StudentUserID         string             `json:"student_user_id"`
	SubjectID             string             `json:"subject_id"`
	Notes                 string             `json:"notes"`
	StartTime             pgtype.Timestamptz `json:"start_time"`
	EndTime               pgtype.Timestamptz `json:"end_time"`
	Price                 pgtype.Numeric     `json:"price"`
	CommissionRate        pgtype.Numeric     `json:"commission_rate"`
	Status                string             `json:"status"`
	CancelReason          string             `json:"cancel_reason"`
	PaymentDeadline       pgtype.Timestamptz `json:"payment_deadline"`
	DisputeWindowClosesAt pgtype.Timestamptz `json:"dispute_window_closes_at"`
	PaymentReleasedAt     pgtype.Timestamptz `json:"payment_released_at"`
	CreatedAt             pgtype.Timestamptz `json:"created_at"`
	UpdatedAt             pgtype.Timestamptz `json:"updated_at"`
}

type Dispute struct {
	ID                 string             `json:"id"`
	ReadableID         string             `json:"readable_id"`
	BookingID          string             `json:"booking_id"`
	RaisedByUserID     string             `json:"raised_by_user_id"`
	Type               string             `json:"type"`
	Description        string             `json:"description"`
	Status             string             `json:"status"`
	Resolution         pgtype.Text        `json:"resolution"`
	ResolutionNote     string             `json:"resolution_note"`
	TeacherPayout      pgtype.Numeric     `json:"teacher_payout"`
	StudentRefund      pgtype.Numeric     `json:"student_refund"`
	PlatformCommission pgtype.Numeric     `json:"platform_commission"`
	ResolvedByUserID   string             `json:"resolved_by_user_id"`
	ResolvedAt         pgtype.Timestamptz `json:"resolved_at"`
	CreatedAt          pgtype.Timestamptz `json:"created_at"`
	UpdatedAt          pgtype.Timestamptz `json:"updated_at"`
}

type LedgerEntry struct {
	ID         string             `json:"id"`
	ReadableID string             `json:"readable_id"`
	WalletID   string             `json:"wallet_id"`
	BookingID  pgtype.Text        `json:"booking_id"`
	Type       string             `json:"type"`
	Status     string             `json:"status"`
	Amount     pgtype.Numeric     `json:"amount"`
	Note       string             `json:"note"`
	ReviewNote string             `json:"review_note"`
	Metadata   []byte             `json:"metadata"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
	ReviewedAt pgtype.Timestamptz `json:"reviewed_at"`
}

type OutboxEvent struct {
	ID            string             `json:"id"`
	AggregateID   string             `json:"aggregate_id"`
	AggregateType string             `json:"aggregate_type"`
	EventType     string             `json:"event_type"`
	Recipients    []string           `json:"recipients"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	Published     bool               `json:"published"`
	PublishedAt   pgtype.Timestamptz `json:"published_at"`
}

type ReadableIDCounter struct {
	CounterType string             `json:"counter_type"`
	Period      string             `json:"period"`
	Value       int64              `json:"value"`
	UpdatedAt   pgtype.Timestamptz `json:"updated_at"`
}

type Wallet struct {
	ID             string             `json:"id"`
	ReadableID     string             `json:"readable_id"`
	UserID         string             `json:"user_id"`
	Balance        pgtype.Numeric     `json:"balance"`
	PendingBalance pgtype.Numeric     `json:"pending_balance"`
	Version        int64              `json:"version"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}
