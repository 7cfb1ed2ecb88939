package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/infrastructure/postgres/generated"
	"github.com/iho/tutorescrow/internal/usecase"
)

// DisputeRepository implements usecase.DisputeRepository.
type DisputeRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewDisputeRepository creates a new DisputeRepository.
func NewDisputeRepository(db generated.DBTX) *DisputeRepository {
	return &DisputeRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// Create inserts a dispute. The unique booking_id column allows one dispute per booking.
func (r *DisputeRepository) Create(ctx context.Context, tx usecase.Transaction, dispute *domain.Dispute) error {
	err := queriesFor(r.db, tx).CreateDispute(ctx, generated.CreateDisputeParams{
		ID:             dispute.ID,
		ReadableID:     dispute.ReadableID,
		BookingID:      dispute.BookingID,
		RaisedByUserID: dispute.RaisedByUserID,
		Type:           string(dispute.Type),
		Description:    dispute.Description,
		Status:         string(dispute.Status),
		CreatedAt:      timeToPgTimestamptz(dispute.CreatedAt),
		UpdatedAt:      timeToPgTimestamptz(dispute.UpdatedAt),
	})

	return translateError(err)
}

// GetByID retrieves a dispute by ID.
func (r *DisputeRepository) GetByID(ctx context.Context, id string) (*domain.Dispute, error) {
	return disputeResult(r.queries.GetDisputeByID(ctx, id))
}

// GetByIDForUpdate retrieves a dispute by ID with a FOR UPDATE lock.
func (r *DisputeRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Dispute, error) {
	return disputeResult(queriesFor(r.db, tx).GetDisputeByIDForUpdate(ctx, id))
}

// GetByBookingID retrieves the dispute raised on a booking.
func (r *DisputeRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.Dispute, error) {
	return disputeResult(r.queries.GetDisputeByBookingID(ctx, bookingID))
}

// Update writes the dispute's status and resolution while the stored status is one of from.
func (r *DisputeRepository) Update(ctx context.Context, tx usecase.Transaction, dispute *domain.Dispute, from []domain.DisputeStatus) error {
	fromStatuses := make([]string, 0, len(from))
	for _, s := range from {
		fromStatuses = append(fromStatuses, string(s))
	}

	var resolution pgtype.Text
	if dispute.Resolution != nil {
		resolution = pgtype.Text{String: string(*dispute.Resolution), Valid: true}
	}

	affected, err := queriesFor(r.db, tx).UpdateDispute(ctx, generated.UpdateDisputeParams{
		ID:                 dispute.ID,
		FromStatuses:       fromStatuses,
		Status:             string(dispute.Status),
		Resolution:         resolution,
		ResolutionNote:     dispute.ResolutionNote,
		TeacherPayout:      decimalToNumeric(dispute.TeacherPayout),
		StudentRefund:      decimalToNumeric(dispute.StudentRefund),
		PlatformCommission: decimalToNumeric(dispute.PlatformCommission),
		ResolvedByUserID:   dispute.ResolvedByUserID,
		ResolvedAt:         optionalTimestamptz(dispute.ResolvedAt),
		UpdatedAt:          timeToPgTimestamptz(dispute.UpdatedAt),
	})
	if err != nil {
		return err
	}

	if affected == 0 {
		return domain.ErrInvalidDisputeState
	}

	return nil
}

// List returns disputes in any of statuses, oldest first. No statuses means all.
func (r *DisputeRepository) List(ctx context.Context, statuses []domain.DisputeStatus, limit, offset int) ([]*domain.Dispute, error) {
	filter := make([]string, 0, len(statuses))
	for _, s := range statuses {
		filter = append(filter, string(s))
	}

	rows, err := r.queries.ListDisputes(ctx, generated.ListDisputesParams{
		Statuses: filter,
		Limit:    int32(limit),
		Offset:   int32(offset),
	})
	if err != nil {
		return nil, err
	}

	disputes := make([]*domain.Dispute, 0, len(rows))
	for _, row := range rows {
		disputes = append(disputes, rowToDispute(row))
	}

	return disputes, nil
}

func disputeResult(row generated.Dispute, err error) (*domain.Dispute, error) {
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrDisputeNotFound
		}

		return nil, err
	}

	return rowToDispute(row), nil
}

func rowToDispute(row generated.Dispute) *domain.Dispute {
	var resolution *domain.ResolutionType
	if row.Resolution.Valid {
		r := domain.ResolutionType(row.Resolution.String)
		resolution = &r
	}

	return &domain.Dispute{
		ID:                 row.ID,
		ReadableID:         row.ReadableID,
		BookingID:          row.BookingID,
		RaisedByUserID:     row.RaisedByUserID,
		Type:               domain.DisputeType(row.Type),
		Description:        row.Description,
		Status:             domain.DisputeStatus(row.Status),
		Resolution:         resolution,
		ResolutionNote:     row.ResolutionNote,
		TeacherPayout:      numericToDecimal(row.TeacherPayout),
		StudentRefund:      numericToDecimal(row.StudentRefund),
		PlatformCommission: numericToDecimal(row.PlatformCommission),
		ResolvedByUserID:   row.ResolvedByUserID,
		ResolvedAt:         timestamptzPtr(row.ResolvedAt),
		CreatedAt:          row.CreatedAt.Time,
		UpdatedAt:          row.UpdatedAt.Time,
	}
}
