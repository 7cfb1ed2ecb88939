package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/infrastructure/postgres/generated"
	"github.com/iho/tutorescrow/internal/usecase"
)

// BookingRepository implements usecase.BookingRepository. The partial unique
// index bookings_active_slot_idx arbitrates concurrent reservations of a slot.
type BookingRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewBookingRepository creates a new BookingRepository.
func NewBookingRepository(db generated.DBTX) *BookingRepository {
	return &BookingRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// Create inserts a booking.
func (r *BookingRepository) Create(ctx context.Context, tx usecase.Transaction, booking *domain.Booking) error {
	err := queriesFor(r.db, tx).CreateBooking(ctx, generated.CreateBookingParams{
		ID:              booking.ID,
		ReadableID:      booking.ReadableID,
		TeacherID:       booking.TeacherID,
		BookedByUserID:  booking.BookedByUserID,
		StudentUserID:   booking.StudentUserID,
		SubjectID:       booking.SubjectID,
		Notes:           booking.Notes,
		StartTime:       timeToPgTimestamptz(booking.StartTime),
		EndTime:         timeToPgTimestamptz(booking.EndTime),
		Price:           decimalToNumeric(booking.Price),
		CommissionRate:  decimalToNumeric(booking.CommissionRate),
		Status:          string(booking.Status),
		PaymentDeadline: optionalTimestamptz(booking.PaymentDeadline),
		CreatedAt:       timeToPgTimestamptz(booking.CreatedAt),
		UpdatedAt:       timeToPgTimestamptz(booking.UpdatedAt),
	})

	return translateError(err)
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	row, err := r.queries.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}

		return nil, err
	}

	return rowToBooking(row), nil
}

// GetByIDForUpdate retrieves a booking by ID with a FOR UPDATE lock.
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Booking, error) {
	row, err := queriesFor(r.db, tx).GetBookingByIDForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}

		return nil, err
	}

	return rowToBooking(row), nil
}

// UpdateStatus writes booking's lifecycle columns while the stored status is one of from.
func (r *BookingRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, booking *domain.Booking, from []domain.BookingStatus) error {
	fromStatuses := make([]string, 0, len(from))
	for _, s := range from {
		fromStatuses = append(fromStatuses, string(s))
	}

	affected, err := queriesFor(r.db, tx).UpdateBookingStatus(ctx, generated.UpdateBookingStatusParams{
		ID:                    booking.ID,
		FromStatuses:          fromStatuses,
		Status:                string(booking.Status),
		CancelReason:          booking.CancelReason,
		PaymentDeadline:       optionalTimestamptz(booking.PaymentDeadline),
		DisputeWindowClosesAt: optionalTimestamptz(booking.DisputeWindowClosesAt),
		PaymentReleasedAt:     optionalTimestamptz(booking.PaymentReleasedAt),
		UpdatedAt:             timeToPgTimestamptz(booking.UpdatedAt),
	})
	if err != nil {
		return translateError(err)
	}

	if affected == 0 {
		return domain.ErrInvalidTransition
	}

	return nil
}

// ListByUser returns bookings where userID is the teacher, payer or student.
func (r *BookingRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Booking, error) {
	rows, err := r.queries.ListBookingsByUser(ctx, generated.ListBookingsByUserParams{
		UserID: userID,
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToBookings(rows), nil
}

// ListPendingApprovalBefore returns requests the teacher left unanswered since createdBefore.
func (r *BookingRepository) ListPendingApprovalBefore(ctx context.Context, createdBefore time.Time, limit int) ([]*domain.Booking, error) {
	rows, err := r.queries.ListPendingApprovalBefore(ctx, generated.ListPendingApprovalBeforeParams{
		CreatedAt: timeToPgTimestamptz(createdBefore),
		Limit:     int32(limit),
	})
	if err != nil {
		return nil, err
	}

	return rowsToBookings(rows), nil
}

// ListPaymentOverdue returns bookings still waiting for payment after their deadline.
func (r *BookingRepository) ListPaymentOverdue(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error) {
	rows, err := r.queries.ListPaymentOverdue(ctx, generated.ListPaymentOverdueParams{
		PaymentDeadline: timeToPgTimestamptz(now),
		Limit:           int32(limit),
	})
	if err != nil {
		return nil, err
	}

	return rowsToBookings(rows), nil
}

// ListReleasable returns bookings whose escrow can be settled to the teacher.
func (r *BookingRepository) ListReleasable(ctx context.Context, now time.Time, limit int) ([]*domain.Booking, error) {
	rows, err := r.queries.ListReleasableBookings(ctx, generated.ListReleasableBookingsParams{
		Now:   timeToPgTimestamptz(now),
		Limit: int32(limit),
	})
	if err != nil {
		return nil, err
	}

	return rowsToBookings(rows), nil
}

// CountByStatus returns the number of bookings per status.
func (r *BookingRepository) CountByStatus(ctx context.Context) (map[domain.BookingStatus]int64, error) {
	rows, err := r.queries.CountBookingsByStatus(ctx)
	if err != nil {
		return nil, err
	}

	counts := make(map[domain.BookingStatus]int64, len(rows))
	for _, row := range rows {
		counts[domain.BookingStatus(row.Status)] = row.Total
	}

	return counts, nil
}

func rowsToBookings(rows []generated.Booking) []*domain.Booking {
	bookings := make([]*domain.Booking, 0, len(rows))
	for _, row := range rows {
		bookings = append(bookings, rowToBooking(row))
	}
	return bookings
}

func rowToBooking(row generated.Booking) *domain.Booking {
	return &domain.Booking{
		ID:                    row.ID,
		ReadableID:            row.ReadableID,
		TeacherID:             row.TeacherID,
		BookedByUserID:        row.BookedByUserID,
		StudentUserID:         row.StudentUserID,
		SubjectID:             row.SubjectID,
		Notes:                 row.Notes,
		StartTime:             row.StartTime.Time,
		EndTime:               row.EndTime.Time,
		Price:                 numericToDecimal(row.Price),
		CommissionRate:        numericToDecimal(row.CommissionRate),
		Status:                domain.BookingStatus(row.Status),
		CancelReason:          row.CancelReason,
		PaymentDeadline:       timestamptzPtr(row.PaymentDeadline),
		DisputeWindowClosesAt: timestamptzPtr(row.DisputeWindowClosesAt),
		PaymentReleasedAt:     timestamptzPtr(row.PaymentReleasedAt),
		CreatedAt:             row.CreatedAt.Time,
		UpdatedAt:             row.UpdatedAt.Time,
	}
}
