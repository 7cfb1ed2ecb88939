package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const countBookingsByStatus = `-- name: CountBookingsByStatus :many
SELECT status, COUNT(*) AS total
FROM bookings
GROUP BY status
`

type CountBookingsByStatusRow struct {
	Status string `json:"status"`
	Total  int64  `json:"total"`
}

func (q *Queries) CountBookingsByStatus(ctx context.Context) ([]CountBookingsByStatusRow, error) {
	rows, err := q.db.Query(ctx, countBookingsByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountBookingsByStatusRow
	for rows.Next() {
		var i CountBookingsByStatusRow
		if err := rows.Scan(
			&i.Status,
			&i.Total,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const createBooking = `-- name: CreateBooking :exec
INSERT INTO bookings (id, readable_id, teacher_id, booked_by_user_id, student_user_id, subject_id, notes,
                      start_time, end_time, price, commission_rate, status, payment_deadline, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7,
        $8, $9, $10, $11, $12, $13, $14, $15)
`

type CreateBookingParams struct {
	ID              string             `json:"id"`
	ReadableID      string             `json:"readable_id"`
	TeacherID       string             `json:"teacher_id"`
	BookedByUserID  string             `json:"booked_by_user_id"`
	StudentUserID   string             `json:"student_user_id"`
	SubjectID       string             `json:"subject_id"`
	Notes           string             `json:"notes"`
	StartTime       pgtype.Timestamptz `json:"start_time"`
	EndTime         pgtype.Timestamptz `json:"end_time"`
	Price           pgtype.Numeric     `json:"price"`
	CommissionRate  pgtype.Numeric     `json:"commission_rate"`
	Status          string             `json:"status"`
	PaymentDeadline pgtype.Timestamptz `json:"payment_deadline"`
	CreatedAt       pgtype.Timestamptz `json:"created_at"`
	UpdatedAt       pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateBooking(ctx context.Context, arg CreateBookingParams) error {
	_, err := q.db.Exec(ctx, createBooking,
		arg.ID,
		arg.ReadableID,
		arg.TeacherID,
		arg.BookedByUserID,
		arg.StudentUserID,
		arg.SubjectID,
		arg.Notes,
		arg.StartTime,
		arg.EndTime,
		arg.Price,
		arg.CommissionRate,
		arg.Status,
		arg.PaymentDeadline,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getBookingByID = `-- name: GetBookingByID :one
SELECT id, readable_id, teacher_id, booked_by_user_id, student_user_id, subject_id, notes, start_time, end_time,
       price, commission_rate, status, cancel_reason, payment_deadline, dispute_window_closes_at,
       payment_released_at, created_at, updated_at
FROM bookings
WHERE id = $1
`

func (q *Queries) GetBookingByID(ctx context.Context, id string) (Booking, error) {
	row := q.db.QueryRow(ctx, getBookingByID, id)
	var i Booking
	err := row.Scan(
		&i.ID,
		&i.ReadableID,
		&i.TeacherID,
		&i.BookedByUserID,
		&i.StudentUserID,
		&i.SubjectID,
		&i.Notes,
		&i.StartTime,
		&i.EndTime,
		&i.Price,
		&i.CommissionRate,
		&i.Status,
		&i.CancelReason,
		&i.PaymentDeadline,
		&i.DisputeWindowClosesAt,
		&i.PaymentReleasedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getBookingByIDForUpdate = `-- name: GetBookingByIDForUpdate :one
SELECT id, readable_id, teacher_id, booked_by_user_id, student_user_id, subject_id, notes, start_time, end_time,
       price, commission_rate, status, cancel_reason, payment_deadline, dispute_window_closes_at,
       payment_released_at, created_at, updated_at
FROM bookings
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetBookingByIDForUpdate(ctx context.Context, id string) (Booking, error) {
	row := q.db.QueryRow(ctx, getBookingByIDForUpdate, id)
	var i Booking
	err := row.Scan(
		&i.ID,
		&i.ReadableID,
		&i.TeacherID,
		&i.BookedByUserID,
		&i.StudentUserID,
		&i.SubjectID,
		&i.Notes,
		&i.StartTime,
		&i.EndTime,
		&i.Price,
		&i.CommissionRate,
		&i.Status,
		&i.CancelReason,
		&i.PaymentDeadline,
		&i.DisputeWindowClosesAt,
		&i.PaymentReleasedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listBookingsByUser = `-- name: ListBookingsByUser :many
SELECT id, readable_id, teacher_id, booked_by_user_id, student_user_id, subject_id, notes, start_time, end_time,
       price, commission_rate, status, cancel_reason, payment_deadline, dispute_window_closes_at,
       payment_released_at, created_at, updated_at
FROM bookings
WHERE teacher_id = $1 OR booked_by_user_id = $1 OR student_user_id = $1
ORDER BY start_time DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListBookingsByUserParams struct {
	UserID string `json:"user_id"`
	Limit  int32  `json:"limit"`
	Offset int32  `json:"offset"`
}

func (q *Queries) ListBookingsByUser(ctx context.Context, arg ListBookingsByUserParams) ([]Booking, error) {
	rows, err := q.db.Query(ctx, listBookingsByUser,
		arg.UserID,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Booking
	for rows.Next() {
		var i Booking
		if err := rows.Scan(
			&i.ID,
			&i.ReadableID,
			&i.TeacherID,
			&i.BookedByUserID,
			&i.StudentUserID,
			&i.SubjectID,
			&i.Notes,
			&i.StartTime,
			&i.EndTime,
			&i.Price,
			&i.CommissionRate,
			&i.Status,
			&i.CancelReason,
			&i.PaymentDeadline,
			&i.DisputeWindowClosesAt,
			&i.PaymentReleasedAt,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPaymentOverdue = `-- name: ListPaymentOverdue :many
SELECT id, readable_id, teacher_id, booked_by_user_id, student_user_id, subject_id, notes, start_time, end_time,
       price, commission_rate, status, cancel_reason, payment_deadline, dispute_window_closes_at,
       payment_released_at, created_at, updated_at
FROM bookings
WHERE status = 'WAITING_FOR_PAYMENT' AND payment_deadline < $1
ORDER BY payment_deadline, id
LIMIT $2
`

type ListPaymentOverdueParams struct {
	PaymentDeadline pgtype.Timestamptz `json:"payment_deadline"`
	Limit           int32              `json:"limit"`
}

func (q *Queries) ListPaymentOverdue(ctx context.Context, arg ListPaymentOverdueParams) ([]Booking, error) {
	rows, err := q.db.Query(ctx, listPaymentOverdue,
		arg.PaymentDeadline,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Booking
	for rows.Next() {
		var i Booking
		if err := rows.Scan(
			&i.ID,
			&i.ReadableID,
			&i.TeacherID,
			&i.BookedByUserID,
			&i.StudentUserID,
			&i.SubjectID,
			&i.Notes,
			&i.StartTime,
			&i.EndTime,
			&i.Price,
			&i.CommissionRate,
			&i.Status,
			&i.CancelReason,
			&i.PaymentDeadline,
			&i.DisputeWindowClosesAt,
			&i.PaymentReleasedAt,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listPendingApprovalBefore = `-- name: ListPendingApprovalBefore :many
SELECT id, readable_id, teacher_id, booked_by_user_id, student_user_id, subject_id, notes, start_time, end_time,
       price, commission_rate, status, cancel_reason, payment_deadline, dispute_window_closes_at,
       payment_released_at, created_at, updated_at
FROM bookings
WHERE status = 'PENDING_TEACHER_APPROVAL' AND created_at < $1
ORDER BY created_at, id
LIMIT $2
`

type ListPendingApprovalBeforeParams struct {
	CreatedAt pgtype.Timestamptz `json:"created_at"`
	Limit     int32              `json:"limit"`
}

func (q *Queries) ListPendingApprovalBefore(ctx context.Context, arg ListPendingApprovalBeforeParams) ([]Booking, error) {
	rows, err := q.db.Query(ctx, listPendingApprovalBefore,
		arg.CreatedAt,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Booking
	for rows.Next() {
		var i Booking
		if err := rows.Scan(
			&i.ID,
			&i.ReadableID,
			&i.TeacherID,
			&i.BookedByUserID,
			&i.StudentUserID,
			&i.SubjectID,
			&i.Notes,
			&i.StartTime,
			&i.EndTime,
			&i.Price,
			&i.CommissionRate,
			&i.Status,
			&i.CancelReason,
			&i.PaymentDeadline,
			&i.DisputeWindowClosesAt,
			&i.PaymentReleasedAt,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listReleasableBookings = `-- name: ListReleasableBookings :many
SELECT id, readable_id, teacher_id, booked_by_user_id, student_user_id, subject_id, notes, start_time, end_time,
       price, commission_rate, status, cancel_reason, payment_deadline, dispute_window_closes_at,
       payment_released_at, created_at, updated_at
FROM bookings
WHERE status = 'PENDING_CONFIRMATION'
  AND dispute_window_closes_at <= $1
ORDER BY dispute_window_closes_at, id
LIMIT $2
`

type ListReleasableBookingsParams struct {
	Now   pgtype.Timestamptz `json:"now"`
	Limit int32              `json:"limit"`
}

func (q *Queries) ListReleasableBookings(ctx context.Context, arg ListReleasableBookingsParams) ([]Booking, error) {
	rows, err := q.db.Query(ctx, listReleasableBookings,
		arg.Now,
		arg.Limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Booking
	for rows.Next() {
		var i Booking
		if err := rows.Scan(
			&i.ID,
			&i.ReadableID,
			&i.TeacherID,
			&i.BookedByUserID,
			&i.StudentUserID,
			&i.SubjectID,
			&i.Notes,
			&i.StartTime,
			&i.EndTime,
			&i.Price,
			&i.CommissionRate,
			&i.Status,
			&i.CancelReason,
			&i.PaymentDeadline,
			&i.DisputeWindowClosesAt,
			&i.PaymentReleasedAt,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const updateBookingStatus = `-- name: UpdateBookingStatus :execrows
UPDATE bookings
SET status = $3,
    cancel_reason = $4,
    payment_deadline = $5,
    dispute_window_closes_at = $6,
    payment_released_at = $7,
    updated_at = $8
WHERE id = $1 AND status = ANY($2::TEXT[])
`

type UpdateBookingStatusParams struct {
	ID                    string             `json:"id"`
	FromStatuses          []string           `json:"from_statuses"`
	Status                string             `json:"status"`
	CancelReason          string             `json:"cancel_reason"`
	PaymentDeadline       pgtype.Timestamptz `json:"payment_deadline"`
	DisputeWindowClosesAt pgtype.Timestamptz `json:"dispute_window_closes_at"`
	PaymentReleasedAt     pgtype.Timestamptz `json:"payment_released_at"`
	UpdatedAt             pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateBookingStatus(ctx context.Context, arg UpdateBookingStatusParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateBookingStatus,
		arg.ID,
		arg.FromStatuses,
		arg.Status,
		arg.CancelReason,
		arg.PaymentDeadline,
		arg.DisputeWindowClosesAt,
		arg.PaymentReleasedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
