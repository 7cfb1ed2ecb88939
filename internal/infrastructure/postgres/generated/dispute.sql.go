package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createDispute = `-- name: CreateDispute :exec
INSERT INTO disputes (id, readable_id, booking_id, raised_by_user_id, type, description, status, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
`

type CreateDisputeParams struct {
	ID             string             `json:"id"`
	ReadableID     string             `json:"readable_id"`
	BookingID      string             `json:"booking_id"`
	RaisedByUserID string             `json:"raised_by_user_id"`
	Type           string             `json:"type"`
	Description    string             `json:"description"`
	Status         string             `json:"status"`
	CreatedAt      pgtype.Timestamptz `json:"created_at"`
	UpdatedAt      pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateDispute(ctx context.Context, arg CreateDisputeParams) error {
	_, err := q.db.Exec(ctx, createDispute,
		arg.ID,
		arg.ReadableID,
		arg.BookingID,
		arg.RaisedByUserID,
		arg.Type,
		arg.Description,
		arg.Status,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	return err
}

const getDisputeByBookingID = `-- name: GetDisputeByBookingID :one
SELECT id, readable_id, booking_id, raised_by_user_id, type, description, status, resolution, resolution_note,
       teacher_payout, student_refund, platform_commission, resolved_by_user_id, resolved_at, created_at, updated_at
FROM disputes
WHERE booking_id = $1
`

func (q *Queries) GetDisputeByBookingID(ctx context.Context, bookingID string) (Dispute, error) {
	row := q.db.QueryRow(ctx, getDisputeByBookingID, bookingID)
	var i Dispute
	err := row.Scan(
		&i.ID,
		&i.ReadableID,
		&i.BookingID,
		&i.RaisedByUserID,
		&i.Type,
		&i.Description,
		&i.Status,
		&i.Resolution,
		&i.ResolutionNote,
		&i.TeacherPayout,
		&i.StudentRefund,
		&i.PlatformCommission,
		&i.ResolvedByUserID,
		&i.ResolvedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getDisputeByID = `-- name: GetDisputeByID :one
SELECT id, readable_id, booking_id, raised_by_user_id, type, description, status, resolution, resolution_note,
       teacher_payout, student_refund, platform_commission, resolved_by_user_id, resolved_at, created_at, updated_at
FROM disputes
WHERE id = $1
`

func (q *Queries) GetDisputeByID(ctx context.Context, id string) (Dispute, error) {
	row := q.db.QueryRow(ctx, getDisputeByID, id)
	var i Dispute
	err := row.Scan(
		&i.ID,
		&i.ReadableID,
		&i.BookingID,
		&i.RaisedByUserID,
		&i.Type,
		&i.Description,
		&i.Status,
		&i.Resolution,
		&i.ResolutionNote,
		&i.TeacherPayout,
		&i.StudentRefund,
		&i.PlatformCommission,
		&i.ResolvedByUserID,
		&i.ResolvedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getDisputeByIDForUpdate = `-- name: GetDisputeByIDForUpdate :one
SELECT id, readable_id, booking_id, raised_by_user_id, type, description, status, resolution, resolution_note,
       teacher_payout, student_refund, platform_commission, resolved_by_user_id, resolved_at, created_at, updated_at
FROM disputes
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetDisputeByIDForUpdate(ctx context.Context, id string) (Dispute, error) {
	row := q.db.QueryRow(ctx, getDisputeByIDForUpdate, id)
	var i Dispute
	err := row.Scan(
		&i.ID,
		&i.ReadableID,
		&i.BookingID,
		&i.RaisedByUserID,
		&i.Type,
		&i.Description,
		&i.Status,
		&i.Resolution,
		&i.ResolutionNote,
		&i.TeacherPayout,
		&i.StudentRefund,
		&i.PlatformCommission,
		&i.ResolvedByUserID,
		&i.ResolvedAt,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listDisputes = `-- name: ListDisputes :many
SELECT id, readable_id, booking_id, raised_by_user_id, type, description, status, resolution, resolution_note,
       teacher_payout, student_refund, platform_commission, resolved_by_user_id, resolved_at, created_at, updated_at
FROM disputes
WHERE cardinality($1::TEXT[]) = 0 OR status = ANY($1::TEXT[])
ORDER BY created_at, id
LIMIT $2 OFFSET $3
`

type ListDisputesParams struct {
	Statuses []string `json:"statuses"`
	Limit    int32    `json:"limit"`
	Offset   int32    `json:"offset"`
}

func (q *Queries) ListDisputes(ctx context.Context, arg ListDisputesParams) ([]Dispute, error) {
	rows, err := q.db.Query(ctx, listDisputes,
		arg.Statuses,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Dispute
	for rows.Next() {
		var i Dispute
		if err := rows.Scan(
			&i.ID,
			&i.ReadableID,
			&i.BookingID,
			&i.RaisedByUserID,
			&i.Type,
			&i.Description,
			&i.Status,
			&i.Resolution,
			&i.ResolutionNote,
			&i.TeacherPayout,
			&i.StudentRefund,
			&i.PlatformCommission,
			&i.ResolvedByUserID,
			&i.ResolvedAt,
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

const updateDispute = `-- name: UpdateDispute :execrows
UPDATE disputes
SET status = $3,
    resolution = $4,
    resolution_note = $5,
    teacher_payout = $6,
    student_refund = $7,
    platform_commission = $8,
    resolved_by_user_id = $9,
    resolved_at = $10,
    updated_at = $11
WHERE id = $1 AND status = ANY($2::TEXT[])
`

type UpdateDisputeParams struct {
	ID                 string             `json:"id"`
	FromStatuses       []string           `json:"from_statuses"`
	Status             string             `json:"status"`
	Resolution         pgtype.Text        `json:"resolution"`
	ResolutionNote     string             `json:"resolution_note"`
	TeacherPayout      pgtype.Numeric     `json:"teacher_payout"`
	StudentRefund      pgtype.Numeric     `json:"student_refund"`
	PlatformCommission pgtype.Numeric     `json:"platform_commission"`
	ResolvedByUserID   string             `json:"resolved_by_user_id"`
	ResolvedAt         pgtype.Timestamptz `json:"resolved_at"`
	UpdatedAt          pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateDispute(ctx context.Context, arg UpdateDisputeParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateDispute,
		arg.ID,
		arg.FromStatuses,
		arg.Status,
		arg.Resolution,
		arg.ResolutionNote,
		arg.TeacherPayout,
		arg.StudentRefund,
		arg.PlatformCommission,
		arg.ResolvedByUserID,
		arg.ResolvedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
