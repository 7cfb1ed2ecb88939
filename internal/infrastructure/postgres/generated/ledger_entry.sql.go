package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createLedgerEntry = `-- name: CreateLedgerEntry :exec
INSERT INTO ledger_entries (id, readable_id, wallet_id, booking_id, type, status, amount, note, metadata, created_at, reviewed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
`

type CreateLedgerEntryParams struct {
	ID         string             `json:"id"`
	ReadableID string             `json:"readable_id"`
	WalletID   string             `json:"wallet_id"`
	BookingID  pgtype.Text        `json:"booking_id"`
	Type       string             `json:"type"`
	Status     string             `json:"status"`
	Amount     pgtype.Numeric     `json:"amount"`
	Note       string             `json:"note"`
	Metadata   []byte             `json:"metadata"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
	ReviewedAt pgtype.Timestamptz `json:"reviewed_at"`
}

func (q *Queries) CreateLedgerEntry(ctx context.Context, arg CreateLedgerEntryParams) error {
	_, err := q.db.Exec(ctx, createLedgerEntry,
		arg.ID,
		arg.ReadableID,
		arg.WalletID,
		arg.BookingID,
		arg.Type,
		arg.Status,
		arg.Amount,
		arg.Note,
		arg.Metadata,
		arg.CreatedAt,
		arg.ReviewedAt,
	)
	return err
}

const getLedgerEntryByID = `-- name: GetLedgerEntryByID :one
SELECT id, readable_id, wallet_id, booking_id, type, status, amount, note, review_note, metadata, created_at, reviewed_at
FROM ledger_entries
WHERE id = $1
`

func (q *Queries) GetLedgerEntryByID(ctx context.Context, id string) (LedgerEntry, error) {
	row := q.db.QueryRow(ctx, getLedgerEntryByID, id)
	var i LedgerEntry
	err := row.Scan(
		&i.ID,
		&i.ReadableID,
		&i.WalletID,
		&i.BookingID,
		&i.Type,
		&i.Status,
		&i.Amount,
		&i.Note,
		&i.ReviewNote,
		&i.Metadata,
		&i.CreatedAt,
		&i.ReviewedAt,
	)
	return i, err
}

const getLedgerEntryByIDForUpdate = `-- name: GetLedgerEntryByIDForUpdate :one
SELECT id, readable_id, wallet_id, booking_id, type, status, amount, note, review_note, metadata, created_at, reviewed_at
FROM ledger_entries
WHERE id = $1
FOR UPDATE
`

func (q *Queries) GetLedgerEntryByIDForUpdate(ctx context.Context, id string) (LedgerEntry, error) {
	row := q.db.QueryRow(ctx, getLedgerEntryByIDForUpdate, id)
	var i LedgerEntry
	err := row.Scan(
		&i.ID,
		&i.ReadableID,
		&i.WalletID,
		&i.BookingID,
		&i.Type,
		&i.Status,
		&i.Amount,
		&i.Note,
		&i.ReviewNote,
		&i.Metadata,
		&i.CreatedAt,
		&i.ReviewedAt,
	)
	return i, err
}

const listApprovedLedgerEntriesByWallet = `-- name: ListApprovedLedgerEntriesByWallet :many
SELECT id, readable_id, wallet_id, booking_id, type, status, amount, note, review_note, metadata, created_at, reviewed_at
FROM ledger_entries
WHERE wallet_id = $1 AND status = 'APPROVED'
ORDER BY created_at, id
`

func (q *Queries) ListApprovedLedgerEntriesByWallet(ctx context.Context, walletID string) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listApprovedLedgerEntriesByWallet, walletID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerEntry
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.ID,
			&i.ReadableID,
			&i.WalletID,
			&i.BookingID,
			&i.Type,
			&i.Status,
			&i.Amount,
			&i.Note,
			&i.ReviewNote,
			&i.Metadata,
			&i.CreatedAt,
			&i.ReviewedAt,
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

const listLedgerEntriesByBooking = `-- name: ListLedgerEntriesByBooking :many
SELECT id, readable_id, wallet_id, booking_id, type, status, amount, note, review_note, metadata, created_at, reviewed_at
FROM ledger_entries
WHERE booking_id = $1
ORDER BY created_at, id
`

func (q *Queries) ListLedgerEntriesByBooking(ctx context.Context, bookingID pgtype.Text) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listLedgerEntriesByBooking, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerEntry
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.ID,
			&i.ReadableID,
			&i.WalletID,
			&i.BookingID,
			&i.Type,
			&i.Status,
			&i.Amount,
			&i.Note,
			&i.ReviewNote,
			&i.Metadata,
			&i.CreatedAt,
			&i.ReviewedAt,
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

const listLedgerEntriesByStatus = `-- name: ListLedgerEntriesByStatus :many
SELECT id, readable_id, wallet_id, booking_id, type, status, amount, note, review_note, metadata, created_at, reviewed_at
FROM ledger_entries
WHERE status = $1
ORDER BY created_at, id
LIMIT $2 OFFSET $3
`

type ListLedgerEntriesByStatusParams struct {
	Status string `json:"status"`
	Limit  int32  `json:"limit"`
	Offset int32  `json:"offset"`
}

func (q *Queries) ListLedgerEntriesByStatus(ctx context.Context, arg ListLedgerEntriesByStatusParams) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listLedgerEntriesByStatus,
		arg.Status,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerEntry
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.ID,
			&i.ReadableID,
			&i.WalletID,
			&i.BookingID,
			&i.Type,
			&i.Status,
			&i.Amount,
			&i.Note,
			&i.ReviewNote,
			&i.Metadata,
			&i.CreatedAt,
			&i.ReviewedAt,
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

const listLedgerEntriesByWallet = `-- name: ListLedgerEntriesByWallet :many
SELECT id, readable_id, wallet_id, booking_id, type, status, amount, note, review_note, metadata, created_at, reviewed_at
FROM ledger_entries
WHERE wallet_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListLedgerEntriesByWalletParams struct {
	WalletID string `json:"wallet_id"`
	Limit    int32  `json:"limit"`
	Offset   int32  `json:"offset"`
}

func (q *Queries) ListLedgerEntriesByWallet(ctx context.Context, arg ListLedgerEntriesByWalletParams) ([]LedgerEntry, error) {
	rows, err := q.db.Query(ctx, listLedgerEntriesByWallet,
		arg.WalletID,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LedgerEntry
	for rows.Next() {
		var i LedgerEntry
		if err := rows.Scan(
			&i.ID,
			&i.ReadableID,
			&i.WalletID,
			&i.BookingID,
			&i.Type,
			&i.Status,
			&i.Amount,
			&i.Note,
			&i.ReviewNote,
			&i.Metadata,
			&i.CreatedAt,
			&i.ReviewedAt,
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

const updateLedgerEntryStatus = `-- name: UpdateLedgerEntryStatus :execrows
UPDATE ledger_entries
SET status = $2, review_note = $3, reviewed_at = $4
WHERE id = $1 AND status = 'PENDING'
`

type UpdateLedgerEntryStatusParams struct {
	ID         string             `json:"id"`
	Status     string             `json:"status"`
	ReviewNote string             `json:"review_note"`
	ReviewedAt pgtype.Timestamptz `json:"reviewed_at"`
}

func (q *Queries) UpdateLedgerEntryStatus(ctx context.Context, arg UpdateLedgerEntryStatusParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateLedgerEntryStatus,
		arg.ID,
		arg.Status,
		arg.ReviewNote,
		arg.ReviewedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
