package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createWallet = `-- name: CreateWallet :execrows
INSERT INTO wallets (id, readable_id, user_id, balance, pending_balance, version, created_at, updated_at)
VALUES ($1, $2, $3, 0, 0, 1, $4, $5)
ON CONFLICT (user_id) DO NOTHING
`

type CreateWalletParams struct {
	ID         string             `json:"id"`
	ReadableID string             `json:"readable_id"`
	UserID     string             `json:"user_id"`
	CreatedAt  pgtype.Timestamptz `json:"created_at"`
	UpdatedAt  pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateWallet(ctx context.Context, arg CreateWalletParams) (int64, error) {
	result, err := q.db.Exec(ctx, createWallet,
		arg.ID,
		arg.ReadableID,
		arg.UserID,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const creditWallet = `-- name: CreditWallet :one
UPDATE wallets
SET balance = balance + $2,
    version = version + 1,
    updated_at = $3
WHERE id = $1
RETURNING id, readable_id, user_id, balance, pending_balance, version, created_at, updated_at
`

type CreditWalletParams struct {
	ID        string             `json:"id"`
	Amount    pgtype.Numeric     `json:"amount"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreditWallet(ctx context.Context, arg CreditWalletParams) (Wallet, error) {
	row := q.db.QueryRow(ctx, creditWallet,
		arg.ID,
		arg.Amount,
		arg.UpdatedAt,
	)
	var i Wallet
	err := row.Scan(
		&i.ID,
		&i.ReadableID,
		&i.UserID,
		&i.Balance,
		&i.PendingBalance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const debitWallet = `-- name: DebitWallet :one
UPDATE wallets
SET balance = balance - $2,
    version = version + 1,
    updated_at = $3
WHERE id = $1 AND balance >= $2
RETURNING id, readable_id, user_id, balance, pending_balance, version, created_at, updated_at
`

type DebitWalletParams struct {
	ID        string             `json:"id"`
	Amount    pgtype.Numeric     `json:"amount"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) DebitWallet(ctx context.Context, arg DebitWalletParams) (Wallet, error) {
	row := q.db.QueryRow(ctx, debitWallet,
		arg.ID,
		arg.Amount,
		arg.UpdatedAt,
	)
	var i Wallet
	err := row.Scan(
		&i.ID,
		&i.ReadableID,
		&i.UserID,
		&i.Balance,
		&i.PendingBalance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getWalletByID = `-- name: GetWalletByID :one
SELECT id, readable_id, user_id, balance, pending_balance, version, created_at, updated_at
FROM wallets
WHERE id = $1
`

func (q *Queries) GetWalletByID(ctx context.Context, id string) (Wallet, error) {
	row := q.db.QueryRow(ctx, getWalletByID, id)
	var i Wallet
	err := row.Scan(
		&i.ID,
		&i.ReadableID,
		&i.UserID,
		&i.Balance,
		&i.PendingBalance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const getWalletByUserID = `-- name: GetWalletByUserID :one
SELECT id, readable_id, user_id, balance, pending_balance, version, created_at, updated_at
FROM wallets
WHERE user_id = $1
`

func (q *Queries) GetWalletByUserID(ctx context.Context, userID string) (Wallet, error) {
	row := q.db.QueryRow(ctx, getWalletByUserID, userID)
	var i Wallet
	err := row.Scan(
		&i.ID,
		&i.ReadableID,
		&i.UserID,
		&i.Balance,
		&i.PendingBalance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listWallets = `-- name: ListWallets :many
SELECT id, readable_id, user_id, balance, pending_balance, version, created_at, updated_at
FROM wallets
ORDER BY created_at, id
LIMIT $1 OFFSET $2
`

type ListWalletsParams struct {
	Limit  int32 `json:"limit"`
	Offset int32 `json:"offset"`
}

func (q *Queries) ListWallets(ctx context.Context, arg ListWalletsParams) ([]Wallet, error) {
	rows, err := q.db.Query(ctx, listWallets,
		arg.Limit,
		arg.Offset,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Wallet
	for rows.Next() {
		var i Wallet
		if err := rows.Scan(
			&i.ID,
			&i.ReadableID,
			&i.UserID,
			&i.Balance,
			&i.PendingBalance,
			&i.Version,
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

const lockWalletFunds = `-- name: LockWalletFunds :one
UPDATE wallets
SET balance = balance - $2,
    pending_balance = pending_balance + $2,
    version = version + 1,
    updated_at = $3
WHERE id = $1 AND balance >= $2
RETURNING id, readable_id, user_id, balance, pending_balance, version, created_at, updated_at
`

type LockWalletFundsParams struct {
	ID        string             `json:"id"`
	Amount    pgtype.Numeric     `json:"amount"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) LockWalletFunds(ctx context.Context, arg LockWalletFundsParams) (Wallet, error) {
	row := q.db.QueryRow(ctx, lockWalletFunds,
		arg.ID,
		arg.Amount,
		arg.UpdatedAt,
	)
	var i Wallet
	err := row.Scan(
		&i.ID,
		&i.ReadableID,
		&i.UserID,
		&i.Balance,
		&i.PendingBalance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const refundWalletPending = `-- name: RefundWalletPending :one
UPDATE wallets
SET balance = balance + $2,
    pending_balance = pending_balance - $2,
    version = version + 1,
    updated_at = $3
WHERE id = $1 AND pending_balance >= $2
RETURNING id, readable_id, user_id, balance, pending_balance, version, created_at, updated_at
`

type RefundWalletPendingParams struct {
	ID        string             `json:"id"`
	Amount    pgtype.Numeric     `json:"amount"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) RefundWalletPending(ctx context.Context, arg RefundWalletPendingParams) (Wallet, error) {
	row := q.db.QueryRow(ctx, refundWalletPending,
		arg.ID,
		arg.Amount,
		arg.UpdatedAt,
	)
	var i Wallet
	err := row.Scan(
		&i.ID,
		&i.ReadableID,
		&i.UserID,
		&i.Balance,
		&i.PendingBalance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const releaseWalletPending = `-- name: ReleaseWalletPending :one
UPDATE wallets
SET pending_balance = pending_balance - $2,
    version = version + 1,
    updated_at = $3
WHERE id = $1 AND pending_balance >= $2
RETURNING id, readable_id, user_id, balance, pending_balance, version, created_at, updated_at
`

type ReleaseWalletPendingParams struct {
	ID        string             `json:"id"`
	Amount    pgtype.Numeric     `json:"amount"`
	UpdatedAt pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) ReleaseWalletPending(ctx context.Context, arg ReleaseWalletPendingParams) (Wallet, error) {
	row := q.db.QueryRow(ctx, releaseWalletPending,
		arg.ID,
		arg.Amount,
		arg.UpdatedAt,
	)
	var i Wallet
	err := row.Scan(
		&i.ID,
		&i.ReadableID,
		&i.UserID,
		&i.Balance,
		&i.PendingBalance,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const sumWalletBalances = `-- name: SumWalletBalances :one
SELECT COALESCE(SUM(balance), 0)::NUMERIC         AS total_balance,
       COALESCE(SUM(pending_balance), 0)::NUMERIC AS total_pending,
       COUNT(*)                                   AS wallet_count
FROM wallets
`

type SumWalletBalancesRow struct {
	TotalBalance pgtype.Numeric `json:"total_balance"`
	TotalPending pgtype.Numeric `json:"total_pending"`
	WalletCount  int64          `json:"wallet_count"`
}

func (q *Queries) SumWalletBalances(ctx context.Context) (SumWalletBalancesRow, error) {
	row := q.db.QueryRow(ctx, sumWalletBalances)
	var i SumWalletBalancesRow
	err := row.Scan(
		&i.TotalBalance,
		&i.TotalPending,
		&i.WalletCount,
	)
	return i, err
}
