package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const sumApprovedEntriesByType = `-- name: SumApprovedEntriesByType :many
SELECT type, COALESCE(SUM(amount), 0)::NUMERIC AS total
FROM ledger_entries
WHERE status = 'APPROVED'
GROUP BY type
`

type SumApprovedEntriesByTypeRow struct {
	Type  string         `json:"type"`
	Total pgtype.Numeric `json:"total"`
}

func (q *Queries) SumApprovedEntriesByType(ctx context.Context) ([]SumApprovedEntriesByTypeRow, error) {
	rows, err := q.db.Query(ctx, sumApprovedEntriesByType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []SumApprovedEntriesByTypeRow
	for rows.Next() {
		var i SumApprovedEntriesByTypeRow
		if err := rows.Scan(
			&i.Type,
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

const sumPendingEntries = `-- name: SumPendingEntries :one
SELECT COALESCE(SUM(amount) FILTER (WHERE type = 'DEPOSIT'), 0)::NUMERIC         AS pending_deposits,
       COALESCE(SUM(-amount) FILTER (WHERE type = 'WITHDRAWAL'), 0)::NUMERIC     AS pending_withdrawals,
       COUNT(*)                                                                  AS pending_count
FROM ledger_entries
WHERE status = 'PENDING'
`

type SumPendingEntriesRow struct {
	PendingDeposits    pgtype.Numeric `json:"pending_deposits"`
	PendingWithdrawals pgtype.Numeric `json:"pending_withdrawals"`
	PendingCount       int64          `json:"pending_count"`
}

func (q *Queries) SumPendingEntries(ctx context.Context) (SumPendingEntriesRow, error) {
	row := q.db.QueryRow(ctx, sumPendingEntries)
	var i SumPendingEntriesRow
	err := row.Scan(
		&i.PendingDeposits,
		&i.PendingWithdrawals,
		&i.PendingCount,
	)
	return i, err
}
