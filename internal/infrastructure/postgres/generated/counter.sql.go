package generated

import (
	"context"
)

const getCounter = `-- name: GetCounter :one
SELECT value
FROM readable_id_counters
WHERE counter_type = $1 AND period = $2
`

type GetCounterParams struct {
	CounterType string `json:"counter_type"`
	Period      string `json:"period"`
}

func (q *Queries) GetCounter(ctx context.Context, arg GetCounterParams) (int64, error) {
	row := q.db.QueryRow(ctx, getCounter,
		arg.CounterType,
		arg.Period,
	)
	var value int64
	err := row.Scan(&value)
	return value, err
}

const incrementCounter = `-- name: IncrementCounter :one
INSERT INTO readable_id_counters (counter_type, period, value, updated_at)
VALUES ($1, $2, 1, NOW())
ON CONFLICT (counter_type, period)
DO UPDATE SET value = readable_id_counters.value + 1, updated_at = NOW()
RETURNING value
`

type IncrementCounterParams struct {
	CounterType string `json:"counter_type"`
	Period      string `json:"period"`
}

func (q *Queries) IncrementCounter(ctx context.Context, arg IncrementCounterParams) (int64, error) {
	row := q.db.QueryRow(ctx, incrementCounter,
		arg.CounterType,
		arg.Period,
	)
	var value int64
	err := row.Scan(&value)
	return value, err
}
