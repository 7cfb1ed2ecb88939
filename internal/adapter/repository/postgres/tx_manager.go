package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/iho/tutorescrow/internal/usecase"
)

type pgxPool interface {
	Begin(context.Context) (pgx.Tx, error)
	BeginTx(context.Context, pgx.TxOptions) (pgx.Tx, error)
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	pool pgxPool
}

// NewTxManager creates a new TxManager.
func NewTxManager(pool *pgxpool.Pool) *TxManager {
	return newTxManagerWithPool(pool)
}

func newTxManagerWithPool(pool pgxPool) *TxManager {
	return &TxManager{pool: pool}
}

// Begin starts a new READ COMMITTED transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	tx, err := m.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}

	return &Tx{tx: tx}, nil
}

// BeginTx starts a transaction with the requested isolation level.
func (m *TxManager) BeginTx(ctx context.Context, opts usecase.TxOptions) (usecase.Transaction, error) {
	tx, err := m.pool.BeginTx(ctx, pgxTxOptions(opts))
	if err != nil {
		return nil, err
	}

	return &Tx{tx: tx}, nil
}

func pgxTxOptions(opts usecase.TxOptions) pgx.TxOptions {
	var txOpts pgx.TxOptions
	switch opts.Isolation {
	case usecase.IsolationSerializable:
		txOpts.IsoLevel = pgx.Serializable
	case usecase.IsolationRepeatableRead:
		txOpts.IsoLevel = pgx.RepeatableRead
	default:
		txOpts.IsoLevel = pgx.ReadCommitted
	}
	if opts.ReadOnly {
		txOpts.AccessMode = pgx.ReadOnly
	}
	return txOpts
}

// Tx wraps a pgx transaction.
type Tx struct {
	tx pgx.Tx
}

// Commit commits the transaction.
func (t *Tx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

// Rollback rolls back the transaction. Rolling back a finished transaction
// is a no-op.
func (t *Tx) Rollback(ctx context.Context) error {
	err := t.tx.Rollback(ctx)
	if errors.Is(err, pgx.ErrTxClosed) {
		return nil
	}
	return err
}

// PgxTx returns the underlying pgx.Tx.
func (t *Tx) PgxTx() pgx.Tx {
	return t.tx
}
