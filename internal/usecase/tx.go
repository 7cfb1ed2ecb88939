package usecase

import (
	"context"

	"github.com/iho/tutorescrow/internal/domain"
)

// inTx runs fn inside a transaction. The transaction is committed when fn
// returns nil and rolled back otherwise.
func inTx(ctx context.Context, txManager TransactionManager, opts TxOptions, fn func(ctx context.Context, tx Transaction) error) error {
	txCtx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)
	defer cancel()

	tx, err := txManager.BeginTx(txCtx, opts)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := fn(txCtx, tx); err != nil {
		return err
	}

	return tx.Commit(txCtx)
}

// inSerializableTx runs fn in a SERIALIZABLE transaction, retrying the whole
// transaction on serialization failures when a retrier is configured.
func inSerializableTx(ctx context.Context, txManager TransactionManager, retrier Retrier, fn func(ctx context.Context, tx Transaction) error) error {
	attempt := func() error {
		return inTx(ctx, txManager, TxOptions{Isolation: IsolationSerializable}, fn)
	}

	if retrier == nil {
		return attempt()
	}

	return retrier.Retry(ctx, attempt)
}

func actorID(ctx context.Context) string {
	if actor, ok := domain.ActorFromContext(ctx); ok {
		return actor.UserID
	}
	return SystemUserID
}
