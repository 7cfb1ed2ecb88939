package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/infrastructure/postgres/generated"
	"github.com/iho/tutorescrow/internal/usecase"
)

// WalletRepository implements usecase.WalletRepository. Balance changes are
// single guarded UPDATE statements, so a row that no longer satisfies the
// guard is reported as a domain error instead of going negative.
type WalletRepository struct {
	db      generated.DBTX
	queries *generated.Queries
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(db generated.DBTX) *WalletRepository {
	return &WalletRepository{
		db:      db,
		queries: generated.New(db),
	}
}

// Create inserts wallet unless its owner already has one.
func (r *WalletRepository) Create(ctx context.Context, tx usecase.Transaction, wallet *domain.Wallet) (bool, error) {
	queries := queriesFor(r.db, tx)

	inserted, err := queries.CreateWallet(ctx, generated.CreateWalletParams{
		ID:         wallet.ID,
		ReadableID: wallet.ReadableID,
		UserID:     wallet.UserID,
		CreatedAt:  timeToPgTimestamptz(wallet.CreatedAt),
		UpdatedAt:  timeToPgTimestamptz(wallet.UpdatedAt),
	})
	if err != nil {
		return false, translateError(err)
	}

	return inserted == 1, nil
}

// GetByID retrieves a wallet by ID.
func (r *WalletRepository) GetByID(ctx context.Context, id string) (*domain.Wallet, error) {
	return getWallet(ctx, r.queries, id)
}

// GetByIDTx retrieves a wallet by ID inside tx.
func (r *WalletRepository) GetByIDTx(ctx context.Context, tx usecase.Transaction, id string) (*domain.Wallet, error) {
	return getWallet(ctx, queriesFor(r.db, tx), id)
}

// GetByUserID retrieves the wallet owned by userID.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	return getWalletByUser(ctx, r.queries, userID)
}

// GetByUserIDTx retrieves the wallet owned by userID inside tx.
func (r *WalletRepository) GetByUserIDTx(ctx context.Context, tx usecase.Transaction, userID string) (*domain.Wallet, error) {
	return getWalletByUser(ctx, queriesFor(r.db, tx), userID)
}

// Lock moves amount from balance to pending balance.
func (r *WalletRepository) Lock(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error) {
	queries := queriesFor(r.db, tx)
	row, err := queries.LockWalletFunds(ctx, generated.LockWalletFundsParams{
		ID:        id,
		Amount:    decimalToNumeric(amount),
		UpdatedAt: timeToPgTimestamptz(at),
	})
	return r.guarded(ctx, queries, id, row, err, domain.ErrInsufficientBalance)
}

// ReleasePending removes amount from pending balance.
func (r *WalletRepository) ReleasePending(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error) {
	queries := queriesFor(r.db, tx)
	row, err := queries.ReleaseWalletPending(ctx, generated.ReleaseWalletPendingParams{
		ID:        id,
		Amount:    decimalToNumeric(amount),
		UpdatedAt: timeToPgTimestamptz(at),
	})
	return r.guarded(ctx, queries, id, row, err, domain.ErrFundsNotLocked)
}

// Refund moves amount from pending balance back to balance.
func (r *WalletRepository) Refund(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error) {
	queries := queriesFor(r.db, tx)
	row, err := queries.RefundWalletPending(ctx, generated.RefundWalletPendingParams{
		ID:        id,
		Amount:    decimalToNumeric(amount),
		UpdatedAt: timeToPgTimestamptz(at),
	})
	return r.guarded(ctx, queries, id, row, err, domain.ErrFundsNotLocked)
}

// Credit adds amount to balance.
func (r *WalletRepository) Credit(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error) {
	queries := queriesFor(r.db, tx)
	row, err := queries.CreditWallet(ctx, generated.CreditWalletParams{
		ID:        id,
		Amount:    decimalToNumeric(amount),
		UpdatedAt: timeToPgTimestamptz(at),
	})
	return r.guarded(ctx, queries, id, row, err, domain.ErrWalletNotFound)
}

// Debit removes amount from balance.
func (r *WalletRepository) Debit(ctx context.Context, tx usecase.Transaction, id string, amount decimal.Decimal, at time.Time) (*domain.Wallet, error) {
	queries := queriesFor(r.db, tx)
	row, err := queries.DebitWallet(ctx, generated.DebitWalletParams{
		ID:        id,
		Amount:    decimalToNumeric(amount),
		UpdatedAt: timeToPgTimestamptz(at),
	})
	return r.guarded(ctx, queries, id, row, err, domain.ErrInsufficientBalance)
}

// List returns wallets in creation order.
func (r *WalletRepository) List(ctx context.Context, limit, offset int) ([]*domain.Wallet, error) {
	rows, err := r.queries.ListWallets(ctx, generated.ListWalletsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	wallets := make([]*domain.Wallet, 0, len(rows))
	for _, row := range rows {
		wallets = append(wallets, rowToWallet(row))
	}

	return wallets, nil
}

// guarded interprets the result of a conditional balance update. No row
// means either the wallet is missing or the guard rejected the change.
func (r *WalletRepository) guarded(ctx context.Context, queries *generated.Queries, id string, row generated.Wallet, err error, guardErr error) (*domain.Wallet, error) {
	if err == nil {
		return rowToWallet(row), nil
	}

	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, translateError(err)
	}

	if _, err := getWallet(ctx, queries, id); err != nil {
		return nil, err
	}

	return nil, guardErr
}

func getWallet(ctx context.Context, queries *generated.Queries, id string) (*domain.Wallet, error) {
	row, err := queries.GetWalletByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}

		return nil, err
	}

	return rowToWallet(row), nil
}

func getWalletByUser(ctx context.Context, queries *generated.Queries, userID string) (*domain.Wallet, error) {
	row, err := queries.GetWalletByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrWalletNotFound
		}

		return nil, err
	}

	return rowToWallet(row), nil
}

func rowToWallet(row generated.Wallet) *domain.Wallet {
	return &domain.Wallet{
		ID:             row.ID,
		ReadableID:     row.ReadableID,
		UserID:         row.UserID,
		Balance:        numericToDecimal(row.Balance),
		PendingBalance: numericToDecimal(row.PendingBalance),
		Version:        row.Version,
		CreatedAt:      row.CreatedAt.Time,
		UpdatedAt:      row.UpdatedAt.Time,
	}
}
