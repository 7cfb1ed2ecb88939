package postgres

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/infrastructure/postgres/generated"
	"github.com/iho/tutorescrow/internal/usecase"
)

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	db generated.DBTX
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// Totals aggregates wallet balances and approved entries for the
// conservation check. The three aggregates only agree with each other when
// tx is a REPEATABLE READ transaction.
func (r *LedgerRepository) Totals(ctx context.Context, tx usecase.Transaction) (*usecase.LedgerTotals, error) {
	queries := queriesFor(r.db, tx)

	wallets, err := queries.SumWalletBalances(ctx)
	if err != nil {
		return nil, err
	}

	byType, err := queries.SumApprovedEntriesByType(ctx)
	if err != nil {
		return nil, err
	}

	pending, err := queries.SumPendingEntries(ctx)
	if err != nil {
		return nil, err
	}

	totals := &usecase.LedgerTotals{
		ApprovedByType:     make(map[domain.EntryType]decimal.Decimal, len(byType)),
		WalletBalance:      numericToDecimal(wallets.TotalBalance),
		WalletPending:      numericToDecimal(wallets.TotalPending),
		WalletCount:        wallets.WalletCount,
		PendingDeposits:    numericToDecimal(pending.PendingDeposits),
		PendingWithdrawals: numericToDecimal(pending.PendingWithdrawals),
		PendingReviewCount: pending.PendingCount,
	}

	for _, row := range byType {
		totals.ApprovedByType[domain.EntryType(row.Type)] = numericToDecimal(row.Total)
	}

	return totals, nil
}
