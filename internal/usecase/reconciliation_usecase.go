package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/tutorescrow/internal/domain"
)

const statsCacheKey = "ledger:stats"

// snapshotTx makes every read of one check see the same committed state.
var snapshotTx = TxOptions{Isolation: IsolationRepeatableRead, ReadOnly: true}

// ReconciliationUseCase audits wallet balances against their ledger entries
// and checks that the ledger as a whole conserves money.
type ReconciliationUseCase struct {
	txManager   TransactionManager
	walletRepo  WalletRepository
	entryRepo   LedgerEntryRepository
	ledgerRepo  LedgerRepository
	bookingRepo BookingRepository
	cache       Cache
	logger      zerolog.Logger
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	entryRepo LedgerEntryRepository,
	ledgerRepo LedgerRepository,
	bookingRepo BookingRepository,
	cache Cache,
	logger zerolog.Logger,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		txManager:   txManager,
		walletRepo:  walletRepo,
		entryRepo:   entryRepo,
		ledgerRepo:  ledgerRepo,
		bookingRepo: bookingRepo,
		cache:       cache,
		logger:      logger.With().Str("component", "reconciliation").Logger(),
	}
}

// ReconciliationResult compares a wallet's stored balances with the balances
// replayed from its approved ledger entries.
type ReconciliationResult struct {
	LastChecked       time.Time
	WalletID          string
	ReadableID        string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	RecordedPending   decimal.Decimal
	CalculatedPending decimal.Decimal
	EntryCount        int
	IsReconciled      bool
}

// ConservationReport checks that money is neither created nor destroyed.
// Every unit held by wallets entered through an approved deposit, and every
// unit that left did so through an approved withdrawal or as retained commission.
type ConservationReport struct {
	CheckedAt          time.Time
	WalletTotal        decimal.Decimal
	ExpectedTotal      decimal.Decimal
	EscrowHeld         decimal.Decimal
	ExpectedEscrow     decimal.Decimal
	Deposits           decimal.Decimal
	Withdrawals        decimal.Decimal
	CommissionRetained decimal.Decimal
	Consistent         bool
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	CheckedAt         time.Time
	Conservation      *ConservationReport
	Discrepancies     []*ReconciliationResult
	TotalWallets      int
	ReconciledWallets int
	LedgerConsistent  bool
}

// LedgerStats summarises the ledger for the admin dashboard.
type LedgerStats struct {
	GeneratedAt        time.Time        `json:"generated_at"`
	BookingsByStatus   map[string]int64 `json:"bookings_by_status"`
	TotalBalance       decimal.Decimal  `json:"total_balance"`
	TotalPending       decimal.Decimal  `json:"total_pending"`
	PendingDeposits    decimal.Decimal  `json:"pending_deposits"`
	PendingWithdrawals decimal.Decimal  `json:"pending_withdrawals"`
	CommissionRetained decimal.Decimal  `json:"commission_retained"`
	WalletCount        int64            `json:"wallet_count"`
	PendingReviewCount int64            `json:"pending_review_count"`
}

// ReconcileWallet replays a wallet's approved entries and compares the result
// with its stored balance and pending balance.
func (uc *ReconciliationUseCase) ReconcileWallet(ctx context.Context, walletID string) (*ReconciliationResult, error) {
	var (
		wallet  *domain.Wallet
		entries []*domain.LedgerEntry
	)
	err := inTx(ctx, uc.txManager, snapshotTx, func(ctx context.Context, tx Transaction) error {
		var err error
		if wallet, err = uc.walletRepo.GetByIDTx(ctx, tx, walletID); err != nil {
			return err
		}
		entries, err = uc.entryRepo.ListApprovedByWallet(ctx, tx, walletID)
		return err
	})
	if err != nil {
		return nil, err
	}

	balance, pending := decimal.Zero, decimal.Zero
	for _, entry := range entries {
		db, dp := entry.Effect()
		balance = balance.Add(db)
		pending = pending.Add(dp)
	}

	result := &ReconciliationResult{
		WalletID:          wallet.ID,
		ReadableID:        wallet.ReadableID,
		RecordedBalance:   wallet.Balance,
		CalculatedBalance: balance,
		RecordedPending:   wallet.PendingBalance,
		CalculatedPending: pending,
		EntryCount:        len(entries),
		LastChecked:       time.Now().UTC(),
	}
	result.IsReconciled = balance.Equal(wallet.Balance) && pending.Equal(wallet.PendingBalance)

	if !result.IsReconciled {
		uc.logger.Error().
			Str("wallet_id", wallet.ReadableID).
			Str("recorded_balance", wallet.Balance.String()).
			Str("calculated_balance", balance.String()).
			Str("recorded_pending", wallet.PendingBalance.String()).
			Str("calculated_pending", pending.String()).
			Msg("wallet does not reconcile with its ledger")
	}

	return result, nil
}

// ReconcileAllWallets reconciles every wallet page by page.
func (uc *ReconciliationUseCase) ReconcileAllWallets(ctx context.Context) ([]*ReconciliationResult, error) {
	limit, offset, _ := domain.ValidatePagination(1000, 0)

	var results []*ReconciliationResult
	for {
		wallets, err := uc.walletRepo.List(ctx, limit, offset)
		if err != nil {
			return nil, err
		}

		for _, wallet := range wallets {
			result, err := uc.ReconcileWallet(ctx, wallet.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile wallet %s: %w", wallet.ID, err)
			}
			results = append(results, result)
		}

		if len(wallets) < limit {
			return results, nil
		}
		offset += limit
	}
}

func (uc *ReconciliationUseCase) totals(ctx context.Context) (*LedgerTotals, error) {
	var totals *LedgerTotals
	err := inTx(ctx, uc.txManager, snapshotTx, func(ctx context.Context, tx Transaction) error {
		var err error
		totals, err = uc.ledgerRepo.Totals(ctx, tx)
		return err
	})
	return totals, err
}

// CheckConservation compares wallet totals with the approved ledger flows.
func (uc *ReconciliationUseCase) CheckConservation(ctx context.Context) (*ConservationReport, error) {
	totals, err := uc.totals(ctx)
	if err != nil {
		return nil, err
	}

	sum := func(t domain.EntryType) decimal.Decimal {
		if v, ok := totals.ApprovedByType[t]; ok {
			return v
		}
		return decimal.Zero
	}

	deposits := sum(domain.EntryTypeDeposit)
	withdrawals := sum(domain.EntryTypeWithdrawal).Neg()
	released := sum(domain.EntryTypePaymentRelease).Neg()
	credited := sum(domain.EntryTypeEscrowRelease)
	locked := sum(domain.EntryTypePaymentLock).Neg()
	refunded := sum(domain.EntryTypeRefund)

	report := &ConservationReport{
		WalletTotal:        totals.WalletBalance.Add(totals.WalletPending),
		ExpectedTotal:      deposits.Sub(withdrawals).Sub(released).Add(credited),
		EscrowHeld:         totals.WalletPending,
		ExpectedEscrow:     locked.Sub(released).Sub(refunded),
		Deposits:           deposits,
		Withdrawals:        withdrawals,
		CommissionRetained: released.Sub(credited),
		CheckedAt:          time.Now().UTC(),
	}
	report.Consistent = report.WalletTotal.Equal(report.ExpectedTotal) &&
		report.EscrowHeld.Equal(report.ExpectedEscrow) &&
		!report.CommissionRetained.IsNegative()

	return report, nil
}

// CheckLedgerConsistency returns an error describing the first conservation violation.
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context) error {
	report, err := uc.CheckConservation(ctx)
	if err != nil {
		return err
	}

	if !report.Consistent {
		return fmt.Errorf(
			"ledger inconsistency detected: wallets=%s expected=%s escrow=%s expected_escrow=%s commission=%s",
			report.WalletTotal.String(),
			report.ExpectedTotal.String(),
			report.EscrowHeld.String(),
			report.ExpectedEscrow.String(),
			report.CommissionRetained.String(),
		)
	}

	return nil
}

// GenerateReconciliationReport generates a comprehensive reconciliation report
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllWallets(ctx)
	if err != nil {
		return nil, err
	}

	conservation, err := uc.CheckConservation(ctx)
	if err != nil {
		return nil, err
	}

	report := &ReconciliationReport{
		TotalWallets:     len(results),
		Discrepancies:    make([]*ReconciliationResult, 0),
		Conservation:     conservation,
		LedgerConsistent: conservation.Consistent,
		CheckedAt:        time.Now().UTC(),
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledWallets++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	if !report.LedgerConsistent || len(report.Discrepancies) > 0 {
		uc.logger.Error().
			Int("discrepancies", len(report.Discrepancies)).
			Bool("ledger_consistent", report.LedgerConsistent).
			Msg("reconciliation found problems")
	}

	return report, nil
}

// GetStats returns ledger statistics, served from cache when fresh.
func (uc *ReconciliationUseCase) GetStats(ctx context.Context) (*LedgerStats, error) {
	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, statsCacheKey); err == nil && cached != nil {
			var stats LedgerStats
			if err := json.Unmarshal(cached, &stats); err == nil {
				return &stats, nil
			}
		}
	}

	totals, err := uc.totals(ctx)
	if err != nil {
		return nil, err
	}

	counts, err := uc.bookingRepo.CountByStatus(ctx)
	if err != nil {
		return nil, err
	}

	released := totals.ApprovedByType[domain.EntryTypePaymentRelease].Neg()
	credited := totals.ApprovedByType[domain.EntryTypeEscrowRelease]

	stats := &LedgerStats{
		GeneratedAt:        time.Now().UTC(),
		BookingsByStatus:   make(map[string]int64, len(counts)),
		TotalBalance:       totals.WalletBalance,
		TotalPending:       totals.WalletPending,
		PendingDeposits:    totals.PendingDeposits,
		PendingWithdrawals: totals.PendingWithdrawals,
		CommissionRetained: released.Sub(credited),
		WalletCount:        totals.WalletCount,
		PendingReviewCount: totals.PendingReviewCount,
	}
	for status, n := range counts {
		stats.BookingsByStatus[string(status)] = n
	}

	if uc.cache != nil {
		if data, err := json.Marshal(stats); err == nil {
			if err := uc.cache.Set(ctx, statsCacheKey, data, StatsCacheTTL); err != nil {
				uc.logger.Warn().Err(err).Msg("failed to cache ledger stats")
			}
		}
	}

	return stats, nil
}
