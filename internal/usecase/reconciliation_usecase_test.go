package usecase_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/usecase"
	"github.com/iho/tutorescrow/internal/usecase/mocks"
)

func TestReconciliationUseCase_ReconcileWallet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.SeedWallet(parentID, dec("200"))
	h.scheduled(t, 0, "150")

	payer := h.store.WalletByUser(parentID)
	result, err := h.recon.ReconcileWallet(ctx, payer.ID)
	require.NoError(t, err)
	assert.True(t, result.IsReconciled)
	assert.Equal(t, 2, result.EntryCount)
	requireAmount(t, "50", result.CalculatedBalance)
	requireAmount(t, "150", result.CalculatedPending)

	// Move money without writing an entry.
	_, err = h.walletRepo.Credit(ctx, nil, payer.ID, dec("5"), time.Now())
	require.NoError(t, err)

	result, err = h.recon.ReconcileWallet(ctx, payer.ID)
	require.NoError(t, err)
	assert.False(t, result.IsReconciled)
	requireAmount(t, "55", result.RecordedBalance)
	requireAmount(t, "50", result.CalculatedBalance)

	report, err := h.recon.GenerateReconciliationReport(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalWallets)
	assert.Equal(t, 0, report.ReconciledWallets)
	require.Len(t, report.Discrepancies, 1)
	assert.False(t, report.LedgerConsistent)

	err = h.recon.CheckLedgerConsistency(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ledger inconsistency detected")

	_, err = h.recon.ReconcileWallet(ctx, "missing")
	require.ErrorIs(t, err, domain.ErrWalletNotFound)
}

func TestReconciliationUseCase_CheckConservation(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.SeedWallet(parentID, dec("500"))

	// One completed, one cancelled, one disputed and split, one still held.
	completed := h.scheduled(t, 0, "150")
	_, err := h.escrow.Confirm(ctx, completed.ID, domain.Actor{UserID: parentID, Role: domain.RoleParent})
	require.NoError(t, err)

	cancelled := h.scheduled(t, 1, "100")
	_, err = h.escrow.Cancel(ctx, usecase.CancelInput{Actor: domain.Actor{UserID: teacherID, Role: domain.RoleTeacher}, BookingID: cancelled.ID})
	require.NoError(t, err)

	_, d := h.disputed(t, 2, "100")
	_, err = h.disputes.Resolve(adminContext(), usecase.ResolveDisputeInput{
		DisputeID:      d.ID,
		Resolution:     domain.ResolutionSplit,
		TeacherPercent: dec("40"),
	})
	require.NoError(t, err)

	h.scheduled(t, 3, "60")

	report, err := h.recon.CheckConservation(ctx)
	require.NoError(t, err)
	assert.True(t, report.Consistent)
	requireAmount(t, "500", report.Deposits)
	requireAmount(t, "60", report.EscrowHeld)
	requireAmount(t, "60", report.ExpectedEscrow)
	requireAmount(t, "27", report.CommissionRetained)
	requireAmount(t, "473", report.WalletTotal)

	// 500 deposited, 150 paid, 40 paid on the split, 60 still held.
	payer := h.store.WalletByUser(parentID)
	requireAmount(t, "250", payer.Balance)
	requireAmount(t, "60", payer.PendingBalance)
	requireAmount(t, "163", h.store.WalletByUser(teacherID).Balance)

	require.NoError(t, h.recon.CheckLedgerConsistency(ctx))
	h.requireConsistent(t)
}

func TestReconciliationUseCase_GetStatsUsesCache(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.SeedWallet(parentID, dec("100"))
	h.reserve(t, 0, "40")

	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheStore(ctrl)
	recon := usecase.NewReconciliationUseCase(h.txManager, h.walletRepo, h.entryRepo, h.ledgerRepo, h.bookingRepo, cache, zerolog.Nop())

	var stored []byte
	gomock.InOrder(
		cache.EXPECT().Get(gomock.Any(), "ledger:stats").Return(nil, nil),
		cache.EXPECT().Set(gomock.Any(), "ledger:stats", gomock.Any(), usecase.StatsCacheTTL).
			DoAndReturn(func(_ context.Context, _ string, value []byte, _ time.Duration) error {
				stored = value
				return nil
			}),
		cache.EXPECT().Get(gomock.Any(), "ledger:stats").DoAndReturn(func(context.Context, string) ([]byte, error) {
			return stored, nil
		}),
	)

	stats, err := recon.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.WalletCount)
	requireAmount(t, "100", stats.TotalBalance)
	assert.Equal(t, int64(1), stats.BookingsByStatus[string(domain.BookingStatusPendingTeacherApproval)])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(stored, &decoded))
	assert.Contains(t, decoded, "commission_retained")

	// A deposit after caching is not visible until the entry expires.
	_, err = h.ledger.RequestTransaction(ctx, usecase.RequestTransactionInput{UserID: parentID, Type: domain.EntryTypeDeposit, Amount: dec("5")})
	require.NoError(t, err)

	cached, err := recon.GetStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), cached.PendingReviewCount)
}

func TestReconciliationUseCase_GetStatsCacheFailureFallsBack(t *testing.T) {
	h := newHarness(t)

	ctrl := gomock.NewController(t)
	cache := mocks.NewMockCacheStore(ctrl)
	cache.EXPECT().Get(gomock.Any(), gomock.Any()).Return(nil, errors.New("redis down"))
	cache.EXPECT().Set(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	recon := usecase.NewReconciliationUseCase(h.txManager, h.walletRepo, h.entryRepo, h.ledgerRepo, h.bookingRepo, cache, zerolog.Nop())

	stats, err := recon.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.WalletCount)
}

func TestReconciliationUseCase_ChecksReadOneSnapshot(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.SeedWallet(parentID, dec("100"))
	payer := h.store.WalletByUser(parentID)

	var seen []usecase.TxOptions
	txManager := mocks.NewMockTransactionManager()
	txManager.BeginFunc = func(_ context.Context, opts usecase.TxOptions) (usecase.Transaction, error) {
		seen = append(seen, opts)
		return &mocks.MockTransaction{}, nil
	}
	recon := usecase.NewReconciliationUseCase(txManager, h.walletRepo, h.entryRepo, h.ledgerRepo, h.bookingRepo, nil, zerolog.Nop())

	_, err := recon.ReconcileWallet(ctx, payer.ID)
	require.NoError(t, err)
	_, err = recon.CheckConservation(ctx)
	require.NoError(t, err)
	_, err = recon.GetStats(ctx)
	require.NoError(t, err)

	snapshot := usecase.TxOptions{Isolation: usecase.IsolationRepeatableRead, ReadOnly: true}
	assert.Equal(t, []usecase.TxOptions{snapshot, snapshot, snapshot}, seen)
}
