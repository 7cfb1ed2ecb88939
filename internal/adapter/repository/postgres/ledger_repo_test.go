package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"

	"github.com/iho/tutorescrow/internal/domain"
)

func numeric(s string) any {
	return decimalToNumeric(decimal.RequireFromString(s))
}

func TestLedgerRepositoryTotalsReadsInsideTx(t *testing.T) {
	pool := newMockPool(t)
	repo := NewLedgerRepository(pool)
	tx := beginMockTx(t, pool)

	pool.ExpectQuery(`FROM wallets`).
		WillReturnRows(pgxmock.NewRows([]string{"total_balance", "total_pending", "wallet_count"}).
			AddRow(numeric("413.00"), numeric("60.00"), int64(3)))
	pool.ExpectQuery(`GROUP BY type`).
		WillReturnRows(pgxmock.NewRows([]string{"type", "total"}).
			AddRow("DEPOSIT", numeric("500.00")).
			AddRow("PAYMENT_RELEASE", numeric("-150.00")).
			AddRow("ESCROW_RELEASE", numeric("123.00")))
	pool.ExpectQuery(`WHERE status = 'PENDING'`).
		WillReturnRows(pgxmock.NewRows([]string{"pending_deposits", "pending_withdrawals", "pending_count"}).
			AddRow(numeric("20.00"), numeric("35.50"), int64(2)))

	pool.ExpectCommit()

	totals, err := repo.Totals(context.Background(), tx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !totals.WalletBalance.Equal(decimal.NewFromInt(413)) || totals.WalletCount != 3 {
		t.Fatalf("unexpected wallet totals %+v", totals)
	}
	if got := totals.ApprovedByType[domain.EntryTypePaymentRelease]; !got.Equal(decimal.NewFromInt(-150)) {
		t.Fatalf("unexpected released total %s", got)
	}
	if !totals.PendingWithdrawals.Equal(decimal.RequireFromString("35.5")) || totals.PendingReviewCount != 2 {
		t.Fatalf("unexpected pending totals %+v", totals)
	}
	if err := tx.Commit(context.Background()); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	assertExpectations(t, pool)
}

func TestLedgerEntryRepositoryUpdateStatusAlreadyReviewed(t *testing.T) {
	pool := newMockPool(t)
	repo := NewLedgerEntryRepository(pool)
	tx := beginMockTx(t, pool)

	pool.ExpectExec(`UPDATE ledger_entries`).
		WithArgs("e-1", "APPROVED", "ok", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := repo.UpdateStatus(context.Background(), tx, "e-1", domain.EntryStatusApproved, "ok", time.Now())
	if !errors.Is(err, domain.ErrTransactionAlreadyReviewed) {
		t.Fatalf("expected ErrTransactionAlreadyReviewed, got %v", err)
	}

	assertExpectations(t, pool)
}

func TestAuditRepositoryListBuildsNumberedFilters(t *testing.T) {
	pool := newMockPool(t)
	repo := NewAuditRepository(pool)

	pool.ExpectQuery(`WHERE user_id = \$1 AND action = \$2 AND resource_id = \$3 ORDER BY created_at DESC, id DESC LIMIT \$4`).
		WithArgs("admin-1", "dispute.resolve", "d-1", 10).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "user_id", "action", "resource_type", "resource_id", "request_id",
			"before_state", "after_state", "status", "error_message", "created_at",
		}).AddRow(
			"a-1", "admin-1", "dispute.resolve", "dispute", "d-1", "",
			[]byte(`{"status":"PENDING"}`), []byte(`{"status":"RESOLVED"}`), "success", "",
			time.Date(2024, 10, 1, 12, 0, 0, 0, time.UTC),
		))

	logs, err := repo.List(context.Background(), domain.AuditFilter{
		UserID:     "admin-1",
		Action:     "dispute.resolve",
		ResourceID: "d-1",
		Limit:      10,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs) != 1 || logs[0].AfterState["status"] != "RESOLVED" {
		t.Fatalf("unexpected logs %+v", logs)
	}

	assertExpectations(t, pool)
}
