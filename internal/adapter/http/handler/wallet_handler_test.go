package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/tutorescrow/internal/adapter/http/dto"
	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/usecase"
)

type walletServiceStub struct {
	getOrCreateFn func(ctx context.Context, userID string) (*domain.Wallet, error)
	listEntriesFn func(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error)
	requestFn     func(ctx context.Context, input usecase.RequestTransactionInput) (*domain.LedgerEntry, error)
}

func (s *walletServiceStub) GetOrCreateWallet(ctx context.Context, userID string) (*domain.Wallet, error) {
	return s.getOrCreateFn(ctx, userID)
}

func (s *walletServiceStub) ListEntries(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error) {
	return s.listEntriesFn(ctx, walletID, limit, offset)
}

func (s *walletServiceStub) RequestTransaction(ctx context.Context, input usecase.RequestTransactionInput) (*domain.LedgerEntry, error) {
	return s.requestFn(ctx, input)
}

func TestWalletHandler_Get(t *testing.T) {
	handler := NewWalletHandler(&walletServiceStub{
		getOrCreateFn: func(ctx context.Context, userID string) (*domain.Wallet, error) {
			return &domain.Wallet{
				ID:             "w-1",
				ReadableID:     "WAL-000001",
				UserID:         userID,
				Balance:        decimal.RequireFromString("100"),
				PendingBalance: decimal.RequireFromString("40.5"),
			}, nil
		},
	}, testLogger())

	req := withActor(httptest.NewRequest(http.MethodGet, "/wallet", nil), "parent-1", domain.RoleParent)
	rec := httptest.NewRecorder()

	handler.Get(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp dto.WalletResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.UserID != "parent-1" || resp.Balance != "100.00" || resp.PendingBalance != "40.50" {
		t.Fatalf("unexpected wallet response: %+v", resp)
	}
}

func TestWalletHandler_GetRequiresActor(t *testing.T) {
	handler := NewWalletHandler(&walletServiceStub{}, testLogger())

	rec := httptest.NewRecorder()
	handler.Get(rec, httptest.NewRequest(http.MethodGet, "/wallet", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestWalletHandler_ListEntriesUsesCallerWallet(t *testing.T) {
	var gotWallet string
	var gotLimit int
	handler := NewWalletHandler(&walletServiceStub{
		getOrCreateFn: func(ctx context.Context, userID string) (*domain.Wallet, error) {
			return &domain.Wallet{ID: "w-" + userID}, nil
		},
		listEntriesFn: func(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error) {
			gotWallet, gotLimit = walletID, limit
			return []*domain.LedgerEntry{{ID: "e-1", Type: domain.EntryTypeDeposit, Status: domain.EntryStatusApproved}}, nil
		},
	}, testLogger())

	req := withActor(httptest.NewRequest(http.MethodGet, "/wallet/entries?limit=7", nil), "parent-1", domain.RoleParent)
	rec := httptest.NewRecorder()

	handler.ListEntries(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if gotWallet != "w-parent-1" || gotLimit != 7 {
		t.Fatalf("unexpected list call: wallet=%s limit=%d", gotWallet, gotLimit)
	}
}

func TestWalletHandler_RequestWithdrawal(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
	}{
		{name: "accepted", body: `{"amount":"25.00","note":"payout"}`, wantStatus: http.StatusAccepted},
		{name: "malformed body", body: `{"amount":`, wantStatus: http.StatusBadRequest},
		{name: "too many decimals", body: `{"amount":"1.234"}`, err: domain.ErrTooManyDecimals, wantStatus: http.StatusUnprocessableEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var captured usecase.RequestTransactionInput
			handler := NewWalletHandler(&walletServiceStub{
				requestFn: func(ctx context.Context, input usecase.RequestTransactionInput) (*domain.LedgerEntry, error) {
					captured = input
					if tt.err != nil {
						return nil, tt.err
					}
					return &domain.LedgerEntry{ID: "e-1", Type: input.Type, Status: domain.EntryStatusPending, Amount: input.Amount.Neg()}, nil
				},
			}, testLogger())

			req := withActor(httptest.NewRequest(http.MethodPost, "/wallet/withdrawals", bytes.NewBufferString(tt.body)), "teacher-1", domain.RoleTeacher)
			rec := httptest.NewRecorder()

			handler.RequestWithdrawal(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			if tt.wantStatus == http.StatusAccepted {
				if captured.Type != domain.EntryTypeWithdrawal || captured.UserID != "teacher-1" {
					t.Fatalf("unexpected input: %+v", captured)
				}
				if !captured.Amount.Equal(decimal.RequireFromString("25")) {
					t.Fatalf("expected amount 25, got %s", captured.Amount)
				}
			}
		})
	}
}
