package handler

import (
	"context"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/iho/tutorescrow/internal/adapter/http/dto"
	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/usecase"
)

// WalletService defines the behavior needed by WalletHandler.
type WalletService interface {
	GetOrCreateWallet(ctx context.Context, userID string) (*domain.Wallet, error)
	ListEntries(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error)
	RequestTransaction(ctx context.Context, input usecase.RequestTransactionInput) (*domain.LedgerEntry, error)
}

// WalletHandler serves the caller's own wallet.
type WalletHandler struct {
	wallets WalletService
	logger  zerolog.Logger
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(wallets WalletService, logger zerolog.Logger) *WalletHandler {
	return &WalletHandler{wallets: wallets, logger: logger}
}

// Get returns the caller's wallet, creating it on first access.
func (h *WalletHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	wallet, err := h.wallets.GetOrCreateWallet(r.Context(), actor.UserID)
	if err != nil {
		writeDomainError(w, h.logger, "failed to get wallet", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.WalletFromDomain(wallet))
}

// ListEntries lists the caller's ledger entries, newest first.
func (h *WalletHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	wallet, err := h.wallets.GetOrCreateWallet(r.Context(), actor.UserID)
	if err != nil {
		writeDomainError(w, h.logger, "failed to get wallet", err)
		return
	}

	limit, offset := pagination(r)
	entries, err := h.wallets.ListEntries(r.Context(), wallet.ID, limit, offset)
	if err != nil {
		writeDomainError(w, h.logger, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.LedgerEntryResponse]{
		Items:  dto.LedgerEntriesFromDomain(entries),
		Limit:  limit,
		Offset: offset,
	})
}

// RequestDeposit records a deposit awaiting admin review.
func (h *WalletHandler) RequestDeposit(w http.ResponseWriter, r *http.Request) {
	h.requestTransaction(w, r, domain.EntryTypeDeposit)
}

// RequestWithdrawal records a withdrawal awaiting admin review.
func (h *WalletHandler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	h.requestTransaction(w, r, domain.EntryTypeWithdrawal)
}

func (h *WalletHandler) requestTransaction(w http.ResponseWriter, r *http.Request, entryType domain.EntryType) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.TransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.wallets.RequestTransaction(r.Context(), req.ToUseCaseInput(actor.UserID, entryType))
	if err != nil {
		writeDomainError(w, h.logger, "failed to request transaction", err)
		return
	}

	writeJSON(w, http.StatusAccepted, dto.LedgerEntryFromDomain(entry))
}
