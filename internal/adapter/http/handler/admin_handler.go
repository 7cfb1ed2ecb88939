package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/iho/tutorescrow/internal/adapter/http/dto"
	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/usecase"
)

// LedgerAdminService defines the ledger operations reserved for admins.
type LedgerAdminService interface {
	ListPendingTransactions(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error)
	ReviewTransaction(ctx context.Context, input usecase.ReviewTransactionInput) (*domain.LedgerEntry, error)
	ListWallets(ctx context.Context, limit, offset int) ([]*domain.Wallet, error)
	ListEntries(ctx context.Context, walletID string, limit, offset int) ([]*domain.LedgerEntry, error)
}

// DisputeAdminService defines the dispute operations reserved for admins.
type DisputeAdminService interface {
	GetDispute(ctx context.Context, id string) (*domain.Dispute, error)
	ListDisputes(ctx context.Context, statuses []domain.DisputeStatus, limit, offset int) ([]*domain.Dispute, error)
	MarkUnderReview(ctx context.Context, disputeID string) (*domain.Dispute, error)
	Resolve(ctx context.Context, input usecase.ResolveDisputeInput) (*domain.Dispute, error)
}

// ReconciliationService defines the ledger audit operations.
type ReconciliationService interface {
	GetStats(ctx context.Context) (*usecase.LedgerStats, error)
	GenerateReconciliationReport(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// AuditLogLister lists audit log rows.
type AuditLogLister interface {
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// AdminHandler handles back-office requests.
type AdminHandler struct {
	ledger         LedgerAdminService
	disputes       DisputeAdminService
	reconciliation ReconciliationService
	audit          AuditLogLister
	logger         zerolog.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(
	ledger LedgerAdminService,
	disputes DisputeAdminService,
	reconciliation ReconciliationService,
	audit AuditLogLister,
	logger zerolog.Logger,
) *AdminHandler {
	return &AdminHandler{
		ledger:         ledger,
		disputes:       disputes,
		reconciliation: reconciliation,
		audit:          audit,
		logger:         logger,
	}
}

// ListPendingTransactions lists deposits and withdrawals awaiting review.
func (h *AdminHandler) ListPendingTransactions(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	entries, err := h.ledger.ListPendingTransactions(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, h.logger, "failed to list pending transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.LedgerEntryResponse]{
		Items:  dto.LedgerEntriesFromDomain(entries),
		Limit:  limit,
		Offset: offset,
	})
}

// ReviewTransaction approves or rejects a pending deposit or withdrawal.
func (h *AdminHandler) ReviewTransaction(w http.ResponseWriter, r *http.Request) {
	var req dto.ReviewTransactionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	entry, err := h.ledger.ReviewTransaction(r.Context(), usecase.ReviewTransactionInput{
		EntryID: chi.URLParam(r, "id"),
		Note:    req.Note,
		Approve: req.Approve,
	})
	if err != nil {
		writeDomainError(w, h.logger, "failed to review transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LedgerEntryFromDomain(entry))
}

// ListWallets lists all wallets.
func (h *AdminHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	wallets, err := h.ledger.ListWallets(r.Context(), limit, offset)
	if err != nil {
		writeDomainError(w, h.logger, "failed to list wallets", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.WalletResponse]{
		Items:  dto.WalletsFromDomain(wallets),
		Limit:  limit,
		Offset: offset,
	})
}

// ListWalletEntries lists the entries of any wallet.
func (h *AdminHandler) ListWalletEntries(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	entries, err := h.ledger.ListEntries(r.Context(), chi.URLParam(r, "id"), limit, offset)
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

// ListDisputes lists disputes, optionally filtered by a comma separated
// status query parameter.
func (h *AdminHandler) ListDisputes(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)

	var statuses []domain.DisputeStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		for _, s := range strings.Split(raw, ",") {
			statuses = append(statuses, domain.DisputeStatus(strings.ToUpper(strings.TrimSpace(s))))
		}
	}

	disputes, err := h.disputes.ListDisputes(r.Context(), statuses, limit, offset)
	if err != nil {
		writeDomainError(w, h.logger, "failed to list disputes", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.DisputeResponse]{
		Items:  dto.DisputesFromDomain(disputes),
		Limit:  limit,
		Offset: offset,
	})
}

// GetDispute returns a dispute by ID.
func (h *AdminHandler) GetDispute(w http.ResponseWriter, r *http.Request) {
	dispute, err := h.disputes.GetDispute(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.logger, "failed to get dispute", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DisputeFromDomain(dispute))
}

// ReviewDispute moves a pending dispute under review.
func (h *AdminHandler) ReviewDispute(w http.ResponseWriter, r *http.Request) {
	dispute, err := h.disputes.MarkUnderReview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, h.logger, "failed to review dispute", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DisputeFromDomain(dispute))
}

// ResolveDispute settles a dispute and the escrowed funds of its booking.
func (h *AdminHandler) ResolveDispute(w http.ResponseWriter, r *http.Request) {
	var req dto.ResolveDisputeRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}

	dispute, err := h.disputes.Resolve(r.Context(), req.ToUseCaseInput(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, h.logger, "failed to resolve dispute", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.DisputeFromDomain(dispute))
}

// Stats returns the admin dashboard ledger summary.
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reconciliation.GetStats(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, "failed to get stats", err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// Reconcile replays every wallet and checks money conservation. It answers
// 409 when the ledger is inconsistent.
func (h *AdminHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconciliation.GenerateReconciliationReport(r.Context())
	if err != nil {
		writeDomainError(w, h.logger, "failed to reconcile ledger", err)
		return
	}

	status := http.StatusOK
	if !report.LedgerConsistent {
		status = http.StatusConflict
	}

	writeJSON(w, status, dto.ReconciliationFromUseCase(report))
}

// ListAuditLogs lists audit log rows filtered by query parameters.
func (h *AdminHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	limit, offset := pagination(r)
	q := r.URL.Query()

	filter := domain.AuditFilter{
		UserID:       q.Get("user_id"),
		Action:       q.Get("action"),
		ResourceType: q.Get("resource_type"),
		ResourceID:   q.Get("resource_id"),
		Limit:        limit,
		Offset:       offset,
	}

	for key, dst := range map[string]**time.Time{"from": &filter.StartDate, "to": &filter.EndDate} {
		raw := q.Get(key)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid "+key+" parameter", err.Error())
			return
		}
		*dst = &t
	}

	logs, err := h.audit.List(r.Context(), filter)
	if err != nil {
		writeDomainError(w, h.logger, "failed to list audit logs", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ListResponse[*dto.AuditLogResponse]{
		Items:  dto.AuditLogsFromDomain(logs),
		Limit:  limit,
		Offset: offset,
	})
}
