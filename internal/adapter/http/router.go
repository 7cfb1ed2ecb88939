package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iho/tutorescrow/internal/adapter/http/handler"
	"github.com/iho/tutorescrow/internal/adapter/http/middleware"
	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/infrastructure/auth"
	"github.com/iho/tutorescrow/internal/infrastructure/metrics"
	"github.com/iho/tutorescrow/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	HealthHandler    *handler.HealthHandler
	WalletHandler    *handler.WalletHandler
	BookingHandler   *handler.BookingHandler
	AdminHandler     *handler.AdminHandler
	IdempotencyStore usecase.IdempotencyStore
	// JWTManager verifies bearer tokens. When nil the caller is taken from
	// the X-User-ID and X-User-Role headers.
	JWTManager     *auth.JWTManager
	RateLimiter    *middleware.RateLimiter
	Metrics        *metrics.Metrics
	MetricsHandler http.Handler
	Logger         zerolog.Logger
	IdempotencyTTL time.Duration
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery(cfg.Logger))
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Limit)
	}

	// Health endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.JWTManager != nil {
			r.Use(middleware.AuthMiddleware(cfg.JWTManager))
		} else {
			r.Use(middleware.HeaderAuthMiddleware)
		}

		// Idempotency keys are scoped to the authenticated caller.
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore, cfg.IdempotencyTTL, cfg.Logger)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Wallet of the caller
		r.Route("/wallet", func(r chi.Router) {
			r.Get("/", cfg.WalletHandler.Get)
			r.Get("/entries", cfg.WalletHandler.ListEntries)
			r.Post("/deposits", cfg.WalletHandler.RequestDeposit)
			r.Post("/withdrawals", cfg.WalletHandler.RequestWithdrawal)
		})

		// Bookings
		r.Route("/bookings", func(r chi.Router) {
			r.Post("/", cfg.BookingHandler.Create)
			r.Get("/", cfg.BookingHandler.List)
			r.Get("/{id}", cfg.BookingHandler.Get)
			r.Post("/{id}/approve", cfg.BookingHandler.Approve)
			r.Post("/{id}/reject", cfg.BookingHandler.Reject)
			r.Post("/{id}/pay", cfg.BookingHandler.Pay)
			r.Post("/{id}/cancel", cfg.BookingHandler.Cancel)
			r.Post("/{id}/session-ended", cfg.BookingHandler.EndSession)
			r.Post("/{id}/confirm", cfg.BookingHandler.Confirm)
			r.Post("/{id}/disputes", cfg.BookingHandler.RaiseDispute)
			r.Get("/{id}/dispute", cfg.BookingHandler.GetDispute)
		})

		// Back office
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireRole(domain.RoleAdmin))

			r.Get("/transactions/pending", cfg.AdminHandler.ListPendingTransactions)
			r.Post("/transactions/{id}/review", cfg.AdminHandler.ReviewTransaction)
			r.Get("/wallets", cfg.AdminHandler.ListWallets)
			r.Get("/wallets/{id}/entries", cfg.AdminHandler.ListWalletEntries)
			r.Get("/disputes", cfg.AdminHandler.ListDisputes)
			r.Get("/disputes/{id}", cfg.AdminHandler.GetDispute)
			r.Post("/disputes/{id}/review", cfg.AdminHandler.ReviewDispute)
			r.Post("/disputes/{id}/resolve", cfg.AdminHandler.ResolveDispute)
			r.Get("/ledger/stats", cfg.AdminHandler.Stats)
			r.Get("/ledger/reconciliation", cfg.AdminHandler.Reconcile)
			r.Get("/audit-logs", cfg.AdminHandler.ListAuditLogs)
		})
	})

	return r
}
