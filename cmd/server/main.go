package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	httpAdapter "github.com/iho/tutorescrow/internal/adapter/http"
	"github.com/iho/tutorescrow/internal/adapter/http/handler"
	"github.com/iho/tutorescrow/internal/adapter/http/middleware"
	postgresRepo "github.com/iho/tutorescrow/internal/adapter/repository/postgres"
	redisRepo "github.com/iho/tutorescrow/internal/adapter/repository/redis"
	"github.com/iho/tutorescrow/internal/infrastructure/auth"
	"github.com/iho/tutorescrow/internal/infrastructure/config"
	"github.com/iho/tutorescrow/internal/infrastructure/eventpublisher"
	"github.com/iho/tutorescrow/internal/infrastructure/logger"
	"github.com/iho/tutorescrow/internal/infrastructure/metrics"
	"github.com/iho/tutorescrow/internal/infrastructure/postgres"
	"github.com/iho/tutorescrow/internal/infrastructure/redis"
	"github.com/iho/tutorescrow/internal/infrastructure/sweeper"
	"github.com/iho/tutorescrow/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	m := metrics.New()

	pool, err := postgres.NewPoolWithConfig(ctx, postgres.PoolConfig{
		DatabaseURL:    cfg.DatabaseURL,
		MaxConns:       cfg.DatabaseMaxConns,
		MinConns:       cfg.DatabaseMinConns,
		ConnectTimeout: cfg.DatabaseTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := redis.NewClientWithOptions(ctx, cfg.RedisURL, redis.Options{
		PoolSize:     cfg.RedisPoolSize,
		DialTimeout:  cfg.RedisTimeout,
		ReadTimeout:  cfg.RedisTimeout,
		WriteTimeout: cfg.RedisTimeout,
	})
	if err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	app := buildApp(cfg, pool, redisClient, m, log)

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      app.router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	workerCtx, cancelWorkers := context.WithCancel(ctx)
	defer cancelWorkers()

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		_ = app.sweeper.Start(workerCtx)
	}()
	go func() {
		defer wg.Done()
		_ = app.publisher.Start(workerCtx)
	}()
	go func() {
		defer wg.Done()
		cleanupLimiters(workerCtx, app.rateLimiter, limiterCleanupInterval, log)
	}()

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			cancelWorkers()
			wg.Wait()
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	cancelWorkers()
	wg.Wait()

	log.Info().Msg("server stopped")

	return nil
}

const limiterCleanupInterval = 5 * time.Minute

func cleanupLimiters(ctx context.Context, rl *middleware.RateLimiter, interval time.Duration, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := rl.CleanupLimiters(2 * interval); removed > 0 {
				log.Debug().Int("removed", removed).Msg("dropped idle rate limiters")
			}
		}
	}
}

type app struct {
	router      http.Handler
	sweeper     *sweeper.Worker
	publisher   *eventpublisher.EventPublisher
	rateLimiter *middleware.RateLimiter
}

func buildApp(cfg *config.Config, pool *pgxpool.Pool, redisClient *goredis.Client, m *metrics.Metrics, log zerolog.Logger) *app {
	txManager := postgresRepo.NewTxManager(pool)
	retrier := postgresRepo.NewRetrier(log, m)
	idGen := postgresRepo.NewULIDGenerator()

	walletRepo := postgresRepo.NewWalletRepository(pool)
	entryRepo := postgresRepo.NewLedgerEntryRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	bookingRepo := postgresRepo.NewBookingRepository(pool)
	disputeRepo := postgresRepo.NewDisputeRepository(pool)
	counterRepo := postgresRepo.NewCounterRepository(pool)
	outboxRepo := postgresRepo.NewOutboxRepository(pool)
	auditRepo := postgresRepo.NewAuditRepository(pool)

	cache := redisRepo.NewCache(redisClient, m)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient, m)
	deduper := redisRepo.NewDeliveryDeduper(redisClient, m)

	counters := usecase.NewCounterUseCase(txManager, counterRepo, log)
	ledgerUC := usecase.NewLedgerUseCase(txManager, retrier, walletRepo, entryRepo, outboxRepo, auditRepo, counters, idGen, m, log)
	bookingUC := usecase.NewBookingUseCase(txManager, bookingRepo, outboxRepo, counters, idGen, bookingPolicy(cfg), m, log)
	escrowUC := usecase.NewEscrowUseCase(txManager, retrier, bookingRepo, walletRepo, outboxRepo, auditRepo, ledgerUC, bookingUC, idGen, m, log)
	disputeUC := usecase.NewDisputeUseCase(txManager, retrier, bookingRepo, disputeRepo, walletRepo, outboxRepo, auditRepo, ledgerUC, bookingUC, counters, idGen, m, log)
	reconciliationUC := usecase.NewReconciliationUseCase(txManager, walletRepo, entryRepo, ledgerRepo, bookingRepo, cache, log)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, m)

	routerCfg := httpAdapter.RouterConfig{
		HealthHandler:    handler.NewHealthHandler(pool, redisClient),
		WalletHandler:    handler.NewWalletHandler(ledgerUC, log),
		BookingHandler:   handler.NewBookingHandler(bookingUC, escrowUC, disputeUC, log),
		AdminHandler:     handler.NewAdminHandler(ledgerUC, disputeUC, reconciliationUC, auditRepo, log),
		IdempotencyStore: idempotencyStore,
		IdempotencyTTL:   cfg.IdempotencyTTL,
		RateLimiter:      rateLimiter,
		Metrics:          m,
		MetricsHandler:   promhttp.Handler(),
		Logger:           log,
	}
	if cfg.AuthEnabled {
		routerCfg.JWTManager = auth.NewJWTManager(cfg.JWTSecret, cfg.JWTExpiration)
	}

	publisher := eventpublisher.NewEventPublisher(eventpublisher.Config{
		OutboxRepo: outboxRepo,
		Notifier:   eventpublisher.NewLogNotifier(log),
		Deduper:    deduper,
		Metrics:    m,
		Logger:     log,
		BatchSize:  cfg.OutboxBatchSize,
		Interval:   cfg.OutboxInterval,
		DedupeTTL:  cfg.NotificationDedupeTTL,
		Retention:  cfg.OutboxRetention,
	})

	return &app{
		router:      httpAdapter.NewRouter(routerCfg),
		sweeper:     sweeper.NewWorker(escrowUC, cfg.SweepInterval, log),
		publisher:   publisher,
		rateLimiter: rateLimiter,
	}
}

func bookingPolicy(cfg *config.Config) usecase.BookingPolicy {
	policy := usecase.DefaultBookingPolicy()

	if !cfg.DefaultCommissionRate.IsZero() {
		policy.DefaultCommissionRate = cfg.DefaultCommissionRate
	}
	if cfg.ApprovalTimeout > 0 {
		policy.ApprovalTimeout = cfg.ApprovalTimeout
	}
	if cfg.PaymentWindow > 0 {
		policy.PaymentWindow = cfg.PaymentWindow
	}
	if cfg.PaymentLeadTime > 0 {
		policy.PaymentLeadTime = cfg.PaymentLeadTime
	}
	if cfg.ConfirmationWindow > 0 {
		policy.ConfirmationWindow = cfg.ConfirmationWindow
	}

	return policy
}

func validateConfig(cfg *config.Config) error {
	if cfg.AuthEnabled && cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when AUTH_ENABLED is true")
	}
	if cfg.HTTPPort == "" {
		return errors.New("HTTP_PORT must not be empty")
	}

	return nil
}
