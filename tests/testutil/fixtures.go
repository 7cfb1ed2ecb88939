package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/tutorescrow/internal/adapter/repository/postgres"
	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/infrastructure/metrics"
	infraPostgres "github.com/iho/tutorescrow/internal/infrastructure/postgres"
	"github.com/iho/tutorescrow/internal/usecase"
)

// TestDB provides a migrated database for integration tests.
type TestDB struct {
	Pool *pgxpool.Pool
	t    *testing.T
}

// NewTestDB connects to DATABASE_URL and applies migrations. The test is
// skipped when DATABASE_URL is not set.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	migrationsPath := "migrations"
	for _, candidate := range []string{"migrations", "../migrations", "../../migrations"} {
		if _, err := os.Stat(candidate); err == nil {
			migrationsPath = candidate
			break
		}
	}

	if err := infraPostgres.RunMigrations(dbURL, migrationsPath, zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := infraPostgres.NewPoolWithConfig(ctx, infraPostgres.PoolConfig{
		DatabaseURL: dbURL,
		MaxConns:    20,
	})
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	return &TestDB{Pool: pool, t: t}
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `
		TRUNCATE TABLE disputes, ledger_entries, bookings, wallets,
			readable_id_counters, outbox_events, audit_logs CASCADE;
	`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// Services bundles the use cases wired against a TestDB.
type Services struct {
	Ledger         *usecase.LedgerUseCase
	Bookings       *usecase.BookingUseCase
	Escrow         *usecase.EscrowUseCase
	Disputes       *usecase.DisputeUseCase
	Reconciliation *usecase.ReconciliationUseCase
	Outbox         *postgres.OutboxRepository
}

// NewServices wires the production repositories and use cases.
func (db *TestDB) NewServices() *Services {
	log := zerolog.Nop()
	m := metrics.NewWithRegisterer(prometheus.NewRegistry())

	pool := db.Pool
	txManager := postgres.NewTxManager(pool)
	retrier := postgres.NewRetrier(log, m)
	idGen := postgres.NewULIDGenerator()

	walletRepo := postgres.NewWalletRepository(pool)
	entryRepo := postgres.NewLedgerEntryRepository(pool)
	bookingRepo := postgres.NewBookingRepository(pool)
	outboxRepo := postgres.NewOutboxRepository(pool)
	auditRepo := postgres.NewAuditRepository(pool)

	counters := usecase.NewCounterUseCase(txManager, postgres.NewCounterRepository(pool), log)
	ledgerUC := usecase.NewLedgerUseCase(txManager, retrier, walletRepo, entryRepo, outboxRepo, auditRepo, counters, idGen, m, log)
	bookingUC := usecase.NewBookingUseCase(txManager, bookingRepo, outboxRepo, counters, idGen, usecase.DefaultBookingPolicy(), m, log)

	return &Services{
		Ledger:   ledgerUC,
		Bookings: bookingUC,
		Escrow:   usecase.NewEscrowUseCase(txManager, retrier, bookingRepo, walletRepo, outboxRepo, auditRepo, ledgerUC, bookingUC, idGen, m, log),
		Disputes: usecase.NewDisputeUseCase(txManager, retrier, bookingRepo, postgres.NewDisputeRepository(pool), walletRepo,
			outboxRepo, auditRepo, ledgerUC, bookingUC, counters, idGen, m, log),
		Reconciliation: usecase.NewReconciliationUseCase(txManager, walletRepo, entryRepo, postgres.NewLedgerRepository(pool), bookingRepo, nil, log),
		Outbox:         outboxRepo,
	}
}

// AdminContext returns ctx carrying an admin actor.
func AdminContext(ctx context.Context) context.Context {
	return domain.ContextWithActor(ctx, domain.Actor{UserID: "admin-" + GenerateID(), Role: domain.RoleAdmin})
}

// FundWallet deposits amount into the user's wallet through the reviewed
// deposit flow so the wallet history stays consistent.
func (s *Services) FundWallet(ctx context.Context, t *testing.T, userID string, amount decimal.Decimal) *domain.Wallet {
	t.Helper()

	entry, err := s.Ledger.RequestTransaction(ctx, usecase.RequestTransactionInput{
		UserID: userID,
		Type:   domain.EntryTypeDeposit,
		Amount: amount,
	})
	if err != nil {
		t.Fatalf("failed to request deposit: %v", err)
	}

	if _, err := s.Ledger.ReviewTransaction(AdminContext(ctx), usecase.ReviewTransactionInput{
		EntryID: entry.ID,
		Approve: true,
	}); err != nil {
		t.Fatalf("failed to approve deposit: %v", err)
	}

	wallet, err := s.Ledger.GetOrCreateWallet(ctx, userID)
	if err != nil {
		t.Fatalf("failed to load wallet: %v", err)
	}

	return wallet
}

// ReserveTomorrow books a one hour session starting offset after a fixed
// point tomorrow.
func (s *Services) ReserveTomorrow(ctx context.Context, t *testing.T, teacherID, payerID string, offset time.Duration, price decimal.Decimal) *domain.Booking {
	t.Helper()

	start := time.Now().UTC().Add(24 * time.Hour).Truncate(time.Hour).Add(offset)
	booking, err := s.Bookings.ReserveSlot(ctx, usecase.ReserveSlotInput{
		TeacherID:      teacherID,
		BookedByUserID: payerID,
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
		Price:          price,
	})
	if err != nil {
		t.Fatalf("failed to reserve slot: %v", err)
	}

	return booking
}

// GenerateID generates a new ULID.
func GenerateID() string {
	return ulid.Make().String()
}
