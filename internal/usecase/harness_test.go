package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/infrastructure/metrics"
	"github.com/iho/tutorescrow/internal/usecase"
	"github.com/iho/tutorescrow/internal/usecase/mocks"
)

const (
	teacherID = "teacher-1"
	parentID  = "parent-1"
	studentID = "student-1"
)

// harness wires every engine over one in-memory store.
type harness struct {
	store       *mocks.Store
	walletRepo  *mocks.MockWalletRepository
	entryRepo   *mocks.MockLedgerEntryRepository
	ledgerRepo  *mocks.MockLedgerRepository
	bookingRepo *mocks.MockBookingRepository
	disputeRepo *mocks.MockDisputeRepository
	counterRepo *mocks.MockCounterRepository
	outboxRepo  *mocks.MockOutboxRepository
	auditRepo   *mocks.MockAuditRepository
	txManager   *mocks.MockTransactionManager
	idGen       *mocks.MockIDGenerator
	metrics     *metrics.Metrics

	counters *usecase.CounterUseCase
	ledger   *usecase.LedgerUseCase
	bookings *usecase.BookingUseCase
	escrow   *usecase.EscrowUseCase
	disputes *usecase.DisputeUseCase
	recon    *usecase.ReconciliationUseCase

	base time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	store := mocks.NewStore()
	h := &harness{
		store:       store,
		walletRepo:  mocks.NewMockWalletRepository(store),
		entryRepo:   mocks.NewMockLedgerEntryRepository(store),
		ledgerRepo:  mocks.NewMockLedgerRepository(store),
		bookingRepo: mocks.NewMockBookingRepository(store),
		disputeRepo: mocks.NewMockDisputeRepository(store),
		counterRepo: mocks.NewMockCounterRepository(store),
		outboxRepo:  mocks.NewMockOutboxRepository(store),
		auditRepo:   mocks.NewMockAuditRepository(store),
		txManager:   mocks.NewMockTransactionManager(),
		idGen:       mocks.NewMockIDGenerator(),
		metrics:     metrics.NewWithRegisterer(prometheus.NewRegistry()),
		base:        time.Now().UTC().Add(72 * time.Hour).Truncate(time.Hour),
	}

	logger := zerolog.Nop()
	h.counters = usecase.NewCounterUseCase(h.txManager, h.counterRepo, logger)
	h.ledger = usecase.NewLedgerUseCase(h.txManager, nil, h.walletRepo, h.entryRepo, h.outboxRepo, h.auditRepo,
		h.counters, h.idGen, h.metrics, logger)
	h.bookings = usecase.NewBookingUseCase(h.txManager, h.bookingRepo, h.outboxRepo, h.counters, h.idGen,
		usecase.DefaultBookingPolicy(), h.metrics, logger)
	h.escrow = usecase.NewEscrowUseCase(h.txManager, nil, h.bookingRepo, h.walletRepo, h.outboxRepo, h.auditRepo,
		h.ledger, h.bookings, h.idGen, h.metrics, logger)
	h.disputes = usecase.NewDisputeUseCase(h.txManager, nil, h.bookingRepo, h.disputeRepo, h.walletRepo, h.outboxRepo,
		h.auditRepo, h.ledger, h.bookings, h.counters, h.idGen, h.metrics, logger)
	h.recon = usecase.NewReconciliationUseCase(h.txManager, h.walletRepo, h.entryRepo, h.ledgerRepo, h.bookingRepo, nil, logger)

	return h
}

// slot returns the start of the n-th one hour slot after the harness base time.
func (h *harness) slot(n int) time.Time {
	return h.base.Add(time.Duration(n) * time.Hour)
}

func (h *harness) reserve(t *testing.T, slot int, price string) *domain.Booking {
	t.Helper()

	start := h.slot(slot)
	b, err := h.bookings.ReserveSlot(context.Background(), usecase.ReserveSlotInput{
		TeacherID:      teacherID,
		BookedByUserID: parentID,
		StudentUserID:  studentID,
		SubjectID:      "math",
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
		Price:          dec(price),
	})
	require.NoError(t, err)
	return b
}

func (h *harness) scheduled(t *testing.T, slot int, price string) *domain.Booking {
	t.Helper()

	b := h.reserve(t, slot, price)
	res, err := h.escrow.Approve(context.Background(), usecase.ApproveInput{BookingID: b.ID, TeacherID: teacherID})
	require.NoError(t, err)
	require.Equal(t, domain.BookingStatusScheduled, res.Booking.Status)
	return res.Booking
}

func (h *harness) disputed(t *testing.T, slot int, price string) (*domain.Booking, *domain.Dispute) {
	t.Helper()

	b := h.scheduled(t, slot, price)
	d, err := h.disputes.Raise(context.Background(), usecase.RaiseDisputeInput{
		BookingID:   b.ID,
		UserID:      parentID,
		Type:        domain.DisputeTypeTeacherNoShow,
		Description: "teacher never joined",
	})
	require.NoError(t, err)
	return h.store.Booking(b.ID), d
}

// requireConsistent asserts that every wallet replays from its entries and
// that money is conserved ledger-wide.
func (h *harness) requireConsistent(t *testing.T) {
	t.Helper()

	report, err := h.recon.GenerateReconciliationReport(context.Background())
	require.NoError(t, err)
	require.Empty(t, report.Discrepancies)
	require.True(t, report.LedgerConsistent, "conservation violated: %+v", report.Conservation)
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func requireAmount(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "want %s, got %s", want, got.String())
}
