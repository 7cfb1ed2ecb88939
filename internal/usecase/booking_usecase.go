package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/infrastructure/metrics"
)

// BookingPolicy holds the marketplace timing and pricing rules.
type BookingPolicy struct {
	DefaultCommissionRate decimal.Decimal
	ApprovalTimeout       time.Duration
	PaymentWindow         time.Duration
	PaymentLeadTime       time.Duration
	ConfirmationWindow    time.Duration
}

// DefaultBookingPolicy returns the production defaults.
func DefaultBookingPolicy() BookingPolicy {
	return BookingPolicy{
		DefaultCommissionRate: decimal.RequireFromString("0.18"),
		ApprovalTimeout:       24 * time.Hour,
		PaymentWindow:         24 * time.Hour,
		PaymentLeadTime:       2 * time.Hour,
		ConfirmationWindow:    48 * time.Hour,
	}
}

// BookingUseCase reserves teacher slots and drives booking status changes.
// At most one active booking can exist per (teacher, start time); the
// database enforces this so concurrent reservations cannot both succeed.
type BookingUseCase struct {
	txManager   TransactionManager
	bookingRepo BookingRepository
	outboxRepo  OutboxRepository
	counters    *CounterUseCase
	idGen       IDGenerator
	policy      BookingPolicy
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewBookingUseCase creates a new BookingUseCase.
func NewBookingUseCase(
	txManager TransactionManager,
	bookingRepo BookingRepository,
	outboxRepo OutboxRepository,
	counters *CounterUseCase,
	idGen IDGenerator,
	policy BookingPolicy,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *BookingUseCase {
	return &BookingUseCase{
		txManager:   txManager,
		bookingRepo: bookingRepo,
		outboxRepo:  outboxRepo,
		counters:    counters,
		idGen:       idGen,
		policy:      policy,
		metrics:     metrics,
		logger:      logger.With().Str("component", "booking").Logger(),
	}
}

// ReserveSlotInput represents a request to book a teacher's slot.
type ReserveSlotInput struct {
	StartTime      time.Time
	EndTime        time.Time
	TeacherID      string
	BookedByUserID string
	StudentUserID  string
	SubjectID      string
	Notes          string
	Price          decimal.Decimal
}

// ReserveSlot creates a PENDING_TEACHER_APPROVAL booking at the policy
// commission rate. It fails with domain.ErrSlotConflict when the teacher
// already has an active booking that starts at the same instant. Slots held by rejected, cancelled or expired
// bookings are free again.
func (uc *BookingUseCase) ReserveSlot(ctx context.Context, input ReserveSlotInput) (*domain.Booking, error) {
	draft := domain.BookingDraft{
		StartTime:      input.StartTime.UTC(),
		EndTime:        input.EndTime.UTC(),
		TeacherID:      input.TeacherID,
		BookedByUserID: input.BookedByUserID,
		StudentUserID:  input.StudentUserID,
		SubjectID:      input.SubjectID,
		Notes:          input.Notes,
		Price:          input.Price,
		CommissionRate: uc.policy.DefaultCommissionRate,
	}
	if err := draft.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateNote(draft.Notes); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	if !draft.StartTime.After(now) {
		return nil, fmt.Errorf("%w: session must start in the future", domain.ErrInvalidTimeRange)
	}

	var booking *domain.Booking

	err := inTx(ctx, uc.txManager, TxOptions{}, func(ctx context.Context, tx Transaction) error {
		readableID, err := uc.counters.NextReadableID(ctx, tx, domain.CounterTypeBooking, now)
		if err != nil {
			return err
		}

		b := &domain.Booking{
			ID:             uc.idGen.Generate(),
			ReadableID:     readableID,
			TeacherID:      draft.TeacherID,
			BookedByUserID: draft.BookedByUserID,
			StudentUserID:  draft.StudentUserID,
			SubjectID:      draft.SubjectID,
			Notes:          draft.Notes,
			StartTime:      draft.StartTime,
			EndTime:        draft.EndTime,
			Price:          draft.Price,
			CommissionRate: draft.CommissionRate,
			Status:         domain.BookingStatusPendingTeacherApproval,
			CreatedAt:      now,
			UpdatedAt:      now,
		}

		if err := uc.bookingRepo.Create(ctx, tx, b); err != nil {
			return err
		}

		event := newOutboxEvent(uc.idGen, domain.AggregateTypeBooking, b.ID, domain.EventTypeBookingRequested,
			[]string{b.TeacherID}, bookingPayload(b), now)
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		booking = b
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrSlotConflict) {
			if uc.metrics != nil {
				uc.metrics.SlotConflicts.Inc()
			}
			uc.logger.Warn().
				Str("teacher_id", input.TeacherID).
				Time("start_time", draft.StartTime).
				Msg("slot already taken")
		}
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.BookingsReserved.Inc()
	}

	uc.logger.Info().
		Str("booking_id", booking.ReadableID).
		Str("teacher_id", booking.TeacherID).
		Time("start_time", booking.StartTime).
		Msg("slot reserved")

	return booking, nil
}

// GetBooking returns a booking by ID.
func (uc *BookingUseCase) GetBooking(ctx context.Context, id string) (*domain.Booking, error) {
	return uc.bookingRepo.GetByID(ctx, id)
}

// ListBookings lists bookings where userID is the teacher or the payer.
func (uc *BookingUseCase) ListBookings(ctx context.Context, userID string, limit, offset int) ([]*domain.Booking, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.bookingRepo.ListByUser(ctx, userID, limit, offset)
}

// Policy returns the active booking policy.
func (uc *BookingUseCase) Policy() BookingPolicy {
	return uc.policy
}

// transitionInTx moves b to status "to" if the state machine allows it and
// the stored row still has b's current status.
func (uc *BookingUseCase) transitionInTx(ctx context.Context, tx Transaction, b *domain.Booking, to domain.BookingStatus, now time.Time) error {
	from := b.Status
	if !from.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, from, to)
	}

	b.Status = to
	b.UpdatedAt = now

	if err := uc.bookingRepo.UpdateStatus(ctx, tx, b, []domain.BookingStatus{from}); err != nil {
		b.Status = from
		return err
	}

	if uc.metrics != nil {
		uc.metrics.BookingTransitions.WithLabelValues(string(to)).Inc()
	}

	return nil
}
