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

// DisputeUseCase raises disputes and settles them by splitting the locked
// booking price between teacher, payer and platform.
type DisputeUseCase struct {
	txManager   TransactionManager
	retrier     Retrier
	bookingRepo BookingRepository
	disputeRepo DisputeRepository
	walletRepo  WalletRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	ledger      *LedgerUseCase
	bookings    *BookingUseCase
	counters    *CounterUseCase
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewDisputeUseCase creates a new DisputeUseCase.
func NewDisputeUseCase(
	txManager TransactionManager,
	retrier Retrier,
	bookingRepo BookingRepository,
	disputeRepo DisputeRepository,
	walletRepo WalletRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	ledger *LedgerUseCase,
	bookings *BookingUseCase,
	counters *CounterUseCase,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *DisputeUseCase {
	return &DisputeUseCase{
		txManager:   txManager,
		retrier:     retrier,
		bookingRepo: bookingRepo,
		disputeRepo: disputeRepo,
		walletRepo:  walletRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		ledger:      ledger,
		bookings:    bookings,
		counters:    counters,
		idGen:       idGen,
		metrics:     metrics,
		logger:      logger.With().Str("component", "dispute").Logger(),
	}
}

// RaiseDisputeInput opens a dispute on a booking.
type RaiseDisputeInput struct {
	BookingID   string
	UserID      string
	Description string
	Type        domain.DisputeType
}

// ResolveDisputeInput is an admin's decision on a dispute.
type ResolveDisputeInput struct {
	DisputeID  string
	Note       string
	Resolution domain.ResolutionType
	// TeacherPercent is the teacher's share in [0, 100], used by SPLIT only.
	TeacherPercent decimal.Decimal
}

// Raise opens a dispute on a SCHEDULED or PENDING_CONFIRMATION booking owned
// by the caller. The booking moves to DISPUTED and its funds stay locked.
func (uc *DisputeUseCase) Raise(ctx context.Context, input RaiseDisputeInput) (*domain.Dispute, error) {
	if !input.Type.IsValid() {
		return nil, domain.ErrInvalidDisputeType
	}
	if err := domain.ValidateNote(input.Description); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var dispute *domain.Dispute

	err := inTx(ctx, uc.txManager, TxOptions{}, func(ctx context.Context, tx Transaction) error {
		b, err := uc.bookingRepo.GetByIDForUpdate(ctx, tx, input.BookingID)
		if err != nil {
			return err
		}
		if !b.IsOwner(input.UserID) {
			return domain.ErrNotParticipant
		}

		switch b.Status {
		case domain.BookingStatusScheduled:
		case domain.BookingStatusPendingConfirmation:
			if b.DisputeWindowClosesAt != nil && now.After(*b.DisputeWindowClosesAt) {
				return fmt.Errorf("%w: dispute window closed", domain.ErrInvalidTransition)
			}
		case domain.BookingStatusDisputed:
			return domain.ErrDisputeExists
		default:
			return fmt.Errorf("%w: cannot dispute %s booking", domain.ErrInvalidTransition, b.Status)
		}

		readableID, err := uc.counters.NextReadableID(ctx, tx, domain.CounterTypeDispute, now)
		if err != nil {
			return err
		}

		d := &domain.Dispute{
			ID:                 uc.idGen.Generate(),
			ReadableID:         readableID,
			BookingID:          b.ID,
			RaisedByUserID:     input.UserID,
			Type:               input.Type,
			Description:        input.Description,
			Status:             domain.DisputeStatusPending,
			TeacherPayout:      decimal.Zero,
			StudentRefund:      decimal.Zero,
			PlatformCommission: decimal.Zero,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		if err := uc.disputeRepo.Create(ctx, tx, d); err != nil {
			return err
		}

		if err := uc.bookings.transitionInTx(ctx, tx, b, domain.BookingStatusDisputed, now); err != nil {
			return err
		}

		event := newOutboxEvent(uc.idGen, domain.AggregateTypeDispute, d.ID, domain.EventTypeDisputeRaised,
			bookingParties(b), disputePayload(d, b), now)
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		dispute = d
		return nil
	})
	if err != nil {
		uc.logger.Warn().Err(err).Str("booking_id", input.BookingID).Msg("dispute rejected")
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.DisputesRaised.Inc()
	}

	uc.logger.Info().
		Str("dispute_id", dispute.ReadableID).
		Str("booking_id", input.BookingID).
		Str("type", string(dispute.Type)).
		Msg("dispute raised")

	return dispute, nil
}

// MarkUnderReview moves a PENDING dispute to UNDER_REVIEW.
func (uc *DisputeUseCase) MarkUnderReview(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	now := time.Now().UTC()
	var dispute *domain.Dispute

	err := inTx(ctx, uc.txManager, TxOptions{}, func(ctx context.Context, tx Transaction) error {
		d, err := uc.disputeRepo.GetByIDForUpdate(ctx, tx, disputeID)
		if err != nil {
			return err
		}
		if d.Status != domain.DisputeStatusPending {
			return domain.ErrInvalidDisputeState
		}

		before := *d
		d.Status = domain.DisputeStatusUnderReview
		d.UpdatedAt = now

		if err := uc.disputeRepo.Update(ctx, tx, d, []domain.DisputeStatus{domain.DisputeStatusPending}); err != nil {
			return err
		}

		b, err := uc.bookingRepo.GetByIDForUpdate(ctx, tx, d.BookingID)
		if err != nil {
			return err
		}

		event := newOutboxEvent(uc.idGen, domain.AggregateTypeDispute, d.ID, domain.EventTypeDisputeUnderReview,
			bookingParties(b), disputePayload(d, b), now)
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		if err := writeAudit(ctx, tx, uc.auditRepo, uc.idGen, uc.metrics, auditRecord{
			action:       domain.AuditActionDisputeReview,
			resourceType: domain.AggregateTypeDispute,
			resourceID:   d.ID,
			before:       before,
			after:        d,
		}, now); err != nil {
			return err
		}

		dispute = d
		return nil
	})
	if err != nil {
		return nil, err
	}

	return dispute, nil
}

// Resolve settles an open dispute in one serializable transaction: the
// teacher payout and payer refund are computed, the locked funds are
// released and refunded accordingly, and dispute and booking reach their
// final statuses. A dispute can be resolved at most once; the loser of a
// concurrent resolution gets domain.ErrInvalidDisputeState.
func (uc *DisputeUseCase) Resolve(ctx context.Context, input ResolveDisputeInput) (*domain.Dispute, error) {
	if !input.Resolution.IsValid() {
		return nil, domain.ErrInvalidResolution
	}
	if input.Resolution == domain.ResolutionSplit {
		if err := domain.ValidateSplitPercent(input.TeacherPercent); err != nil {
			return nil, err
		}
	}
	if err := domain.ValidateNote(input.Note); err != nil {
		return nil, err
	}

	pre, err := uc.disputeRepo.GetByID(ctx, input.DisputeID)
	if err != nil {
		return nil, err
	}
	if !pre.IsOpen() {
		return nil, domain.ErrInvalidDisputeState
	}

	preBooking, err := uc.bookingRepo.GetByID(ctx, pre.BookingID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.ledger.GetOrCreateWallet(ctx, preBooking.TeacherID); err != nil {
		return nil, err
	}

	start := time.Now()
	now := start.UTC()
	resolverID := actorID(ctx)
	var dispute *domain.Dispute

	err = inSerializableTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		d, err := uc.disputeRepo.GetByIDForUpdate(ctx, tx, input.DisputeID)
		if err != nil {
			return err
		}
		if !d.IsOpen() {
			return domain.ErrInvalidDisputeState
		}

		b, err := uc.bookingRepo.GetByIDForUpdate(ctx, tx, d.BookingID)
		if err != nil {
			return err
		}
		if b.Status != domain.BookingStatusDisputed {
			return fmt.Errorf("%w: booking is %s", domain.ErrFundsNotLocked, b.Status)
		}

		payer, err := uc.walletRepo.GetByUserIDTx(ctx, tx, b.BookedByUserID)
		if err != nil {
			return err
		}
		if err := payer.ValidatePendingDebit(b.Price); err != nil {
			return err
		}
		teacher, err := uc.walletRepo.GetByUserIDTx(ctx, tx, b.TeacherID)
		if err != nil {
			return err
		}

		settlement, err := domain.ComputeSettlement(b.Price, b.CommissionRate, input.Resolution, input.TeacherPercent)
		if err != nil {
			return err
		}

		note := fmt.Sprintf("Dispute %s resolved: %s", d.ReadableID, input.Resolution)

		if settlement.Released().IsPositive() {
			if _, err := uc.ledger.releaseInTx(ctx, tx, ReleaseInput{
				SourceWalletID:    payer.ID,
				RecipientWalletID: teacher.ID,
				BookingID:         b.ID,
				Amount:            settlement.Released(),
				Commission:        settlement.PlatformCommission,
				Note:              note,
			}, now); err != nil {
				return err
			}
			b.PaymentReleasedAt = &now
		}

		if settlement.StudentRefund.IsPositive() {
			if _, err := uc.ledger.refundInTx(ctx, tx, RefundInput{
				WalletID:  payer.ID,
				BookingID: b.ID,
				Amount:    settlement.StudentRefund,
				Note:      note,
			}, now); err != nil {
				return err
			}
		}

		before := *d
		resolution := input.Resolution
		d.Status = resolution.DisputeStatus()
		d.Resolution = &resolution
		d.ResolutionNote = input.Note
		d.TeacherPayout = settlement.TeacherPayout
		d.StudentRefund = settlement.StudentRefund
		d.PlatformCommission = settlement.PlatformCommission
		d.ResolvedByUserID = resolverID
		d.ResolvedAt = &now
		d.UpdatedAt = now

		if err := uc.disputeRepo.Update(ctx, tx, d, domain.OpenDisputeStatuses); err != nil {
			return err
		}

		if err := uc.bookings.transitionInTx(ctx, tx, b, resolution.BookingStatus(), now); err != nil {
			return err
		}

		event := newOutboxEvent(uc.idGen, domain.AggregateTypeDispute, d.ID, domain.EventTypeDisputeResolved,
			bookingParties(b), disputePayload(d, b), now)
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		if err := writeAudit(ctx, tx, uc.auditRepo, uc.idGen, uc.metrics, auditRecord{
			action:       domain.AuditActionDisputeResolve,
			resourceType: domain.AggregateTypeDispute,
			resourceID:   d.ID,
			before:       before,
			after:        d,
		}, now); err != nil {
			return err
		}

		dispute = d
		return nil
	})
	if err != nil {
		uc.recordFailure(input.DisputeID, err)
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.DisputesResolved.WithLabelValues(string(input.Resolution)).Inc()
		uc.metrics.SettlementLatency.Observe(time.Since(start).Seconds())
	}

	uc.logger.Info().
		Str("dispute_id", dispute.ReadableID).
		Str("resolution", string(input.Resolution)).
		Str("teacher_payout", dispute.TeacherPayout.StringFixed(domain.MoneyScale)).
		Str("student_refund", dispute.StudentRefund.StringFixed(domain.MoneyScale)).
		Str("resolved_by", resolverID).
		Msg("dispute resolved")

	return dispute, nil
}

// GetDispute returns a dispute by ID.
func (uc *DisputeUseCase) GetDispute(ctx context.Context, id string) (*domain.Dispute, error) {
	return uc.disputeRepo.GetByID(ctx, id)
}

// GetDisputeByBooking returns the dispute raised on a booking.
func (uc *DisputeUseCase) GetDisputeByBooking(ctx context.Context, bookingID string) (*domain.Dispute, error) {
	return uc.disputeRepo.GetByBookingID(ctx, bookingID)
}

// ListDisputes lists disputes in the given statuses, all when empty.
func (uc *DisputeUseCase) ListDisputes(ctx context.Context, statuses []domain.DisputeStatus, limit, offset int) ([]*domain.Dispute, error) {
	limit, offset, _ = domain.ValidatePagination(limit, offset)
	return uc.disputeRepo.List(ctx, statuses, limit, offset)
}

func (uc *DisputeUseCase) recordFailure(disputeID string, err error) {
	if errors.Is(err, domain.ErrPayoutMismatch) {
		if uc.metrics != nil {
			uc.metrics.InvariantViolations.WithLabelValues("payout_mismatch").Inc()
		}
		uc.logger.Error().Err(err).Str("dispute_id", disputeID).Msg("settlement does not balance")
		return
	}
	uc.logger.Warn().Err(err).Str("dispute_id", disputeID).Msg("dispute resolution failed")
}

func disputePayload(d *domain.Dispute, b *domain.Booking) map[string]any {
	payload := map[string]any{
		"dispute_id":  d.ID,
		"readable_id": d.ReadableID,
		"booking_id":  b.ID,
		"booking_ref": b.ReadableID,
		"type":        string(d.Type),
		"status":      string(d.Status),
	}
	if d.Resolution != nil {
		payload["resolution"] = string(*d.Resolution)
		payload["teacher_payout"] = d.TeacherPayout.StringFixed(domain.MoneyScale)
		payload["student_refund"] = d.StudentRefund.StringFixed(domain.MoneyScale)
	}
	return payload
}
