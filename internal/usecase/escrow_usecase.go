package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/infrastructure/metrics"
)

// EscrowUseCase ties booking lifecycle events to ledger movements: funds are
// locked on approval, released to the teacher on completion and refunded on
// cancellation. Each hook runs in the same transaction as the status change.
type EscrowUseCase struct {
	txManager   TransactionManager
	retrier     Retrier
	bookingRepo BookingRepository
	walletRepo  WalletRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	ledger      *LedgerUseCase
	bookings    *BookingUseCase
	idGen       IDGenerator
	metrics     *metrics.Metrics
	logger      zerolog.Logger
}

// NewEscrowUseCase creates a new EscrowUseCase.
func NewEscrowUseCase(
	txManager TransactionManager,
	retrier Retrier,
	bookingRepo BookingRepository,
	walletRepo WalletRepository,
	outboxRepo OutboxRepository,
	auditRepo AuditRepository,
	ledger *LedgerUseCase,
	bookings *BookingUseCase,
	idGen IDGenerator,
	metrics *metrics.Metrics,
	logger zerolog.Logger,
) *EscrowUseCase {
	return &EscrowUseCase{
		txManager:   txManager,
		retrier:     retrier,
		bookingRepo: bookingRepo,
		walletRepo:  walletRepo,
		outboxRepo:  outboxRepo,
		auditRepo:   auditRepo,
		ledger:      ledger,
		bookings:    bookings,
		idGen:       idGen,
		metrics:     metrics,
		logger:      logger.With().Str("component", "escrow").Logger(),
	}
}

// ApproveInput is a teacher's acceptance of a booking request.
type ApproveInput struct {
	BookingID string
	TeacherID string
	// AllowWaitingForPayment parks the booking in WAITING_FOR_PAYMENT instead
	// of failing when the payer cannot cover the price yet.
	AllowWaitingForPayment bool
}

// ApprovalResult reports the booking after approval.
type ApprovalResult struct {
	Booking         *domain.Booking
	PaymentRequired bool
}

// CancelInput cancels a booking on behalf of Actor.
type CancelInput struct {
	Actor     domain.Actor
	BookingID string
	Reason    string
}

// SweepResult counts bookings changed by one sweeper pass.
type SweepResult struct {
	Expired   int
	Completed int
	Failed    int
}

// Approve locks the booking price in the payer's wallet and schedules the
// booking. Approving an already scheduled booking is a no-op.
func (uc *EscrowUseCase) Approve(ctx context.Context, input ApproveInput) (*ApprovalResult, error) {
	pre, err := uc.bookingRepo.GetByID(ctx, input.BookingID)
	if err != nil {
		return nil, err
	}
	if pre.TeacherID != input.TeacherID {
		return nil, domain.ErrNotParticipant
	}

	payer, err := uc.ledger.GetOrCreateWallet(ctx, pre.BookedByUserID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	policy := uc.bookings.Policy()
	var result *ApprovalResult

	err = inTx(ctx, uc.txManager, TxOptions{}, func(ctx context.Context, tx Transaction) error {
		b, err := uc.bookingRepo.GetByIDForUpdate(ctx, tx, input.BookingID)
		if err != nil {
			return err
		}

		switch b.Status {
		case domain.BookingStatusScheduled, domain.BookingStatusPendingConfirmation, domain.BookingStatusCompleted:
			result = &ApprovalResult{Booking: b}
			return nil
		}
		if !b.Status.CanTransitionTo(domain.BookingStatusScheduled) {
			return fmt.Errorf("%w: cannot approve %s booking", domain.ErrInvalidTransition, b.Status)
		}

		err = uc.onApproval(ctx, tx, b, payer.ID, now)
		if errors.Is(err, domain.ErrInsufficientBalance) && input.AllowWaitingForPayment {
			deadline, ok := domain.PaymentDeadline(now, b.StartTime, policy.PaymentWindow, policy.PaymentLeadTime)
			if !ok {
				return err
			}

			if err := uc.parkForPayment(ctx, tx, b, deadline, now); err != nil {
				return err
			}

			result = &ApprovalResult{Booking: b, PaymentRequired: true}
			return nil
		}
		if err != nil {
			return err
		}

		if err := uc.schedule(ctx, tx, b, now); err != nil {
			return err
		}

		result = &ApprovalResult{Booking: b}
		return nil
	})
	if err != nil {
		uc.logger.Warn().Err(err).Str("booking_id", input.BookingID).Msg("approval failed")
		return nil, err
	}

	uc.logger.Info().
		Str("booking_id", result.Booking.ReadableID).
		Str("status", string(result.Booking.Status)).
		Bool("payment_required", result.PaymentRequired).
		Msg("booking approved")

	return result, nil
}

// PayForBooking funds a WAITING_FOR_PAYMENT booking and schedules it.
func (uc *EscrowUseCase) PayForBooking(ctx context.Context, bookingID, payerID string) (*domain.Booking, error) {
	pre, err := uc.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !pre.IsOwner(payerID) {
		return nil, domain.ErrNotParticipant
	}

	payer, err := uc.ledger.GetOrCreateWallet(ctx, pre.BookedByUserID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	var booking *domain.Booking

	err = inTx(ctx, uc.txManager, TxOptions{}, func(ctx context.Context, tx Transaction) error {
		b, err := uc.bookingRepo.GetByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		if b.Status == domain.BookingStatusScheduled {
			booking = b
			return nil
		}
		if b.Status != domain.BookingStatusWaitingForPayment {
			return fmt.Errorf("%w: booking is %s", domain.ErrInvalidTransition, b.Status)
		}
		if b.PaymentDeadline != nil && now.After(*b.PaymentDeadline) {
			return fmt.Errorf("%w: payment deadline passed", domain.ErrInvalidTransition)
		}

		if err := uc.onApproval(ctx, tx, b, payer.ID, now); err != nil {
			return err
		}
		if err := uc.schedule(ctx, tx, b, now); err != nil {
			return err
		}

		booking = b
		return nil
	})
	if err != nil {
		uc.logger.Warn().Err(err).Str("booking_id", bookingID).Msg("payment failed")
		return nil, err
	}

	return booking, nil
}

// Reject declines a booking request. The slot becomes free again.
func (uc *EscrowUseCase) Reject(ctx context.Context, bookingID, teacherID, reason string) (*domain.Booking, error) {
	target := func(b *domain.Booking) (domain.BookingStatus, error) {
		if b.TeacherID != teacherID {
			return "", domain.ErrNotParticipant
		}
		return domain.BookingStatusRejectedByTeacher, nil
	}

	return uc.closeBooking(ctx, bookingID, reason, target, time.Now().UTC())
}

// Cancel cancels a booking, refunding the payer when funds were locked.
// The resulting status records who cancelled.
func (uc *EscrowUseCase) Cancel(ctx context.Context, input CancelInput) (*domain.Booking, error) {
	target := func(b *domain.Booking) (domain.BookingStatus, error) {
		switch {
		case input.Actor.IsAdmin():
			return domain.BookingStatusCancelledByAdmin, nil
		case b.TeacherID == input.Actor.UserID:
			return domain.BookingStatusCancelledByTeacher, nil
		case b.IsOwner(input.Actor.UserID):
			return domain.BookingStatusCancelledByParent, nil
		}
		return "", domain.ErrNotParticipant
	}

	return uc.closeBooking(ctx, input.BookingID, input.Reason, target, time.Now().UTC())
}

// MarkSessionEnded moves a SCHEDULED booking to PENDING_CONFIRMATION and
// opens the dispute window.
func (uc *EscrowUseCase) MarkSessionEnded(ctx context.Context, bookingID string, actor domain.Actor) (*domain.Booking, error) {
	now := time.Now().UTC()
	window := uc.bookings.Policy().ConfirmationWindow
	var booking *domain.Booking

	err := inTx(ctx, uc.txManager, TxOptions{}, func(ctx context.Context, tx Transaction) error {
		b, err := uc.bookingRepo.GetByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if !actor.IsAdmin() && b.TeacherID != actor.UserID {
			return domain.ErrNotParticipant
		}

		closesAt := now.Add(window)
		b.DisputeWindowClosesAt = &closesAt

		if err := uc.bookings.transitionInTx(ctx, tx, b, domain.BookingStatusPendingConfirmation, now); err != nil {
			return err
		}

		payload := bookingPayload(b)
		payload["dispute_window_closes_at"] = closesAt.Format(time.RFC3339)

		event := newOutboxEvent(uc.idGen, domain.AggregateTypeBooking, b.ID, domain.EventTypeBookingSessionEnded,
			[]string{b.BookedByUserID}, payload, now)
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	return booking, nil
}

// Confirm completes a booking on behalf of the payer or an admin and
// releases the escrowed price to the teacher minus commission.
func (uc *EscrowUseCase) Confirm(ctx context.Context, bookingID string, actor domain.Actor) (*domain.Booking, error) {
	check := func(b *domain.Booking) error {
		if !actor.IsAdmin() && !b.IsOwner(actor.UserID) {
			return domain.ErrNotParticipant
		}
		return nil
	}

	byAdmin := actor.IsAdmin()
	if byAdmin {
		ctx = domain.ContextWithActor(ctx, actor)
	}

	booking, err := uc.completeBooking(ctx, bookingID, check, byAdmin, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if byAdmin {
		uc.logger.Info().Str("booking_id", booking.ReadableID).Str("admin_id", actor.UserID).Msg("booking completed by admin")
	}

	return booking, nil
}

// Sweep runs one pass of the time based transitions: stale requests and
// unpaid bookings expire, and bookings whose dispute window closed without a
// dispute are completed.
func (uc *EscrowUseCase) Sweep(ctx context.Context, now time.Time) (*SweepResult, error) {
	result := &SweepResult{}

	expired, failed, err := uc.ExpireStale(ctx, now)
	if err != nil {
		return nil, err
	}
	result.Expired, result.Failed = expired, failed

	completed, failed, err := uc.ReleaseDue(ctx, now)
	if err != nil {
		return nil, err
	}
	result.Completed = completed
	result.Failed += failed

	return result, nil
}

// ExpireStale expires approval requests older than the approval timeout and
// WAITING_FOR_PAYMENT bookings whose deadline passed.
func (uc *EscrowUseCase) ExpireStale(ctx context.Context, now time.Time) (expired, failed int, err error) {
	cutoff := now.Add(-uc.bookings.Policy().ApprovalTimeout)

	stale, err := uc.bookingRepo.ListPendingApprovalBefore(ctx, cutoff, SweepBatchSize)
	if err != nil {
		return 0, 0, err
	}

	overdue, err := uc.bookingRepo.ListPaymentOverdue(ctx, now, SweepBatchSize)
	if err != nil {
		return 0, 0, err
	}

	eligible := func(b *domain.Booking) (domain.BookingStatus, error) {
		switch {
		case b.Status == domain.BookingStatusPendingTeacherApproval && b.CreatedAt.Before(cutoff):
			return domain.BookingStatusExpired, nil
		case b.Status == domain.BookingStatusWaitingForPayment && b.PaymentDeadline != nil && b.PaymentDeadline.Before(now):
			return domain.BookingStatusExpired, nil
		}
		return "", fmt.Errorf("%w: %s no longer eligible for expiry", domain.ErrInvalidTransition, b.Status)
	}

	for _, b := range append(stale, overdue...) {
		if _, err := uc.closeBooking(ctx, b.ID, "expired", eligible, now); err != nil {
			uc.sweepFailure("expire", b, err)
			if !errors.Is(err, domain.ErrInvalidTransition) {
				failed++
			}
			continue
		}
		expired++
	}

	if uc.metrics != nil && expired > 0 {
		uc.metrics.SweeperRuns.WithLabelValues("expire").Add(float64(expired))
	}

	return expired, failed, nil
}

// ReleaseDue completes PENDING_CONFIRMATION bookings whose dispute window
// closed without a dispute.
func (uc *EscrowUseCase) ReleaseDue(ctx context.Context, now time.Time) (completed, failed int, err error) {
	due, err := uc.bookingRepo.ListReleasable(ctx, now, SweepBatchSize)
	if err != nil {
		return 0, 0, err
	}

	check := func(b *domain.Booking) error {
		if b.Status != domain.BookingStatusPendingConfirmation {
			return fmt.Errorf("%w: booking is %s", domain.ErrInvalidTransition, b.Status)
		}
		if b.DisputeWindowClosesAt == nil || b.DisputeWindowClosesAt.After(now) {
			return fmt.Errorf("%w: dispute window still open", domain.ErrInvalidTransition)
		}
		return nil
	}

	for _, b := range due {
		if _, err := uc.completeBooking(ctx, b.ID, check, false, now); err != nil {
			uc.sweepFailure("release", b, err)
			if !errors.Is(err, domain.ErrInvalidTransition) {
				failed++
			}
			continue
		}
		completed++
	}

	if uc.metrics != nil && completed > 0 {
		uc.metrics.SweeperRuns.WithLabelValues("release").Add(float64(completed))
	}

	return completed, failed, nil
}

// onApproval locks the booking price in the payer's wallet.
func (uc *EscrowUseCase) onApproval(ctx context.Context, tx Transaction, b *domain.Booking, payerWalletID string, now time.Time) error {
	_, err := uc.ledger.lockInTx(ctx, tx, LockFundsInput{
		WalletID:  payerWalletID,
		BookingID: b.ID,
		Amount:    b.Price,
		Note:      "Payment held for booking " + b.ReadableID,
		Metadata:  map[string]any{"teacher_id": b.TeacherID},
	}, now)
	return err
}

// onCompletion releases the locked price: the teacher receives the price
// minus commission and the platform keeps the remainder.
func (uc *EscrowUseCase) onCompletion(ctx context.Context, tx Transaction, b *domain.Booking, now time.Time) (*ReleaseResult, error) {
	payer, err := uc.walletRepo.GetByUserIDTx(ctx, tx, b.BookedByUserID)
	if err != nil {
		return nil, err
	}
	teacher, err := uc.walletRepo.GetByUserIDTx(ctx, tx, b.TeacherID)
	if err != nil {
		return nil, err
	}

	_, commission := domain.SplitCommission(b.Price, b.CommissionRate)

	return uc.ledger.releaseInTx(ctx, tx, ReleaseInput{
		SourceWalletID:    payer.ID,
		RecipientWalletID: teacher.ID,
		BookingID:         b.ID,
		Amount:            b.Price,
		Commission:        commission,
		Note: fmt.Sprintf("Session payment for booking %s (%s%% platform commission)",
			b.ReadableID, b.CommissionRate.Shift(2).String()),
	}, now)
}

// onCancellationOrRejection refunds the payer if the booking had funds locked.
func (uc *EscrowUseCase) onCancellationOrRejection(ctx context.Context, tx Transaction, b *domain.Booking, previous domain.BookingStatus, now time.Time) error {
	if !previous.FundsLocked() {
		return nil
	}

	payer, err := uc.walletRepo.GetByUserIDTx(ctx, tx, b.BookedByUserID)
	if err != nil {
		return err
	}

	_, err = uc.ledger.refundInTx(ctx, tx, RefundInput{
		WalletID:  payer.ID,
		BookingID: b.ID,
		Amount:    b.Price,
		Note:      fmt.Sprintf("Refund for booking %s (%s)", b.ReadableID, b.Status),
	}, now)
	return err
}

func (uc *EscrowUseCase) schedule(ctx context.Context, tx Transaction, b *domain.Booking, now time.Time) error {
	b.PaymentDeadline = nil

	if err := uc.bookings.transitionInTx(ctx, tx, b, domain.BookingStatusScheduled, now); err != nil {
		return err
	}

	event := newOutboxEvent(uc.idGen, domain.AggregateTypeBooking, b.ID, domain.EventTypeBookingScheduled,
		bookingParties(b), bookingPayload(b), now)
	return uc.outboxRepo.Create(ctx, tx, event)
}

func (uc *EscrowUseCase) parkForPayment(ctx context.Context, tx Transaction, b *domain.Booking, deadline, now time.Time) error {
	b.PaymentDeadline = &deadline

	if b.Status == domain.BookingStatusWaitingForPayment {
		// Re-approval only extends the deadline.
		b.UpdatedAt = now
		if err := uc.bookingRepo.UpdateStatus(ctx, tx, b, []domain.BookingStatus{domain.BookingStatusWaitingForPayment}); err != nil {
			return err
		}
	} else if err := uc.bookings.transitionInTx(ctx, tx, b, domain.BookingStatusWaitingForPayment, now); err != nil {
		return err
	}

	payload := bookingPayload(b)
	payload["payment_deadline"] = deadline.Format(time.RFC3339)

	event := newOutboxEvent(uc.idGen, domain.AggregateTypeBooking, b.ID, domain.EventTypeBookingPaymentNeeded,
		[]string{b.BookedByUserID}, payload, now)
	return uc.outboxRepo.Create(ctx, tx, event)
}

// closeBooking moves a booking to the terminal status chosen by target and
// refunds locked funds in the same transaction.
func (uc *EscrowUseCase) closeBooking(
	ctx context.Context,
	bookingID, reason string,
	target func(*domain.Booking) (domain.BookingStatus, error),
	now time.Time,
) (*domain.Booking, error) {
	if err := domain.ValidateNote(reason); err != nil {
		return nil, err
	}

	var booking *domain.Booking

	err := inTx(ctx, uc.txManager, TxOptions{}, func(ctx context.Context, tx Transaction) error {
		b, err := uc.bookingRepo.GetByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}

		to, err := target(b)
		if err != nil {
			return err
		}

		before := *b
		previous := b.Status
		b.CancelReason = reason
		b.PaymentDeadline = nil

		if err := uc.bookings.transitionInTx(ctx, tx, b, to, now); err != nil {
			return err
		}
		if err := uc.onCancellationOrRejection(ctx, tx, b, previous, now); err != nil {
			return err
		}

		eventType := domain.EventTypeBookingCancelled
		if to == domain.BookingStatusExpired {
			eventType = domain.EventTypeBookingExpired
		}

		payload := bookingPayload(b)
		payload["refunded"] = previous.FundsLocked()
		if reason != "" {
			payload["reason"] = reason
		}

		event := newOutboxEvent(uc.idGen, domain.AggregateTypeBooking, b.ID, eventType, bookingParties(b), payload, now)
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		if to == domain.BookingStatusCancelledByAdmin {
			if err := writeAudit(ctx, tx, uc.auditRepo, uc.idGen, uc.metrics, auditRecord{
				action:       domain.AuditActionBookingCancel,
				resourceType: domain.AggregateTypeBooking,
				resourceID:   b.ID,
				before:       before,
				after:        b,
			}, now); err != nil {
				return err
			}
		}

		booking = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info().
		Str("booking_id", booking.ReadableID).
		Str("status", string(booking.Status)).
		Msg("booking closed")

	return booking, nil
}

// completeBooking completes a booking and releases escrow. Completing an
// already completed booking returns it unchanged so money is never released twice.
func (uc *EscrowUseCase) completeBooking(
	ctx context.Context,
	bookingID string,
	check func(*domain.Booking) error,
	audited bool,
	now time.Time,
) (*domain.Booking, error) {
	pre, err := uc.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := check(pre); err != nil {
		return nil, err
	}

	// Ensure both wallets exist before the settlement transaction.
	if _, err := uc.ledger.GetOrCreateWallet(ctx, pre.BookedByUserID); err != nil {
		return nil, err
	}
	if _, err := uc.ledger.GetOrCreateWallet(ctx, pre.TeacherID); err != nil {
		return nil, err
	}

	start := time.Now()
	var booking *domain.Booking

	err = inSerializableTx(ctx, uc.txManager, uc.retrier, func(ctx context.Context, tx Transaction) error {
		b, err := uc.bookingRepo.GetByIDForUpdate(ctx, tx, bookingID)
		if err != nil {
			return err
		}
		if b.Status == domain.BookingStatusCompleted {
			booking = b
			return nil
		}
		if err := check(b); err != nil {
			return err
		}
		if !b.Status.CanTransitionTo(domain.BookingStatusCompleted) || b.Status == domain.BookingStatusDisputed {
			return fmt.Errorf("%w: cannot complete %s booking", domain.ErrInvalidTransition, b.Status)
		}

		before := *b
		release, err := uc.onCompletion(ctx, tx, b, now)
		if err != nil {
			return err
		}

		b.PaymentReleasedAt = &now
		if err := uc.bookings.transitionInTx(ctx, tx, b, domain.BookingStatusCompleted, now); err != nil {
			return err
		}

		payload := bookingPayload(b)
		if release.Credit != nil {
			payload["teacher_earnings"] = release.Credit.Amount.StringFixed(domain.MoneyScale)
		}

		event := newOutboxEvent(uc.idGen, domain.AggregateTypeBooking, b.ID, domain.EventTypeBookingCompleted,
			bookingParties(b), payload, now)
		if err := uc.outboxRepo.Create(ctx, tx, event); err != nil {
			return err
		}

		if audited {
			if err := writeAudit(ctx, tx, uc.auditRepo, uc.idGen, uc.metrics, auditRecord{
				action:       domain.AuditActionBookingComplete,
				resourceType: domain.AggregateTypeBooking,
				resourceID:   b.ID,
				before:       before,
				after:        b,
			}, now); err != nil {
				return err
			}
		}

		booking = b
		return nil
	})
	if err != nil {
		uc.logger.Warn().Err(err).Str("booking_id", bookingID).Msg("completion failed")
		return nil, err
	}

	if uc.metrics != nil {
		uc.metrics.SettlementLatency.Observe(time.Since(start).Seconds())
	}

	uc.logger.Info().Str("booking_id", booking.ReadableID).Msg("booking completed")

	return booking, nil
}

func (uc *EscrowUseCase) sweepFailure(action string, b *domain.Booking, err error) {
	if errors.Is(err, domain.ErrInvalidTransition) {
		// Another actor moved the booking first.
		uc.logger.Debug().Err(err).Str("action", action).Str("booking_id", b.ReadableID).Msg("sweep skipped booking")
		return
	}
	uc.logger.Error().Err(err).Str("action", action).Str("booking_id", b.ReadableID).Msg("sweep failed for booking")
}
