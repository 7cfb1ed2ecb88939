package usecase_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/usecase"
)

func adminContext() context.Context {
	return domain.ContextWithActor(context.Background(), domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin})
}

func TestDisputeUseCase_Raise(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.SeedWallet(parentID, dec("300"))

	b := h.scheduled(t, 0, "150")

	_, err := h.disputes.Raise(ctx, usecase.RaiseDisputeInput{BookingID: b.ID, UserID: teacherID, Type: domain.DisputeTypeOther})
	require.ErrorIs(t, err, domain.ErrNotParticipant)

	_, err = h.disputes.Raise(ctx, usecase.RaiseDisputeInput{BookingID: b.ID, UserID: parentID, Type: "LATE"})
	require.ErrorIs(t, err, domain.ErrInvalidDisputeType)

	d, err := h.disputes.Raise(ctx, usecase.RaiseDisputeInput{
		BookingID:   b.ID,
		UserID:      studentID,
		Type:        domain.DisputeTypeSessionTooShort,
		Description: "ended after 20 minutes",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeStatusPending, d.Status)
	assert.Regexp(t, `^DSP-\d{4}-0001$`, d.ReadableID)
	assert.Equal(t, domain.BookingStatusDisputed, h.store.Booking(b.ID).Status)

	// Funds stay locked while the dispute is open.
	requireAmount(t, "150", h.store.WalletByUser(parentID).PendingBalance)

	_, err = h.disputes.Raise(ctx, usecase.RaiseDisputeInput{BookingID: b.ID, UserID: parentID, Type: domain.DisputeTypeOther})
	require.ErrorIs(t, err, domain.ErrDisputeExists)

	byBooking, err := h.disputes.GetDisputeByBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, d.ID, byBooking.ID)

	pending := h.scheduled(t, 1, "100")
	_, err = h.escrow.MarkSessionEnded(ctx, pending.ID, domain.Actor{UserID: teacherID, Role: domain.RoleTeacher})
	require.NoError(t, err)
	_, err = h.disputes.Raise(ctx, usecase.RaiseDisputeInput{BookingID: pending.ID, UserID: parentID, Type: domain.DisputeTypeQualityIssue})
	require.NoError(t, err)

	reserved := h.reserve(t, 2, "10")
	_, err = h.disputes.Raise(ctx, usecase.RaiseDisputeInput{BookingID: reserved.ID, UserID: parentID, Type: domain.DisputeTypeOther})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	open, err := h.disputes.ListDisputes(ctx, domain.OpenDisputeStatuses, 10, 0)
	require.NoError(t, err)
	assert.Len(t, open, 2)
}

func TestDisputeUseCase_Resolve(t *testing.T) {
	tests := []struct {
		name              string
		resolution        domain.ResolutionType
		percent           string
		wantDispute       domain.DisputeStatus
		wantBooking       domain.BookingStatus
		wantTeacher       string
		wantPayerBalance  string
		wantCommission    string
		wantTeacherPayout string
		wantRefund        string
	}{
		{
			name:              "student wins",
			resolution:        domain.ResolutionStudentWins,
			wantDispute:       domain.DisputeStatusResolved,
			wantBooking:       domain.BookingStatusRefunded,
			wantTeacher:       "0",
			wantPayerBalance:  "150",
			wantCommission:    "0",
			wantTeacherPayout: "0",
			wantRefund:        "150",
		},
		{
			name:              "teacher wins",
			resolution:        domain.ResolutionTeacherWins,
			wantDispute:       domain.DisputeStatusResolved,
			wantBooking:       domain.BookingStatusCompleted,
			wantTeacher:       "123",
			wantPayerBalance:  "0",
			wantCommission:    "27",
			wantTeacherPayout: "123",
			wantRefund:        "0",
		},
		{
			name:              "dismissed",
			resolution:        domain.ResolutionDismissed,
			wantDispute:       domain.DisputeStatusDismissed,
			wantBooking:       domain.BookingStatusCompleted,
			wantTeacher:       "123",
			wantPayerBalance:  "0",
			wantCommission:    "27",
			wantTeacherPayout: "123",
			wantRefund:        "0",
		},
		{
			name:              "even split",
			resolution:        domain.ResolutionSplit,
			percent:           "50",
			wantDispute:       domain.DisputeStatusResolved,
			wantBooking:       domain.BookingStatusPartiallyRefunded,
			wantTeacher:       "75",
			wantPayerBalance:  "75",
			wantCommission:    "0",
			wantTeacherPayout: "75",
			wantRefund:        "75",
		},
		{
			name:              "uneven split rounds the payout",
			resolution:        domain.ResolutionSplit,
			percent:           "33.33",
			wantDispute:       domain.DisputeStatusResolved,
			wantBooking:       domain.BookingStatusPartiallyRefunded,
			wantTeacher:       "50",
			wantPayerBalance:  "100",
			wantCommission:    "0",
			wantTeacherPayout: "50",
			wantRefund:        "100",
		},
		{
			name:              "split with nothing to the teacher",
			resolution:        domain.ResolutionSplit,
			percent:           "0",
			wantDispute:       domain.DisputeStatusResolved,
			wantBooking:       domain.BookingStatusPartiallyRefunded,
			wantTeacher:       "0",
			wantPayerBalance:  "150",
			wantCommission:    "0",
			wantTeacherPayout: "0",
			wantRefund:        "150",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.store.SeedWallet(parentID, dec("150"))
			b, d := h.disputed(t, 0, "150")

			percent := dec("0")
			if tt.percent != "" {
				percent = dec(tt.percent)
			}

			resolved, err := h.disputes.Resolve(adminContext(), usecase.ResolveDisputeInput{
				DisputeID:      d.ID,
				Resolution:     tt.resolution,
				TeacherPercent: percent,
				Note:           "reviewed recording",
			})
			require.NoError(t, err)

			assert.Equal(t, tt.wantDispute, resolved.Status)
			require.NotNil(t, resolved.Resolution)
			assert.Equal(t, tt.resolution, *resolved.Resolution)
			assert.Equal(t, "admin-1", resolved.ResolvedByUserID)
			require.NotNil(t, resolved.ResolvedAt)
			requireAmount(t, tt.wantTeacherPayout, resolved.TeacherPayout)
			requireAmount(t, tt.wantRefund, resolved.StudentRefund)
			requireAmount(t, tt.wantCommission, resolved.PlatformCommission)
			requireAmount(t, "150", resolved.TeacherPayout.Add(resolved.StudentRefund).Add(resolved.PlatformCommission))

			assert.Equal(t, tt.wantBooking, h.store.Booking(b.ID).Status)

			payer := h.store.WalletByUser(parentID)
			requireAmount(t, tt.wantPayerBalance, payer.Balance)
			requireAmount(t, "0", payer.PendingBalance)
			requireAmount(t, tt.wantTeacher, h.store.WalletByUser(teacherID).Balance)

			report, err := h.recon.CheckConservation(context.Background())
			require.NoError(t, err)
			requireAmount(t, tt.wantCommission, report.CommissionRetained)
			h.requireConsistent(t)

			logs := h.store.AuditLogs()
			require.NotEmpty(t, logs)
			last := logs[len(logs)-1]
			assert.Equal(t, string(domain.AuditActionDisputeResolve), last.Action)
			assert.Equal(t, "admin-1", last.UserID)
		})
	}
}

func TestDisputeUseCase_ResolveValidation(t *testing.T) {
	h := newHarness(t)
	h.store.SeedWallet(parentID, dec("150"))
	_, d := h.disputed(t, 0, "150")

	_, err := h.disputes.Resolve(adminContext(), usecase.ResolveDisputeInput{DisputeID: d.ID, Resolution: "COIN_FLIP"})
	require.ErrorIs(t, err, domain.ErrInvalidResolution)

	_, err = h.disputes.Resolve(adminContext(), usecase.ResolveDisputeInput{
		DisputeID:      d.ID,
		Resolution:     domain.ResolutionSplit,
		TeacherPercent: dec("120"),
	})
	require.ErrorIs(t, err, domain.ErrInvalidSplit)

	_, err = h.disputes.Resolve(adminContext(), usecase.ResolveDisputeInput{DisputeID: "missing", Resolution: domain.ResolutionStudentWins})
	require.ErrorIs(t, err, domain.ErrDisputeNotFound)

	requireAmount(t, "150", h.store.WalletByUser(parentID).PendingBalance)
}

func TestDisputeUseCase_ResolveOnlyOnce(t *testing.T) {
	h := newHarness(t)
	h.store.SeedWallet(parentID, dec("150"))
	_, d := h.disputed(t, 0, "150")

	reviewing, err := h.disputes.MarkUnderReview(adminContext(), d.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeStatusUnderReview, reviewing.Status)

	_, err = h.disputes.MarkUnderReview(adminContext(), d.ID)
	require.ErrorIs(t, err, domain.ErrInvalidDisputeState)

	const admins = 5
	var wg sync.WaitGroup
	errs := make([]error, admins)
	for i := 0; i < admins; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resolution := domain.ResolutionStudentWins
			if i%2 == 0 {
				resolution = domain.ResolutionTeacherWins
			}
			_, errs[i] = h.disputes.Resolve(adminContext(), usecase.ResolveDisputeInput{DisputeID: d.ID, Resolution: resolution})
		}(i)
	}
	wg.Wait()

	resolvedCount := 0
	for _, err := range errs {
		if err == nil {
			resolvedCount++
			continue
		}
		require.ErrorIs(t, err, domain.ErrInvalidDisputeState)
	}
	assert.Equal(t, 1, resolvedCount)

	report, err := h.recon.CheckConservation(context.Background())
	require.NoError(t, err)
	payer := h.store.WalletByUser(parentID)
	teacher := h.store.WalletByUser(teacherID)
	requireAmount(t, "0", payer.PendingBalance)
	requireAmount(t, "150", payer.Balance.Add(teacher.Balance).Add(report.CommissionRetained))
	h.requireConsistent(t)

	_, err = h.disputes.Resolve(adminContext(), usecase.ResolveDisputeInput{DisputeID: d.ID, Resolution: domain.ResolutionStudentWins})
	require.ErrorIs(t, err, domain.ErrInvalidDisputeState)
}

func TestDisputeUseCase_DisputedBookingIsNotAutoReleased(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.store.SeedWallet(parentID, dec("150"))

	b := h.scheduled(t, 0, "150")
	_, err := h.escrow.MarkSessionEnded(ctx, b.ID, domain.Actor{UserID: teacherID, Role: domain.RoleTeacher})
	require.NoError(t, err)
	_, err = h.disputes.Raise(ctx, usecase.RaiseDisputeInput{BookingID: b.ID, UserID: parentID, Type: domain.DisputeTypeTeacherNoShow})
	require.NoError(t, err)

	result, err := h.escrow.Sweep(ctx, time.Now().Add(72*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Completed)
	assert.Equal(t, 0, result.Failed)
	assert.Equal(t, domain.BookingStatusDisputed, h.store.Booking(b.ID).Status)

	_, err = h.escrow.Confirm(ctx, b.ID, domain.Actor{UserID: parentID, Role: domain.RoleParent})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = h.escrow.Cancel(ctx, usecase.CancelInput{Actor: domain.Actor{UserID: "admin-1", Role: domain.RoleAdmin}, BookingID: b.ID})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	requireAmount(t, "150", h.store.WalletByUser(parentID).PendingBalance)
}
