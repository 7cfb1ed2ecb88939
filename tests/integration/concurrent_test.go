package integration

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/tutorescrow/internal/domain"
	"github.com/iho/tutorescrow/internal/usecase"
	"github.com/iho/tutorescrow/tests/testutil"
)

func TestConcurrentSlotReservations(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	svc := testDB.NewServices()
	testDB.TruncateAll(ctx)

	teacher := "teacher-" + testutil.GenerateID()
	start := time.Now().UTC().Add(48 * time.Hour).Truncate(time.Hour)

	const parents = 20

	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)

	wg.Add(parents)
	for i := range parents {
		go func() {
			defer wg.Done()

			_, err := svc.Bookings.ReserveSlot(ctx, usecase.ReserveSlotInput{
				TeacherID:      teacher,
				BookedByUserID: "parent-" + string(rune('a'+i)),
				StartTime:      start,
				EndTime:        start.Add(time.Hour),
				Price:          decimal.NewFromInt(30),
			})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, domain.ErrSlotConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), successes.Load())
	assert.Equal(t, int32(parents-1), conflicts.Load())
}

func TestConcurrentApprovalsNeverOverdraw(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	defer testDB.Cleanup()

	svc := testDB.NewServices()
	testDB.TruncateAll(ctx)

	parent := "parent-" + testutil.GenerateID()
	svc.FundWallet(ctx, t, parent, decimal.NewFromInt(100))

	// 10 bookings of 25 against a balance that covers exactly 4.
	const bookings = 10
	type pending struct {
		id      string
		teacher string
	}
	var reserved []pending
	for i := range bookings {
		teacher := "teacher-" + testutil.GenerateID()
		b := svc.ReserveTomorrow(ctx, t, teacher, parent, time.Duration(i)*time.Hour, decimal.NewFromInt(25))
		reserved = append(reserved, pending{id: b.ID, teacher: teacher})
	}

	var (
		wg           sync.WaitGroup
		successes    atomic.Int32
		insufficient atomic.Int32
	)

	wg.Add(len(reserved))
	for _, p := range reserved {
		go func() {
			defer wg.Done()

			_, err := svc.Escrow.Approve(ctx, usecase.ApproveInput{BookingID: p.id, TeacherID: p.teacher})
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, domain.ErrInsufficientBalance):
				insufficient.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(4), successes.Load())
	assert.Equal(t, int32(bookings-4), insufficient.Load())

	wallet, err := svc.Ledger.GetOrCreateWallet(ctx, parent)
	require.NoError(t, err)
	assert.True(t, wallet.Balance.IsZero(), "balance %s", wallet.Balance)
	assert.True(t, wallet.PendingBalance.Equal(decimal.NewFromInt(100)), "pending %s", wallet.PendingBalance)

	conservation, err := svc.Reconciliation.CheckConservation(ctx)
	require.NoError(t, err)
	assert.True(t, conservation.Consistent)
}
