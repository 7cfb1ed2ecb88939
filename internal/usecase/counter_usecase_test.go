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

func TestCounterUseCase_NextIsSequentialPerPeriod(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := h.counters.Next(ctx, domain.CounterTypeBooking, "2601")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	got, err := h.counters.Next(ctx, domain.CounterTypeBooking, "2602")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	got, err = h.counters.Next(ctx, domain.CounterTypeDispute, "2601")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	current, err := h.counters.Current(ctx, domain.CounterTypeBooking, "2601")
	require.NoError(t, err)
	assert.Equal(t, int64(3), current)

	_, err = h.counters.Next(ctx, domain.CounterType("INVOICE"), "2601")
	require.Error(t, err)
}

func TestCounterUseCase_ConcurrentCallersGetDistinctValues(t *testing.T) {
	h := newHarness(t)

	const callers = 50
	values := make([]int64, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := h.counters.Next(context.Background(), domain.CounterTypeTransaction, "2601")
			assert.NoError(t, err)
			values[i] = v
		}(i)
	}
	wg.Wait()

	seen := make(map[int64]bool, callers)
	for _, v := range values {
		assert.False(t, seen[v], "duplicate value %d", v)
		seen[v] = true
		assert.True(t, v >= 1 && v <= callers)
	}
}

func TestCounterUseCase_FailedTransactionLeavesNoGap(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.reserve(t, 0, "100")

	start := h.slot(0)
	_, err := h.bookings.ReserveSlot(ctx, usecase.ReserveSlotInput{
		TeacherID:      teacherID,
		BookedByUserID: "parent-2",
		StartTime:      start,
		EndTime:        start.Add(time.Hour),
		Price:          dec("100"),
	})
	require.ErrorIs(t, err, domain.ErrSlotConflict)

	next := h.reserve(t, 1, "100")
	assert.Regexp(t, `^BK-\d{4}-0002$`, next.ReadableID)
}

func TestCounterUseCase_NonPositiveValueIsCollision(t *testing.T) {
	h := newHarness(t)
	h.counterRepo.IncrementFunc = func(context.Context, usecase.Transaction, domain.CounterType, string) (int64, error) {
		return 0, nil
	}

	_, err := h.counters.Next(context.Background(), domain.CounterTypeWallet, "GLOBAL")
	require.ErrorIs(t, err, domain.ErrCounterCollision)

	_, err = h.ledger.GetOrCreateWallet(context.Background(), parentID)
	require.ErrorIs(t, err, domain.ErrCounterCollision)
	assert.Nil(t, h.store.WalletByUser(parentID))
}
