package redis

import (
	"context"
	"testing"
	"time"
)

func TestDeliveryDeduperMarksOnce(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	deduper := NewDeliveryDeduper(client, nil)
	ctx := context.Background()

	first, err := deduper.MarkDelivered(ctx, "evt-1:parent-1", time.Hour)
	if err != nil || !first {
		t.Fatalf("expected first delivery, got first=%v err=%v", first, err)
	}

	again, err := deduper.MarkDelivered(ctx, "evt-1:parent-1", time.Hour)
	if err != nil || again {
		t.Fatalf("expected duplicate to be detected, got first=%v err=%v", again, err)
	}

	other, err := deduper.MarkDelivered(ctx, "evt-1:teacher-1", time.Hour)
	if err != nil || !other {
		t.Fatalf("expected other recipient to be delivered, got first=%v err=%v", other, err)
	}
}

func TestDeliveryDeduperForget(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	deduper := NewDeliveryDeduper(client, nil)
	ctx := context.Background()

	if _, err := deduper.MarkDelivered(ctx, "evt-2:parent-1", time.Hour); err != nil {
		t.Fatalf("mark failed: %v", err)
	}
	if err := deduper.Forget(ctx, "evt-2:parent-1"); err != nil {
		t.Fatalf("forget failed: %v", err)
	}

	first, err := deduper.MarkDelivered(ctx, "evt-2:parent-1", time.Hour)
	if err != nil || !first {
		t.Fatalf("expected redelivery after forget, got first=%v err=%v", first, err)
	}
}

func TestDeliveryDeduperKeyExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	deduper := NewDeliveryDeduper(client, nil)
	ctx := context.Background()

	if _, err := deduper.MarkDelivered(ctx, "evt-3:parent-1", time.Minute); err != nil {
		t.Fatalf("mark failed: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	first, err := deduper.MarkDelivered(ctx, "evt-3:parent-1", time.Minute)
	if err != nil || !first {
		t.Fatalf("expected key to expire, got first=%v err=%v", first, err)
	}
}
