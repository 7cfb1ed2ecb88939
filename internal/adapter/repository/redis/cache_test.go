package redis

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestCacheSetAndGet(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client, nil)
	ctx := context.Background()

	if err := cache.Set(ctx, "ledger:stats", []byte(`{"wallets":3}`), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	val, err := cache.Get(ctx, "ledger:stats")
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	if string(val) != `{"wallets":3}` {
		t.Fatalf("unexpected value %s", val)
	}

	if !mr.Exists("cache:ledger:stats") {
		t.Fatalf("expected key to be stored with the cache prefix")
	}
}

func TestCacheMissReturnsNil(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	m := newTestMetrics(t)
	cache := NewCache(client, m)

	val, err := cache.Get(context.Background(), "absent")
	if err != nil {
		t.Fatalf("expected miss without error, got %v", err)
	}
	if val != nil {
		t.Fatalf("expected nil value on miss, got %q", val)
	}

	if got := testutil.ToFloat64(m.RedisOperations.WithLabelValues("cache_get", "miss")); got != 1 {
		t.Fatalf("expected one recorded miss, got %v", got)
	}
}

func TestCacheExpires(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client, nil)
	ctx := context.Background()

	if err := cache.Set(ctx, "k", []byte("v"), time.Second); err != nil {
		t.Fatalf("set failed: %v", err)
	}

	mr.FastForward(2 * time.Second)

	val, err := cache.Get(ctx, "k")
	if err != nil || val != nil {
		t.Fatalf("expected expired key, got val=%q err=%v", val, err)
	}
}

func TestCacheDelete(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer mr.Close()
	defer client.Close()

	cache := NewCache(client, nil)
	ctx := context.Background()

	if err := cache.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if err := cache.Delete(ctx, "k"); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if mr.Exists("cache:k") {
		t.Fatalf("expected key to be removed")
	}
}

func TestCacheErrorsWhenServerDown(t *testing.T) {
	client, mr := newTestRedisClient(t)
	defer client.Close()

	m := newTestMetrics(t)
	cache := NewCache(client, m)
	mr.Close()

	if _, err := cache.Get(context.Background(), "k"); err == nil {
		t.Fatalf("expected error when redis is unavailable")
	}
	if got := testutil.ToFloat64(m.RedisErrors.WithLabelValues("cache_get")); got != 1 {
		t.Fatalf("expected one recorded error, got %v", got)
	}
}
