package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/tutorescrow/internal/infrastructure/metrics"
)

// DeliveryDeduper implements usecase.DeliveryDeduper. A notification is
// delivered at most once per key while the key lives.
type DeliveryDeduper struct {
	client  *redis.Client
	metrics *metrics.Metrics
	prefix  string
}

// NewDeliveryDeduper creates a new DeliveryDeduper. m may be nil.
func NewDeliveryDeduper(client *redis.Client, m *metrics.Metrics) *DeliveryDeduper {
	return &DeliveryDeduper{
		client:  client,
		metrics: m,
		prefix:  "notified:",
	}
}

// MarkDelivered records key and reports whether this is its first delivery.
func (d *DeliveryDeduper) MarkDelivered(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	first, err := d.client.SetNX(ctx, d.prefix+key, time.Now().UTC().Format(time.RFC3339), ttl).Result()
	observe(d.metrics, "dedupe_setnx", err)
	return first, err
}

// Forget removes key so the notification can be delivered again.
func (d *DeliveryDeduper) Forget(ctx context.Context, key string) error {
	err := d.client.Del(ctx, d.prefix+key).Err()
	observe(d.metrics, "dedupe_del", err)
	return err
}
