package redis

import (
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/iho/tutorescrow/internal/infrastructure/metrics"
)

// observe records the outcome of a redis call. A cache miss is not an error.
func observe(m *metrics.Metrics, operation string, err error) {
	if m == nil {
		return
	}

	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, redis.Nil):
		status = "miss"
	default:
		status = "error"
		m.RedisErrors.WithLabelValues(operation).Inc()
	}

	m.RedisOperations.WithLabelValues(operation, status).Inc()
}
