package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithRegistererRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := NewWithRegisterer(registry)

	require.NotNil(t, m.FundsLocked)
	require.NotNil(t, m.HTTPRequests)
	require.NotNil(t, m.InvariantViolations)

	m.FundsLocked.Inc()
	m.DisputesResolved.WithLabelValues("SPLIT").Inc()

	metricFamilies, err := registry.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, metricFamilies)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.FundsLocked))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.DisputesResolved.WithLabelValues("SPLIT")))
}

func TestNewWithRegistererIsolatedRegistries(t *testing.T) {
	first := NewWithRegisterer(prometheus.NewRegistry())
	second := NewWithRegisterer(prometheus.NewRegistry())

	first.BookingsReserved.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(first.BookingsReserved))
	assert.Equal(t, float64(0), testutil.ToFloat64(second.BookingsReserved))
}
