package core

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResourceMetricsRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewResourceMetrics(reg)

	m.Loaded.WithLabelValues("image").Inc()
	m.Failed.WithLabelValues("mesh").Add(2)
	m.Skipped.Inc()

	assert.Equal(t, float64(1), testutil.ToFloat64(m.Loaded.WithLabelValues("image")))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Failed.WithLabelValues("mesh")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.Skipped))

	n, err := testutil.GatherAndCount(reg, "lina_resources_loaded_total", "lina_resources_failed_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestResourceMetricsWithoutRegistry(t *testing.T) {
	a := NewResourceMetrics(nil)
	b := NewResourceMetrics(nil)

	a.Skipped.Inc()
	assert.Equal(t, float64(1), testutil.ToFloat64(a.Skipped))
	assert.Equal(t, float64(0), testutil.ToFloat64(b.Skipped))
}
