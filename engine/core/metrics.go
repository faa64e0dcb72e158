package core

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ResourceMetrics counts what the asset pipeline did. Failed loads are never
// surfaced to callers, so these counters are the way to observe them.
type ResourceMetrics struct {
	Loaded   *prometheus.CounterVec
	Failed   *prometheus.CounterVec
	Skipped  prometheus.Counter
	Duration *prometheus.HistogramVec
	Resident *prometheus.GaugeVec
}

// NewResourceMetrics registers the pipeline collectors on reg. A nil
// registerer yields working but unregistered collectors.
func NewResourceMetrics(reg prometheus.Registerer) *ResourceMetrics {
	factory := promauto.With(reg)
	return &ResourceMetrics{
		Loaded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lina_resources_loaded_total",
				Help: "Resources decoded and published to listeners",
			},
			[]string{"kind"},
		),
		Failed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "lina_resources_failed_total",
				Help: "Resources that failed to load and were skipped",
			},
			[]string{"kind"},
		),
		Skipped: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "lina_package_entries_skipped_total",
				Help: "Package entries dropped during unpack because of checksum or identity mismatch",
			},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "lina_pipeline_duration_seconds",
				Help:    "Wall time of import, export and scan operations",
				Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
			},
			[]string{"operation"},
		),
		Resident: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "lina_bundle_resources",
				Help: "Resources currently held by the bundle per partition",
			},
			[]string{"partition"},
		),
	}
}
