// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	GenerationRunsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_runs_completed_total",
			Help: "Total number of completed generation runs",
		},
		[]string{"tier"},
	)

	GenerationRunsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_runs_failed_total",
			Help: "Total number of failed generation runs",
		},
		[]string{"tier", "error_code"},
	)

	GenerationRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "generation_run_duration_seconds",
			Help: "Duration of generation runs in seconds",
		},
		[]string{"tier"},
	)

	GenerationRunsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "generation_runs_active",
			Help: "Number of generation runs currently executing",
		},
	)

	CatalogLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_lookups_total",
			Help: "Total number of catalog batch lookups",
		},
		[]string{"outcome"},
	)
)
