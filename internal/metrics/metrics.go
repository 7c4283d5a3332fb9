// Package metrics exposes Prometheus instrumentation for chart sync batches.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Batch results.
const (
	ResultSuccess  = "completed"
	ResultNoTitles = "no_titles"
)

var (
	BatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jellyrequest_batch_runs_total",
			Help: "Total number of chart sync batches by result",
		},
		[]string{"result"},
	)

	BatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "jellyrequest_batch_duration_seconds",
			Help:    "Duration of chart sync batches in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	TitleOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jellyrequest_title_outcomes_total",
			Help: "Total number of processed chart titles by outcome",
		},
		[]string{"outcome"},
	)

	LastBatchTitles = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "jellyrequest_last_batch_titles",
			Help: "Number of titles per outcome in the most recent batch",
		},
		[]string{"outcome"},
	)

	LastBatchTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jellyrequest_last_batch_timestamp_seconds",
			Help: "Unix time the most recent batch finished",
		},
	)

	SkipIndexSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "jellyrequest_skip_index_records",
			Help: "Existing requests indexed for duplicate prevention in the most recent batch",
		},
	)
)

// RecordBatch publishes the per-outcome counts of a finished batch.
func RecordBatch(result string, counts map[string]int, duration time.Duration, finished time.Time) {
	BatchRunsTotal.WithLabelValues(result).Inc()
	BatchDuration.Observe(duration.Seconds())
	LastBatchTimestamp.Set(float64(finished.Unix()))

	LastBatchTitles.Reset()
	for outcome, n := range counts {
		TitleOutcomesTotal.WithLabelValues(outcome).Add(float64(n))
		LastBatchTitles.WithLabelValues(outcome).Set(float64(n))
	}
}
