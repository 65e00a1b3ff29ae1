package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// StatsMetrics contains Prometheus metrics for statistical computations:
// overlap estimates, bootstrap replicates, tests and model fits.
type StatsMetrics struct {
	registry *prometheus.Registry

	operationsTotal    *prometheus.CounterVec
	errorsTotal        *prometheus.CounterVec
	durationSeconds    *prometheus.HistogramVec
	bootstrapRepsTotal prometheus.Counter
	statFailuresTotal  *prometheus.CounterVec
	bootstrapWorkers   prometheus.Gauge
}

// NewStatsMetrics creates and registers new statistics metrics
func NewStatsMetrics(registry *prometheus.Registry) (*StatsMetrics, error) {
	m := &StatsMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *StatsMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reefscape_stats_operations_total",
			Help: "Total number of statistical operations",
		},
		[]string{"operation", "status"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reefscape_stats_errors_total",
			Help: "Total number of statistical operation errors",
		},
		[]string{"operation", "error_type"},
	)

	m.durationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reefscape_stats_duration_seconds",
			Help:    "Time taken for statistical operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart10ms, BucketFactor2, BucketCount12),
		},
		[]string{"operation"},
	)

	m.bootstrapRepsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reefscape_bootstrap_reps_total",
		Help: "Total number of bootstrap replicates computed",
	})

	m.statFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reefscape_stat_failures_total",
			Help: "Total number of statistics recorded as missing values",
		},
		[]string{"statistic"},
	)

	m.bootstrapWorkers = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "reefscape_bootstrap_workers",
		Help: "Size of the bootstrap worker pool",
	})
}

// Describe implements the Collector interface
func (m *StatsMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.operationsTotal.Describe(ch)
	m.errorsTotal.Describe(ch)
	m.durationSeconds.Describe(ch)
	m.bootstrapRepsTotal.Describe(ch)
	m.statFailuresTotal.Describe(ch)
	m.bootstrapWorkers.Describe(ch)
}

// Collect implements the Collector interface
func (m *StatsMetrics) Collect(ch chan<- prometheus.Metric) {
	m.operationsTotal.Collect(ch)
	m.errorsTotal.Collect(ch)
	m.durationSeconds.Collect(ch)
	m.bootstrapRepsTotal.Collect(ch)
	m.statFailuresTotal.Collect(ch)
	m.bootstrapWorkers.Collect(ch)
}

// RecordOperation implements Recorder
func (m *StatsMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder
func (m *StatsMetrics) RecordDuration(operation string, seconds float64) {
	m.durationSeconds.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder
func (m *StatsMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordBootstrapReps adds completed bootstrap replicates
func (m *StatsMetrics) RecordBootstrapReps(n int) {
	m.bootstrapRepsTotal.Add(float64(n))
}

// RecordStatFailure counts a statistic written as NA
func (m *StatsMetrics) RecordStatFailure(statistic string) {
	m.statFailuresTotal.WithLabelValues(statistic).Inc()
}

// SetBootstrapWorkers records the pool size in use
func (m *StatsMetrics) SetBootstrapWorkers(n int) {
	m.bootstrapWorkers.Set(float64(n))
}

var _ Recorder = (*StatsMetrics)(nil)
