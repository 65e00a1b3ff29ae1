package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PipelineMetrics contains Prometheus metrics for table building runs
type PipelineMetrics struct {
	registry *prometheus.Registry

	operationsTotal  *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	durationSeconds  *prometheus.HistogramVec
	filesParsedTotal *prometheus.CounterVec
	detectionsKept   *prometheus.CounterVec
	siteDaysExcluded *prometheus.CounterVec
	rowsWrittenTotal *prometheus.CounterVec
}

// NewPipelineMetrics creates and registers new pipeline metrics
func NewPipelineMetrics(registry *prometheus.Registry) (*PipelineMetrics, error) {
	m := &PipelineMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *PipelineMetrics) initMetrics() {
	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reefscape_pipeline_operations_total",
			Help: "Total number of pipeline operations",
		},
		[]string{"operation", "status"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reefscape_pipeline_errors_total",
			Help: "Total number of pipeline errors",
		},
		[]string{"operation", "error_type"},
	)

	m.durationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reefscape_pipeline_duration_seconds",
			Help:    "Time taken for pipeline operations",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount12),
		},
		[]string{"operation"},
	)

	m.filesParsedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reefscape_files_parsed_total",
			Help: "Total number of recording file names parsed from raw file lists",
		},
		[]string{"country"},
	)

	m.detectionsKept = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reefscape_detections_kept_total",
			Help: "Total number of inference rows at or above the logit cutoff",
		},
		[]string{"country", "sound"},
	)

	m.siteDaysExcluded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reefscape_site_days_excluded_total",
			Help: "Total number of site-days dropped for insufficient coverage",
		},
		[]string{"country"},
	)

	m.rowsWrittenTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reefscape_rows_written_total",
			Help: "Total number of rows written to result tables",
		},
		[]string{"table"},
	)
}

// Describe implements the Collector interface
func (m *PipelineMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.operationsTotal.Describe(ch)
	m.errorsTotal.Describe(ch)
	m.durationSeconds.Describe(ch)
	m.filesParsedTotal.Describe(ch)
	m.detectionsKept.Describe(ch)
	m.siteDaysExcluded.Describe(ch)
	m.rowsWrittenTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *PipelineMetrics) Collect(ch chan<- prometheus.Metric) {
	m.operationsTotal.Collect(ch)
	m.errorsTotal.Collect(ch)
	m.durationSeconds.Collect(ch)
	m.filesParsedTotal.Collect(ch)
	m.detectionsKept.Collect(ch)
	m.siteDaysExcluded.Collect(ch)
	m.rowsWrittenTotal.Collect(ch)
}

// RecordOperation implements Recorder
func (m *PipelineMetrics) RecordOperation(operation, status string) {
	m.operationsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder
func (m *PipelineMetrics) RecordDuration(operation string, seconds float64) {
	m.durationSeconds.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder
func (m *PipelineMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordFilesParsed adds parsed raw file names for a country
func (m *PipelineMetrics) RecordFilesParsed(country string, n int) {
	m.filesParsedTotal.WithLabelValues(country).Add(float64(n))
}

// RecordDetectionsKept adds detections that passed the logit cutoff
func (m *PipelineMetrics) RecordDetectionsKept(country, sound string, n int) {
	m.detectionsKept.WithLabelValues(country, sound).Add(float64(n))
}

// RecordSiteDaysExcluded adds site-days dropped by the coverage filter
func (m *PipelineMetrics) RecordSiteDaysExcluded(country string, n int) {
	m.siteDaysExcluded.WithLabelValues(country).Add(float64(n))
}

// RecordRowsWritten adds rows written to a table
func (m *PipelineMetrics) RecordRowsWritten(table string, n int) {
	m.rowsWrittenTotal.WithLabelValues(table).Add(float64(n))
}

var _ Recorder = (*PipelineMetrics)(nil)
