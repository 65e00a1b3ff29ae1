package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ClipMetrics contains Prometheus metrics for detection clip extraction
type ClipMetrics struct {
	registry *prometheus.Registry

	clipsTotal      *prometheus.CounterVec
	errorsTotal     *prometheus.CounterVec
	durationSeconds *prometheus.HistogramVec
	samplesWritten  prometheus.Counter
}

// NewClipMetrics creates and registers new clip metrics
func NewClipMetrics(registry *prometheus.Registry) (*ClipMetrics, error) {
	m := &ClipMetrics{registry: registry}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *ClipMetrics) initMetrics() {
	m.clipsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reefscape_clips_total",
			Help: "Total number of detection clips attempted",
		},
		[]string{"operation", "status"},
	)

	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reefscape_clip_errors_total",
			Help: "Total number of clip extraction errors",
		},
		[]string{"operation", "error_type"},
	)

	m.durationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reefscape_clip_duration_seconds",
			Help:    "Time taken to cut and write one clip",
			Buckets: prometheus.ExponentialBuckets(BucketStart1ms, BucketFactor2, BucketCount10),
		},
		[]string{"operation"},
	)

	m.samplesWritten = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reefscape_clip_samples_written_total",
		Help: "Total number of audio samples written to clips",
	})
}

// Describe implements the Collector interface
func (m *ClipMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.clipsTotal.Describe(ch)
	m.errorsTotal.Describe(ch)
	m.durationSeconds.Describe(ch)
	m.samplesWritten.Describe(ch)
}

// Collect implements the Collector interface
func (m *ClipMetrics) Collect(ch chan<- prometheus.Metric) {
	m.clipsTotal.Collect(ch)
	m.errorsTotal.Collect(ch)
	m.durationSeconds.Collect(ch)
	m.samplesWritten.Collect(ch)
}

// RecordOperation implements Recorder
func (m *ClipMetrics) RecordOperation(operation, status string) {
	m.clipsTotal.WithLabelValues(operation, status).Inc()
}

// RecordDuration implements Recorder
func (m *ClipMetrics) RecordDuration(operation string, seconds float64) {
	m.durationSeconds.WithLabelValues(operation).Observe(seconds)
}

// RecordError implements Recorder
func (m *ClipMetrics) RecordError(operation, errorType string) {
	m.errorsTotal.WithLabelValues(operation, errorType).Inc()
}

// RecordSamplesWritten adds samples written to a clip
func (m *ClipMetrics) RecordSamplesWritten(n int) {
	m.samplesWritten.Add(float64(n))
}

var _ Recorder = (*ClipMetrics)(nil)
