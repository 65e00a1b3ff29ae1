package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// ErrorMetrics counts enhanced errors by component and category
type ErrorMetrics struct {
	registry *prometheus.Registry

	errorsTotal *prometheus.CounterVec
}

// NewErrorMetrics creates and registers new error metrics
func NewErrorMetrics(registry *prometheus.Registry) (*ErrorMetrics, error) {
	m := &ErrorMetrics{registry: registry}
	m.errorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reefscape_errors_total",
			Help: "Total number of errors built, by component and category",
		},
		[]string{"component", "category"},
	)
	if err := registry.Register(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Describe implements the Collector interface
func (m *ErrorMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.errorsTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *ErrorMetrics) Collect(ch chan<- prometheus.Metric) {
	m.errorsTotal.Collect(ch)
}

// RecordError counts one error
func (m *ErrorMetrics) RecordError(component, category string) {
	m.errorsTotal.WithLabelValues(component, category).Inc()
}
