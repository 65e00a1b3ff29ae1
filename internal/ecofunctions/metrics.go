package ecofunctions

import (
	"sync"

	"github.com/marrs-acoustics/reefscape/internal/observability/metrics"
)

var (
	globalMetrics *metrics.PipelineMetrics
	metricsMutex  sync.RWMutex
)

// SetMetrics sets the metrics instance used by table builders
func SetMetrics(m *metrics.PipelineMetrics) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	globalMetrics = m
}

// getMetrics returns the current metrics instance, nil when unset
func getMetrics() *metrics.PipelineMetrics {
	metricsMutex.RLock()
	defer metricsMutex.RUnlock()
	return globalMetrics
}
