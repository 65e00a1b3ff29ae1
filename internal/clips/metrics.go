package clips

import (
	"sync"

	"github.com/marrs-acoustics/reefscape/internal/observability/metrics"
)

var (
	globalMetrics *metrics.ClipMetrics
	metricsMutex  sync.RWMutex
)

// SetMetrics sets the metrics instance used by the clip extractor
func SetMetrics(m *metrics.ClipMetrics) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	globalMetrics = m
}

func getMetrics() *metrics.ClipMetrics {
	metricsMutex.RLock()
	defer metricsMutex.RUnlock()
	return globalMetrics
}
