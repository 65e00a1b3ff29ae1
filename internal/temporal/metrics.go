package temporal

import (
	"sync"

	"github.com/marrs-acoustics/reefscape/internal/observability/metrics"
)

var (
	globalMetrics *metrics.StatsMetrics
	metricsMutex  sync.RWMutex
)

// SetMetrics sets the metrics instance used by the kernel and overlap pipelines
func SetMetrics(m *metrics.StatsMetrics) {
	metricsMutex.Lock()
	defer metricsMutex.Unlock()
	globalMetrics = m
}

func getMetrics() *metrics.StatsMetrics {
	metricsMutex.RLock()
	defer metricsMutex.RUnlock()
	return globalMetrics
}

// recordFailure counts a statistic that could not be computed
func recordFailure(statistic string) {
	if m := getMetrics(); m != nil {
		m.RecordStatFailure(statistic)
	}
}
