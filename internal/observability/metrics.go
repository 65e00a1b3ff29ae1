// Package observability provides Prometheus metrics for reefscape runs.
// Batch commands have no scrape endpoint, so metrics are written to a
// node_exporter textfile at the end of a run.
package observability

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/marrs-acoustics/reefscape/internal/clips"
	"github.com/marrs-acoustics/reefscape/internal/ecofunctions"
	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/logger"
	"github.com/marrs-acoustics/reefscape/internal/observability/metrics"
	"github.com/marrs-acoustics/reefscape/internal/temporal"
)

// Metrics holds all the metric collectors for a run.
type Metrics struct {
	registry *prometheus.Registry
	Pipeline *metrics.PipelineMetrics
	Stats    *metrics.StatsMetrics
	Clips    *metrics.ClipMetrics
	Errors   *metrics.ErrorMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	pipelineMetrics, err := metrics.NewPipelineMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create pipeline metrics: %w", err)
	}

	statsMetrics, err := metrics.NewStatsMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats metrics: %w", err)
	}

	clipMetrics, err := metrics.NewClipMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create clip metrics: %w", err)
	}

	errorMetrics, err := metrics.NewErrorMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create error metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Pipeline: pipelineMetrics,
		Stats:    statsMetrics,
		Clips:    clipMetrics,
		Errors:   errorMetrics,
	}, nil
}

// Install hands the collectors to the packages that record into them and
// counts every enhanced error through an error hook.
func (m *Metrics) Install() {
	ecofunctions.SetMetrics(m.Pipeline)
	temporal.SetMetrics(m.Stats)
	clips.SetMetrics(m.Clips)

	errors.AddErrorHook(func(ee *errors.EnhancedError) {
		m.Errors.RecordError(ee.GetComponent(), ee.GetCategory())
	})
}

// Registry returns the underlying registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all metrics in the text exposition format.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return errors.New(err).
			Component("observability").
			Category(errors.CategoryFileIO).
			FileContext(path).
			Build()
	}
	GetLogger().Info("Wrote metrics textfile", logger.String("path", path))
	return nil
}
