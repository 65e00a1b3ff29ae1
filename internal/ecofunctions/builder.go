// Package ecofunctions derives the eco-function tables of the study from
// raw file lists and inference CSVs: combined sound counts, phonic richness,
// Shannon diversity and the settlement cuescape.
package ecofunctions

import (
	"context"
	"strings"
	"time"

	"github.com/marrs-acoustics/reefscape/internal/conf"
	"github.com/marrs-acoustics/reefscape/internal/coverage"
	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/inference"
	"github.com/marrs-acoustics/reefscape/internal/logger"
	"github.com/marrs-acoustics/reefscape/internal/observability/metrics"
)

// Builder computes eco-function tables for the configured countries
type Builder struct {
	settings *conf.Settings
}

// NewBuilder returns a Builder over settings
func NewBuilder(settings *conf.Settings) *Builder {
	return &Builder{settings: settings}
}

// country is one study country with its coverage-passing site-days
type country struct {
	name string
	cfg  conf.CountryConfig
	cov  *coverage.Result
}

// forEachCountry loads coverage for every configured country and calls fn.
// Countries without a configuration block are a configuration error.
func (b *Builder) forEachCountry(ctx context.Context, day coverage.DayFunc, fn func(c *country) error) error {
	for _, name := range b.settings.Countries {
		if err := ctx.Err(); err != nil {
			return errors.New(err).
				Component("ecofunctions").
				Category(errors.CategoryCancellation).
				Build()
		}

		cfg, ok := b.settings.CountryFor(name)
		if !ok {
			return errors.Newf("no configuration for country %q", name).
				Component("ecofunctions").
				Category(errors.CategoryConfiguration).
				Build()
		}

		GetLogger().Info("Processing country", logger.String("country", name))

		cov, err := b.loadCoverage(name, cfg, day)
		if err != nil {
			return err
		}
		if err := fn(&country{name: name, cfg: cfg, cov: cov}); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) loadCoverage(name string, cfg conf.CountryConfig, day coverage.DayFunc) (*coverage.Result, error) {
	start := time.Now()
	cov, err := coverage.Load(b.settings.RawFileListPath(name), cfg.Offset(), cfg.DutyCycle, b.settings.Coverage.Daily, day)
	m := getMetrics()
	if err != nil {
		if m != nil {
			m.RecordOperation(metrics.OpLoadCoverage, metrics.StatusError)
		}
		return nil, err
	}
	if m != nil {
		m.RecordOperation(metrics.OpLoadCoverage, metrics.StatusSuccess)
		m.RecordDuration(metrics.OpLoadCoverage, time.Since(start).Seconds())
		m.RecordFilesParsed(name, len(cov.Recordings))
		m.RecordSiteDaysExcluded(name, len(cov.Excluded))
	}

	GetLogger().Debug("Coverage loaded",
		logger.String("country", name),
		logger.Int("files", len(cov.Recordings)),
		logger.Int("kept_site_days", len(cov.Kept)),
		logger.Int("excluded_site_days", len(cov.Excluded)))
	return cov, nil
}

// detections loads the detections of one sound. A missing CSV is logged
// and yields no detections.
func (b *Builder) detections(c *country, sound string) ([]inference.Detection, error) {
	path := b.settings.InferencePath(c.name, sound)
	dets, err := inference.LoadDetections(path, sound, b.settings.Detection.LogitCutoff, c.cfg.Offset())
	m := getMetrics()
	if err != nil {
		if errors.IsNotFound(err) {
			GetLogger().Warn("Inference CSV not found, skipping",
				logger.String("country", c.name),
				logger.String("sound", sound),
				logger.String("path", path))
			if m != nil {
				m.RecordOperation(metrics.OpLoadInference, metrics.StatusSkipped)
			}
			return nil, nil
		}
		if m != nil {
			m.RecordOperation(metrics.OpLoadInference, metrics.StatusError)
		}
		return nil, err
	}
	if m != nil {
		m.RecordOperation(metrics.OpLoadInference, metrics.StatusSuccess)
		m.RecordDetectionsKept(c.name, sound, len(dets))
	}
	return dets, nil
}

// sounds lists the sound folders of a country, dropping excluded names
func (b *Builder) sounds(c *country, exclude bool) ([]string, error) {
	all, err := inference.DiscoverSounds(b.settings.AgileDir(c.name))
	if err != nil {
		return nil, err
	}
	if !exclude {
		return all, nil
	}

	out := make([]string, 0, len(all))
	for _, s := range all {
		if b.excluded(s) {
			GetLogger().Info("Skipping excluded sound folder",
				logger.String("country", c.name),
				logger.String("sound", s))
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (b *Builder) excluded(sound string) bool {
	for _, ex := range b.settings.Detection.ExcludeSounds {
		if strings.EqualFold(sound, ex) {
			return true
		}
	}
	return false
}

// recordBuilt logs and counts a finished table
func recordBuilt(table string, rows int, start time.Time) {
	if m := getMetrics(); m != nil {
		m.RecordOperation(metrics.OpBuildTable, metrics.StatusSuccess)
		m.RecordDuration(metrics.OpBuildTable, time.Since(start).Seconds())
	}
	GetLogger().Info("Table built",
		logger.String("table", table),
		logger.Int("rows", rows),
		logger.Duration("elapsed", time.Since(start)))
}
