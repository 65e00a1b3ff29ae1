// Package temporal runs the diel activity pipelines: linear kernel density
// plots per treatment and circular overlap comparisons between treatments.
//
// Both pipelines use detections on site-days that pass the stricter kernel
// coverage threshold. Detection times are local decimal hours.
package temporal

import (
	"context"
	"time"

	"github.com/marrs-acoustics/reefscape/internal/conf"
	"github.com/marrs-acoustics/reefscape/internal/coverage"
	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/inference"
	"github.com/marrs-acoustics/reefscape/internal/logger"
	"github.com/marrs-acoustics/reefscape/internal/observability/metrics"
	"github.com/marrs-acoustics/reefscape/internal/recording"
)

// Pipeline runs the temporal analyses for the configured countries
type Pipeline struct {
	settings *conf.Settings
}

// New returns a Pipeline over settings
func New(settings *conf.Settings) *Pipeline {
	return &Pipeline{settings: settings}
}

// TimeRecord is the local time of one detection
type TimeRecord struct {
	Treatment recording.Treatment
	Hour      float64
}

// Times holds the detection times of one sound in one country
type Times struct {
	Country string
	Sound   string
	Records []TimeRecord // in inference file order
}

// Hours returns the detection hours of treatment t
func (ts *Times) Hours(t recording.Treatment) []float64 {
	var out []float64
	for _, r := range ts.Records {
		if r.Treatment == t {
			out = append(out, r.Hour)
		}
	}
	return out
}

// Counts returns the number of detections per treatment
func (ts *Times) Counts() map[recording.Treatment]int {
	counts := make(map[recording.Treatment]int)
	for _, r := range ts.Records {
		counts[r.Treatment]++
	}
	return counts
}

// forEachSound loads detection times for every configured country and sound
// folder and calls fn for those with at least one detection.
func (p *Pipeline) forEachSound(ctx context.Context, fn func(ts *Times) error) error {
	for _, name := range p.settings.Countries {
		if err := ctx.Err(); err != nil {
			return errors.New(err).
				Component("temporal").
				Category(errors.CategoryCancellation).
				Build()
		}

		cfg, ok := p.settings.CountryFor(name)
		if !ok {
			return errors.Newf("no configuration for country %q", name).
				Component("temporal").
				Category(errors.CategoryConfiguration).
				Build()
		}

		GetLogger().Info("Processing country", logger.String("country", name))

		cov, err := coverage.Load(p.settings.RawFileListPath(name), cfg.Offset(), cfg.DutyCycle,
			p.settings.Coverage.Kernel, coverage.ByLocalDay)
		if err != nil {
			return err
		}

		sounds, err := inference.DiscoverSounds(p.settings.AgileDir(name))
		if err != nil {
			return err
		}

		for _, sound := range sounds {
			if err := ctx.Err(); err != nil {
				return errors.New(err).
					Component("temporal").
					Category(errors.CategoryCancellation).
					Build()
			}

			ts, err := p.loadTimes(name, cfg, sound, cov)
			if err != nil {
				return err
			}
			if ts == nil {
				continue
			}
			if err := fn(ts); err != nil {
				return err
			}
		}
	}
	return nil
}

// loadTimes returns the detection times of one sound on kept site-days,
// or nil when there are none.
func (p *Pipeline) loadTimes(country string, cfg conf.CountryConfig, sound string, cov *coverage.Result) (*Times, error) {
	path := p.settings.InferencePath(country, sound)
	start := time.Now()

	dets, err := inference.LoadDetections(path, sound, p.settings.Detection.LogitCutoff, cfg.Offset())
	if err != nil {
		if errors.IsNotFound(err) {
			GetLogger().Info("No inference CSV for sound, skipping",
				logger.String("country", country),
				logger.String("sound", sound))
			return nil, nil
		}
		return nil, err
	}
	if len(dets) == 0 {
		GetLogger().Info("No detections after logit filtering",
			logger.String("country", country),
			logger.String("sound", sound))
		return nil, nil
	}

	ts := &Times{Country: country, Sound: sound}
	for i := range dets {
		rec := dets[i].Recording
		if !cov.Allows(rec) {
			continue
		}
		ts.Records = append(ts.Records, TimeRecord{Treatment: rec.Treatment, Hour: rec.DecimalHour()})
	}

	if m := getMetrics(); m != nil {
		m.RecordDuration(metrics.OpLoadInference, time.Since(start).Seconds())
	}

	if len(ts.Records) == 0 {
		GetLogger().Info("No detections on covered site-days",
			logger.String("country", country),
			logger.String("sound", sound))
		return nil, nil
	}

	GetLogger().Debug("Loaded detection times",
		logger.String("country", country),
		logger.String("sound", sound),
		logger.Int("detections", len(ts.Records)))
	return ts, nil
}
