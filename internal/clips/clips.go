// Package clips cuts short audio clips around detections so they can be
// reviewed by ear.
package clips

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/marrs-acoustics/reefscape/internal/conf"
	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/inference"
	"github.com/marrs-acoustics/reefscape/internal/logger"
	"github.com/marrs-acoustics/reefscape/internal/observability/metrics"
)

// Options select what to extract. An empty Country or Sound means all.
type Options struct {
	Country string
	Sound   string
	Mode    Mode
	Count   int
}

// DefaultOptions returns options for every country and sound using the clip settings
func DefaultOptions(settings *conf.Settings) Options {
	return Options{
		Mode:  ParseMode(settings.Clips.Mode),
		Count: settings.Clips.Count,
	}
}

// Report counts the outcome of an extraction run
type Report struct {
	Selected int
	Written  int
	Failed   int
}

func (r *Report) add(o Report) {
	r.Selected += o.Selected
	r.Written += o.Written
	r.Failed += o.Failed
}

// Extractor writes detection clips for the configured countries
type Extractor struct {
	settings *conf.Settings
}

// New returns an Extractor over settings
func New(settings *conf.Settings) *Extractor {
	return &Extractor{settings: settings}
}

// ClipName returns the file name of the clip for a detection row
func ClipName(row inference.Row) string {
	base := filepath.Base(filepath.ToSlash(row.Filename))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	return fmt.Sprintf("%.2f_%02ds_%s.wav", row.Logit, int(row.TimestampS), base)
}

// Run extracts clips for every selected country and sound. Failures on
// single rows are logged and counted, other errors stop the run.
func (e *Extractor) Run(ctx context.Context, opts Options) (Report, error) {
	var report Report

	countries := e.settings.Countries
	if opts.Country != "" {
		countries = []string{opts.Country}
	}

	for _, country := range countries {
		if _, ok := e.settings.CountryFor(country); !ok {
			return report, errors.Newf("no configuration for country %q", country).
				Component("clips").
				Category(errors.CategoryConfiguration).
				Build()
		}

		sounds := []string{opts.Sound}
		if opts.Sound == "" {
			var err error
			if sounds, err = inference.DiscoverSounds(e.settings.AgileDir(country)); err != nil {
				return report, err
			}
		}

		for _, sound := range sounds {
			r, err := e.extract(ctx, country, sound, opts)
			report.add(r)
			if err != nil {
				return report, err
			}
		}
	}

	GetLogger().Info("Clip extraction finished",
		logger.Int("selected", report.Selected),
		logger.Int("written", report.Written),
		logger.Int("failed", report.Failed))
	return report, nil
}

// extract writes the clips of one sound in one country
func (e *Extractor) extract(ctx context.Context, country, sound string, opts Options) (Report, error) {
	var report Report
	log := GetLogger().With(logger.String("country", country), logger.String("sound", sound))

	path := e.settings.InferencePath(country, sound)
	rows, err := inference.Load(path)
	if err != nil {
		if errors.IsNotFound(err) {
			log.Info("No inference CSV for sound, skipping", logger.String("path", path))
			return report, nil
		}
		return report, err
	}

	rows = inference.FilterByLogit(rows, e.settings.Detection.LogitCutoff)
	if len(rows) == 0 {
		log.Info("No detections after logit filtering")
		return report, nil
	}
	if math.IsNaN(rows[0].TimestampS) {
		return report, errors.Newf("inference CSV has no %s column, clips cannot be located", inference.ColTimestamp).
			Component("clips").
			Category(errors.CategoryValidation).
			FileContext(path).
			Build()
	}

	selected := Select(rows, opts.Mode, opts.Count, e.settings.Clips.Seed)
	report.Selected = len(selected)
	audioDir := e.settings.AudioDir(country)
	outDir := e.settings.ClipDir(country, sound)

	log.Info("Writing clips",
		logger.String("mode", string(opts.Mode)),
		logger.Int("selected", len(selected)),
		logger.String("output_dir", outDir))

	for _, row := range selected {
		if err := ctx.Err(); err != nil {
			return report, errors.New(err).
				Component("clips").
				Category(errors.CategoryCancellation).
				Build()
		}

		if err := e.writeClip(row, audioDir, outDir); err != nil {
			report.Failed++
			log.Warn("Failed to write clip",
				logger.String("filename", row.Filename),
				logger.Float64("timestamp_s", row.TimestampS),
				logger.Error(err))
			continue
		}
		report.Written++
	}
	return report, nil
}

// writeClip cuts one detection window from its recording
func (e *Extractor) writeClip(row inference.Row, audioDir, outDir string) error {
	start := time.Now()
	m := getMetrics()

	err := func() error {
		offset := time.Duration(row.TimestampS * float64(time.Second))
		seg, err := ReadSegment(filepath.Join(audioDir, row.Filename), offset, e.settings.Clips.Duration)
		if err != nil {
			return err
		}
		if err := WriteWAV(filepath.Join(outDir, ClipName(row)), seg); err != nil {
			return err
		}
		if m != nil {
			m.RecordSamplesWritten(len(seg.Data))
		}
		return nil
	}()

	if m != nil {
		if err != nil {
			m.RecordOperation(metrics.OpClip, metrics.StatusError)
			m.RecordError(metrics.OpClip, categoryOf(err))
		} else {
			m.RecordOperation(metrics.OpClip, metrics.StatusSuccess)
			m.RecordDuration(metrics.OpClip, time.Since(start).Seconds())
		}
	}
	return err
}

func categoryOf(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return ee.GetCategory()
	}
	return string(errors.CategoryGeneric)
}
