package temporal

import (
	"context"
	"path/filepath"
	"time"

	"github.com/marrs-acoustics/reefscape/internal/kernel"
	"github.com/marrs-acoustics/reefscape/internal/logger"
	"github.com/marrs-acoustics/reefscape/internal/observability/metrics"
	"github.com/marrs-acoustics/reefscape/internal/plot"
	"github.com/marrs-acoustics/reefscape/internal/recording"
	"github.com/marrs-acoustics/reefscape/internal/tabular"
)

// RawTimesHeader is the header of the raw detection times file
var RawTimesHeader = []string{"treatment", "time"}

// RawTimesFile returns the raw detection times file name for a sound
func RawTimesFile(sound string) string {
	return sound + "_raw_detection_times.csv"
}

// PlotFile returns the per-treatment kernel plot name for a sound
func PlotFile(sound string) string {
	return sound + ".png"
}

// AggregateFile returns the aggregated kernel plot name for a sound
func AggregateFile(sound string) string {
	return "aggreg_" + sound + ".png"
}

// KernelOptions selects the outputs of a kernels run
type KernelOptions struct {
	Aggregate bool // also write aggregated plots for qualifying sounds
}

// KernelReport summarises a kernels run
type KernelReport struct {
	Sounds     int // country and sound combinations with detections
	Plots      int
	Aggregated int
}

// Kernels writes raw detection times and kernel density plots for every
// country and sound.
func (p *Pipeline) Kernels(ctx context.Context, opts KernelOptions) (KernelReport, error) {
	var report KernelReport

	err := p.forEachSound(ctx, func(ts *Times) error {
		report.Sounds++
		dir := p.settings.KernelPlotDir(ts.Country)

		if err := writeRawTimes(filepath.Join(dir, RawTimesFile(ts.Sound)), ts); err != nil {
			return err
		}

		kp := plot.KernelPlot{
			Title:  plot.Title(ts.Sound, ts.Country),
			Series: p.treatmentSeries(ts, recording.Treatments),
		}
		if err := kp.Save(filepath.Join(dir, PlotFile(ts.Sound))); err != nil {
			return err
		}
		report.Plots++

		if !opts.Aggregate {
			return nil
		}

		treatments := p.aggregateTreatments(ts.Counts())
		if len(treatments) == 0 {
			GetLogger().Info("Sound does not meet aggregated plot criteria, skipping",
				logger.String("country", ts.Country),
				logger.String("sound", ts.Sound),
				logger.Int("min_detections", p.settings.Kernel.MinAggregateDetections))
			return nil
		}

		agg := plot.KernelPlot{
			Title:  plot.Title(ts.Sound, ts.Country),
			Series: p.treatmentSeries(ts, treatments),
		}
		if err := agg.Save(filepath.Join(dir, AggregateFile(ts.Sound))); err != nil {
			return err
		}
		report.Aggregated++
		return nil
	})
	if err != nil {
		return report, err
	}

	GetLogger().Info("Kernel plots written",
		logger.Int("sounds", report.Sounds),
		logger.Int("plots", report.Plots),
		logger.Int("aggregated", report.Aggregated))
	return report, nil
}

func writeRawTimes(path string, ts *Times) error {
	rows := make([][]string, len(ts.Records))
	for i, r := range ts.Records {
		rows[i] = []string{string(r.Treatment), tabular.FormatFloat(r.Hour)}
	}
	if err := tabular.Write(path, RawTimesHeader, rows); err != nil {
		return err
	}
	GetLogger().Info("Saved raw detection times",
		logger.String("country", ts.Country),
		logger.String("sound", ts.Sound),
		logger.String("path", path))
	return nil
}

// treatmentSeries estimates one density per treatment. Treatments without a
// usable density keep a legend entry.
func (p *Pipeline) treatmentSeries(ts *Times, treatments []recording.Treatment) []plot.Series {
	series := make([]plot.Series, 0, len(treatments))
	for _, t := range treatments {
		hours := ts.Hours(t)
		if len(hours) == 0 {
			GetLogger().Info("Sound not present in treatment",
				logger.String("country", ts.Country),
				logger.String("sound", ts.Sound),
				logger.String("treatment", string(t)))
			series = append(series, plot.TreatmentSeries(t, nil, nil))
			continue
		}

		start := time.Now()
		d, err := kernel.Estimate(hours, p.settings.Kernel.Bandwidth, p.settings.Kernel.GridPoints)
		m := getMetrics()
		if err != nil {
			GetLogger().Warn("Kernel density failed",
				logger.String("country", ts.Country),
				logger.String("sound", ts.Sound),
				logger.String("treatment", string(t)),
				logger.Int("detections", len(hours)),
				logger.Error(err))
			if m != nil {
				m.RecordOperation(metrics.OpKernel, metrics.StatusError)
			}
			recordFailure(metrics.OpKernel)
			series = append(series, plot.TreatmentSeries(t, nil, nil))
			continue
		}
		if m != nil {
			m.RecordOperation(metrics.OpKernel, metrics.StatusSuccess)
			m.RecordDuration(metrics.OpKernel, time.Since(start).Seconds())
		}
		series = append(series, plot.TreatmentSeries(t, d.X, d.Y))
	}
	return series
}

// aggregateTreatments returns the treatments of every configured group whose
// members all have at least the minimum number of detections, in reporting
// order. It is empty when no group qualifies.
func (p *Pipeline) aggregateTreatments(counts map[recording.Treatment]int) []recording.Treatment {
	minimum := p.settings.Kernel.MinAggregateDetections
	selected := make(map[recording.Treatment]bool)

	for _, group := range p.settings.Kernel.Groups {
		if len(group) == 0 {
			continue
		}
		ok := true
		for _, name := range group {
			if counts[recording.ParseTreatmentName(name)] < minimum {
				ok = false
				break
			}
		}
		if !ok {
			continue
		}
		for _, name := range group {
			selected[recording.ParseTreatmentName(name)] = true
		}
	}

	var out []recording.Treatment
	for _, t := range recording.Treatments {
		if selected[t] {
			out = append(out, t)
		}
	}
	return out
}
