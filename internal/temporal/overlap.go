package temporal

import (
	"cmp"
	"context"
	"math"
	"runtime"
	"slices"
	"time"

	"github.com/marrs-acoustics/reefscape/internal/circular"
	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/logger"
	"github.com/marrs-acoustics/reefscape/internal/observability/metrics"
	"github.com/marrs-acoustics/reefscape/internal/recording"
	"github.com/marrs-acoustics/reefscape/internal/tabular"
)

// OverlapFile is the overlap results table inside the results directory
const OverlapFile = "overlap_results.csv"

// OverlapHeader is the overlap results table header
var OverlapHeader = []string{
	"country", "sound", "treatment_a", "treatment_b", "n", "m",
	"dhat1", "dhat4", "dhat5", "estimator", "estimate",
	"ci_perc_lower", "ci_perc_upper",
	"ci_basic0_lower", "ci_basic0_upper",
	"ci_norm0_lower", "ci_norm0_upper",
	"boot_reps",
	"watson_u2", "watson_p", "watson_bracket",
	"mean_hour_a", "mean_hour_b",
}

// OverlapResult compares the diel activity of one sound between two
// treatments. Statistics that could not be computed are NaN.
type OverlapResult struct {
	Country    string
	Sound      string
	TreatmentA recording.Treatment
	TreatmentB recording.Treatment
	N          int
	M          int

	Dhat1     float64
	Dhat4     float64
	Dhat5     float64
	Estimator string // recommended estimator
	Estimate  float64
	CI        circular.Intervals

	WatsonU2      float64
	WatsonP       float64
	WatsonBracket string

	MeanHourA float64
	MeanHourB float64
}

// Record renders the result for CSV output, with NA for missing values
func (r OverlapResult) Record() []string {
	bracket := r.WatsonBracket
	if bracket == "" {
		bracket = tabular.NA
	}
	f := tabular.FormatFloat
	return []string{
		r.Country, r.Sound, string(r.TreatmentA), string(r.TreatmentB),
		tabular.FormatInt(r.N), tabular.FormatInt(r.M),
		f(r.Dhat1), f(r.Dhat4), f(r.Dhat5), r.Estimator, f(r.Estimate),
		f(r.CI.Percentile.Lower), f(r.CI.Percentile.Upper),
		f(r.CI.Basic0.Lower), f(r.CI.Basic0.Upper),
		f(r.CI.Norm0.Lower), f(r.CI.Norm0.Upper),
		tabular.FormatInt(r.CI.Reps),
		f(r.WatsonU2), f(r.WatsonP), bracket,
		f(r.MeanHourA), f(r.MeanHourB),
	}
}

// OverlapOptions override the configured bootstrap settings when positive
type OverlapOptions struct {
	Reps    int
	Workers int
}

// Pair is an unordered pair of treatments
type Pair struct {
	A, B recording.Treatment
}

// TreatmentPairs returns every pair of known treatments in reporting order
func TreatmentPairs() []Pair {
	ts := recording.Treatments
	pairs := make([]Pair, 0, len(ts)*(len(ts)-1)/2)
	for i := range ts {
		for j := i + 1; j < len(ts); j++ {
			pairs = append(pairs, Pair{A: ts[i], B: ts[j]})
		}
	}
	return pairs
}

func treatmentRank(t recording.Treatment) int {
	if i := slices.Index(recording.Treatments, t); i >= 0 {
		return i
	}
	return len(recording.Treatments)
}

func compareResults(a, b OverlapResult) int {
	return cmp.Or(
		cmp.Compare(a.Country, b.Country),
		cmp.Compare(a.Sound, b.Sound),
		cmp.Compare(treatmentRank(a.TreatmentA), treatmentRank(b.TreatmentA)),
		cmp.Compare(treatmentRank(a.TreatmentB), treatmentRank(b.TreatmentB)),
	)
}

func (p *Pipeline) estimatorConfig() circular.Config {
	o := p.settings.Overlap
	return circular.Config{
		KMax:        o.KMax,
		Adjust:      [3]float64{o.Adjust.Dhat1, o.Adjust.Dhat4, o.Adjust.Dhat5},
		GridPoints:  o.GridPoints,
		SmallSample: o.SmallSample,
	}
}

func (p *Pipeline) bootstrapConfig(opts OverlapOptions) circular.BootstrapConfig {
	cfg := circular.BootstrapConfig{
		Reps:    p.settings.Overlap.Reps,
		Workers: p.settings.OverlapWorkers(runtime.NumCPU()),
		Seed:    p.settings.Overlap.Seed,
	}
	if opts.Reps > 0 {
		cfg.Reps = opts.Reps
	}
	if opts.Workers > 0 {
		cfg.Workers = opts.Workers
	}
	return cfg
}

// Overlap compares every pair of treatments with detections for every
// country and sound and writes the overlap results table. The results are
// sorted by country, sound and treatment pair.
func (p *Pipeline) Overlap(ctx context.Context, opts OverlapOptions) ([]OverlapResult, error) {
	est := p.estimatorConfig()
	boot := p.bootstrapConfig(opts)
	if m := getMetrics(); m != nil {
		m.SetBootstrapWorkers(boot.Workers)
	}

	GetLogger().Info("Starting overlap analysis",
		logger.Int("reps", boot.Reps),
		logger.Int("workers", boot.Workers),
		logger.Float64("confidence", p.settings.Overlap.Confidence))

	var results []OverlapResult
	err := p.forEachSound(ctx, func(ts *Times) error {
		for _, pair := range TreatmentPairs() {
			a, b := ts.Hours(pair.A), ts.Hours(pair.B)
			if len(a) == 0 || len(b) == 0 {
				continue
			}
			res, err := p.comparePair(ctx, ts, pair, a, b, est, boot)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slices.SortFunc(results, compareResults)

	path := p.settings.ResultPath(OverlapFile)
	rows := make([][]string, len(results))
	for i, r := range results {
		rows[i] = r.Record()
	}
	if err := tabular.Write(path, OverlapHeader, rows); err != nil {
		return nil, err
	}

	GetLogger().Info("Overlap results written",
		logger.String("path", path),
		logger.Int("comparisons", len(results)))
	return results, nil
}

// missingResult returns a result for pair with every statistic missing
func missingResult(ts *Times, pair Pair) OverlapResult {
	nan := math.NaN()
	missing := circular.Interval{Lower: nan, Upper: nan}
	return OverlapResult{
		Country:    ts.Country,
		Sound:      ts.Sound,
		TreatmentA: pair.A,
		TreatmentB: pair.B,
		Dhat1:      nan,
		Dhat4:      nan,
		Dhat5:      nan,
		Estimate:   nan,
		CI:         circular.Intervals{Percentile: missing, Basic0: missing, Norm0: missing},
		WatsonU2:   nan,
		WatsonP:    nan,
		MeanHourA:  nan,
		MeanHourB:  nan,
	}
}

// comparePair computes the overlap statistics of one treatment pair. Only
// cancellation is returned as an error; other failures leave NaN values.
func (p *Pipeline) comparePair(ctx context.Context, ts *Times, pair Pair, hoursA, hoursB []float64,
	est circular.Config, boot circular.BootstrapConfig) (OverlapResult, error) {
	res := missingResult(ts, pair)
	res.N, res.M = len(hoursA), len(hoursB)

	a := circular.HoursToRadiansAll(hoursA)
	b := circular.HoursToRadiansAll(hoursB)
	log := GetLogger().With(
		logger.String("country", ts.Country),
		logger.String("sound", ts.Sound),
		logger.String("treatment_a", string(pair.A)),
		logger.String("treatment_b", string(pair.B)))
	fail := func(statistic string, err error) {
		log.Warn("Statistic could not be computed",
			logger.String("statistic", statistic),
			logger.Error(err))
		if m := getMetrics(); m != nil {
			m.RecordOperation(statistic, metrics.StatusError)
		}
		recordFailure(statistic)
	}

	if sa, err := circular.Describe(a); err == nil {
		res.MeanHourA = sa.MeanHour
	}
	if sb, err := circular.Describe(b); err == nil {
		res.MeanHourB = sb.MeanHour
	}

	estimator := est.Recommended(res.N, res.M)
	res.Estimator = estimator.String()

	start := time.Now()
	ov, err := circular.Estimate(a, b, est)
	if err != nil {
		fail(metrics.OpOverlap, err)
	} else {
		res.Dhat1, res.Dhat4, res.Dhat5 = ov.Dhat1, ov.Dhat4, ov.Dhat5
		res.Estimate = ov.Value(estimator)
		if m := getMetrics(); m != nil {
			m.RecordOperation(metrics.OpOverlap, metrics.StatusSuccess)
			m.RecordDuration(metrics.OpOverlap, time.Since(start).Seconds())
		}

		if err := p.bootstrapIntervals(ctx, &res, a, b, estimator, est, boot, fail); err != nil {
			return res, err
		}
	}

	if w, err := circular.WatsonTwoSample(a, b); err != nil {
		fail(metrics.OpWatson, err)
	} else {
		res.WatsonU2, res.WatsonP, res.WatsonBracket = w.U2, w.P, w.Bracket
		if m := getMetrics(); m != nil {
			m.RecordOperation(metrics.OpWatson, metrics.StatusSuccess)
		}
	}

	log.Debug("Treatment pair compared",
		logger.Int("n", res.N),
		logger.Int("m", res.M),
		logger.String("estimator", res.Estimator),
		logger.Float64("estimate", res.Estimate))
	return res, nil
}

// bootstrapIntervals fills the confidence intervals of res. Only
// cancellation is returned.
func (p *Pipeline) bootstrapIntervals(ctx context.Context, res *OverlapResult, a, b []float64,
	e circular.Estimator, est circular.Config, boot circular.BootstrapConfig, fail func(string, error)) error {
	start := time.Now()
	reps, err := circular.Bootstrap(ctx, a, b, e, est, boot)
	if err != nil {
		if errors.IsCategory(err, errors.CategoryCancellation) {
			return err
		}
		fail(metrics.OpBootstrap, err)
		return nil
	}

	m := getMetrics()
	if m != nil {
		m.RecordBootstrapReps(len(reps))
		m.RecordDuration(metrics.OpBootstrap, time.Since(start).Seconds())
	}

	ci, err := circular.ConfidenceIntervals(res.Estimate, reps, p.settings.Overlap.Confidence)
	if err != nil {
		fail(metrics.OpBootstrap, err)
		return nil
	}
	res.CI = ci
	if m != nil {
		m.RecordOperation(metrics.OpBootstrap, metrics.StatusSuccess)
	}
	return nil
}
