package circular

import (
	"context"
	"math"
	"math/rand/v2"
	"slices"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/logger"
)

// BootstrapConfig controls smoothed bootstrap resampling
type BootstrapConfig struct {
	Reps    int
	Workers int
	Seed    uint64
}

// Resample draws a smoothed bootstrap sample of size len(x): a random data
// point plus von Mises noise with the kernel concentration kappa.
func Resample(rng *rand.Rand, x []float64, kappa float64) []float64 {
	out := make([]float64, len(x))
	for i := range out {
		out[i] = VonMises(rng, x[rng.IntN(len(x))], kappa)
	}
	return out
}

// repRand returns the random stream of replicate rep. Streams depend only on
// seed and rep, so results do not depend on worker scheduling.
func repRand(seed uint64, rep int) *rand.Rand {
	return rand.New(rand.NewPCG(seed, uint64(rep)))
}

// Bootstrap returns cfg.Reps smoothed bootstrap replicates of estimator e
// for samples a and b. Replicates run on a bounded worker pool. A replicate
// that cannot be estimated is NaN. Cancelling ctx stops the pool.
func Bootstrap(ctx context.Context, a, b []float64, e Estimator, est Config, cfg BootstrapConfig) ([]float64, error) {
	if cfg.Reps <= 0 {
		return nil, errors.Newf("bootstrap needs a positive number of replicates, got %d", cfg.Reps).
			Component("circular").
			Category(errors.CategoryValidation).
			Build()
	}

	kA, err := Bandwidth(a, est.KMax)
	if err != nil {
		return nil, err
	}
	kB, err := Bandwidth(b, est.KMax)
	if err != nil {
		return nil, err
	}

	workers := max(cfg.Workers, 1)
	results := make([]float64, cfg.Reps)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for rep := range cfg.Reps {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rng := repRand(cfg.Seed, rep)
			ra := Resample(rng, a, kA)
			rb := Resample(rng, b, kB)

			v, err := EstimateOne(ra, rb, e, est)
			if err != nil {
				v = math.NaN()
			}
			results[rep] = v
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, errors.New(err).
			Component("circular").
			Category(errors.CategoryCancellation).
			Context("reps", cfg.Reps).
			Build()
	}
	if err := ctx.Err(); err != nil {
		return nil, errors.New(err).
			Component("circular").
			Category(errors.CategoryCancellation).
			Build()
	}

	GetLogger().Debug("Bootstrap finished",
		logger.String("estimator", e.String()),
		logger.Int("reps", cfg.Reps),
		logger.Int("workers", workers))

	return results, nil
}

// Interval is a two-sided confidence interval
type Interval struct {
	Lower float64
	Upper float64
}

// Intervals holds bootstrap confidence intervals for one estimate
type Intervals struct {
	Percentile Interval
	Basic0     Interval // 2·est minus the upper and lower quantiles
	Norm0      Interval // est ± z·sd
	Reps       int      // replicates that produced a value
}

// ConfidenceIntervals computes percentile, basic0 and norm0 intervals for
// estimate t0 from bootstrap replicates. NaN replicates are ignored.
func ConfidenceIntervals(t0 float64, reps []float64, level float64) (Intervals, error) {
	bt := make([]float64, 0, len(reps))
	for _, v := range reps {
		if !math.IsNaN(v) {
			bt = append(bt, v)
		}
	}
	if len(bt) < 2 {
		return Intervals{}, errors.Newf("confidence interval needs at least 2 bootstrap replicates, got %d", len(bt)).
			Component("circular").
			Category(errors.CategoryStatistics).
			Build()
	}
	if !(level > 0 && level < 1) {
		return Intervals{}, errors.Newf("confidence level must be in (0, 1), got %g", level).
			Component("circular").
			Category(errors.CategoryValidation).
			Build()
	}

	slices.Sort(bt)
	alpha := (1 - level) / 2
	lo := stat.Quantile(alpha, stat.LinInterp, bt, nil)
	hi := stat.Quantile(1-alpha, stat.LinInterp, bt, nil)

	z := distuv.UnitNormal.Quantile(1 - alpha)
	sd := stat.StdDev(bt, nil)

	return Intervals{
		Percentile: Interval{Lower: lo, Upper: hi},
		Basic0:     Interval{Lower: 2*t0 - hi, Upper: 2*t0 - lo},
		Norm0:      Interval{Lower: t0 - z*sd, Upper: t0 + z*sd},
		Reps:       len(bt),
	}, nil
}
