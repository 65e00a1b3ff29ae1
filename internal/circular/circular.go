// Package circular implements circular statistics for diel activity data:
// descriptive statistics, von Mises kernel densities, the overlap
// coefficient with smoothed bootstrap intervals and Watson's two-sample test.
//
// Angles are radians in [0, 2π). Times of day are mapped with 2π/24.
package circular

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/marrs-acoustics/reefscape/internal/errors"
)

const twoPi = 2 * math.Pi

// HoursToRadians maps a decimal hour onto the circle
func HoursToRadians(h float64) float64 {
	return Normalize(h * twoPi / 24)
}

// RadiansToHours maps an angle back to a decimal hour in [0, 24)
func RadiansToHours(r float64) float64 {
	return Normalize(r) * 24 / twoPi
}

// HoursToRadiansAll converts a slice of decimal hours
func HoursToRadiansAll(hours []float64) []float64 {
	out := make([]float64, len(hours))
	for i, h := range hours {
		out[i] = HoursToRadians(h)
	}
	return out
}

// Normalize wraps an angle into [0, 2π)
func Normalize(r float64) float64 {
	r = math.Mod(r, twoPi)
	if r < 0 {
		r += twoPi
	}
	return r
}

// Summary holds descriptive statistics of a circular sample
type Summary struct {
	N             int
	MeanDirection float64 // radians
	MeanHour      float64
	R             float64 // mean resultant length
	SD            float64 // circular standard deviation, radians
	RayleighZ     float64
	RayleighP     float64
}

// resultant returns the mean cosine and sine of x
func resultant(x []float64) (c, s float64) {
	for _, v := range x {
		c += math.Cos(v)
		s += math.Sin(v)
	}
	n := float64(len(x))
	return c / n, s / n
}

// MeanResultantLength returns R̄ of x
func MeanResultantLength(x []float64) float64 {
	c, s := resultant(x)
	return math.Hypot(c, s)
}

// Describe computes descriptive statistics and the Rayleigh test of uniformity
func Describe(x []float64) (Summary, error) {
	if len(x) == 0 {
		return Summary{}, errors.Newf("circular summary of an empty sample").
			Component("circular").
			Category(errors.CategoryStatistics).
			Build()
	}

	mean := Normalize(stat.CircularMean(x, nil))
	r := MeanResultantLength(x)
	z, p := Rayleigh(len(x), r)

	sd := math.Inf(1)
	if r > 0 {
		sd = math.Sqrt(-2 * math.Log(r))
	}

	return Summary{
		N:             len(x),
		MeanDirection: mean,
		MeanHour:      RadiansToHours(mean),
		R:             r,
		SD:            sd,
		RayleighZ:     z,
		RayleighP:     p,
	}, nil
}

// Rayleigh returns Z = nR̄² and its p-value with Zar's small-sample
// approximation p = exp(√(1 + 4n + 4(n² − Rn²)) − (1 + 2n)).
func Rayleigh(n int, rbar float64) (z, p float64) {
	fn := float64(n)
	rn := fn * rbar
	z = fn * rbar * rbar
	p = math.Exp(math.Sqrt(1+4*fn+4*(fn*fn-rn*rn)) - (1 + 2*fn))
	return z, math.Min(math.Max(p, 0), 1)
}
