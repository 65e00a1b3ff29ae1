// Package kernel estimates linear Gaussian kernel densities of detection
// times over the hours of a day.
package kernel

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/marrs-acoustics/reefscape/internal/errors"
)

// HoursPerDay is the upper end of the evaluation grid
const HoursPerDay = 24.0

// Grid returns n evenly spaced points over [0, 24], ends included
func Grid(n int) []float64 {
	if n < 2 {
		n = 2
	}
	return floats.Span(make([]float64, n), 0, HoursPerDay)
}

// Density is a kernel density evaluated on a grid
type Density struct {
	X         []float64
	Y         []float64
	Bandwidth float64 // kernel standard deviation in hours
	N         int
}

// Gaussian is a fitted Gaussian kernel density estimator. The kernel
// standard deviation is factor times the sample standard deviation.
type Gaussian struct {
	data      []float64
	bandwidth float64
}

// NewGaussian fits an estimator to data. It needs at least two points
// with non-zero variance.
func NewGaussian(data []float64, factor float64) (*Gaussian, error) {
	if len(data) < 2 {
		return nil, errors.Newf("kernel density needs at least 2 points, got %d", len(data)).
			Component("kernel").
			Category(errors.CategoryStatistics).
			Context("points", len(data)).
			Build()
	}
	if !(factor > 0) {
		return nil, errors.Newf("bandwidth factor must be positive, got %g", factor).
			Component("kernel").
			Category(errors.CategoryValidation).
			Build()
	}

	sd := stat.StdDev(data, nil)
	if !(sd > 0) || math.IsInf(sd, 0) {
		return nil, errors.Newf("kernel density of %d points has zero variance", len(data)).
			Component("kernel").
			Category(errors.CategoryStatistics).
			Context("points", len(data)).
			Build()
	}

	return &Gaussian{data: data, bandwidth: factor * sd}, nil
}

// Bandwidth returns the kernel standard deviation
func (g *Gaussian) Bandwidth() float64 {
	return g.bandwidth
}

// At evaluates the density at x
func (g *Gaussian) At(x float64) float64 {
	sum := 0.0
	for _, d := range g.data {
		sum += distuv.UnitNormal.Prob((x - d) / g.bandwidth)
	}
	return sum / (float64(len(g.data)) * g.bandwidth)
}

// Evaluate returns the density on grid
func (g *Gaussian) Evaluate(grid []float64) Density {
	y := make([]float64, len(grid))
	for i, x := range grid {
		y[i] = g.At(x)
	}
	return Density{X: grid, Y: y, Bandwidth: g.bandwidth, N: len(g.data)}
}

// Estimate fits data and evaluates it on a grid of gridPoints points over the day
func Estimate(data []float64, factor float64, gridPoints int) (Density, error) {
	g, err := NewGaussian(data, factor)
	if err != nil {
		return Density{}, err
	}
	return g.Evaluate(Grid(gridPoints)), nil
}
