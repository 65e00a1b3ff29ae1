package circular

import (
	"math"
	"math/rand/v2"
)

// KernelDensity is a von Mises kernel density estimate over the circle
type KernelDensity struct {
	data  []float64
	kappa float64 // kernel concentration
	norm  float64 // n * 2π * I0e(κ)
}

// NewKernelDensity returns the von Mises kernel density of data with
// kernel concentration kappa.
func NewKernelDensity(data []float64, kappa float64) *KernelDensity {
	return &KernelDensity{
		data:  data,
		kappa: kappa,
		norm:  float64(len(data)) * twoPi * besselIe(0, kappa),
	}
}

// Kappa returns the kernel concentration
func (k *KernelDensity) Kappa() float64 {
	return k.kappa
}

// At evaluates f(θ) = 1/n Σ exp(κ(cos(θ−x_i)−1)) / (2π I0e(κ))
func (k *KernelDensity) At(theta float64) float64 {
	if len(k.data) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range k.data {
		sum += math.Exp(k.kappa * (math.Cos(theta-x) - 1))
	}
	return sum / k.norm
}

// AtAll evaluates the density at every point of thetas
func (k *KernelDensity) AtAll(thetas []float64) []float64 {
	out := make([]float64, len(thetas))
	for i, t := range thetas {
		out[i] = k.At(t)
	}
	return out
}

// VonMises draws an angle from a von Mises distribution centred on mu with
// concentration kappa, using the Best and Fisher (1979) rejection sampler.
// The result is in [0, 2π).
func VonMises(rng *rand.Rand, mu, kappa float64) float64 {
	if kappa < 1e-8 {
		return twoPi * rng.Float64()
	}

	a := 1 + math.Sqrt(1+4*kappa*kappa)
	b := (a - math.Sqrt(2*a)) / (2 * kappa)
	r := (1 + b*b) / (2 * b)

	var f float64
	for {
		u1 := rng.Float64()
		u2 := rng.Float64()
		z := math.Cos(math.Pi * u1)
		f = (1 + r*z) / (r + z)
		c := kappa * (r - f)
		if c*(2-c)-u2 > 0 || math.Log(c/u2)+1-c >= 0 {
			break
		}
	}

	theta := math.Acos(math.Max(-1, math.Min(1, f)))
	if rng.Float64() < 0.5 {
		theta = -theta
	}
	return Normalize(mu + theta)
}
