package circular

import "math"

// seriesLimit is where besselIe switches from the power series to the
// asymptotic polynomial approximations.
const seriesLimit = 15.0

// besselIe returns the exponentially scaled modified Bessel function of the
// first kind, e^{-x} I_n(x), for n in {0, 1, 2} and x >= 0.
func besselIe(n int, x float64) float64 {
	x = math.Abs(x)
	if x <= seriesLimit {
		return besselISeries(n, x) * math.Exp(-x)
	}
	switch n {
	case 0:
		return i0eLarge(x)
	case 1:
		return i1eLarge(x)
	default:
		// no cancellation for large x, I2 is close to I0 there
		return i0eLarge(x) - 2*i1eLarge(x)/x
	}
}

// besselISeries sums I_n(x) = Σ (x/2)^{2k+n} / (k! (k+n)!)
func besselISeries(n int, x float64) float64 {
	half := x / 2
	term := 1.0
	for k := 1; k <= n; k++ {
		term *= half / float64(k)
	}
	sum := term
	q := half * half
	for k := 1; k < 200; k++ {
		term *= q / (float64(k) * float64(k+n))
		sum += term
		if term < sum*1e-17 {
			break
		}
	}
	return sum
}

// i0eLarge is the Abramowitz and Stegun 9.8.2 polynomial for x >= 3.75
func i0eLarge(x float64) float64 {
	y := 3.75 / x
	p := 0.39894228 + y*(0.1328592e-1+y*(0.225319e-2+y*(-0.157565e-2+y*(0.916281e-2+
		y*(-0.2057706e-1+y*(0.2635537e-1+y*(-0.1647633e-1+y*0.392377e-2)))))))
	return p / math.Sqrt(x)
}

// i1eLarge is the Abramowitz and Stegun 9.8.4 polynomial for x >= 3.75
func i1eLarge(x float64) float64 {
	y := 3.75 / x
	p := 0.2282967e-1 + y*(-0.2895312e-1+y*(0.1787654e-1-y*0.420059e-2))
	p = 0.39894228 + y*(-0.3988024e-1+y*(-0.362018e-2+y*(0.163801e-2+y*(-0.1031555e-1+y*p))))
	return p / math.Sqrt(x)
}

// A1 is the mean resultant length of a von Mises distribution, I1(κ)/I0(κ)
func A1(kappa float64) float64 {
	if kappa <= 0 {
		return 0
	}
	return besselIe(1, kappa) / besselIe(0, kappa)
}

// A1Inv approximates the inverse of A1 (Best and Fisher 1981)
func A1Inv(r float64) float64 {
	switch {
	case r <= 0:
		return 0
	case r < 0.53:
		return 2*r + r*r*r + 5*math.Pow(r, 5)/6
	case r < 0.85:
		return -0.4 + 1.39*r + 0.43/(1-r)
	case r < 1:
		return 1 / (r*r*r - 4*r*r + 3*r)
	default:
		return math.Inf(1)
	}
}
