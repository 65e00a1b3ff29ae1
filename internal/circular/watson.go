package circular

import (
	"math"
	"slices"

	"github.com/marrs-acoustics/reefscape/internal/errors"
)

// Watson critical values of U² for the two-sample test
var watsonCritical = []struct {
	value   float64
	bracket string
}{
	{0.385, "<0.001"},
	{0.268, "<0.01"},
	{0.187, "<0.05"},
	{0.152, "<0.1"},
}

// WatsonResult is the outcome of Watson's two-sample U² test
type WatsonResult struct {
	U2      float64
	P       float64 // asymptotic p-value
	Bracket string  // tabulated significance bracket, for example "<0.05"
}

// WatsonTwoSample tests whether two circular samples share a distribution.
//
// Over the pooled sorted sample with d_k = F_n(k) − G_m(k) the statistic is
// U² = nm/N² [Σ t_k d_k² − (Σ t_k d_k)²/N], where t_k counts tied values.
func WatsonTwoSample(x, y []float64) (WatsonResult, error) {
	n, m := len(x), len(y)
	if n == 0 || m == 0 {
		return WatsonResult{}, errors.Newf("watson test needs two non-empty samples, got %d and %d", n, m).
			Component("circular").
			Category(errors.CategoryStatistics).
			Build()
	}

	xs := normalizedSorted(x)
	ys := normalizedSorted(y)
	total := float64(n + m)

	var sumD, sumD2 float64
	i, j := 0, 0
	for i < n || j < m {
		v := math.Inf(1)
		if i < n {
			v = xs[i]
		}
		if j < m && ys[j] < v {
			v = ys[j]
		}

		ties := 0
		for i < n && xs[i] == v {
			i++
			ties++
		}
		for j < m && ys[j] == v {
			j++
			ties++
		}

		d := float64(i)/float64(n) - float64(j)/float64(m)
		t := float64(ties)
		sumD += t * d
		sumD2 += t * d * d
	}

	u2 := float64(n) * float64(m) / (total * total) * (sumD2 - sumD*sumD/total)
	return WatsonResult{U2: u2, P: WatsonP(u2), Bracket: WatsonBracket(u2)}, nil
}

// WatsonP returns the asymptotic p-value 2 Σ (−1)^{k−1} exp(−2k²π²U²)
func WatsonP(u2 float64) float64 {
	if u2 <= 0 {
		return 1
	}
	p := 0.0
	for k := 1; k <= 100; k++ {
		term := math.Exp(-2 * float64(k*k) * math.Pi * math.Pi * u2)
		if k%2 == 1 {
			p += term
		} else {
			p -= term
		}
		if term < 1e-16 {
			break
		}
	}
	return math.Min(math.Max(2*p, 0), 1)
}

// WatsonBracket returns the tabulated significance bracket for U²
func WatsonBracket(u2 float64) string {
	for _, c := range watsonCritical {
		if u2 > c.value {
			return c.bracket
		}
	}
	return ">0.1"
}

func normalizedSorted(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = Normalize(v)
	}
	slices.Sort(out)
	return out
}
