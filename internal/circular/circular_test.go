package circular

import (
	"context"
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"gonum.org/v1/gonum/stat"

	"github.com/marrs-acoustics/reefscape/internal/errors"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestConversions(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, math.Pi/2, HoursToRadians(6), 1e-12)
	assert.InDelta(t, 0.0, HoursToRadians(24), 1e-12)
	assert.InDelta(t, 18.0, RadiansToHours(-math.Pi/2), 1e-12)
	assert.InDelta(t, 12.0, RadiansToHours(math.Pi), 1e-12)
	assert.InDelta(t, 1.0, Normalize(1+4*math.Pi), 1e-12)
	all := HoursToRadiansAll([]float64{0, 12})
	require.Len(t, all, 2)
	assert.InDelta(t, math.Pi, all[1], 1e-12)
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	s, err := Describe([]float64{0, math.Pi / 2})
	require.NoError(t, err)
	assert.Equal(t, 2, s.N)
	assert.InDelta(t, math.Pi/4, s.MeanDirection, 1e-12)
	assert.InDelta(t, 3.0, s.MeanHour, 1e-12)
	assert.InDelta(t, math.Sqrt2/2, s.R, 1e-12)
	assert.InDelta(t, math.Sqrt(-2*math.Log(math.Sqrt2/2)), s.SD, 1e-12)

	// the mean of angles either side of midnight stays near midnight
	s, err = Describe(HoursToRadiansAll([]float64{23, 1}))
	require.NoError(t, err)
	assert.InDelta(t, 0.0, math.Min(s.MeanHour, 24-s.MeanHour), 1e-9)

	_, err = Describe(nil)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryStatistics))
}

func TestRayleigh(t *testing.T) {
	t.Parallel()

	z, p := Rayleigh(10, 0)
	assert.InDelta(t, 0.0, z, 1e-12)
	assert.InDelta(t, 1.0, p, 1e-12)

	z, p = Rayleigh(50, 0.5)
	assert.InDelta(t, 12.5, z, 1e-12)
	assert.Less(t, p, 1e-4)
}

func TestBesselIe(t *testing.T) {
	t.Parallel()

	e1 := math.Exp(-1)
	assert.InEpsilon(t, 1.2660658777520082*e1, besselIe(0, 1), 1e-12)
	assert.InEpsilon(t, 0.565159103992485*e1, besselIe(1, 1), 1e-12)
	assert.InEpsilon(t, 0.1357476697670383*e1, besselIe(2, 1), 1e-12)
	assert.InDelta(t, 1.0, besselIe(0, 0), 1e-15)
	assert.InDelta(t, 0.0, besselIe(1, 0), 1e-15)

	// large arguments use the polynomial approximations
	assert.InEpsilon(t, 0.089780311884826, besselIe(0, 20), 1e-6)
	assert.InEpsilon(t, 0.08750622218328873, besselIe(1, 20), 1e-6)
	assert.InEpsilon(t, 0.08102968966649719, besselIe(2, 20), 1e-6)
	assert.InEpsilon(t, 0.03994437929909667, besselIe(0, 100), 1e-6)
}

func TestA1Inv(t *testing.T) {
	t.Parallel()

	for _, k := range []float64{0.5, 2, 10} {
		assert.InEpsilon(t, k, A1Inv(A1(k)), 0.02, "kappa %g", k)
	}
	assert.InDelta(t, 0.0, A1Inv(0), 1e-12)
	assert.True(t, math.IsInf(A1Inv(1), 1))
}

func TestBandwidth(t *testing.T) {
	t.Parallel()

	bw, err := Bandwidth([]float64{0.1, 0.5, 1.0, 1.5, 2.0}, 3)
	require.NoError(t, err)
	assert.InEpsilon(t, 3.7032049509700173, bw, 1e-9)

	// identical points hit the kmax cap instead of diverging
	bw, err = Bandwidth([]float64{1, 1, 1}, 3)
	require.NoError(t, err)
	assert.False(t, math.IsInf(bw, 0))
	assert.Positive(t, bw)

	_, err = Bandwidth([]float64{1}, 3)
	require.Error(t, err)
}

func TestKernelDensityIntegratesToOne(t *testing.T) {
	t.Parallel()

	kd := NewKernelDensity([]float64{0.2, 0.4, 3, 5.9}, 8)
	const points = 2000
	step := twoPi / points
	area := 0.0
	for i := range points {
		area += kd.At(float64(i) * step)
	}
	assert.InDelta(t, 1.0, area*step, 1e-9)
	assert.InDelta(t, 0.0, NewKernelDensity(nil, 1).At(0), 1e-12)
}

func vonMisesSample(seed uint64, n int, mu, kappa float64) []float64 {
	rng := rand.New(rand.NewPCG(seed, 0))
	out := make([]float64, n)
	for i := range out {
		out[i] = VonMises(rng, mu, kappa)
	}
	return out
}

func TestVonMisesSampler(t *testing.T) {
	t.Parallel()

	x := vonMisesSample(1, 5000, 1.0, 10)
	for _, v := range x {
		require.GreaterOrEqual(t, v, 0.0)
		require.Less(t, v, twoPi)
	}
	assert.InDelta(t, 1.0, Normalize(stat.CircularMean(x, nil)), 0.03)
	assert.InDelta(t, A1(10), MeanResultantLength(x), 0.01)

	uniform := vonMisesSample(2, 5000, 0, 0)
	assert.Less(t, MeanResultantLength(uniform), 0.05)
}

func TestEstimateIdenticalSamples(t *testing.T) {
	t.Parallel()

	a := vonMisesSample(3, 200, 2, 2)
	o, err := Estimate(a, a, DefaultConfig())
	require.NoError(t, err)
	assert.Equal(t, 200, o.N)
	assert.Equal(t, 200, o.M)
	assert.InDelta(t, 1.0, o.Dhat1, 1e-6)
	assert.InDelta(t, 1.0, o.Dhat4, 1e-12)
	assert.InDelta(t, 1.0, o.Dhat5, 1e-12)
}

func TestEstimateSeparatedSamples(t *testing.T) {
	t.Parallel()

	a := vonMisesSample(4, 150, 0.5, 8)
	b := vonMisesSample(5, 150, 0.5+math.Pi, 8)
	same := vonMisesSample(6, 150, 0.5, 8)

	apart, err := Estimate(a, b, DefaultConfig())
	require.NoError(t, err)
	near, err := Estimate(a, same, DefaultConfig())
	require.NoError(t, err)

	assert.Greater(t, near.Dhat1, 0.7)
	assert.Greater(t, near.Dhat4, 0.7)

	for _, e := range []Estimator{Dhat1, Dhat4, Dhat5} {
		assert.Less(t, apart.Value(e), 0.2, e.String())
		assert.Greater(t, near.Value(e), apart.Value(e), e.String())
		assert.LessOrEqual(t, near.Value(e), 1.0, e.String())

		v, err := EstimateOne(a, b, e, DefaultConfig())
		require.NoError(t, err)
		assert.InDelta(t, apart.Value(e), v, 1e-12)
	}
}

func TestRecommended(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	assert.Equal(t, Dhat1, cfg.Recommended(74, 500))
	assert.Equal(t, Dhat4, cfg.Recommended(75, 75))
	assert.Equal(t, "Dhat4", Dhat4.String())
	assert.True(t, math.IsNaN(Overlap{}.Value(Estimator(9))))
}

func TestBootstrapDeterministicAcrossWorkers(t *testing.T) {
	t.Parallel()

	a := vonMisesSample(7, 60, 1, 3)
	b := vonMisesSample(8, 60, 2, 3)
	cfg := DefaultConfig()

	one, err := Bootstrap(t.Context(), a, b, Dhat1, cfg, BootstrapConfig{Reps: 40, Workers: 1, Seed: 42})
	require.NoError(t, err)
	four, err := Bootstrap(t.Context(), a, b, Dhat1, cfg, BootstrapConfig{Reps: 40, Workers: 4, Seed: 42})
	require.NoError(t, err)
	other, err := Bootstrap(t.Context(), a, b, Dhat1, cfg, BootstrapConfig{Reps: 40, Workers: 4, Seed: 43})
	require.NoError(t, err)

	require.Len(t, one, 40)
	assert.Equal(t, one, four)
	assert.NotEqual(t, one, other)
	for _, v := range one {
		assert.Greater(t, v, 0.0)
		assert.LessOrEqual(t, v, 1.0)
	}
}

func TestBootstrapCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	a := vonMisesSample(9, 30, 1, 3)
	_, err := Bootstrap(ctx, a, a, Dhat4, DefaultConfig(), BootstrapConfig{Reps: 100, Workers: 2, Seed: 1})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryCancellation))

	_, err = Bootstrap(t.Context(), a, a, Dhat4, DefaultConfig(), BootstrapConfig{Reps: 0})
	require.Error(t, err)
}

func TestConfidenceIntervals(t *testing.T) {
	t.Parallel()

	reps := make([]float64, 0, 102)
	for i := range 101 {
		reps = append(reps, 0.4+0.002*float64(i))
	}
	reps = append(reps, math.NaN())

	ci, err := ConfidenceIntervals(0.5, reps, 0.95)
	require.NoError(t, err)
	assert.Equal(t, 101, ci.Reps)

	assert.Less(t, ci.Percentile.Lower, ci.Percentile.Upper)
	assert.GreaterOrEqual(t, ci.Percentile.Lower, 0.4)
	assert.LessOrEqual(t, ci.Percentile.Upper, 0.6)
	assert.InDelta(t, 1.0-ci.Percentile.Upper, ci.Basic0.Lower, 1e-12)
	assert.InDelta(t, 1.0-ci.Percentile.Lower, ci.Basic0.Upper, 1e-12)

	sd := stat.StdDev(reps[:101], nil)
	assert.InDelta(t, 0.5-1.959963984540054*sd, ci.Norm0.Lower, 1e-9)
	assert.InDelta(t, 0.5+1.959963984540054*sd, ci.Norm0.Upper, 1e-9)

	_, err = ConfidenceIntervals(0.5, []float64{math.NaN(), 0.3}, 0.95)
	require.Error(t, err)
	_, err = ConfidenceIntervals(0.5, reps, 1.5)
	require.Error(t, err)
}

func TestWatsonTwoSample(t *testing.T) {
	t.Parallel()

	r, err := WatsonTwoSample([]float64{0.1, 0.2, 0.3}, []float64{0.15, 1, 2, 3})
	require.NoError(t, err)
	assert.InDelta(t, 2.0/21, r.U2, 1e-12)
	assert.Equal(t, ">0.1", r.Bracket)

	same := []float64{0.5, 1, 1.5, 2}
	r, err = WatsonTwoSample(same, same)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, r.U2, 1e-12)
	assert.InDelta(t, 1.0, r.P, 1e-12)

	a := vonMisesSample(10, 40, 0.5, 10)
	b := vonMisesSample(11, 40, 0.5+math.Pi, 10)
	r, err = WatsonTwoSample(a, b)
	require.NoError(t, err)
	assert.Greater(t, r.U2, 0.385)
	assert.Equal(t, "<0.001", r.Bracket)
	assert.Less(t, r.P, 0.001)

	_, err = WatsonTwoSample(nil, b)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryStatistics))
}

func TestWatsonP(t *testing.T) {
	t.Parallel()

	// asymptotic p-values agree with the tabulated critical values
	assert.InDelta(t, 0.05, WatsonP(0.187), 0.001)
	assert.InDelta(t, 0.10, WatsonP(0.152), 0.001)
	assert.InDelta(t, 0.01, WatsonP(0.268), 0.0002)
	assert.InDelta(t, 0.001, WatsonP(0.385), 0.00002)

	assert.Equal(t, "<0.05", WatsonBracket(0.2))
	assert.Equal(t, "<0.01", WatsonBracket(0.3))
	assert.Equal(t, "<0.1", WatsonBracket(0.16))
}
