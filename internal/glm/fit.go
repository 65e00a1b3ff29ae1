// Package glm fits fixed-effect generalized linear models to result tables
// by iteratively reweighted least squares.
//
// Gaussian models use the identity link. Poisson and negative binomial (NB2)
// models use the log link. For NB2 the shape θ is estimated by alternating
// IRLS fits with Newton steps on the profile log-likelihood of θ.
package glm

import (
	"context"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/logger"
)

// Options control the fitting iterations
type Options struct {
	MaxIter   int     // IRLS iterations per fit
	Tolerance float64 // relative deviance change that counts as converged
	ThetaIter int     // outer θ iterations for negative binomial models
}

// DefaultOptions returns 25 iterations with a 1e-8 tolerance
func DefaultOptions() Options {
	return Options{MaxIter: 25, Tolerance: 1e-8, ThetaIter: 25}
}

// maxCond is the largest condition number of XᵀWX treated as non-singular
const maxCond = 1e12

// thetaEps is the θ Newton step size that counts as converged
const thetaEps = 1.220703e-4

// Coefficient is one estimated model coefficient
type Coefficient struct {
	Name     string
	Estimate float64
	SE       float64
	Stat     float64 // z for count families, t for gaussian
	P        float64
}

// Result is a fitted model
type Result struct {
	Family       FamilyName
	FamilyLabel  string
	Link         string
	Formula      string
	Coefficients []Coefficient
	N            int
	DFResidual   int
	DFNull       int
	Deviance     float64
	NullDeviance float64
	LogLik       float64
	AIC          float64
	Dispersion   float64
	Theta        float64 // NaN unless negative binomial
	Iterations   int
	Converged    bool
}

// irls is the state of one IRLS fit
type irls struct {
	beta       []float64
	mu         []float64
	eta        []float64
	cov        *mat.SymDense // (XᵀWX)⁻¹
	deviance   float64
	iterations int
	converged  bool
}

// Fit fits a model of the given family to d
func Fit(ctx context.Context, d *Design, name FamilyName, opts Options) (*Result, error) {
	if opts.MaxIter <= 0 {
		opts = DefaultOptions()
	}

	var fam family
	switch name {
	case Gaussian:
		fam = gaussianFamily{}
	case Poisson:
		fam = poissonFamily{}
	case NegativeBinomial:
		fam = poissonFamily{}
	default:
		return nil, errors.Newf("unknown model family %q", name).
			Component("glm").
			Category(errors.CategoryValidation).
			Build()
	}

	for i, y := range d.Y {
		if !fam.validate(y) {
			return nil, errors.Newf("response value %g at row %d is not valid for the %s family", y, i+1, name).
				Component("glm").
				Category(errors.CategoryValidation).
				Build()
		}
	}

	fit, err := runIRLS(ctx, d, fam, nil, opts)
	if err != nil {
		return nil, err
	}

	theta := math.NaN()
	iterations := fit.iterations
	converged := fit.converged
	if name == NegativeBinomial {
		nb, err := fitNegBin(ctx, d, fit, opts)
		if err != nil {
			return nil, err
		}
		fit, theta, iterations, converged = nb.irls, nb.theta, nb.iterations, nb.converged
		fam = negBinFamily{theta: theta}
	}

	null, err := runIRLS(ctx, d.intercept(), fam, nil, opts)
	if err != nil {
		return nil, err
	}

	return summarize(d, name, fam, fit, null, theta, iterations, converged), nil
}

// runIRLS fits d with fam, starting from eta when given
func runIRLS(ctx context.Context, d *Design, fam family, eta []float64, opts Options) (*irls, error) {
	n, p := d.X.Dims()
	st := &irls{
		beta: make([]float64, p),
		mu:   make([]float64, n),
		eta:  make([]float64, n),
	}

	if eta != nil {
		copy(st.eta, eta)
		for i := range st.eta {
			st.mu[i] = fam.linkInv(st.eta[i])
		}
	} else {
		for i, y := range d.Y {
			st.mu[i] = startMu(fam, y)
			st.eta[i] = fam.linkFun(st.mu[i])
		}
	}

	devOld := deviance(fam, d.Y, st.mu)
	xw := mat.NewDense(n, p, nil)
	zw := mat.NewVecDense(n, nil)

	for iter := 1; iter <= opts.MaxIter; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, errors.New(err).
				Component("glm").
				Category(errors.CategoryCancellation).
				Build()
		}

		for i := range n {
			off := 0.0
			if d.Offset != nil {
				off = d.Offset[i]
			}
			g := fam.muEta(st.eta[i])
			w := math.Sqrt(g * g / fam.variance(st.mu[i]))
			z := st.eta[i] - off + (d.Y[i]-st.mu[i])/g
			for j := range p {
				xw.Set(i, j, w*d.X.At(i, j))
			}
			zw.SetVec(i, w*z)
		}

		var xtwx mat.SymDense
		xtwx.SymOuterK(1, xw.T())
		var chol mat.Cholesky
		if ok := chol.Factorize(&xtwx); !ok || chol.Cond() > maxCond {
			return nil, errors.Newf("singular design matrix, some coefficients are not estimable").
				Component("glm").
				Category(errors.CategoryStatistics).
				Context("iteration", iter).
				Build()
		}

		var rhs, beta mat.VecDense
		rhs.MulVec(xw.T(), zw)
		if err := chol.SolveVecTo(&beta, &rhs); err != nil {
			return nil, errors.New(err).
				Component("glm").
				Category(errors.CategoryStatistics).
				Build()
		}

		for j := range p {
			st.beta[j] = beta.AtVec(j)
		}
		var eta mat.VecDense
		eta.MulVec(d.X, &beta)
		for i := range n {
			st.eta[i] = eta.AtVec(i)
			if d.Offset != nil {
				st.eta[i] += d.Offset[i]
			}
			st.mu[i] = fam.linkInv(st.eta[i])
		}

		st.iterations = iter
		st.deviance = deviance(fam, d.Y, st.mu)
		st.cov = mat.NewSymDense(p, nil)
		if err := chol.InverseTo(st.cov); err != nil {
			return nil, errors.New(err).
				Component("glm").
				Category(errors.CategoryStatistics).
				Build()
		}

		if math.Abs(st.deviance-devOld)/(math.Abs(st.deviance)+0.1) < opts.Tolerance {
			st.converged = true
			break
		}
		devOld = st.deviance
	}

	if !st.converged {
		GetLogger().Warn("IRLS did not converge",
			logger.String("family", fam.name()),
			logger.Int("iterations", st.iterations),
			logger.Float64("deviance", st.deviance))
	}
	return st, nil
}

// startMu is the initial fitted value for y
func startMu(fam family, y float64) float64 {
	if fam.link() == "log" {
		return y + 0.1
	}
	return y
}

func deviance(fam family, y, mu []float64) float64 {
	dev := 0.0
	for i := range y {
		dev += fam.devResid(y[i], mu[i])
	}
	return dev
}

// negBinFit is a negative binomial fit with its estimated shape
type negBinFit struct {
	*irls
	theta      float64
	iterations int // IRLS iterations over every θ round
	converged  bool
}

// fitNegBin alternates IRLS fits at fixed θ with maximum likelihood θ
// updates, starting from a Poisson fit.
func fitNegBin(ctx context.Context, d *Design, pois *irls, opts Options) (*negBinFit, error) {
	theta, err := thetaML(d.Y, pois.mu, opts.ThetaIter)
	if err != nil {
		return nil, err
	}

	fit := pois
	total := pois.iterations
	ll := math.Inf(-1)
	d1 := math.Sqrt(2 * math.Max(1, float64(d.Rows()-len(pois.beta))))
	converged := false

	for range opts.ThetaIter {
		fam := negBinFamily{theta: theta}
		if fit, err = runIRLS(ctx, d, fam, fit.eta, opts); err != nil {
			return nil, err
		}
		total += fit.iterations

		next, err := thetaML(d.Y, fit.mu, opts.ThetaIter)
		if err != nil {
			return nil, err
		}
		llNew := fam.logLik(d.Y, fit.mu, fit.deviance)
		change := math.Abs(ll-llNew)/d1 + math.Abs(theta-next)/d1
		theta, ll = next, llNew
		if change <= thetaEps && fit.converged {
			converged = true
			break
		}
	}

	if fit, err = runIRLS(ctx, d, negBinFamily{theta: theta}, fit.eta, opts); err != nil {
		return nil, err
	}
	total += fit.iterations

	if !converged {
		GetLogger().Warn("Negative binomial theta did not converge",
			logger.Float64("theta", theta))
	}
	return &negBinFit{irls: fit, theta: theta, iterations: total, converged: converged && fit.converged}, nil
}

// thetaML returns the maximum likelihood NB2 shape for fitted means mu,
// starting from the moment estimate and taking Newton steps.
func thetaML(y, mu []float64, limit int) (float64, error) {
	n := float64(len(y))
	denom := 0.0
	for i := range y {
		r := y[i]/mu[i] - 1
		denom += r * r
	}
	theta := n / denom

	for range limit {
		if math.IsNaN(theta) || math.IsInf(theta, 0) || theta <= 0 {
			break
		}
		theta = math.Abs(theta)
		score, info := 0.0, 0.0
		for i := range y {
			yt := y[i] + theta
			mt := mu[i] + theta
			score += mathext.Digamma(yt) - mathext.Digamma(theta) + math.Log(theta) + 1 - math.Log(mt) - yt/mt
			info += -trigamma(yt) + trigamma(theta) - 1/theta + 2/mt - yt/(mt*mt)
		}
		delta := score / info
		theta += delta
		if math.Abs(delta) <= thetaEps {
			break
		}
	}

	if math.IsNaN(theta) || math.IsInf(theta, 0) || theta <= 0 {
		return 0, errors.Newf("negative binomial theta estimate is not finite and positive, the data may not be overdispersed").
			Component("glm").
			Category(errors.CategoryStatistics).
			Context("theta", theta).
			Build()
	}
	return theta, nil
}

// trigamma returns ψ₁(x) for x > 0 by recurrence to x ≥ 10 and the
// asymptotic series.
func trigamma(x float64) float64 {
	v := 0.0
	for x < 10 {
		v += 1 / (x * x)
		x++
	}
	x2 := 1 / (x * x)
	return v + 1/x + x2/2 + (1/x)*x2*(1.0/6-x2*(1.0/30-x2*(1.0/42-x2/30)))
}

// summarize builds the result table of a finished fit
func summarize(d *Design, name FamilyName, fam family, fit, null *irls, theta float64, iterations int, converged bool) *Result {
	n, p := d.Rows(), len(fit.beta)
	dfResid := n - p

	dispersion := 1.0
	if !fam.dispersionFixed() && dfResid > 0 {
		dispersion = fit.deviance / float64(dfResid)
	}

	ll := fam.logLik(d.Y, fit.mu, fit.deviance)
	res := &Result{
		Family:       name,
		FamilyLabel:  fam.name(),
		Link:         fam.link(),
		N:            n,
		DFResidual:   dfResid,
		DFNull:       n - 1,
		Deviance:     fit.deviance,
		NullDeviance: null.deviance,
		LogLik:       ll,
		AIC:          -2*ll + 2*float64(p+fam.extraParams()),
		Dispersion:   dispersion,
		Theta:        theta,
		Iterations:   iterations,
		Converged:    converged,
	}

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(max(dfResid, 1))}
	for j := range p {
		se := math.Sqrt(dispersion * fit.cov.At(j, j))
		stat := fit.beta[j] / se
		var pval float64
		if fam.dispersionFixed() {
			pval = 2 * distuv.UnitNormal.CDF(-math.Abs(stat))
		} else {
			pval = 2 * tdist.CDF(-math.Abs(stat))
		}
		res.Coefficients = append(res.Coefficients, Coefficient{
			Name:     d.Names[j],
			Estimate: fit.beta[j],
			SE:       se,
			Stat:     stat,
			P:        pval,
		})
	}
	return res
}
