package glm

import (
	"fmt"
	"math"
	"strings"

	"github.com/marrs-acoustics/reefscape/internal/errors"
)

// FamilyName selects the error distribution of a model
type FamilyName string

const (
	Gaussian         FamilyName = "gaussian"
	Poisson          FamilyName = "poisson"
	NegativeBinomial FamilyName = "nb"
)

// ParseFamily maps a command line family name to a FamilyName
func ParseFamily(s string) (FamilyName, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "gaussian", "normal":
		return Gaussian, nil
	case "poisson":
		return Poisson, nil
	case "nb", "negbin", "negative_binomial", "nb2":
		return NegativeBinomial, nil
	default:
		return "", errors.Newf("unknown model family %q, expected gaussian, poisson or nb", s).
			Component("glm").
			Category(errors.CategoryValidation).
			Build()
	}
}

// maxEta bounds the log link linear predictor so exp does not overflow
const maxEta = 700

// family is an error distribution with its link function
type family interface {
	name() string
	link() string
	linkFun(mu float64) float64
	linkInv(eta float64) float64
	muEta(eta float64) float64 // dmu/deta
	variance(mu float64) float64
	devResid(y, mu float64) float64
	logLik(y, mu []float64, dev float64) float64
	extraParams() int // parameters beyond the coefficients counted by AIC
	dispersionFixed() bool
	validate(y float64) bool
}

type gaussianFamily struct{}

func (gaussianFamily) name() string                   { return "gaussian" }
func (gaussianFamily) link() string                   { return "identity" }
func (gaussianFamily) linkFun(mu float64) float64     { return mu }
func (gaussianFamily) linkInv(eta float64) float64    { return eta }
func (gaussianFamily) muEta(float64) float64          { return 1 }
func (gaussianFamily) variance(float64) float64       { return 1 }
func (gaussianFamily) extraParams() int               { return 1 }
func (gaussianFamily) dispersionFixed() bool          { return false }
func (gaussianFamily) validate(y float64) bool        { return !math.IsNaN(y) && !math.IsInf(y, 0) }
func (gaussianFamily) devResid(y, mu float64) float64 { return (y - mu) * (y - mu) }

func (gaussianFamily) logLik(y, _ []float64, dev float64) float64 {
	n := float64(len(y))
	return -n / 2 * (math.Log(2*math.Pi*dev/n) + 1)
}

// logLink is shared by the count families
type logLink struct{}

func (logLink) link() string               { return "log" }
func (logLink) linkFun(mu float64) float64 { return math.Log(mu) }

func (logLink) linkInv(eta float64) float64 {
	return math.Max(math.Exp(math.Min(eta, maxEta)), math.SmallestNonzeroFloat64)
}

func (l logLink) muEta(eta float64) float64 { return l.linkInv(eta) }

func validCount(y float64) bool {
	return y >= 0 && !math.IsInf(y, 0)
}

// ylogy returns y·ln(y/mu), zero when y is zero
func ylogy(y, mu float64) float64 {
	if y == 0 {
		return 0
	}
	return y * math.Log(y/mu)
}

type poissonFamily struct{ logLink }

func (poissonFamily) name() string                { return "poisson" }
func (poissonFamily) variance(mu float64) float64 { return mu }
func (poissonFamily) extraParams() int            { return 0 }
func (poissonFamily) dispersionFixed() bool       { return true }
func (poissonFamily) validate(y float64) bool     { return validCount(y) }

func (poissonFamily) devResid(y, mu float64) float64 {
	return 2 * (ylogy(y, mu) - (y - mu))
}

func (poissonFamily) logLik(y, mu []float64, _ float64) float64 {
	ll := 0.0
	for i := range y {
		lg, _ := math.Lgamma(y[i] + 1)
		ll += y[i]*math.Log(mu[i]) - mu[i] - lg
	}
	return ll
}

// negBinFamily is the NB2 family with variance mu + mu²/theta
type negBinFamily struct {
	logLink
	theta float64
}

func (f negBinFamily) name() string {
	return fmt.Sprintf("negative binomial (theta = %.4g)", f.theta)
}

func (f negBinFamily) variance(mu float64) float64 { return mu + mu*mu/f.theta }
func (negBinFamily) extraParams() int              { return 1 }
func (negBinFamily) dispersionFixed() bool         { return true }
func (negBinFamily) validate(y float64) bool       { return validCount(y) }

func (f negBinFamily) devResid(y, mu float64) float64 {
	th := f.theta
	return 2 * (ylogy(y, mu) - (y+th)*math.Log((y+th)/(mu+th)))
}

func (f negBinFamily) logLik(y, mu []float64, _ float64) float64 {
	th := f.theta
	lgTheta, _ := math.Lgamma(th)
	ll := 0.0
	for i := range y {
		a, _ := math.Lgamma(y[i] + th)
		b, _ := math.Lgamma(y[i] + 1)
		ll += a - lgTheta - b + th*math.Log(th/(th+mu[i]))
		if y[i] > 0 {
			ll += y[i] * math.Log(mu[i]/(th+mu[i]))
		}
	}
	return ll
}
