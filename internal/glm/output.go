package glm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/logger"
	"github.com/marrs-acoustics/reefscape/internal/observability/metrics"
	"github.com/marrs-acoustics/reefscape/internal/tabular"
)

// CoefficientHeader is the coefficient table header
var CoefficientHeader = []string{"term", "estimate", "std_error", "statistic", "p_value"}

// Summary renders the fit in the layout of a regression summary
func (r *Result) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Family: %s\n", r.FamilyLabel)
	fmt.Fprintf(&sb, "Link: %s\n", r.Link)
	if r.Formula != "" {
		fmt.Fprintf(&sb, "Formula: %s\n", r.Formula)
	}
	fmt.Fprintf(&sb, "Observations: %d\n\n", r.N)

	statLabel, pLabel := "z value", "Pr(>|z|)"
	if r.Family == Gaussian {
		statLabel, pLabel = "t value", "Pr(>|t|)"
	}

	width := len(InterceptName)
	for _, c := range r.Coefficients {
		width = max(width, len(c.Name))
	}

	sb.WriteString("Coefficients:\n")
	fmt.Fprintf(&sb, "%-*s %12s %12s %10s %12s\n", width, "", "Estimate", "Std. Error", statLabel, pLabel)
	for _, c := range r.Coefficients {
		fmt.Fprintf(&sb, "%-*s %12.6g %12.6g %10.4g %12.4g %s\n",
			width, c.Name, c.Estimate, c.SE, c.Stat, c.P, significance(c.P))
	}
	sb.WriteString("---\nSignif. codes: 0 '***' 0.001 '**' 0.01 '*' 0.05 '.' 0.1 ' ' 1\n\n")

	if r.Family == Gaussian {
		fmt.Fprintf(&sb, "Dispersion parameter: %.6g\n", r.Dispersion)
	}
	fmt.Fprintf(&sb, "Null deviance: %.6g on %d degrees of freedom\n", r.NullDeviance, r.DFNull)
	fmt.Fprintf(&sb, "Residual deviance: %.6g on %d degrees of freedom\n", r.Deviance, r.DFResidual)
	fmt.Fprintf(&sb, "Log-likelihood: %.6g\n", r.LogLik)
	fmt.Fprintf(&sb, "AIC: %.6g\n", r.AIC)
	if r.Family == NegativeBinomial {
		fmt.Fprintf(&sb, "Theta: %.6g\n", r.Theta)
	}

	status := "converged"
	if !r.Converged {
		status = "not converged"
	}
	fmt.Fprintf(&sb, "Iterations: %d (%s)\n", r.Iterations, status)
	return sb.String()
}

func significance(p float64) string {
	switch {
	case p < 0.001:
		return "***"
	case p < 0.01:
		return "**"
	case p < 0.05:
		return "*"
	case p < 0.1:
		return "."
	default:
		return ""
	}
}

// CoefficientRecords renders the coefficient table
func (r *Result) CoefficientRecords() [][]string {
	rows := make([][]string, len(r.Coefficients))
	for i, c := range r.Coefficients {
		rows[i] = []string{
			c.Name,
			tabular.FormatFloat(c.Estimate),
			tabular.FormatFloat(c.SE),
			tabular.FormatFloat(c.Stat),
			tabular.FormatFloat(c.P),
		}
	}
	return rows
}

// Request describes one model fit on a table file
type Request struct {
	Input   string
	Family  FamilyName
	Formula Formula
	OutDir  string // summary and coefficient files land here
	Options Options
}

// Outputs are the files written for a fit
type Outputs struct {
	Summary      string
	Coefficients string
}

// outputs returns the file names for a request, derived from the input name
func (req Request) outputs() Outputs {
	base := strings.TrimSuffix(filepath.Base(req.Input), filepath.Ext(req.Input))
	stem := fmt.Sprintf("%s_%s_%s_glm", base, req.Formula.Response, req.Family)
	return Outputs{
		Summary:      filepath.Join(req.OutDir, stem+".txt"),
		Coefficients: filepath.Join(req.OutDir, stem+"_coefficients.csv"),
	}
}

// Run reads the input table, fits the model and writes the text summary and
// coefficient CSV.
func Run(ctx context.Context, req Request, m metrics.Recorder) (*Result, Outputs, error) {
	if m == nil {
		m = metrics.NopRecorder{}
	}
	start := time.Now()

	tbl, err := tabular.Read(req.Input)
	if err != nil {
		m.RecordOperation(metrics.OpGLM, metrics.StatusError)
		return nil, Outputs{}, err
	}

	d, err := BuildDesign(tbl, req.Formula)
	if err != nil {
		m.RecordOperation(metrics.OpGLM, metrics.StatusError)
		return nil, Outputs{}, err
	}

	res, err := Fit(ctx, d, req.Family, req.Options)
	if err != nil {
		m.RecordOperation(metrics.OpGLM, metrics.StatusError)
		m.RecordError(metrics.OpGLM, categoryOf(err))
		return nil, Outputs{}, err
	}
	res.Formula = req.Formula.String()

	out := req.outputs()
	if err := os.MkdirAll(req.OutDir, 0o755); err != nil {
		return nil, Outputs{}, errors.New(err).
			Component("glm").
			Category(errors.CategoryFileIO).
			FileContext(req.OutDir).
			Build()
	}
	if err := os.WriteFile(out.Summary, []byte(res.Summary()), 0o644); err != nil {
		return nil, Outputs{}, errors.New(err).
			Component("glm").
			Category(errors.CategoryFileIO).
			FileContext(out.Summary).
			Build()
	}
	if err := tabular.Write(out.Coefficients, CoefficientHeader, res.CoefficientRecords()); err != nil {
		return nil, Outputs{}, err
	}

	m.RecordOperation(metrics.OpGLM, metrics.StatusSuccess)
	m.RecordDuration(metrics.OpGLM, time.Since(start).Seconds())

	GetLogger().Info("Model fitted",
		logger.String("input", req.Input),
		logger.String("formula", res.Formula),
		logger.String("family", string(req.Family)),
		logger.Int("observations", res.N),
		logger.Float64("aic", res.AIC),
		logger.Bool("converged", res.Converged),
		logger.String("summary", out.Summary))
	return res, out, nil
}

func categoryOf(err error) string {
	var ee *errors.EnhancedError
	if errors.As(err, &ee) {
		return ee.GetCategory()
	}
	return string(errors.CategoryGeneric)
}
