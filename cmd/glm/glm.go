package glm

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/glm"
	"github.com/marrs-acoustics/reefscape/internal/pipeline"
)

// modelsDir is the results sub-directory for model outputs
const modelsDir = "models"

// Command creates the glm command for fitting models to result tables.
func Command(rt *pipeline.Runtime) *cobra.Command {
	var (
		input      string
		family     string
		formula    glm.Formula
		references []string
		outDir     string
		maxIter    int
	)

	cmd := &cobra.Command{
		Use:   "glm",
		Short: "Fit a generalized linear model to a result table",
		Long: `Fit a gaussian, poisson or negative binomial model to a table such as the
combined counts and write a text summary and a coefficient CSV.`,
		Example: `  reefscape glm --input grunt_combined_count.csv --response count --family nb --factor treatment --factor country`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fam, err := glm.ParseFamily(family)
			if err != nil {
				return err
			}
			if formula.Reference, err = parseReferences(references); err != nil {
				return err
			}

			return rt.Execute(cmd.Context(), cmd.Name(), func(ctx context.Context) error {
				opts := glm.DefaultOptions()
				if maxIter > 0 {
					opts.MaxIter = maxIter
				}
				dir := outDir
				if dir == "" {
					dir = rt.Settings.ResultPath(modelsDir)
				}
				_, _, err := glm.Run(ctx, glm.Request{
					Input:   resolveInput(rt.Settings.ResultsDir(), input),
					Family:  fam,
					Formula: formula,
					OutDir:  dir,
					Options: opts,
				}, rt.Metrics().Stats)
				return err
			})
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&input, "input", "i", "", "Input table, looked up in the results directory when not found as given")
	flags.StringVar(&formula.Response, "response", "count", "Response column")
	flags.StringVar(&family, "family", "nb", "Model family: gaussian, poisson or nb")
	flags.StringArrayVar(&formula.Factors, "factor", nil, "Categorical predictor column, repeatable")
	flags.StringArrayVar(&formula.Numeric, "numeric", nil, "Numeric predictor column, repeatable")
	flags.StringVar(&formula.Offset, "offset", "", "Offset column added to the linear predictor")
	flags.StringArrayVar(&references, "reference", nil, "Reference level as factor=level, repeatable")
	flags.StringVar(&outDir, "out-dir", "", "Output directory (default <results>/models)")
	flags.IntVar(&maxIter, "max-iter", 0, "IRLS iteration limit")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}

// resolveInput returns path as given when it exists, otherwise inside resultsDir
func resolveInput(resultsDir, path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if _, err := os.Stat(path); err == nil {
		return path
	}
	return filepath.Join(resultsDir, path)
}

// parseReferences parses factor=level pairs
func parseReferences(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	refs := make(map[string]string, len(pairs))
	for _, p := range pairs {
		factor, level, ok := strings.Cut(p, "=")
		if !ok || factor == "" || level == "" {
			return nil, errors.Newf("reference %q is not factor=level", p).
				Component("cmd").
				Category(errors.CategoryValidation).
				Build()
		}
		refs[factor] = level
	}
	return refs, nil
}
