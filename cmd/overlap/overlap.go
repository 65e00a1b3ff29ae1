package overlap

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marrs-acoustics/reefscape/internal/pipeline"
	"github.com/marrs-acoustics/reefscape/internal/temporal"
)

// Command creates the overlap command for pairwise diel overlap statistics.
func Command(rt *pipeline.Runtime) *cobra.Command {
	var opts temporal.OverlapOptions

	cmd := &cobra.Command{
		Use:   "overlap",
		Short: "Compare diel activity between treatments",
		Long: `Estimate the overlap coefficient of detection time densities for every
treatment pair with bootstrap confidence intervals and a Watson two-sample test.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.Execute(cmd.Context(), cmd.Name(), func(ctx context.Context) error {
				results, err := temporal.New(rt.Settings).Overlap(ctx, opts)
				if err != nil {
					return err
				}
				return rt.PublishOverlap(ctx, results)
			})
		},
	}

	cmd.Flags().IntVar(&opts.Reps, "reps", 0, "Bootstrap replicates (default from config)")
	cmd.Flags().IntVar(&opts.Workers, "workers", 0, "Bootstrap workers (default from config, 0 uses all CPUs)")

	return cmd
}
