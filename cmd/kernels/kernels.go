package kernels

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marrs-acoustics/reefscape/internal/logger"
	"github.com/marrs-acoustics/reefscape/internal/pipeline"
	"github.com/marrs-acoustics/reefscape/internal/temporal"
)

// Command creates the kernels command for diel kernel density plots.
func Command(rt *pipeline.Runtime) *cobra.Command {
	var opts temporal.KernelOptions

	cmd := &cobra.Command{
		Use:   "kernels",
		Short: "Plot diel kernel densities per treatment",
		Long:  `Write raw detection times and plot kernel densities of detection hour per treatment for every country and sound.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.Execute(cmd.Context(), cmd.Name(), func(ctx context.Context) error {
				report, err := temporal.New(rt.Settings).Kernels(ctx, opts)
				if err != nil {
					return err
				}
				logger.Global().Module("kernels").Info("Kernel plots written",
					logger.Int("sounds", report.Sounds),
					logger.Int("plots", report.Plots),
					logger.Int("aggregated", report.Aggregated))
				return nil
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Aggregate, "aggregate", false, "Also plot pooled treatment groups with enough detections")

	return cmd
}
