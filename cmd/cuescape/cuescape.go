package cuescape

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marrs-acoustics/reefscape/internal/ecofunctions"
	"github.com/marrs-acoustics/reefscape/internal/pipeline"
)

// Command creates the cuescape command for the nightly settlement cue table.
func Command(rt *pipeline.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "cuescape",
		Short: "Compute nightly settlement cuescape proportions",
		Long:  `Compute, per site and night, the share of night-time five-second windows that contain a detection.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.Execute(cmd.Context(), cmd.Name(), func(ctx context.Context) error {
				rows, err := ecofunctions.NewBuilder(rt.Settings).Cuescape(ctx)
				if err != nil {
					return err
				}
				return pipeline.WriteRows(ctx, rt, ecofunctions.CuescapeFile,
					ecofunctions.CuescapeHeader, rows, ecofunctions.CuescapeObservations(rows))
			})
		},
	}
}
