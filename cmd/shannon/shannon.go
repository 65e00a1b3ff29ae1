package shannon

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marrs-acoustics/reefscape/internal/ecofunctions"
	"github.com/marrs-acoustics/reefscape/internal/pipeline"
)

// Command creates the shannon command for Shannon diversity tables.
func Command(rt *pipeline.Runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "shannon",
		Short: "Compute the Shannon index per site-day",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.Execute(cmd.Context(), cmd.Name(), func(ctx context.Context) error {
				rows, err := ecofunctions.NewBuilder(rt.Settings).Shannon(ctx)
				if err != nil {
					return err
				}
				return pipeline.WriteRows(ctx, rt, ecofunctions.ShannonFile,
					ecofunctions.ShannonHeader, rows, ecofunctions.ShannonObservations(rows))
			})
		},
	}
}
