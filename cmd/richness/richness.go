package richness

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marrs-acoustics/reefscape/internal/ecofunctions"
	"github.com/marrs-acoustics/reefscape/internal/pipeline"
)

// Command creates the richness command for phonic richness tables.
func Command(rt *pipeline.Runtime) *cobra.Command {
	var hourly bool

	cmd := &cobra.Command{
		Use:   "richness",
		Short: "Count distinct sounds per site-day",
		Long:  `Count the distinct sounds detected per covered site-day, or per site-day and hour with --hourly.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.Execute(cmd.Context(), cmd.Name(), func(ctx context.Context) error {
				rows, err := ecofunctions.NewBuilder(rt.Settings).Richness(ctx, hourly)
				if err != nil {
					return err
				}
				file, header := ecofunctions.RichnessFile, ecofunctions.RichnessHeader
				if hourly {
					file, header = ecofunctions.RichnessHourlyFile, ecofunctions.RichnessHourlyHeader
				}
				return pipeline.WriteRows(ctx, rt, file, header, rows, ecofunctions.RichnessObservations(rows))
			})
		},
	}

	cmd.Flags().BoolVar(&hourly, "hourly", false, "Count per local hour instead of per day")

	return cmd
}
