package counts

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marrs-acoustics/reefscape/internal/ecofunctions"
	"github.com/marrs-acoustics/reefscape/internal/pipeline"
)

// Command creates the counts command for per site-day detection counts.
func Command(rt *pipeline.Runtime) *cobra.Command {
	var sound string

	cmd := &cobra.Command{
		Use:   "counts",
		Short: "Count detections of a sound per site-day",
		Long:  `Count detections of one sound per covered site-day across all countries, scaled by each country's duty cycle.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.Execute(cmd.Context(), cmd.Name(), func(ctx context.Context) error {
				rows, err := ecofunctions.NewBuilder(rt.Settings).CombinedCounts(ctx, sound)
				if err != nil {
					return err
				}
				return pipeline.WriteRows(ctx, rt, ecofunctions.CombinedCountFile(sound),
					ecofunctions.CountHeader, rows, ecofunctions.CountObservations(sound, rows))
			})
		},
	}

	cmd.Flags().StringVarP(&sound, "sound", "s", "", "Sound folder name, for example grunt")
	_ = cmd.MarkFlagRequired("sound")

	return cmd
}
