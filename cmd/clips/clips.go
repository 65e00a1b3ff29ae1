package clips

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marrs-acoustics/reefscape/internal/clips"
	"github.com/marrs-acoustics/reefscape/internal/errors"
	"github.com/marrs-acoustics/reefscape/internal/pipeline"
)

// Command creates the clips command for cutting detection audio clips.
func Command(rt *pipeline.Runtime) *cobra.Command {
	var (
		country string
		sound   string
		mode    string
		count   int
	)

	cmd := &cobra.Command{
		Use:   "clips",
		Short: "Cut audio clips around detections",
		Long: `Select detections per country and sound and write a WAV clip of each
detection window from the source recording for listening checks.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sound != "" && country == "" {
				return errors.Newf("--sound needs --country").
					Component("cmd").
					Category(errors.CategoryValidation).
					Build()
			}

			return rt.Execute(cmd.Context(), cmd.Name(), func(ctx context.Context) error {
				opts := clips.DefaultOptions(rt.Settings)
				opts.Country, opts.Sound = country, sound
				if cmd.Flags().Changed("mode") {
					opts.Mode = clips.ParseMode(mode)
				}
				if cmd.Flags().Changed("n") {
					opts.Count = count
				}
				_, err := clips.New(rt.Settings).Run(ctx, opts)
				return err
			})
		},
	}

	cmd.Flags().StringVar(&country, "country", "", "Only this country")
	cmd.Flags().StringVar(&sound, "sound", "", "Only this sound folder, requires --country")
	cmd.Flags().StringVar(&mode, "mode", "", "Selection mode: random or ordered (default from config)")
	cmd.Flags().IntVarP(&count, "n", "n", 0, "Clips per sound (default from config)")

	return cmd
}
