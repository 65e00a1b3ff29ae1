package cmd

import (
	"github.com/spf13/cobra"

	"github.com/marrs-acoustics/reefscape/cmd/clips"
	"github.com/marrs-acoustics/reefscape/cmd/counts"
	"github.com/marrs-acoustics/reefscape/cmd/cuescape"
	"github.com/marrs-acoustics/reefscape/cmd/export"
	"github.com/marrs-acoustics/reefscape/cmd/glm"
	"github.com/marrs-acoustics/reefscape/cmd/kernels"
	"github.com/marrs-acoustics/reefscape/cmd/overlap"
	"github.com/marrs-acoustics/reefscape/cmd/richness"
	"github.com/marrs-acoustics/reefscape/cmd/shannon"
	"github.com/marrs-acoustics/reefscape/internal/pipeline"
)

// RootCommand creates and returns the root command
func RootCommand(rt *pipeline.Runtime) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "reefscape",
		Short:         "Reef soundscape analysis pipelines",
		Long:          `Build ecological tables, diel activity analyses and detection clips from reef acoustic inference outputs.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set up the global flags for the root command.
	setupFlags(rootCmd, rt)

	subcommands := []*cobra.Command{
		counts.Command(rt),
		richness.Command(rt),
		shannon.Command(rt),
		cuescape.Command(rt),
		kernels.Command(rt),
		overlap.Command(rt),
		clips.Command(rt),
		glm.Command(rt),
		export.Command(rt),
	}
	rootCmd.AddCommand(subcommands...)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return rt.Init()
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return rt.Close()
	}

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface
func setupFlags(rootCmd *cobra.Command, rt *pipeline.Runtime) {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&rt.Options.ConfigFile, "config", "c", "", "Path to config.yaml")
	flags.StringVar(&rt.Options.BaseDir, "base-dir", "", "Root directory holding the data and results folders (overrides BASE_DIR)")
	flags.BoolVarP(&rt.Options.Debug, "debug", "d", false, "Enable debug output")
	flags.StringSliceVar(&rt.Options.Countries, "countries", nil, "Comma separated countries to process (default from config)")
}
