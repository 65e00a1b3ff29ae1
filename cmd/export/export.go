package export

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/marrs-acoustics/reefscape/internal/export"
	"github.com/marrs-acoustics/reefscape/internal/pipeline"
)

// Command creates the export command that bundles result CSVs into a workbook.
func Command(rt *pipeline.Runtime) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Bundle result tables into an xlsx workbook",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rt.Execute(cmd.Context(), cmd.Name(), func(ctx context.Context) error {
				path := out
				if path == "" {
					path = rt.Settings.Output.XLSX.Path
				}
				_, err := export.BundleCSVs(rt.Settings.ResultsDir(), rt.Settings.OutputPath(path))
				return err
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "Workbook path, relative paths land in the results directory (default from config)")

	return cmd
}
