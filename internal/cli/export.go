package cli

import (
	"github.com/spf13/cobra"

	"stock-risk-alerts/internal/app"
)

var (
	exportLocation int
	exportPNGPath  string
	exportCSVPath  string
	exportMaxRows  int
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a fresh dashboard as CSV and/or PNG chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validLocation(exportLocation); err != nil {
			return err
		}
		return getApp().Export(cmd.Context(), app.ExportOptions{
			LocationID: exportLocation,
			PNGPath:    exportPNGPath,
			CSVPath:    exportCSVPath,
			MaxRows:    exportMaxRows,
		})
	},
}

func init() {
	exportCmd.Flags().IntVar(&exportLocation, "location", 0, "Location id to export")
	exportCmd.Flags().StringVar(&exportPNGPath, "png", "", "Path to write PNG chart")
	exportCmd.Flags().StringVar(&exportCSVPath, "csv", "", "Path to write CSV data")
	exportCmd.Flags().IntVar(&exportMaxRows, "max-rows", 0, "Maximum rows to export (defaults to config)")
}
