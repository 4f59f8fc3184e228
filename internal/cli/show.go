package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"stock-risk-alerts/internal/app"
)

var (
	dashboardLocation int
	dashboardJSON     bool

	showLocation int
	showLimit    int
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Evaluate a location now and print its stock risk dashboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validLocation(dashboardLocation); err != nil {
			return err
		}
		return getApp().Dashboard(cmd.Context(), app.DashboardOptions{
			LocationID: dashboardLocation,
			JSON:       dashboardJSON,
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Display recently persisted dashboard snapshots",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validLocation(showLocation); err != nil {
			return err
		}
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		return getApp().Show(cmd.Context(), app.ShowOptions{
			LocationID: showLocation,
			Limit:      showLimit,
		})
	},
}

func init() {
	dashboardCmd.Flags().IntVar(&dashboardLocation, "location", 0, "Location id to evaluate")
	dashboardCmd.Flags().BoolVar(&dashboardJSON, "json", false, "Print records as JSON")

	showCmd.Flags().IntVar(&showLocation, "location", 0, "Location id to display")
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of snapshot rows to display")
}
