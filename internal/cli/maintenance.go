package cli

import (
	"time"

	"github.com/spf13/cobra"

	"stock-risk-alerts/internal/app"
)

var pruneOlderThan time.Duration

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply SQL migrations from database.migrations_path",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Migrate(cmd.Context())
	},
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete persisted snapshots older than a retention window",
	RunE: func(cmd *cobra.Command, args []string) error {
		return getApp().Prune(cmd.Context(), app.PruneOptions{OlderThan: pruneOlderThan})
	},
}

func init() {
	pruneCmd.Flags().DurationVar(&pruneOlderThan, "older-than", 30*24*time.Hour, "Retention window, e.g. 720h")
}
