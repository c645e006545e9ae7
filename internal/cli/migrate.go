package cli

import (
	"github.com/spf13/cobra"

	"github.com/bellsc7/hrsyncad/internal/platform/database"
)

// NewMigrateCommand applies the database schema.
func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the employee, sync_history and outbox tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := rootOpts.load()
			if err != nil {
				return err
			}
			if cfg.Database.URL == "" {
				return exitf(1, "DATABASE_URL is not configured")
			}
			db, err := database.Open(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			defer db.Close()
			if err := database.Migrate(cmd.Context(), db); err != nil {
				return err
			}
			logger.InfoContext(cmd.Context(), "schema applied")
			return nil
		},
	}
}
