package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bellsc7/hrsyncad/pkg/requestcontext"
)

// TriggerCLI tags runs started from the command line.
const TriggerCLI = "cli"

// NewReconcileCommand runs one reconciliation pass and prints the result.
func NewReconcileCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run one directory reconciliation and print the result as JSON",
		Long: `Run one directory reconciliation pass against the configured directory.

Pending personnel records are matched to directory accounts, their contact
attributes and lifecycle state are applied, and the run is recorded in the
sync history. The exit code is 2 when the run fails.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := rootOpts.load()
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ctx := requestcontext.WithTrigger(cmd.Context(), TriggerCLI)
			a, err := newApp(ctx, cfg, logger, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			result, err := a.service.Reconcile(ctx)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(result); err != nil {
				return fmt.Errorf("write result: %w", err)
			}
			if !result.Success {
				if result.Failure != nil {
					return exitf(2, "sync failed: %s", result.Failure.Message)
				}
				return exitf(2, "sync failed")
			}
			return nil
		},
	}
}
