package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/bellsc7/hrsyncad/internal/netcheck"
)

// DiagnoseOptions holds flags for the diagnose command.
type DiagnoseOptions struct {
	*RootOptions
	Host string
	Port int
}

// NewDiagnoseCommand checks DNS, ICMP and TCP reachability of the directory.
func NewDiagnoseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DiagnoseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "diagnose",
		Short: "Check network connectivity to the directory server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := opts.load()
			if err != nil {
				return err
			}
			host, port := cfg.Directory.Host, cfg.Directory.Port
			if opts.Host != "" {
				host = opts.Host
			}
			if opts.Port != 0 {
				port = opts.Port
			}
			if host == "" {
				return exitf(1, "directory host is not configured")
			}

			report := netcheck.New(netcheck.WithLogger(logger)).Diagnose(cmd.Context(), host, port)
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(report); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			if !report.Passed() {
				return exitf(2, "connectivity checks failed for %s:%d", host, port)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.Host, "host", "", "directory host (defaults to the configured host)")
	cmd.Flags().IntVar(&opts.Port, "port", 0, "directory port (defaults to the configured port)")

	return cmd
}
