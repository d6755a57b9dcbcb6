package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/s3init/cmd/s3init/handlers"
)

// Health returns the command that probes the object store's liveness
// endpoint without provisioning anything.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file (default: auto-detect s3init.yaml)
//	--wait, -w: Poll until the store is live or max_wait elapses
func Health() *cobra.Command {
	var configPath string
	var wait bool

	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check whether the object store is live",
		Long: `Probe the object store's liveness endpoint.

Without flags a single probe is issued. With --wait the probe repeats
every poll_interval until the store reports live or max_wait elapses.

Exits 0 when live, 1 otherwise.

Examples:
  # One-shot liveness check
  s3init health

  # Block until the store comes up (bounded by max_wait)
  s3init health --wait`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Health(cmd.Context(), configPath, wait)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: s3init.yaml)")
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Poll until live or max_wait elapses")

	return cmd
}
