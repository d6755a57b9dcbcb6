package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/s3init/cmd/s3init/handlers"
)

// Up returns the command that runs the full bootstrap sequence.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file (default: auto-detect s3init.yaml)
//	--json: Force JSON log output even on a terminal
func Up() *cobra.Command {
	var configPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "up",
		Short: "Wait for the object store and provision it",
		Long: `Wait for the object store to become reachable, then apply the
provisioning steps in order: ensure the bucket exists, ensure the bucket
policy is attached.

Each step is idempotent, so re-running up against an already provisioned
store is a safe no-op. Transient failures are retried with exponential
backoff; permanent failures stop the run.

Exit codes:
  0  store reachable and every step converged
  1  store unreachable within max_wait
  2  a provisioning step failed fatally

Examples:
  # Bootstrap using ./s3init.yaml
  s3init up

  # Explicit config, machine-readable logs
  s3init up --config deploy/s3init.yaml --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Up(cmd.Context(), configPath, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: s3init.yaml)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Force JSON log output")

	return cmd
}
