package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/s3init/cmd/s3init/handlers"
)

// Doctor returns the command that validates the configuration and policy
// document without applying anything.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file (default: auto-detect s3init.yaml)
//	--json: Output the diagnosis in JSON format
func Doctor() *cobra.Command {
	var configPath string
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Validate configuration without provisioning",
		Long: `Check the configuration for problems before running up:

  - the config file parses and validates
  - the policy document (if any) parses and passes schema validation
  - overly permissive policies (anonymous principal "*") are flagged
  - the object store endpoint answers its liveness probe

Nothing is created or modified.

Examples:
  # Diagnose ./s3init.yaml
  s3init doctor

  # Machine-readable diagnosis
  s3init doctor --json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Doctor(cmd.Context(), configPath, jsonOutput)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: s3init.yaml)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
