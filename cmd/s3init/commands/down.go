package commands

import (
	"github.com/spf13/cobra"

	"github.com/imamik/s3init/cmd/s3init/handlers"
)

// Down returns the command that removes what up provisioned.
//
// Optional flags:
//
//	--config, -c: Path to configuration YAML file (default: auto-detect s3init.yaml)
func Down() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "down",
		Short: "Remove the provisioned bucket and its policy",
		Long: `Detach the bucket policy and delete the bucket created by up.

The bucket must be empty; object data is never deleted. A bucket that is
already gone counts as success, so down is safe to re-run.

Examples:
  # Tear down using ./s3init.yaml
  s3init down

  # Explicit config
  s3init down --config deploy/s3init.yaml`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return handlers.Down(cmd.Context(), configPath)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to configuration file (default: s3init.yaml)")

	return cmd
}
