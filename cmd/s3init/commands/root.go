// Package commands defines the CLI command structure and flag bindings.
//
// This package contains cobra command definitions that handle argument
// parsing, flag binding, and validation. Command execution is delegated
// to handler functions in the handlers package.
package commands

import "github.com/spf13/cobra"

// Root returns the root command for the s3init CLI.
func Root() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "s3init",
		Short:         "Readiness-gated, idempotent object storage bootstrapper",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(Up())
	cmd.AddCommand(Down())
	cmd.AddCommand(Health())
	cmd.AddCommand(Doctor())
	cmd.AddCommand(Version())
	cmd.AddCommand(Completion())

	return cmd
}
