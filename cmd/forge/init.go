package main

import (
	"github.com/spf13/cobra"

	"github.com/tryforce-dev/forge/internal/output"
	"github.com/tryforce-dev/forge/internal/wizard"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Setup Forge for first use",
		Long: `Initialize Forge with a guided setup wizard.

The wizard will:
  1. Sign you in through your identity provider
  2. Store tokens securely
  3. Verify the generation backend accepts them
  4. Optionally pick a default studio preset

If credentials already exist, use --force to overwrite them.`,
		Example: `  forge init`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			w := wizard.New(out, force)

			return w.Run(cmd.Context())
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite existing credentials without prompting")

	return cmd
}
