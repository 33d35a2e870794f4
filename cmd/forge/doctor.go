package main

import (
	"github.com/spf13/cobra"

	"github.com/tryforce-dev/forge/internal/doctor"
	"github.com/tryforce-dev/forge/internal/output"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Diagnose common issues",
		Long: `Run diagnostic checks to identify configuration and connectivity issues.

Checks performed:
  - Generation backend reachability
  - Identity provider discovery
  - Authentication status and credential source
  - Browser availability for sign-in
  - CLI version freshness`,
		Example: `  forge doctor
  forge doctor --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			runner := doctor.New()
			results := runner.Run(cmd.Context())

			if out.JSON {
				return out.PrintJSON(results)
			}

			out.Println("Forge Doctor")
			out.Println("============")
			out.Println()

			doctor.RenderResults(results, out.Print, out.Success, out.Warning, out.Failure, out.Muted)

			passed, failed, warnings := doctor.Summary(results)
			out.Println()
			out.Print("%d passed", passed)

			if failed > 0 {
				out.Print(", %d failed", failed)
			}

			if warnings > 0 {
				out.Print(", %d warning(s)", warnings)
			}

			out.Println()

			return nil
		},
	}
}
