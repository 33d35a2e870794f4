package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	clierrors "github.com/tryforce-dev/forge/internal/errors"
	"github.com/tryforce-dev/forge/internal/identity"
	"github.com/tryforce-dev/forge/internal/output"
	"github.com/tryforce-dev/forge/internal/preset"
	"github.com/tryforce-dev/forge/internal/selection"
	"github.com/tryforce-dev/forge/internal/studio"
)

func newGenerateCmd() *cobra.Command {
	var (
		requirementFlag string
		fileFlag        string
		typeFlags       []string
		presetFlag      string
		outDir          string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Generate artifacts from a requirement without the studio",
		Long: `Send one requirement to the generation backend and print the produced
artifacts. Output kinds are selected with repeatable --type flags or a
preset; with no kinds selected the requirement goes to the general agent
as a plain conversational message.

With --out, each artifact is written to a file in the given directory
instead of the terminal.`,
		Example: `  forge generate --requirement "A parcel tracking service" --type "Jira Stories"
  forge generate --file requirements.txt --type Mermaid --type Go
  forge generate --preset backend-service --file requirements.txt --out ./artifacts`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			requirement, err := resolveRequirement(requirementFlag, fileFlag)
			if err != nil {
				return err
			}

			sel, err := resolveSelection(presetFlag, typeFlags)
			if err != nil {
				return err
			}

			_, apiClient, err := newAPIClient()
			if err != nil {
				return err
			}

			userID := generateUserID()

			spin := out.Spinner("Generating")
			spin.Start()

			results := studio.Submit(cmd.Context(), apiClient, nil, userID, requirement, sel.Enabled())

			spin.Stop()

			if out.JSON {
				if err := out.PrintJSON(results); err != nil {
					return fmt.Errorf("print results json: %w", err)
				}
			} else if outDir != "" {
				if err := writeArtifacts(out, outDir, results); err != nil {
					return err
				}
			} else {
				printArtifacts(out, results)
			}

			for _, r := range results {
				if r.Err != "" {
					return &clierrors.CLIError{
						Message: fmt.Sprintf("Generation failed for %s: %s", r.Kind, r.Err),
						Hint:    "Check backend connectivity with 'forge doctor'",
						Code:    clierrors.ExitGeneration,
					}
				}
			}

			return nil
		},
	}

	cmd.Flags().StringVar(&requirementFlag, "requirement", "", "Requirement text to submit")
	cmd.Flags().StringVar(&fileFlag, "file", "", "Read the requirement from a file")
	cmd.Flags().StringArrayVar(&typeFlags, "type", nil, "Output kind to generate (repeatable)")
	cmd.Flags().StringVar(&presetFlag, "preset", "", "Seed the selection from a named preset")
	cmd.Flags().StringVar(&outDir, "out", "", "Write artifacts to files in this directory")

	return cmd
}

func resolveRequirement(requirementFlag, fileFlag string) (string, error) {
	if requirementFlag != "" && fileFlag != "" {
		return "", &clierrors.CLIError{
			Message: "--requirement and --file are mutually exclusive",
			Hint:    "Pass the requirement inline or in a file, not both",
			Code:    clierrors.ExitUsage,
		}
	}

	requirement := requirementFlag

	if fileFlag != "" {
		raw, err := os.ReadFile(fileFlag)
		if err != nil {
			return "", &clierrors.CLIError{
				Message: fmt.Sprintf("Cannot read requirement file: %v", err),
				Hint:    "Check the --file path",
				Code:    clierrors.ExitUsage,
			}
		}

		requirement = string(raw)
	}

	requirement = strings.TrimSpace(requirement)
	if requirement == "" {
		return "", &clierrors.CLIError{
			Message: "No requirement given",
			Hint:    "Pass --requirement TEXT or --file PATH",
			Code:    clierrors.ExitUsage,
		}
	}

	return requirement, nil
}

// resolveSelection builds the output selection from a preset and --type
// flags; --type entries accumulate on top of the preset.
func resolveSelection(presetName string, typeFlags []string) (*selection.Selection, error) {
	sel := selection.New()

	if presetName != "" {
		p, err := preset.Get(presetName)
		if err != nil {
			return nil, err
		}

		sel, err = p.Selection()
		if err != nil {
			return nil, err
		}
	}

	for _, name := range typeFlags {
		kind, ok := selection.Lookup(name)
		if !ok {
			return nil, clierrors.UnknownArtifactType(name, selection.Names())
		}

		if err := sel.Set(kind.Name, true); err != nil {
			return nil, err
		}
	}

	return sel, nil
}

// generateUserID keys backend conversation state: the signed-in subject
// when stored tokens carry one, a throwaway id otherwise.
func generateUserID() string {
	_, tokens := identity.GetTokens()
	if tokens != nil {
		if profile, err := identity.ParseProfile(tokens.IDToken); err == nil && profile.Subject != "" {
			return profile.Subject
		}
	}

	return uuid.NewString()
}

func printArtifacts(out *output.Writer, results []studio.Result) {
	for i, r := range results {
		if i > 0 {
			out.Println()
		}

		if r.Err != "" {
			out.Failure("%s: %s", r.Kind, r.Err)
			continue
		}

		out.Print("── %s ──\n", r.Kind)
		out.Print("%s\n", strings.TrimRight(r.Body, "\n"))
	}
}

func writeArtifacts(out *output.Writer, dir string, results []studio.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return clierrors.ConfigFailed("create output directory", err)
	}

	for _, r := range results {
		if r.Err != "" {
			out.Failure("%s: %s", r.Kind, r.Err)
			continue
		}

		path := filepath.Join(dir, artifactFileName(r.Kind))
		if err := os.WriteFile(path, []byte(r.Body), 0o644); err != nil {
			return clierrors.ConfigFailed("write artifact", err)
		}

		out.Success("Wrote %s", path)
	}

	return nil
}

// artifactFileName maps a kind's display name onto a safe file name.
func artifactFileName(kind string) string {
	name := strings.ToLower(kind)
	name = strings.ReplaceAll(name, " ", "-")
	name = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return -1
		}
	}, name)

	if name == "" {
		name = "artifact"
	}

	return name + ".txt"
}
