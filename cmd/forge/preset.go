package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	clierrors "github.com/tryforce-dev/forge/internal/errors"
	"github.com/tryforce-dev/forge/internal/output"
	"github.com/tryforce-dev/forge/internal/paths"
	"github.com/tryforce-dev/forge/internal/preset"
	"github.com/tryforce-dev/forge/internal/selection"
)

func newPresetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preset",
		Short: "Manage selection presets",
		Long:  `Named output-kind selections, built in or saved to your presets file.`,
	}

	cmd.AddCommand(newPresetListCmd())
	cmd.AddCommand(newPresetShowCmd())
	cmd.AddCommand(newPresetSaveCmd())

	return cmd
}

// PresetInfo represents one preset for JSON output.
type PresetInfo struct {
	Name        string   `json:"name"`
	Kinds       []string `json:"kinds"`
	Requirement string   `json:"requirement,omitempty"`
}

func newPresetListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available presets",
		Long:  `List built-in presets and those saved in your presets file. User entries shadow built-ins of the same name.`,
		Example: `  forge preset list
  forge preset list --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			presets, err := preset.Load()
			if err != nil {
				return err
			}

			names := preset.Names(presets)

			if out.JSON {
				infos := make([]PresetInfo, 0, len(names))
				for _, name := range names {
					p := presets[name]
					infos = append(infos, PresetInfo{Name: name, Kinds: p.Kinds, Requirement: p.Requirement})
				}

				return out.PrintJSON(infos)
			}

			if len(names) == 0 {
				out.Muted("No presets found.")
				return nil
			}

			for _, name := range names {
				out.Print("%-20s %s\n", name, strings.Join(presets[name].Kinds, ", "))
			}

			return nil
		},
	}
}

func newPresetShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show <name>",
		Short:   "Show one preset's selection and template",
		Long:    `Display the output kinds and optional requirement template of one preset.`,
		Example: `  forge preset show backend-service`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			p, err := preset.Get(args[0])
			if err != nil {
				return err
			}

			if out.JSON {
				return out.PrintJSON(PresetInfo{Name: args[0], Kinds: p.Kinds, Requirement: p.Requirement})
			}

			out.Print("Name:  %s\n", args[0])
			out.Print("Kinds: %s\n", strings.Join(p.Kinds, ", "))
			if p.Requirement != "" {
				out.Println()
				out.Print("%s\n", p.Requirement)
			}

			return nil
		},
	}
}

func newPresetSaveCmd() *cobra.Command {
	var (
		typeFlags   []string
		requirement string
	)

	cmd := &cobra.Command{
		Use:   "save <name>",
		Short: "Save a preset to your presets file",
		Long: `Save a named selection to your presets file. Saving under a built-in
preset's name shadows the built-in.`,
		Example: `  forge preset save backend-service --type "Jira Stories" --type Mermaid --type Go
  forge preset save sql-only --type SQL --requirement "Schema for: "`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			name := args[0]

			if len(typeFlags) == 0 {
				return &clierrors.CLIError{
					Message: "A preset needs at least one --type",
					Hint:    fmt.Sprintf("Supported kinds: %s", strings.Join(selection.Names(), ", ")),
					Code:    clierrors.ExitUsage,
				}
			}

			kinds := make([]string, 0, len(typeFlags))
			for _, t := range typeFlags {
				kind, ok := selection.Lookup(t)
				if !ok {
					return clierrors.UnknownArtifactType(t, selection.Names())
				}
				kinds = append(kinds, kind.Name)
			}

			path, err := paths.PresetsFile()
			if err != nil {
				return clierrors.ConfigFailed("resolve presets file", err)
			}

			p := preset.Preset{Kinds: kinds, Requirement: requirement}
			if err := preset.Save(path, name, p); err != nil {
				return err
			}

			out.Success("Saved preset %s (%s)", name, strings.Join(kinds, ", "))

			return nil
		},
	}

	cmd.Flags().StringArrayVar(&typeFlags, "type", nil, "Output kind in the preset (repeatable)")
	cmd.Flags().StringVar(&requirement, "requirement", "", "Optional requirement template")

	return cmd
}
