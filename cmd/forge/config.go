package main

import (
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tryforce-dev/forge/internal/config"
	clierrors "github.com/tryforce-dev/forge/internal/errors"
	"github.com/tryforce-dev/forge/internal/output"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View and modify Forge configuration settings.`,
	}

	cmd.AddCommand(newConfigListCmd())
	cmd.AddCommand(newConfigGetCmd())
	cmd.AddCommand(newConfigSetCmd())

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		Long:  `Display every known configuration key with its effective value, resolved across environment variables, the config file, and built-in defaults.`,
		Example: `  forge config list
  forge config list --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			cfg := config.Load()
			settings := effectiveSettings(cfg)

			if out.JSON {
				return out.PrintJSON(settings)
			}

			for _, key := range config.Keys() {
				value, ok := settings[key]
				if !ok {
					out.Print("%s =\n", key)
					continue
				}

				out.Print("%s = %v\n", key, value)
			}

			return nil
		},
	}
}

// effectiveSettings resolves every known key through viper so env and file
// overrides show the value Forge will actually use. Keys with no value in
// any source are omitted.
func effectiveSettings(cfg *config.Config) map[string]interface{} {
	settings := map[string]interface{}{}

	for _, key := range config.Keys() {
		value := cfg.Get(key)
		if value == nil || value == "" {
			continue
		}

		settings[key] = value
	}

	return settings
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "get <key>",
		Short:   "Get a configuration value",
		Long:    `Retrieve and display the current value of a single configuration key.`,
		Example: `  forge config get api.url`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			key := args[0]
			cfg := config.Load()
			value := cfg.Get(key)

			if value == nil || value == "" {
				out.Muted("%s is not set", key)
				return nil
			}

			out.Print("%s = %v\n", key, value)

			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long:  `Set a configuration key to the given value. The value is persisted to the config file.`,
		Example: `  forge config set api.url https://api.tryforce.dev
  forge config set studio.preset full-stack`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			key, value := args[0], args[1]

			if !slices.Contains(config.Keys(), key) {
				return &clierrors.CLIError{
					Message: "Unknown configuration key: " + key,
					Hint:    "Known keys: " + strings.Join(config.Keys(), ", "),
					Code:    clierrors.ExitConfig,
				}
			}

			cfg := config.Load()
			if err := cfg.Set(key, value); err != nil {
				return clierrors.ConfigFailed("set config", err)
			}

			out.Success("Set %s = %s", key, value)

			return nil
		},
	}
}
