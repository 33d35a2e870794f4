package main

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tryforce-dev/forge/internal/client"
	"github.com/tryforce-dev/forge/internal/config"
	clierrors "github.com/tryforce-dev/forge/internal/errors"
	"github.com/tryforce-dev/forge/internal/history"
	"github.com/tryforce-dev/forge/internal/identity"
	"github.com/tryforce-dev/forge/internal/observability"
	"github.com/tryforce-dev/forge/internal/output"
	"github.com/tryforce-dev/forge/internal/preset"
	"github.com/tryforce-dev/forge/internal/studio"
)

func newStudioCmd() *cobra.Command {
	var (
		presetFlag string
		routeFlag  string
	)

	cmd := &cobra.Command{
		Use:   "studio",
		Short: "Open the interactive studio",
		Long: `Open the interactive studio: sign in from the landing screen, then
compose requirement text, toggle the output kinds you want, and submit to
the generation backend. Results render in a scrollable pane and every
submission is recorded in the session history.

Keys: tab cycles focus, space toggles the selected kind, ctrl+s submits,
ctrl+x signs out, q or ctrl+c quits.`,
		Example: `  forge studio
  forge studio --preset backend-service
  forge studio --route /dashboard`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())
			logger := observability.FromContext(cmd.Context())

			if !out.Terminal().StudioEnabled() {
				return &clierrors.CLIError{
					Message: "The studio needs an interactive terminal",
					Hint:    "Use 'forge generate' for non-interactive generation",
					Code:    clierrors.ExitUsage,
				}
			}

			cfg := config.Load()

			opts, cleanup, err := buildStudioOptions(cmd.Context(), cfg, logger, presetFlag, routeFlag)
			if err != nil {
				return err
			}
			defer cleanup()

			return studio.Run(opts)
		},
	}

	cmd.Flags().StringVar(&presetFlag, "preset", "", "Apply a named preset's selection on start")
	cmd.Flags().StringVar(&routeFlag, "route", studio.RouteLanding, "Initial route: / or /dashboard")

	return cmd
}

// buildStudioOptions wires the identity manager, sign-in flow, backend
// client, history recorder, and optional preset into studio options. The
// returned cleanup closes the history stream and stops the refresher.
func buildStudioOptions(
	ctx context.Context,
	cfg *config.Config,
	logger *slog.Logger,
	presetName, route string,
) (studio.Options, func(), error) {
	mgr := identity.NewManager()

	flowCfg, flowErr := identity.ResolveFlowConfig(cfg.Provider(), cfg.Authority(), cfg.ClientID(), cfg.RedirectPort())

	// A misconfigured provider fails closed: the sign-in action reports
	// the error into the session and the guard renders the error screen.
	signIn := func(signCtx context.Context) identity.Session {
		if flowErr != nil {
			return mgr.SetError(flowErr.Error())
		}

		// A retry while the first flow still holds the loopback port
		// must not start a second listener.
		if !mgr.BeginSignIn() {
			return mgr.Session()
		}
		defer mgr.EndSignIn()

		tokens, profile, err := identity.SignIn(signCtx, identity.SignInOptions{Config: flowCfg})
		if err != nil {
			return mgr.SetError(err.Error())
		}

		if err := identity.StoreTokens(tokens); err != nil {
			logger.Warn("token storage failed", slog.String("error", err.Error()))
		}

		return mgr.SetAuthenticated(profile)
	}

	apiClient := client.New(tokenProvider()).WithBaseURL(cfg.APIURL())

	refreshCtx, stopRefresher := context.WithCancel(ctx)
	if flowErr == nil {
		identity.StartRefresher(refreshCtx, flowCfg, cfg.RefreshWindow(), mgr, func(err error) {
			logger.Warn("token refresh failed", slog.String("error", err.Error()))
		})
	}

	opts := studio.Options{
		Manager:   mgr,
		SignIn:    signIn,
		Generator: apiClient,
		Route:     route,
		Version:   version,
	}

	if presetName == "" {
		presetName = cfg.DefaultPreset()
	}
	if presetName != "" {
		p, err := preset.Get(presetName)
		if err != nil {
			stopRefresher()
			return studio.Options{}, nil, err
		}
		opts.Preset = &p
	}

	// History failures degrade to an unrecorded session.
	store, err := history.NewStore(history.StoreOptions{
		SessionID: uuid.NewString(),
		Dir:       cfg.HistoryDir(),
		Version:   version,
	})
	if err != nil {
		logger.Warn("session history disabled", slog.String("error", err.Error()))
	} else {
		opts.Recorder = store
	}

	cleanup := func() {
		stopRefresher()

		if store != nil {
			if err := store.Close(); err != nil {
				logger.Warn("closing session history failed", slog.String("error", err.Error()))
			}
		}
	}

	return opts, cleanup, nil
}
