// Package wizard provides the initialization wizard for the Forge CLI.
//
// The wizard guides users through first-time setup:
//  1. Welcome message
//  2. Browser sign-in with the configured identity provider
//  3. Token storage and backend verification
//  4. Default preset selection
//  5. Next steps guidance
package wizard

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tryforce-dev/forge/internal/client"
	"github.com/tryforce-dev/forge/internal/config"
	"github.com/tryforce-dev/forge/internal/identity"
	"github.com/tryforce-dev/forge/internal/output"
	"github.com/tryforce-dev/forge/internal/preset"
	"github.com/tryforce-dev/forge/internal/prompt"
)

// Wizard handles the initialization flow.
type Wizard struct {
	out      *output.Writer
	prompter *prompt.Prompter
	force    bool
}

// New creates a new initialization wizard.
func New(out *output.Writer, force bool) *Wizard {
	return &Wizard{
		out:      out,
		prompter: prompt.New(out),
		force:    force,
	}
}

// Run executes the initialization wizard.
func (w *Wizard) Run(ctx context.Context) error {
	// Welcome
	w.out.Println("Welcome to Forge!")
	w.out.Println("==================")
	w.out.Println()
	w.out.Println("Forge turns plain-text requirements into stories, diagrams")
	w.out.Println("and code through the TryForce generation backend.")
	w.out.Println()

	// Check for existing credentials
	source, existing := identity.GetTokens()
	if existing != nil && !w.force {
		w.out.Warning("Existing credentials found (via %s)", source)

		if !w.prompter.CanPrompt() {
			w.out.Println()
			w.out.Info("Run with --force to overwrite existing credentials")
			return nil
		}

		overwrite, err := w.prompter.Confirm("Overwrite existing credentials?", false)
		if err != nil {
			return err
		}
		if !overwrite {
			w.out.Println()
			w.out.Success("Keeping existing credentials")
			w.showNextSteps()
			return nil
		}
		w.out.Println()
	}

	// Check for non-interactive mode
	if !w.prompter.CanPrompt() {
		w.out.Failure("Cannot run init wizard in non-interactive mode")
		w.out.Println()
		w.out.Info("Either:")
		w.out.Print("  1. Run without --no-input flag\n")
		w.out.Print("  2. Set FORGE_ID_TOKEN environment variable\n")
		w.out.Print("  3. Run 'forge auth login' interactively\n")
		return nil
	}

	// Step 1: Sign in
	w.out.Println("Step 1: Sign in")
	w.out.Println("---------------")
	w.out.Println("Forge signs you in through your identity provider's hosted page.")
	w.out.Muted("A browser window will open; finish the sign-in there.")
	w.out.Println()

	cfg := config.Load()

	flowCfg, err := identity.ResolveFlowConfig(cfg.Provider(), cfg.Authority(), cfg.ClientID(), cfg.RedirectPort())
	if err != nil {
		w.out.Failure("Sign-in is not configured")
		w.out.Muted("%s", err.Error())
		w.out.Info("Set auth.authority and auth.client_id with 'forge config set', then rerun 'forge init'")
		return nil
	}

	proceed, err := w.prompter.Confirm("Open the browser now?", true)
	if err != nil {
		return err
	}
	if !proceed {
		w.out.Println()
		w.out.Info("Run 'forge auth login' when you are ready to sign in")
		return nil
	}

	// The spinner starts from Notify so the fallback URL prints on a
	// stable line before the animation takes over.
	spin := w.out.Spinner("Waiting for sign-in")

	tokens, profile, err := identity.SignIn(ctx, identity.SignInOptions{
		Config: flowCfg,
		Notify: func(authURL string) {
			w.out.Muted("If the browser does not open, visit:")
			w.out.Muted("  %s", authURL)
			spin.Start()
		},
	})
	if err != nil {
		spin.StopWithFailure("Sign-in failed")
		w.out.Muted("%s", err.Error())
		return nil
	}

	spin.StopWithSuccess("Signed in")
	w.out.Print("User:    %s\n", userLabel(profile))
	if !profile.ExpiresAt.IsZero() {
		w.out.Print("Expires: %s\n", profile.ExpiresAt.Local().Format(time.RFC1123))
	}

	// Store credentials before the preset step (so they persist even if user cancels)
	w.out.Println()
	spin = w.out.Spinner("Storing credentials")
	spin.Start()

	if storeErr := identity.StoreTokens(tokens); storeErr != nil {
		spin.StopWithFailure("Failed to store credentials")
		w.out.Muted("%s", storeErr.Error())
		return nil
	}

	spin.StopWithSuccess("Credentials stored securely")

	w.out.Println()
	w.verifyBackend(ctx, client.New(tokens.Bearer).WithBaseURL(cfg.APIURL()))

	// Step 2: Default preset
	w.out.Println()
	w.out.Println("Step 2: Default preset")
	w.out.Println("----------------------")
	w.out.Println("Presets pre-select output kinds so the studio opens ready")
	w.out.Println("to generate instead of with an empty grid.")
	w.out.Println()

	presets, err := preset.Load()
	if err != nil {
		w.out.Warning("Failed to load presets: %s", err.Error())
		w.out.Info("You can set one later with 'forge config set studio.preset <name>'")
		w.showNextSteps()
		return nil
	}

	wantDefault, err := w.prompter.Confirm("Set a default preset for the studio?", false)
	if err != nil {
		return err
	}
	if !wantDefault {
		w.out.Println()
		w.out.Success("Forge is ready!")
		w.showNextSteps()
		return nil
	}

	selected, err := prompt.SelectPreset(preset.Names(presets), presets, w.out)
	if err != nil {
		return fmt.Errorf("failed to select preset: %w", err)
	}

	if err := cfg.Set("studio.preset", selected); err != nil {
		w.out.Warning("Failed to save preset to config: %s", err.Error())
	} else {
		w.out.Success("Default preset: %s (%s)", selected, strings.Join(presets[selected].Kinds, ", "))
	}

	// Success
	w.out.Println()
	w.out.Success("Forge is ready!")
	w.showNextSteps()

	return nil
}

// verifyBackend checks that the backend accepts the stored token.
// Failure is not fatal; the sign-in is already stored and the backend
// may simply be down.
func (w *Wizard) verifyBackend(ctx context.Context, api *client.Client) {
	spin := w.out.Spinner("Verifying backend access")
	spin.Start()

	status, verifyErr := api.VerifyToken(ctx)
	switch {
	case verifyErr != nil:
		spin.StopWithFailure("Backend not reachable")
		w.out.Muted("%s", verifyErr.Error())
		w.out.Warning("Your sign-in is stored; run 'forge doctor' once the backend is up")
	case !status.Valid:
		spin.StopWithFailure("Backend rejected the token")
		w.out.Warning("Run 'forge doctor' to inspect the token and backend state")
	default:
		spin.StopWithSuccess("Backend reachable")

		// The backend's own view of the signed-in user; claims and
		// groups can drift from the local ID token between sign-ins.
		if info, meErr := api.Me(ctx); meErr == nil && info.Authenticated {
			if info.Email != "" {
				w.out.Muted("Backend identity: %s", info.Email)
			}
			if len(info.Groups) > 0 {
				w.out.Muted("Groups: %s", strings.Join(info.Groups, ", "))
			}
		}
	}
}

func (w *Wizard) showNextSteps() {
	w.out.Println()
	w.out.Println("Next steps:")
	w.out.Println("  forge studio       Open the interactive studio")
	w.out.Println("  forge doctor       Check your setup")
	w.out.Println("  forge --help       See all commands")
}

// userLabel picks the friendliest identifier the token carries.
func userLabel(p *identity.Profile) string {
	switch {
	case p == nil:
		return "unknown"
	case p.Email != "":
		return p.Email
	case p.Username != "":
		return p.Username
	default:
		return p.Subject
	}
}
