package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tryforce-dev/forge/internal/config"
	clierrors "github.com/tryforce-dev/forge/internal/errors"
	"github.com/tryforce-dev/forge/internal/identity"
	"github.com/tryforce-dev/forge/internal/output"
)

func newAuthCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage authentication",
		Long:  `Sign in to the TryForce backend through your identity provider.`,
	}

	cmd.AddCommand(newAuthLoginCmd())
	cmd.AddCommand(newAuthStatusCmd())
	cmd.AddCommand(newAuthLogoutCmd())

	return cmd
}

func newAuthLoginCmd() *cobra.Command {
	var (
		providerFlag string
		noBrowser    bool
	)

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in through your identity provider",
		Long: `Sign in through your identity provider's hosted page.

A browser opens on the provider's sign-in page; after you finish there, the
provider redirects back to a local listener and the issued tokens are stored
in your system's keyring (macOS Keychain, Windows Credential Manager, or
Linux Secret Service), with an encrypted file fallback.

You can also set the FORGE_ID_TOKEN environment variable for CI use.`,
		Example: `  forge auth login
  forge auth login --provider cognito
  forge auth login --no-browser`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			// Token supplied via env takes precedence over anything stored.
			if os.Getenv("FORGE_ID_TOKEN") != "" {
				out.Info("FORGE_ID_TOKEN environment variable is set")
				out.Muted("Environment variable takes precedence over stored credentials")
				out.Println()
			}

			cfg := config.Load()

			provider := providerFlag
			if provider == "" {
				provider = cfg.Provider()
			}

			flowCfg, err := identity.ResolveFlowConfig(provider, cfg.Authority(), cfg.ClientID(), cfg.RedirectPort())
			if err != nil {
				return clierrors.ProviderNotFound(provider, identity.ProviderNames())
			}

			opts := identity.SignInOptions{
				Config:    flowCfg,
				NoBrowser: noBrowser,
				Notify: func(authURL string) {
					if noBrowser {
						out.Println("Open this URL in your browser to sign in:")
						out.Println()
						out.Print("  %s\n", authURL)
						out.Println()
					}
				},
			}

			spin := out.Spinner("Waiting for the provider callback")
			spin.Start()

			tokens, profile, err := identity.SignIn(cmd.Context(), opts)
			if err != nil {
				spin.StopWithFailure("Sign-in failed")
				return clierrors.AuthFailed(err)
			}

			spin.Stop()

			if err := identity.StoreTokens(tokens); err != nil {
				return clierrors.ConfigFailed("store credentials", err)
			}

			out.Success("Signed in as %s", profileLabel(profile))

			return nil
		},
	}

	cmd.Flags().StringVar(&providerFlag, "provider", "", "Identity provider profile (default from auth.provider config)")
	cmd.Flags().BoolVar(&noBrowser, "no-browser", false, "Print the sign-in URL instead of opening a browser")

	return cmd
}

// AuthStatusInfo represents authentication status for JSON output.
type AuthStatusInfo struct {
	Source    string   `json:"source"`
	Subject   string   `json:"subject,omitempty"`
	Username  string   `json:"username,omitempty"`
	Email     string   `json:"email,omitempty"`
	Groups    []string `json:"groups,omitempty"`
	ExpiresAt string   `json:"expiresAt,omitempty"`
	Verified  bool     `json:"verified,omitempty"`
}

func newAuthStatusCmd() *cobra.Command {
	var remote bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show authentication status",
		Long: `Show where credentials were loaded from, who they identify, and when
they expire. With --remote the token is also verified against the backend.`,
		Example: `  forge auth status
  forge auth status --remote
  forge auth status --json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			source, tokens := identity.GetTokens()
			if tokens == nil {
				return clierrors.NotAuthenticated()
			}

			if tokens.Expired(time.Now()) {
				return clierrors.SessionExpired()
			}

			info := AuthStatusInfo{Source: string(source)}

			if profile, err := identity.ParseProfile(tokens.IDToken); err == nil {
				info.Subject = profile.Subject
				info.Username = profile.Username
				info.Email = profile.Email
				info.Groups = profile.Groups
			}

			if !tokens.ExpiresAt.IsZero() {
				info.ExpiresAt = tokens.ExpiresAt.Format(time.RFC3339)
			}

			if remote {
				_, apiClient, err := newAPIClient()
				if err != nil {
					return err
				}

				spin := out.Spinner("Verifying token with the backend")
				spin.Start()

				status, err := apiClient.VerifyToken(cmd.Context())
				if err != nil {
					spin.StopWithFailure("Token rejected by the backend")
					return clierrors.CredentialsInvalid(err)
				}

				spin.StopWithSuccess("Token verified")
				info.Verified = status.Valid
			}

			if out.JSON {
				if err := out.PrintJSON(info); err != nil {
					return fmt.Errorf("print auth status json: %w", err)
				}

				return nil
			}

			out.Print("Source:   %s\n", info.Source)
			if info.Username != "" {
				out.Print("Username: %s\n", info.Username)
			}
			if info.Email != "" {
				out.Print("Email:    %s\n", info.Email)
			}
			if len(info.Groups) > 0 {
				out.Print("Groups:   %s\n", strings.Join(info.Groups, ", "))
			}
			if info.ExpiresAt != "" {
				out.Print("Expires:  %s\n", info.ExpiresAt)
			}
			if remote {
				out.Print("Verified: %t\n", info.Verified)
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&remote, "remote", false, "Verify the token against the backend")

	return cmd
}

func newAuthLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "logout",
		Short:   "Clear stored credentials",
		Long:    `Delete the stored token set from the keyring and the file fallback.`,
		Example: `  forge auth logout`,
		Args:    noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := output.FromContext(cmd.Context())

			if err := identity.DeleteTokens(); err != nil {
				// If no tokens exist, that's fine
				if strings.Contains(err.Error(), "not found") {
					out.Muted("No stored credentials found")
					return nil
				}

				return clierrors.ConfigFailed("clear credentials", err)
			}

			out.Success("Signed out")

			if os.Getenv("FORGE_ID_TOKEN") != "" {
				out.Println()
				out.Warning("FORGE_ID_TOKEN environment variable is still set")
			}

			return nil
		},
	}
}

// profileLabel renders the friendliest available identity for a profile.
func profileLabel(p *identity.Profile) string {
	if p == nil {
		return "unknown user"
	}

	if p.Email != "" {
		return p.Email
	}

	if p.Username != "" {
		return p.Username
	}

	return p.Subject
}
