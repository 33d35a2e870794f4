package main

import (
	"github.com/tryforce-dev/forge/internal/client"
	"github.com/tryforce-dev/forge/internal/config"
	clierrors "github.com/tryforce-dev/forge/internal/errors"
	"github.com/tryforce-dev/forge/internal/identity"
)

// tokenProvider re-reads stored tokens on every call so the client keeps
// working across background refreshes instead of holding a stale token.
func tokenProvider() client.TokenProvider {
	return func() string {
		_, tokens := identity.GetTokens()
		if tokens == nil {
			return ""
		}

		return tokens.Bearer()
	}
}

// newAPIClient creates an authenticated API client using stored credentials
// and the configured API URL. Returns a CLIError if not authenticated.
func newAPIClient() (identity.CredentialSource, *client.Client, error) {
	source, tokens := identity.GetTokens()
	if tokens == nil {
		return identity.SourceNone, nil, clierrors.NotAuthenticated()
	}

	cfg := config.Load()
	c := client.New(tokenProvider()).WithBaseURL(cfg.APIURL())

	return source, c, nil
}
