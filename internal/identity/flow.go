package identity

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

const (
	// DefaultSignInTimeout bounds how long the loopback listener waits for
	// the browser to complete the hosted sign-in.
	DefaultSignInTimeout = 5 * time.Minute

	callbackPath = "/callback"
)

// FlowConfig is the resolved configuration for one sign-in flow: the
// provider profile merged with any config overrides.
type FlowConfig struct {
	Authority    string
	ClientID     string
	Scopes       []string
	RedirectPort int
}

// RedirectURI returns the loopback redirect target registered with the
// authority.
func (c FlowConfig) RedirectURI() string {
	return fmt.Sprintf("http://127.0.0.1:%d%s", c.RedirectPort, callbackPath)
}

// ResolveFlowConfig merges a named provider profile with optional overrides.
func ResolveFlowConfig(provider, authority, clientID string, redirectPort int) (FlowConfig, error) {
	spec, ok := GetProvider(provider)
	if !ok {
		return FlowConfig{}, fmt.Errorf("unknown provider %q", provider)
	}

	cfg := FlowConfig{
		Authority:    spec.Authority,
		ClientID:     spec.ClientID,
		Scopes:       spec.Scopes,
		RedirectPort: spec.RedirectPort,
	}

	if authority != "" {
		cfg.Authority = authority
	}
	if clientID != "" {
		cfg.ClientID = clientID
	}
	if redirectPort != 0 {
		cfg.RedirectPort = redirectPort
	}
	if cfg.RedirectPort == 0 {
		cfg.RedirectPort = 8585
	}

	return cfg, nil
}

// AuthRequest holds the parameters minted for one sign-in attempt. The
// verifier and nonce never leave the process; state rides the redirect.
type AuthRequest struct {
	URL   string
	State string
	Nonce string

	verifier string
	oauthCfg *oauth2.Config
}

// BeginSignIn discovers the authority's endpoints and mints the
// authorization URL with PKCE, state, and nonce.
func BeginSignIn(ctx context.Context, cfg FlowConfig) (*AuthRequest, *Discovery, error) {
	disc, err := Discover(ctx, cfg.Authority)
	if err != nil {
		return nil, nil, err
	}

	verifier := oauth2.GenerateVerifier()

	state, err := randomToken(16)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate state: %w", err)
	}

	nonce, err := randomToken(16)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to generate nonce: %w", err)
	}

	oauthCfg := &oauth2.Config{
		ClientID:    cfg.ClientID,
		RedirectURL: cfg.RedirectURI(),
		Scopes:      cfg.Scopes,
		Endpoint: oauth2.Endpoint{
			AuthURL:  disc.AuthorizationEndpoint,
			TokenURL: disc.TokenEndpoint,
		},
	}

	authURL := oauthCfg.AuthCodeURL(state,
		oauth2.S256ChallengeOption(verifier),
		oauth2.SetAuthURLParam("nonce", nonce),
	)

	return &AuthRequest{
		URL:      authURL,
		State:    state,
		Nonce:    nonce,
		verifier: verifier,
		oauthCfg: oauthCfg,
	}, disc, nil
}

// Exchange trades the authorization code for tokens.
func (r *AuthRequest) Exchange(ctx context.Context, code string) (*TokenSet, error) {
	token, err := r.oauthCfg.Exchange(ctx, code, oauth2.VerifierOption(r.verifier))
	if err != nil {
		return nil, fmt.Errorf("code exchange failed: %w", err)
	}

	set := &TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}

	if idToken, ok := token.Extra("id_token").(string); ok {
		set.IDToken = idToken
	}

	if set.IDToken == "" {
		return nil, fmt.Errorf("token response missing id_token")
	}

	return set, nil
}

// WaitForCallback serves the loopback redirect endpoint until the browser
// delivers an authorization code, the flow errors, or ctx expires.
func WaitForCallback(ctx context.Context, port int, expectedState string) (string, error) {
	listener, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return "", fmt.Errorf("failed to listen on callback port %d: %w", port, err)
	}

	codeChan := make(chan string, 1)
	errChan := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc(callbackPath, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		state := q.Get("state")
		code := q.Get("code")
		errStr := q.Get("error")

		if state != expectedState {
			http.Error(w, "Invalid state", http.StatusBadRequest)
			errChan <- fmt.Errorf("invalid state received")
			return
		}

		if errStr != "" {
			if desc := q.Get("error_description"); desc != "" {
				errStr = errStr + ": " + desc
			}
			http.Error(w, "Sign-in failed: "+errStr, http.StatusBadRequest)
			errChan <- fmt.Errorf("authorization failed: %s", errStr)
			return
		}

		if code == "" {
			http.Error(w, "No code received", http.StatusBadRequest)
			errChan <- fmt.Errorf("no authorization code received")
			return
		}

		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(callbackSuccessPage))

		codeChan <- code
	})

	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	defer server.Close()

	select {
	case code := <-codeChan:
		return code, nil
	case err := <-errChan:
		return "", err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

const callbackSuccessPage = `<html>
<head><title>TryForce</title></head>
<body style="font-family: sans-serif; text-align: center; padding: 50px;">
	<h1>Signed in</h1>
	<p>You can close this tab and return to the terminal.</p>
	<script>window.close();</script>
</body>
</html>
`

// SignInOptions controls one interactive sign-in.
type SignInOptions struct {
	Config  FlowConfig
	Timeout time.Duration

	// NoBrowser skips launching a browser; the caller is expected to show
	// the URL from Notify instead.
	NoBrowser bool

	// OpenBrowser overrides the platform launcher. Used by tests.
	OpenBrowser func(url string) error

	// Notify is called once with the authorization URL, before waiting.
	Notify func(authURL string)
}

// SignIn runs the full authorization code flow: mint the URL, hand it to a
// browser, collect the callback, exchange the code, and verify the issued
// ID token against the authority's keys.
func SignIn(ctx context.Context, opts SignInOptions) (*TokenSet, *Profile, error) {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultSignInTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, disc, err := BeginSignIn(ctx, opts.Config)
	if err != nil {
		return nil, nil, err
	}

	if opts.Notify != nil {
		opts.Notify(req.URL)
	}

	if !opts.NoBrowser {
		open := opts.OpenBrowser
		if open == nil {
			open = openBrowser
		}
		// Launch failure is not fatal; the URL was already surfaced.
		_ = open(req.URL)
	}

	code, err := WaitForCallback(ctx, opts.Config.RedirectPort, req.State)
	if err != nil {
		return nil, nil, err
	}

	tokens, err := req.Exchange(ctx, code)
	if err != nil {
		return nil, nil, err
	}

	spec := &ProviderSpec{ClientID: opts.Config.ClientID}

	profile, err := VerifyIDToken(ctx, disc, spec, tokens.IDToken, req.Nonce)
	if err != nil {
		return nil, nil, fmt.Errorf("issued token failed verification: %w", err)
	}

	return tokens, profile, nil
}

// Refresh trades a refresh token for a fresh token set. Cognito does not
// rotate refresh tokens, so the original is preserved when the response
// omits one.
func Refresh(ctx context.Context, cfg FlowConfig, refreshToken string) (*TokenSet, error) {
	if refreshToken == "" {
		return nil, fmt.Errorf("no refresh token available")
	}

	disc, err := Discover(ctx, cfg.Authority)
	if err != nil {
		return nil, err
	}

	oauthCfg := &oauth2.Config{
		ClientID: cfg.ClientID,
		Endpoint: oauth2.Endpoint{TokenURL: disc.TokenEndpoint},
	}

	token, err := oauthCfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("token refresh failed: %w", err)
	}

	set := &TokenSet{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		ExpiresAt:    token.Expiry,
	}
	if set.RefreshToken == "" {
		set.RefreshToken = refreshToken
	}

	if idToken, ok := token.Extra("id_token").(string); ok {
		set.IDToken = idToken
	}

	return set, nil
}

func randomToken(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
