// Package identity handles sign-in and credential storage for Forge.
//
// Stored credentials are an OIDC token set. They are sourced in the
// following priority order:
//  1. Environment variable: FORGE_ID_TOKEN (bare ID token, CI use)
//  2. OS Keyring (macOS Keychain, Windows Credential Manager, Linux Secret Service)
//  3. Config file fallback: <user config dir>/forge/tokens.json (for non-interactive environments)
package identity

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zalando/go-keyring"

	"github.com/tryforce-dev/forge/internal/paths"
)

const (
	// keyringService is the service name used in OS keyring storage.
	keyringService = "forge"
	// keyringUser is the user/account name used in OS keyring storage.
	keyringUser = "token-set"
	// envVarName is the environment variable for a pre-issued ID token.
	envVarName = "FORGE_ID_TOKEN"
)

// CredentialSource indicates where credentials were found.
type CredentialSource string

// Credential source constants identify where credentials were loaded from.
const (
	SourceEnv     CredentialSource = "environment variable"
	SourceKeyring CredentialSource = "keyring"
	SourceFile    CredentialSource = "config file"
	SourceNone    CredentialSource = ""
)

// TokenSet holds the tokens issued by the identity provider.
type TokenSet struct {
	AccessToken  string    `json:"access_token"`
	IDToken      string    `json:"id_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token has passed its expiry.
// A zero ExpiresAt means the expiry is unknown and is treated as live.
func (ts *TokenSet) Expired(now time.Time) bool {
	if ts.ExpiresAt.IsZero() {
		return false
	}

	return !now.Before(ts.ExpiresAt)
}

// ExpiresWithin reports whether the access token expires inside the window.
func (ts *TokenSet) ExpiresWithin(now time.Time, window time.Duration) bool {
	if ts.ExpiresAt.IsZero() {
		return false
	}

	return !now.Add(window).Before(ts.ExpiresAt)
}

// Bearer returns the token to present to the generation backend.
// The backend validates Cognito ID tokens, so the ID token wins when present.
func (ts *TokenSet) Bearer() string {
	if ts.IDToken != "" {
		return ts.IDToken
	}

	return ts.AccessToken
}

// GetTokens returns the stored token set and its source.
// Returns SourceNone and nil if no credentials are found.
func GetTokens() (source CredentialSource, ts *TokenSet) {
	// Priority 1: Environment variable (bare ID token)
	if tok := os.Getenv(envVarName); tok != "" {
		return SourceEnv, &TokenSet{IDToken: tok}
	}

	// Priority 2: OS Keyring
	if raw, err := keyring.Get(keyringService, keyringUser); err == nil && raw != "" {
		if parsed := decodeTokenSet([]byte(raw)); parsed != nil {
			return SourceKeyring, parsed
		}
	}

	// Priority 3: Config file fallback
	if parsed := readTokensFile(); parsed != nil {
		return SourceFile, parsed
	}

	return SourceNone, nil
}

// StoreTokens stores the token set in the OS keyring.
// Falls back to file storage if keyring is unavailable.
func StoreTokens(ts *TokenSet) error {
	raw, err := json.Marshal(ts)
	if err != nil {
		return fmt.Errorf("encode token set: %w", err)
	}

	// Try keyring first
	if err := keyring.Set(keyringService, keyringUser, string(raw)); err == nil {
		return nil
	}

	// Fallback to file storage
	return writeTokensFile(raw)
}

// DeleteTokens removes the stored token set.
func DeleteTokens() error {
	// Try to delete from keyring
	keyringErr := keyring.Delete(keyringService, keyringUser)

	// Also try to delete from file
	fileErr := deleteTokensFile()

	// Return error only if both failed and nothing was deleted
	if keyringErr != nil && fileErr != nil {
		return fmt.Errorf("no stored credentials found")
	}

	return nil
}

// tokensFilePath returns the path to the token fallback file.
func tokensFilePath() string {
	path, err := paths.CredentialsFile()
	if err != nil {
		return ""
	}

	return filepath.Clean(path)
}

// decodeTokenSet parses a stored token set, returning nil on any problem.
func decodeTokenSet(raw []byte) *TokenSet {
	var ts TokenSet
	if err := json.Unmarshal(raw, &ts); err != nil {
		return nil
	}

	if ts.AccessToken == "" && ts.IDToken == "" {
		return nil
	}

	return &ts
}

// readTokensFile reads the token set from the file fallback.
func readTokensFile() *TokenSet {
	path := tokensFilePath()
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path) //nolint:gosec // G304: path from controlled config directory
	if err != nil {
		return nil
	}

	return decodeTokenSet(data)
}

// writeTokensFile writes the token set to the file fallback.
func writeTokensFile(raw []byte) error {
	path := tokensFilePath()
	if path == "" {
		return fmt.Errorf("could not determine home directory")
	}

	// Create directory with secure permissions
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Write file with secure permissions (owner read/write only)
	if err := os.WriteFile(path, append(raw, '\n'), 0o600); err != nil {
		return fmt.Errorf("failed to write tokens file: %w", err)
	}

	return nil
}

// deleteTokensFile removes the token fallback file.
func deleteTokensFile() error {
	path := tokensFilePath()
	if path == "" {
		return fmt.Errorf("could not determine home directory")
	}

	err := os.Remove(path)
	if os.IsNotExist(err) {
		return fmt.Errorf("tokens file not found")
	}

	if err != nil {
		return fmt.Errorf("remove tokens file: %w", err)
	}

	return nil
}
