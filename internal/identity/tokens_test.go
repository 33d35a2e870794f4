package identity

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/zalando/go-keyring"
)

// useTempStorage redirects both the keyring and the file fallback away
// from the developer's real credentials.
func useTempStorage(t *testing.T) {
	t.Helper()
	keyring.MockInit()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))
	t.Setenv(envVarName, "")
}

func TestGetTokens_FromEnv(t *testing.T) {
	tests := []struct {
		name       string
		envToken   string
		wantSource CredentialSource
	}{
		{
			name:       "from environment variable",
			envToken:   "header.payload.signature",
			wantSource: SourceEnv,
		},
		{
			name:       "empty environment variable",
			envToken:   "",
			wantSource: SourceNone,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			useTempStorage(t)
			t.Setenv(envVarName, tt.envToken)

			source, ts := GetTokens()

			// Environment variable has highest priority
			if tt.envToken != "" {
				if source != tt.wantSource {
					t.Errorf("source = %v, want %v", source, tt.wantSource)
				}
				if ts == nil || ts.IDToken != tt.envToken {
					t.Errorf("ts = %+v, want IDToken %q", ts, tt.envToken)
				}
			}
		})
	}
}

func TestStoreAndGetTokens_Keyring(t *testing.T) {
	useTempStorage(t)

	want := &TokenSet{
		AccessToken:  "at-123",
		IDToken:      "id-456",
		RefreshToken: "rt-789",
		ExpiresAt:    time.Now().Add(time.Hour).UTC().Truncate(time.Second),
	}

	if err := StoreTokens(want); err != nil {
		t.Fatalf("StoreTokens() error = %v", err)
	}

	source, got := GetTokens()
	if source != SourceKeyring {
		t.Errorf("source = %v, want %v", source, SourceKeyring)
	}
	if got == nil {
		t.Fatal("GetTokens() returned nil token set")
	}
	if got.AccessToken != want.AccessToken {
		t.Errorf("AccessToken = %q, want %q", got.AccessToken, want.AccessToken)
	}
	if got.IDToken != want.IDToken {
		t.Errorf("IDToken = %q, want %q", got.IDToken, want.IDToken)
	}
	if got.RefreshToken != want.RefreshToken {
		t.Errorf("RefreshToken = %q, want %q", got.RefreshToken, want.RefreshToken)
	}
	if !got.ExpiresAt.Equal(want.ExpiresAt) {
		t.Errorf("ExpiresAt = %v, want %v", got.ExpiresAt, want.ExpiresAt)
	}

	if err := DeleteTokens(); err != nil {
		t.Errorf("DeleteTokens() error = %v", err)
	}
}

func TestDeleteTokens_NothingStored(t *testing.T) {
	useTempStorage(t)

	if err := DeleteTokens(); err == nil {
		t.Error("DeleteTokens() should report an error when nothing is stored")
	}
}

func TestTokenSet_Expired(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"zero expiry is live", time.Time{}, false},
		{"future expiry is live", now.Add(time.Hour), false},
		{"past expiry is expired", now.Add(-time.Hour), true},
		{"exact expiry is expired", now, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := &TokenSet{ExpiresAt: tt.expiresAt}
			if got := ts.Expired(now); got != tt.want {
				t.Errorf("Expired() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenSet_ExpiresWithin(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	window := 5 * time.Minute

	tests := []struct {
		name      string
		expiresAt time.Time
		want      bool
	}{
		{"zero expiry never renews", time.Time{}, false},
		{"well past window", now.Add(time.Hour), false},
		{"inside window", now.Add(2 * time.Minute), true},
		{"already expired", now.Add(-time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := &TokenSet{ExpiresAt: tt.expiresAt}
			if got := ts.ExpiresWithin(now, window); got != tt.want {
				t.Errorf("ExpiresWithin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTokenSet_Bearer(t *testing.T) {
	tests := []struct {
		name string
		ts   TokenSet
		want string
	}{
		{"id token preferred", TokenSet{AccessToken: "at", IDToken: "id"}, "id"},
		{"access token fallback", TokenSet{AccessToken: "at"}, "at"},
		{"empty", TokenSet{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ts.Bearer(); got != tt.want {
				t.Errorf("Bearer() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWriteAndReadTokensFile(t *testing.T) {
	useTempStorage(t)

	raw := []byte(`{"access_token":"at-xyz","id_token":"id-xyz"}`)

	if err := writeTokensFile(raw); err != nil {
		t.Fatalf("writeTokensFile() error = %v", err)
	}

	got := readTokensFile()
	if got == nil {
		t.Fatal("readTokensFile() returned nil")
	}
	if got.AccessToken != "at-xyz" {
		t.Errorf("AccessToken = %q, want %q", got.AccessToken, "at-xyz")
	}

	// Verify file permissions (0600 = owner read/write only)
	info, err := os.Stat(tokensFilePath())
	if err != nil {
		t.Fatalf("os.Stat() error = %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("tokens file permissions = %o, want 0600", perm)
	}
}

func TestDeleteTokensFile_NotFound(t *testing.T) {
	useTempStorage(t)

	if err := deleteTokensFile(); err == nil {
		t.Error("deleteTokensFile() should return error for non-existent file")
	}
}

func TestDecodeTokenSet(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantNil bool
	}{
		{"valid", `{"access_token":"at","id_token":"id"}`, false},
		{"id token only", `{"id_token":"id"}`, false},
		{"corrupt json", `{not json`, true},
		{"no usable tokens", `{"refresh_token":"rt"}`, true},
		{"empty object", `{}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decodeTokenSet([]byte(tt.raw))
			if (got == nil) != tt.wantNil {
				t.Errorf("decodeTokenSet() = %+v, wantNil %v", got, tt.wantNil)
			}
		})
	}
}
