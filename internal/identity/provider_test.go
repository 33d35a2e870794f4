package identity

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// noUserProviders pins tests that exercise embedded profiles against a
// developer's real ~/.config/forge/providers.yaml.
func noUserProviders(t *testing.T) {
	t.Helper()

	orig := userProvidersPath
	userProvidersPath = func() string { return "" }
	t.Cleanup(func() { userProvidersPath = orig })
}

func TestGetProvider_Cognito(t *testing.T) {
	noUserProviders(t)

	spec, ok := GetProvider("cognito")
	if !ok {
		t.Fatal("GetProvider(cognito) not found")
	}

	if spec.Name != "cognito" {
		t.Errorf("Name = %q, want %q", spec.Name, "cognito")
	}
	if !strings.HasPrefix(spec.Authority, "https://cognito-idp.") {
		t.Errorf("Authority = %q, want a Cognito user pool URL", spec.Authority)
	}
	if spec.ClientID == "" {
		t.Error("ClientID is empty")
	}
	if spec.ResponseType != "code" {
		t.Errorf("ResponseType = %q, want %q", spec.ResponseType, "code")
	}
	if spec.RedirectPort != 8585 {
		t.Errorf("RedirectPort = %d, want 8585", spec.RedirectPort)
	}

	wantScopes := []string{"phone", "openid", "email"}
	if len(spec.Scopes) != len(wantScopes) {
		t.Fatalf("Scopes = %v, want %v", spec.Scopes, wantScopes)
	}
	for i, s := range wantScopes {
		if spec.Scopes[i] != s {
			t.Errorf("Scopes[%d] = %q, want %q", i, spec.Scopes[i], s)
		}
	}
}

func TestGetProvider_Unknown(t *testing.T) {
	if _, ok := GetProvider("does-not-exist"); ok {
		t.Error("GetProvider(does-not-exist) should not be found")
	}
}

func TestProviderNames(t *testing.T) {
	names := ProviderNames()

	if len(names) == 0 {
		t.Fatal("ProviderNames() returned no providers")
	}

	found := false
	for _, name := range names {
		if name == "cognito" {
			found = true
		}
	}
	if !found {
		t.Errorf("ProviderNames() = %v, want to contain cognito", names)
	}

	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Errorf("ProviderNames() not sorted: %v", names)
			break
		}
	}
}

func TestParseProviderSpec(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr bool
	}{
		{
			name: "valid",
			yaml: `name: test
authority: https://issuer.example.com
clientId: client-123
responseType: code
scopes: [openid]`,
			wantErr: false,
		},
		{
			name:    "missing name",
			yaml:    `authority: https://issuer.example.com`,
			wantErr: true,
		},
		{
			name:    "missing authority",
			yaml:    `name: test`,
			wantErr: true,
		},
		{
			name: "authority not a URL",
			yaml: `name: test
authority: issuer.example.com`,
			wantErr: true,
		},
		{
			name: "unsupported response type",
			yaml: `name: test
authority: https://issuer.example.com
responseType: token`,
			wantErr: true,
		},
		{
			name: "unknown key rejected",
			yaml: `name: test
authority: https://issuer.example.com
clientSecret: should-never-be-here`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseProviderSpec([]byte(tt.yaml))
			if (err != nil) != tt.wantErr {
				t.Errorf("parseProviderSpec() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestUserProviders_ShadowEmbedded(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "providers.yaml")

	content := `providers:
  - name: cognito
    authority: https://cognito-idp.eu-west-1.amazonaws.com/eu-west-1_override
    clientId: override-client
    responseType: code
    scopes: [openid]
  - name: staging
    authority: https://issuer.staging.example.com
    clientId: staging-client
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	orig := userProvidersPath
	userProvidersPath = func() string { return path }
	defer func() { userProvidersPath = orig }()

	spec, ok := GetProvider("cognito")
	if !ok {
		t.Fatal("GetProvider(cognito) not found")
	}
	if spec.ClientID != "override-client" {
		t.Errorf("ClientID = %q, want user override %q", spec.ClientID, "override-client")
	}

	if _, ok := GetProvider("staging"); !ok {
		t.Error("GetProvider(staging) should find the user-defined profile")
	}

	names := ProviderNames()
	foundStaging := false
	for _, name := range names {
		if name == "staging" {
			foundStaging = true
		}
	}
	if !foundStaging {
		t.Errorf("ProviderNames() = %v, want to contain staging", names)
	}
}

func TestUserProviders_MalformedIgnored(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "providers.yaml")

	if err := os.WriteFile(path, []byte("{not yaml"), 0o600); err != nil {
		t.Fatal(err)
	}

	orig := userProvidersPath
	userProvidersPath = func() string { return path }
	defer func() { userProvidersPath = orig }()

	// Built-in profiles must survive a broken user file.
	if _, ok := GetProvider("cognito"); !ok {
		t.Error("GetProvider(cognito) should fall back to the embedded profile")
	}
}
