package identity

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestNewManager_StartsLoading(t *testing.T) {
	m := NewManager()

	s := m.Session()
	if s.Status != StatusLoading {
		t.Errorf("Status = %v, want %v", s.Status, StatusLoading)
	}
	if s.Authenticated() {
		t.Error("loading session must not report authenticated")
	}
}

func TestSessionFor(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	key := newTestSigningKey(t)
	liveToken := mintIDToken(t, key, jwt.MapClaims{
		"sub":              "user-1",
		"cognito:username": "dev",
		"email":            "dev@example.com",
		"exp":              now.Add(time.Hour).Unix(),
	})

	tests := []struct {
		name       string
		tokens     *TokenSet
		wantStatus Status
		wantUser   string
	}{
		{
			name:       "no stored tokens",
			tokens:     nil,
			wantStatus: StatusUnauthenticated,
		},
		{
			name:       "expired tokens",
			tokens:     &TokenSet{IDToken: liveToken, ExpiresAt: now.Add(-time.Minute)},
			wantStatus: StatusUnauthenticated,
		},
		{
			name:       "live id token",
			tokens:     &TokenSet{IDToken: liveToken, ExpiresAt: now.Add(time.Hour)},
			wantStatus: StatusAuthenticated,
			wantUser:   "dev",
		},
		{
			name:       "access token only",
			tokens:     &TokenSet{AccessToken: "at-1", ExpiresAt: now.Add(time.Hour)},
			wantStatus: StatusAuthenticated,
		},
		{
			// A corrupted stored token lands on sign-in, not the
			// error screen.
			name:       "unreadable id token",
			tokens:     &TokenSet{IDToken: "garbage", ExpiresAt: now.Add(time.Hour)},
			wantStatus: StatusUnauthenticated,
		},
		{
			name:       "unreadable expired token",
			tokens:     &TokenSet{IDToken: "garbage", ExpiresAt: now.Add(-time.Minute)},
			wantStatus: StatusUnauthenticated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := sessionFor(tt.tokens, now)

			if s.Status != tt.wantStatus {
				t.Errorf("Status = %v, want %v", s.Status, tt.wantStatus)
			}
			if tt.wantUser != "" {
				if s.User == nil || s.User.Username != tt.wantUser {
					t.Errorf("User = %+v, want username %q", s.User, tt.wantUser)
				}
			}
			if tt.wantStatus == StatusError && s.ErrorMessage == "" {
				t.Error("error session must carry a message")
			}
		})
	}
}

func TestManager_Resolve_FromEnv(t *testing.T) {
	useTempStorage(t)

	key := newTestSigningKey(t)
	token := mintIDToken(t, key, jwt.MapClaims{
		"sub":              "user-1",
		"cognito:username": "dev",
		"exp":              time.Now().Add(time.Hour).Unix(),
	})
	t.Setenv(envVarName, token)

	m := NewManager()
	s := m.Resolve(time.Now())

	if s.Status != StatusAuthenticated {
		t.Fatalf("Status = %v, want %v", s.Status, StatusAuthenticated)
	}
	if s.User == nil || s.User.Username != "dev" {
		t.Errorf("User = %+v, want username dev", s.User)
	}

	// The manager's own snapshot must match what Resolve returned.
	if got := m.Session(); got.Status != s.Status {
		t.Errorf("Session().Status = %v, want %v", got.Status, s.Status)
	}
}

func TestManager_Transitions(t *testing.T) {
	m := NewManager()

	s := m.SetAuthenticated(&Profile{Username: "dev"})
	if !s.Authenticated() {
		t.Error("SetAuthenticated should yield an authenticated session")
	}

	s = m.SetError("discovery unreachable")
	if s.Status != StatusError || s.ErrorMessage != "discovery unreachable" {
		t.Errorf("SetError yielded %+v", s)
	}
	if s.User != nil {
		t.Error("error session must not carry a user")
	}

	s = m.SetUnauthenticated()
	if s.Status != StatusUnauthenticated {
		t.Errorf("Status = %v, want %v", s.Status, StatusUnauthenticated)
	}
}

func TestManager_BeginSignIn_SingleSlot(t *testing.T) {
	m := NewManager()

	if !m.BeginSignIn() {
		t.Fatal("first BeginSignIn should claim the slot")
	}
	if m.BeginSignIn() {
		t.Error("second BeginSignIn should be refused while the first flow runs")
	}

	m.EndSignIn()
	if !m.BeginSignIn() {
		t.Error("BeginSignIn should succeed again after EndSignIn")
	}
	m.EndSignIn()
}

// A refused retry reports the current session unchanged instead of
// failing closed onto the error screen.
func TestManager_RefusedSignInKeepsSession(t *testing.T) {
	m := NewManager()
	m.SetUnauthenticated()

	if !m.BeginSignIn() {
		t.Fatal("first BeginSignIn should claim the slot")
	}
	defer m.EndSignIn()

	// The retry path: refused attempts fall back to a snapshot.
	if m.BeginSignIn() {
		t.Fatal("retry should be refused while the first flow runs")
	}
	if s := m.Session(); s.Status != StatusUnauthenticated {
		t.Errorf("refused retry changed the session to %v", s.Status)
	}
}

func TestManager_SnapshotIsolation(t *testing.T) {
	m := NewManager()

	original := &Profile{Username: "dev", Email: "dev@example.com"}
	m.SetAuthenticated(original)

	// Mutating the caller's profile must not reach the stored snapshot.
	original.Username = "tampered"

	if got := m.Session().User.Username; got != "dev" {
		t.Errorf("Session().User.Username = %q, want %q", got, "dev")
	}
}

func TestManager_SignOut(t *testing.T) {
	useTempStorage(t)

	if err := StoreTokens(&TokenSet{AccessToken: "at-1", IDToken: "id-1"}); err != nil {
		t.Fatalf("StoreTokens() error = %v", err)
	}

	m := NewManager()
	m.SetAuthenticated(&Profile{Username: "dev"})

	s, err := m.SignOut()
	if err != nil {
		t.Errorf("SignOut() error = %v", err)
	}
	if s.Status != StatusUnauthenticated {
		t.Errorf("Status = %v, want %v", s.Status, StatusUnauthenticated)
	}

	if _, tokens := GetTokens(); tokens != nil {
		t.Error("tokens still present after sign-out")
	}
}

func TestManager_SignOut_NothingStored(t *testing.T) {
	useTempStorage(t)

	m := NewManager()
	m.SetAuthenticated(&Profile{Username: "dev"})

	s, err := m.SignOut()
	if err == nil {
		t.Error("SignOut() should report the delete failure")
	}
	// Fail-closed: the session tears down regardless.
	if s.Status != StatusUnauthenticated {
		t.Errorf("Status = %v, want %v", s.Status, StatusUnauthenticated)
	}
}
