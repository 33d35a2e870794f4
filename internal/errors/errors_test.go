package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/tryforce-dev/forge/internal/testutil"
)

func TestGenerationFailed(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantMsg    string
		wantHint   string
	}{
		{
			name:       "rate limit",
			statusCode: 429,
			body:       "rate limit exceeded",
			wantMsg:    "rate limit",
			wantHint:   "Wait a moment",
		},
		{
			name:       "credentials rejected",
			statusCode: 401,
			body:       "unauthorized",
			wantMsg:    "rejected the credentials",
			wantHint:   "forge auth login",
		},
		{
			name:       "validation",
			statusCode: 422,
			body:       "Document is too short or empty",
			wantMsg:    "rejected the request",
			wantHint:   "requirement text length",
		},
		{
			name:       "overloaded",
			statusCode: 503,
			body:       "service unavailable",
			wantMsg:    "overloaded",
			wantHint:   "Wait a moment",
		},
		{
			name:       "network",
			statusCode: 0,
			body:       "connection refused",
			wantMsg:    "Network error",
			wantHint:   "network connection",
		},
		{
			name:       "generic error",
			statusCode: 500,
			body:       "Some unknown error occurred",
			wantMsg:    "failed",
			wantHint:   "Some unknown error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := GenerationFailed(tt.statusCode, tt.body)

			if !strings.Contains(strings.ToLower(err.Message), strings.ToLower(tt.wantMsg)) {
				t.Errorf("message = %q, want to contain %q", err.Message, tt.wantMsg)
			}

			if !strings.Contains(err.Hint, tt.wantHint) {
				t.Errorf("hint = %q, want to contain %q", err.Hint, tt.wantHint)
			}

			if err.Code != ExitGeneration {
				t.Errorf("code = %d, want %d", err.Code, ExitGeneration)
			}
		})
	}
}

func TestGenerationFailed_TruncatesLongBody(t *testing.T) {
	body := strings.Repeat("x", 500)
	err := GenerationFailed(500, body)

	if len(err.Hint) > 210 {
		t.Errorf("hint length = %d, want truncated to ~200", len(err.Hint))
	}

	if !strings.HasSuffix(err.Hint, "...") {
		t.Errorf("hint = %q, want truncation ellipsis", err.Hint)
	}
}

func TestSignInTimedOut(t *testing.T) {
	err := SignInTimedOut("3m0s")

	if !strings.Contains(err.Message, "3m0s") {
		t.Errorf("message = %q, want to contain timeout", err.Message)
	}

	if err.Code != ExitTimeout {
		t.Errorf("code = %d, want %d", err.Code, ExitTimeout)
	}
}

func TestContainsAny(t *testing.T) {
	tests := []struct {
		s          string
		substrings []string
		want       bool
	}{
		{"rate limit exceeded", []string{"rate limit"}, true},
		{"RATE LIMIT exceeded", []string{"rate limit"}, true},
		{"some error", []string{"rate limit", "auth"}, false},
		{"authentication failed", []string{"rate limit", "auth"}, true},
		{"", []string{"test"}, false},
	}

	for _, tt := range tests {
		result := containsAny(tt.s, tt.substrings...)
		if result != tt.want {
			t.Errorf("containsAny(%q, %v) = %v, want %v", tt.s, tt.substrings, result, tt.want)
		}
	}
}

// TestAllErrorsHaveHints verifies that all error constructors provide actionable hints.
func TestAllErrorsHaveHints(t *testing.T) {
	tests := []struct {
		name string
		err  *CLIError
	}{
		{"NotAuthenticated", NotAuthenticated()},
		{"AuthFailed", AuthFailed(nil)},
		{"CredentialsInvalid", CredentialsInvalid(nil)},
		{"SessionExpired", SessionExpired()},
		{"CannotPrompt", CannotPrompt("TEST_VAR")},
		{"ProviderNotFound", ProviderNotFound("test", []string{"cognito"})},
		{"DiscoveryFailed", DiscoveryFailed("https://auth.example.com", nil)},
		{"SignInTimedOut", SignInTimedOut("3m0s")},
		{"CallbackFailed", CallbackFailed(nil)},
		{"ConfigFailed", ConfigFailed("test operation", nil)},
		{"BackendUnavailable", BackendUnavailable(nil)},
		{"RequirementTooShort", RequirementTooShort(10)},
		{"RequirementTooLong", RequirementTooLong(5000)},
		{"PresetNotFound", PresetNotFound("test")},
		{"UnknownArtifactType", UnknownArtifactType("cobol", []string{"uml"})},
		{"SessionNotFound", SessionNotFound("sess-123")},
		{"GenerationFailed", GenerationFailed(500, "error message")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Hint == "" {
				t.Errorf("%s() should have a hint, got empty string", tt.name)
			}

			if tt.err.Message == "" {
				t.Errorf("%s() should have a message, got empty string", tt.name)
			}
		})
	}
}

func TestCLIError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *CLIError
		want string
	}{
		{
			name: "message only",
			err:  &CLIError{Message: "test error"},
			want: "test error",
		},
		{
			name: "message with cause",
			err:  &CLIError{Message: "test error", Cause: New(1, "underlying")},
			want: "test error: underlying",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCLIError_Unwrap(t *testing.T) {
	cause := New(1, "cause")
	err := &CLIError{Message: "wrapper", Cause: cause}

	if got := err.Unwrap(); got != cause { //nolint:errorlint // testing identity
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}
}

func TestWithHint(t *testing.T) {
	err := New(1, "test").WithHint("do this")

	if err.Hint != "do this" {
		t.Errorf("WithHint() hint = %q, want %q", err.Hint, "do this")
	}
}

func TestWrap(t *testing.T) {
	cause := New(1, "cause")
	err := Wrap(ExitNetwork, "wrapped", cause)

	if err.Code != ExitNetwork {
		t.Errorf("Wrap() code = %d, want %d", err.Code, ExitNetwork)
	}

	if err.Cause != cause { //nolint:errorlint // testing struct field identity
		t.Errorf("Wrap() cause = %v, want %v", err.Cause, cause)
	}
}

// formatCLIError produces a deterministic string representation of a CLIError for golden file comparison.
func formatCLIError(err *CLIError) string {
	return fmt.Sprintf("Message: %s\nHint: %s\nCode: %d\n", err.Message, err.Hint, err.Code)
}

func TestErrorMessages_Golden(t *testing.T) {
	tests := []struct {
		name string
		err  *CLIError
	}{
		{"NotAuthenticated", NotAuthenticated()},
		{"AuthFailed", AuthFailed(nil)},
		{"CredentialsInvalid", CredentialsInvalid(nil)},
		{"SessionExpired", SessionExpired()},
		{"CannotPrompt", CannotPrompt("FORGE_ID_TOKEN")},
		{"ProviderNotFound", ProviderNotFound("okta", []string{"cognito"})},
		{"DiscoveryFailed", DiscoveryFailed("https://auth.example.com", nil)},
		{"SignInTimedOut", SignInTimedOut("3m0s")},
		{"CallbackFailed", CallbackFailed(nil)},
		{"ConfigFailed", ConfigFailed("store credentials", nil)},
		{"BackendUnavailable", BackendUnavailable(nil)},
		{"RequirementTooShort", RequirementTooShort(10)},
		{"RequirementTooLong", RequirementTooLong(5000)},
		{"PresetNotFound", PresetNotFound("diagrams-only")},
		{"UnknownArtifactType", UnknownArtifactType("cobol", []string{"uml", "python"})},
		{"SessionNotFound", SessionNotFound("sess-abc-123")},
		{"GenerationFailed_RateLimit", GenerationFailed(429, "rate limit exceeded")},
		{"GenerationFailed_Auth", GenerationFailed(401, "unauthorized")},
		{"GenerationFailed_Generic", GenerationFailed(500, "something broke")},
	}

	var sb strings.Builder
	for _, tt := range tests {
		fmt.Fprintf(&sb, "--- %s ---\n", tt.name)
		sb.WriteString(formatCLIError(tt.err))
		sb.WriteString("\n")
	}

	testutil.AssertGolden(t, sb.String(), "error_messages.golden")
}
