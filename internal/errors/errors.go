// Package errors provides structured CLI error types for Forge.
//
// CLIError wraps errors with user-facing messages, hints, and exit codes
// to provide consistent, actionable error output across all commands.
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Exit codes for CLI errors.
const (
	ExitSuccess    = 0  // Successful execution
	ExitGeneral    = 1  // General error
	ExitAuth       = 2  // Authentication error
	ExitNetwork    = 3  // Network/API error
	ExitConfig     = 4  // Configuration error
	ExitTimeout    = 5  // Operation timeout
	ExitGeneration = 6  // Generation request failure
	ExitUsage      = 64 // Command line usage error (BSD convention)
)

// CLIError represents a user-facing CLI error with actionable guidance.
type CLIError struct {
	// Message is the primary error message shown to the user.
	Message string

	// Hint provides actionable guidance on how to fix the error.
	Hint string

	// Cause is the underlying error, if any.
	Cause error

	// Code is the exit code for the CLI.
	Code int
}

// Error implements the error interface.
func (e *CLIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}

	return e.Message
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *CLIError) Unwrap() error {
	return e.Cause
}

// New creates a new CLIError with the given message and exit code.
func New(code int, message string) *CLIError {
	return &CLIError{
		Message: message,
		Code:    code,
	}
}

// Wrap wraps an existing error with a CLIError.
func Wrap(code int, message string, cause error) *CLIError {
	return &CLIError{
		Message: message,
		Cause:   cause,
		Code:    code,
	}
}

// WithHint adds a hint to the error.
func (e *CLIError) WithHint(hint string) *CLIError {
	e.Hint = hint
	return e
}

// As is a convenience function for errors.As with CLIError.
func As(err error, target **CLIError) bool {
	return errors.As(err, target)
}

// --- Common error constructors ---

// NotAuthenticated returns an error indicating missing credentials.
func NotAuthenticated() *CLIError {
	return &CLIError{
		Message: "Not signed in",
		Hint:    "Run 'forge auth login' to sign in",
		Code:    ExitAuth,
	}
}

// AuthFailed returns an error for a failed sign-in flow.
func AuthFailed(cause error) *CLIError {
	return &CLIError{
		Message: "Sign-in failed",
		Hint:    "Check the identity provider settings or run 'forge doctor'",
		Cause:   cause,
		Code:    ExitAuth,
	}
}

// CredentialsInvalid returns an error for invalid stored credentials.
func CredentialsInvalid(cause error) *CLIError {
	return &CLIError{
		Message: "Stored credentials are invalid",
		Hint:    "Run 'forge auth login' to sign in again",
		Cause:   cause,
		Code:    ExitAuth,
	}
}

// SessionExpired returns an error for an expired token set with no refresh path.
func SessionExpired() *CLIError {
	return &CLIError{
		Message: "Session expired",
		Hint:    "Run 'forge auth login' to sign in again",
		Code:    ExitAuth,
	}
}

// CannotPrompt returns an error when interactive prompts are unavailable.
func CannotPrompt(envVar string) *CLIError {
	return &CLIError{
		Message: "Cannot prompt in non-interactive mode",
		Hint:    fmt.Sprintf("Set %s environment variable instead", envVar),
		Code:    ExitUsage,
	}
}

// ProviderNotFound returns an error for an unknown identity provider profile.
func ProviderNotFound(name string, known []string) *CLIError {
	hint := "No identity providers registered"
	if len(known) > 0 {
		hint = fmt.Sprintf("Known providers: %s", strings.Join(known, ", "))
	}

	return &CLIError{
		Message: fmt.Sprintf("Identity provider not found: %s", name),
		Hint:    hint,
		Code:    ExitConfig,
	}
}

// DiscoveryFailed returns an error when OIDC discovery cannot be completed.
func DiscoveryFailed(authority string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Cannot reach identity provider: %s", authority),
		Hint:    "Check your network connection and the auth.authority setting",
		Cause:   cause,
		Code:    ExitNetwork,
	}
}

// SignInTimedOut returns an error when the browser flow never completes.
func SignInTimedOut(timeout string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Sign-in timed out after %s", timeout),
		Hint:    "Complete the sign-in in your browser, or rerun with --no-browser and open the URL manually",
		Code:    ExitTimeout,
	}
}

// CallbackFailed returns an error when the redirect callback is rejected.
func CallbackFailed(cause error) *CLIError {
	return &CLIError{
		Message: "Sign-in callback rejected",
		Hint:    "The redirect did not match the pending sign-in attempt. Try again",
		Cause:   cause,
		Code:    ExitAuth,
	}
}

// ConfigFailed returns an error for configuration save failures.
func ConfigFailed(operation string, cause error) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Failed to %s", operation),
		Hint:    "Check file permissions for your Forge config directory or run 'forge doctor'",
		Cause:   cause,
		Code:    ExitConfig,
	}
}

// BackendUnavailable returns an error when the generation backend is unreachable.
func BackendUnavailable(cause error) *CLIError {
	return &CLIError{
		Message: "Generation backend unreachable",
		Hint:    "Check your network connection and the api.url setting",
		Cause:   cause,
		Code:    ExitNetwork,
	}
}

// RequirementTooShort returns an error for requirement text under the backend minimum.
func RequirementTooShort(minimum int) *CLIError {
	return &CLIError{
		Message: "Requirement text is too short",
		Hint:    fmt.Sprintf("Provide at least %d characters", minimum),
		Code:    ExitUsage,
	}
}

// RequirementTooLong returns an error for requirement text over the backend maximum.
func RequirementTooLong(maximum int) *CLIError {
	return &CLIError{
		Message: "Requirement text is too long",
		Hint:    fmt.Sprintf("Keep it under %d characters", maximum),
		Code:    ExitUsage,
	}
}

// PresetNotFound returns an error for an unknown preset name.
func PresetNotFound(name string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Preset not found: %s", name),
		Hint:    "Run 'forge preset list' to see available presets",
		Code:    ExitConfig,
	}
}

// UnknownArtifactType returns an error for an unsupported artifact type flag.
func UnknownArtifactType(name string, supported []string) *CLIError {
	hint := "No artifact types registered"
	if len(supported) > 0 {
		hint = fmt.Sprintf("Supported types: %s", strings.Join(supported, ", "))
	}

	return &CLIError{
		Message: fmt.Sprintf("Unknown artifact type: %s", name),
		Hint:    hint,
		Code:    ExitUsage,
	}
}

// SessionNotFound returns an error for an unknown history session.
func SessionNotFound(sessionID string) *CLIError {
	return &CLIError{
		Message: fmt.Sprintf("Session not found: %s", sessionID),
		Hint:    "Run 'forge history list' to see recorded sessions",
		Code:    ExitGeneral,
	}
}

// GenerationFailed returns an error for backend generation failures.
// It detects common error patterns and provides specific hints.
func GenerationFailed(statusCode int, body string) *CLIError {
	msg := "Generation request failed"
	hint := ""

	// Detect common error patterns
	switch {
	case statusCode == 429 || containsAny(body, "rate limit", "rate_limit"):
		msg = "Generation backend rate limit exceeded"
		hint = "Wait a moment and try again"
	case statusCode == 401 || statusCode == 403 || containsAny(body, "unauthorized", "token expired"):
		msg = "Generation backend rejected the credentials"
		hint = "Run 'forge auth login' to sign in again"
	case statusCode == 422 || containsAny(body, "validation", "too short", "too long"):
		msg = "Generation backend rejected the request"
		hint = "Check the requirement text length and selected artifact types"
	case statusCode == 503 || containsAny(body, "overloaded", "service unavailable"):
		msg = "Generation backend is temporarily overloaded"
		hint = "Wait a moment and try again"
	case containsAny(body, "connection", "network", "timeout"):
		msg = "Network error reaching the generation backend"
		hint = "Check your network connection"
	default:
		if body != "" {
			// Truncate long error messages
			if len(body) > 200 {
				body = body[:200] + "..."
			}

			hint = body
		}
	}

	return &CLIError{
		Message: msg,
		Hint:    hint,
		Code:    ExitGeneration,
	}
}

// containsAny checks if s contains any of the substrings.
func containsAny(s string, substrings ...string) bool {
	lower := strings.ToLower(s)
	for _, sub := range substrings {
		if strings.Contains(lower, strings.ToLower(sub)) {
			return true
		}
	}

	return false
}
