// Package client provides the API client for communicating with the TryForce
// generation backend.
//
// The client attaches the caller's bearer token to every request and provides
// methods for:
//   - Routing conversational messages to a backend agent
//   - Generating and revising Jira-style stories
//   - Generating and revising diagrams and source code
//   - Refining raw requirement documents
//   - Checking token validity and service health
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/tryforce-dev/forge/internal/buildinfo"
)

const (
	// DefaultBaseURL is the default API endpoint.
	DefaultBaseURL = "http://localhost:8000"
	// DefaultTimeout is the default HTTP request timeout. Generation
	// endpoints block on model inference, so this is deliberately long.
	DefaultTimeout = 120 * time.Second

	// MinInputLength and MaxInputLength bound conversation content and
	// story requirements, matching the backend's validation.
	MinInputLength = 10
	MaxInputLength = 5000

	// MinDocumentLength and MaxDocumentLength bound raw requirement
	// documents submitted for refinement.
	MinDocumentLength = 10
	MaxDocumentLength = 10000
)

// ErrUnauthorized is returned when the backend rejects the bearer token.
var ErrUnauthorized = errors.New("invalid or expired credentials")

// TokenProvider supplies the bearer token for outgoing requests. It is
// consulted per request so a refreshed token is picked up without rebuilding
// the client.
type TokenProvider func() string

// Client is the TryForce API client.
type Client struct {
	baseURL    string
	token      TokenProvider
	httpClient *http.Client
}

// New creates a new API client. token may be nil for unauthenticated
// endpoints such as Health.
func New(token TokenProvider) *Client {
	if token == nil {
		token = func() string { return "" }
	}

	return &Client{
		baseURL: DefaultBaseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout:   DefaultTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// WithBaseURL sets a custom base URL.
func (c *Client) WithBaseURL(url string) *Client {
	c.baseURL = url
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// HealthStatus is the response from the service health endpoint.
type HealthStatus struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}

// Health reports backend liveness. It requires no authentication.
func (c *Client) Health(ctx context.Context) (*HealthStatus, error) {
	var status HealthStatus
	if err := c.getJSON(ctx, "health check", "/health", &status); err != nil {
		return nil, err
	}

	return &status, nil
}

// postJSON sends body as JSON to path and decodes the response into out.
func (c *Client) postJSON(ctx context.Context, operation, path string, body, out any) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.newRequest(ctx, "POST", c.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return err
	}

	return c.decodeResponse(req, operation, out)
}

// getJSON fetches path and decodes the response into out.
func (c *Client) getJSON(ctx context.Context, operation, path string, out any) error {
	req, err := c.newRequest(ctx, "GET", c.baseURL+path, http.NoBody)
	if err != nil {
		return err
	}

	return c.decodeResponse(req, operation, out)
}

func (c *Client) decodeResponse(req *http.Request, operation string, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", operation, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return fmt.Errorf("%s: %w", operation, ErrUnauthorized)
	}

	if resp.StatusCode != http.StatusOK {
		return unexpectedStatus(operation, resp.StatusCode, resp.Body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.setRequestHeaders(req)

	return req, nil
}

func (c *Client) setRequestHeaders(req *http.Request) {
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", buildinfo.UserAgent())
}

// unexpectedStatus creates a formatted error from an unexpected HTTP status code.
func unexpectedStatus(operation string, statusCode int, body io.Reader) error {
	respBody, readErr := io.ReadAll(body)
	if readErr != nil {
		return fmt.Errorf("%s failed with status %d (failed to read body: %v)", operation, statusCode, readErr)
	}

	return fmt.Errorf("%s failed with status %d: %s", operation, statusCode, string(respBody))
}

// validateInput mirrors the backend's length bounds. The minimum applies to
// the trimmed value, the maximum to the raw value, matching the server.
func validateInput(field, value string, minLen, maxLen int) error {
	if len(strings.TrimSpace(value)) < minLen {
		return fmt.Errorf("%s must be at least %d characters", field, minLen)
	}

	if len(value) > maxLen {
		return fmt.Errorf("%s must be at most %d characters", field, maxLen)
	}

	return nil
}
