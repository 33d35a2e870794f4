package client

import (
	"context"
)

// UserInfo is the backend's view of the authenticated user.
type UserInfo struct {
	UserID        string   `json:"user_id"`
	Email         string   `json:"email"`
	Username      string   `json:"username"`
	Groups        []string `json:"groups"`
	Authenticated bool     `json:"authenticated"`
}

// TokenStatus reports whether the presented token is valid. Exp is the
// token's expiry as a Unix timestamp.
type TokenStatus struct {
	Valid  bool   `json:"valid"`
	UserID string `json:"user_id"`
	Exp    int64  `json:"exp"`
}

// AuthStatus reports auth service health plus the caller's auth state.
type AuthStatus struct {
	Status        string `json:"status"`
	Authenticated bool   `json:"authenticated"`
	UserID        string `json:"user_id"`
}

// Me returns the user profile the backend extracts from the bearer token.
// A rejected token surfaces as ErrUnauthorized.
func (c *Client) Me(ctx context.Context) (*UserInfo, error) {
	var info UserInfo
	if err := c.getJSON(ctx, "get user info", "/auth/me", &info); err != nil {
		return nil, err
	}

	return &info, nil
}

// VerifyToken asks the backend to validate the bearer token.
func (c *Client) VerifyToken(ctx context.Context) (*TokenStatus, error) {
	var status TokenStatus
	if err := c.getJSON(ctx, "verify token", "/auth/verify", &status); err != nil {
		return nil, err
	}

	return &status, nil
}

// AuthHealth checks the auth service. It succeeds with Authenticated false
// when no usable token is presented.
func (c *Client) AuthHealth(ctx context.Context) (*AuthStatus, error) {
	var status AuthStatus
	if err := c.getJSON(ctx, "auth health check", "/auth/health", &status); err != nil {
		return nil, err
	}

	return &status, nil
}
