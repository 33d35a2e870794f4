package client

import (
	"context"
	"fmt"
	"strings"
)

// DocumentationRequest is the request body for generating stories from a
// requirement.
type DocumentationRequest struct {
	UserID         string `json:"user_id,omitempty"`
	Requirement    string `json:"requirement"`
	DocumentFormat string `json:"document_format,omitempty"`
	AgentType      string `json:"agent_type,omitempty"`
}

// ModifyStoriesRequest is the request body for revising generated stories.
// OriginalStories may be empty, in which case the server falls back to the
// stories held in the session's conversation memory.
type ModifyStoriesRequest struct {
	UserID             string `json:"user_id,omitempty"`
	ModificationPrompt string `json:"modification_prompt"`
	OriginalStories    string `json:"original_stories,omitempty"`
}

// StoriesResponse is the response from the documentation endpoints. IsValid
// reports whether the requirement passed the server's validation pass.
type StoriesResponse struct {
	UserID      string `json:"user_id"`
	JiraStories string `json:"jira_stories"`
	IsValid     bool   `json:"is_valid"`
}

// GenerateStories turns a requirement into structured stories.
func (c *Client) GenerateStories(ctx context.Context, req DocumentationRequest) (*StoriesResponse, error) {
	if err := validateInput("requirement", req.Requirement, MinInputLength, MaxInputLength); err != nil {
		return nil, err
	}

	var result StoriesResponse
	if err := c.postJSON(ctx, "generate stories", "/documentation/generate", req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ModifyStories revises previously generated stories.
func (c *Client) ModifyStories(ctx context.Context, req ModifyStoriesRequest) (*StoriesResponse, error) {
	if strings.TrimSpace(req.ModificationPrompt) == "" {
		return nil, fmt.Errorf("modification prompt is required")
	}

	var result StoriesResponse
	if err := c.postJSON(ctx, "modify stories", "/documentation/modify", req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
