package client

import (
	"context"
	"fmt"
	"strings"
)

// CodeRequest is the request body for generating source code. DiagramCode
// and JiraStories are both optional; the server works from whichever is
// present, falling back to the session's conversation memory.
type CodeRequest struct {
	UserID              string `json:"user_id,omitempty"`
	ProgrammingLanguage string `json:"programming_language,omitempty"`
	DiagramCode         string `json:"diagram_code,omitempty"`
	JiraStories         string `json:"jira_stories,omitempty"`
}

// ModifyCodeRequest is the request body for revising generated code.
type ModifyCodeRequest struct {
	UserID             string `json:"user_id,omitempty"`
	ModificationPrompt string `json:"modification_prompt"`
	OriginalCode       string `json:"original_code,omitempty"`
}

// GenerateCode produces source code in the requested language. An empty
// ProgrammingLanguage falls back to Python on the server.
func (c *Client) GenerateCode(ctx context.Context, req CodeRequest) (*ConversationResponse, error) {
	var result ConversationResponse
	if err := c.postJSON(ctx, "generate code", "/code/generate", req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ModifyCode revises previously generated code.
func (c *Client) ModifyCode(ctx context.Context, req ModifyCodeRequest) (*ConversationResponse, error) {
	if strings.TrimSpace(req.ModificationPrompt) == "" {
		return nil, fmt.Errorf("modification prompt is required")
	}

	var result ConversationResponse
	if err := c.postJSON(ctx, "modify code", "/code/modify", req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
