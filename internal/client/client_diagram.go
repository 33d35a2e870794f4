package client

import (
	"context"
	"fmt"
	"strings"
)

// DiagramRequest is the request body for generating a diagram. DiagramType
// is required (for example "flowchart", "sequence" or "class"); JiraStories
// may be empty, in which case the server falls back to the stories held in
// the session's conversation memory.
type DiagramRequest struct {
	UserID        string `json:"user_id,omitempty"`
	DiagramFormat string `json:"diagram_format,omitempty"`
	JiraStories   string `json:"jira_stories,omitempty"`
	DiagramType   string `json:"diagram_type"`
}

// ModifyDiagramRequest is the request body for revising a generated diagram.
type ModifyDiagramRequest struct {
	UserID              string `json:"user_id,omitempty"`
	ModificationPrompt  string `json:"modification_prompt"`
	OriginalDiagramCode string `json:"original_diagram_code,omitempty"`
}

// GenerateDiagram renders stories into diagram code in the requested
// notation. An empty DiagramFormat falls back to Mermaid on the server.
func (c *Client) GenerateDiagram(ctx context.Context, req DiagramRequest) (*ConversationResponse, error) {
	if strings.TrimSpace(req.DiagramType) == "" {
		return nil, fmt.Errorf("diagram type is required")
	}

	var result ConversationResponse
	if err := c.postJSON(ctx, "generate diagram", "/diagram/generate", req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// ModifyDiagram revises previously generated diagram code.
func (c *Client) ModifyDiagram(ctx context.Context, req ModifyDiagramRequest) (*ConversationResponse, error) {
	if strings.TrimSpace(req.ModificationPrompt) == "" {
		return nil, fmt.Errorf("modification prompt is required")
	}

	var result ConversationResponse
	if err := c.postJSON(ctx, "modify diagram", "/diagram/modify", req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
