package client

import (
	"context"
	"fmt"
	"strings"
)

// JiraValidateRequest checks Jira Cloud credentials and, when ProjectKey
// is set, access to that project.
type JiraValidateRequest struct {
	UserID     string `json:"user_id,omitempty"`
	Email      string `json:"email"`
	APIToken   string `json:"api_token"`
	Domain     string `json:"domain"`
	ProjectKey string `json:"project_key,omitempty"`
}

// JiraValidationResponse reports whether the credentials work.
// ProjectValidated is nil when no project key was supplied.
type JiraValidationResponse struct {
	UserID           string `json:"user_id"`
	IsValid          bool   `json:"is_valid"`
	Message          string `json:"message"`
	ProjectValidated *bool  `json:"project_validated,omitempty"`
}

// JiraUploadRequest publishes generated stories to a Jira Cloud project.
// StoriesMarkdown may be empty, in which case the server falls back to
// the stories held in the session's conversation memory.
type JiraUploadRequest struct {
	UserID          string `json:"user_id,omitempty"`
	Email           string `json:"email"`
	APIToken        string `json:"api_token"`
	Domain          string `json:"domain"`
	ProjectKey      string `json:"project_key"`
	StoriesMarkdown string `json:"stories_markdown,omitempty"`
}

// JiraIssueRef identifies one created or failed issue in an upload.
type JiraIssueRef struct {
	Key   string `json:"key,omitempty"`
	Title string `json:"title,omitempty"`
	URL   string `json:"url,omitempty"`
	Error string `json:"error,omitempty"`
}

// JiraUploadResponse is the per-story outcome of an upload.
type JiraUploadResponse struct {
	UserID            string         `json:"user_id"`
	Success           bool           `json:"success"`
	Message           string         `json:"message"`
	CreatedIssues     []JiraIssueRef `json:"created_issues"`
	FailedIssues      []JiraIssueRef `json:"failed_issues"`
	TotalStories      int            `json:"total_stories"`
	SuccessfulUploads int            `json:"successful_uploads"`
}

// ValidateJira checks the given Jira credentials against the backend.
func (c *Client) ValidateJira(ctx context.Context, req JiraValidateRequest) (*JiraValidationResponse, error) {
	if err := validateJiraCredentials(req.Email, req.APIToken, req.Domain); err != nil {
		return nil, err
	}

	var result JiraValidationResponse
	if err := c.postJSON(ctx, "validate jira connection", "/jira/validate", req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// UploadStoriesToJira publishes stories to the given Jira project.
func (c *Client) UploadStoriesToJira(ctx context.Context, req JiraUploadRequest) (*JiraUploadResponse, error) {
	if err := validateJiraCredentials(req.Email, req.APIToken, req.Domain); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.ProjectKey) == "" {
		return nil, fmt.Errorf("jira project key is required")
	}

	var result JiraUploadResponse
	if err := c.postJSON(ctx, "upload stories to jira", "/jira/upload", req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

func validateJiraCredentials(email, apiToken, domain string) error {
	switch {
	case strings.TrimSpace(email) == "":
		return fmt.Errorf("jira email is required")
	case strings.TrimSpace(apiToken) == "":
		return fmt.Errorf("jira api token is required")
	case strings.TrimSpace(domain) == "":
		return fmt.Errorf("jira domain is required")
	default:
		return nil
	}
}
