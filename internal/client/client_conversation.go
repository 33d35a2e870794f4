package client

import (
	"context"
)

// Agent types routable through the conversation endpoint.
const (
	AgentGeneral       = "general"
	AgentDocumentation = "documentation"
	AgentDiagram       = "diagram"
	AgentCode          = "code"
)

// ConversationRequest is the request body for a conversational message.
type ConversationRequest struct {
	UserID              string `json:"user_id,omitempty"`
	Content             string `json:"content"`
	AgentType           string `json:"agent_type,omitempty"`
	DiagramFormat       string `json:"diagram_format,omitempty"`
	ProgrammingLanguage string `json:"programming_language,omitempty"`
}

// ConversationResponse is the response returned by conversational and
// generation endpoints.
type ConversationResponse struct {
	UserID   string `json:"user_id"`
	Response string `json:"response"`
}

// SendMessage routes a free-form message to a backend agent. An empty
// AgentType falls back to the general agent on the server.
func (c *Client) SendMessage(ctx context.Context, msg ConversationRequest) (*ConversationResponse, error) {
	if err := validateInput("message", msg.Content, MinInputLength, MaxInputLength); err != nil {
		return nil, err
	}

	var result ConversationResponse
	if err := c.postJSON(ctx, "send message", "/conversation/", msg, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
