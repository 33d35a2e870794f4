package client

import (
	"context"
)

// RefinementRequest is the request body for refining or analyzing a raw
// requirement document.
type RefinementRequest struct {
	UserID                    string `json:"user_id,omitempty"`
	RawDocument               string `json:"raw_document"`
	OutputFormat              string `json:"output_format,omitempty"`
	TargetAudience            string `json:"target_audience,omitempty"`
	IncludeAcceptanceCriteria bool   `json:"include_acceptance_criteria"`
}

// RefinementResponse is the response from the requirements endpoints.
type RefinementResponse struct {
	UserID              string `json:"user_id"`
	RefinedRequirements string `json:"refined_requirements"`
}

// RefineRequirements rewrites a raw document into structured requirements.
func (c *Client) RefineRequirements(ctx context.Context, req RefinementRequest) (*RefinementResponse, error) {
	if err := validateInput("document", req.RawDocument, MinDocumentLength, MaxDocumentLength); err != nil {
		return nil, err
	}

	var result RefinementResponse
	if err := c.postJSON(ctx, "refine requirements", "/requirements/refine", req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}

// AnalyzeRequirements extracts key requirements from a raw document without
// a full rewrite. Unlike RefineRequirements the server applies no length
// bounds here, so none are mirrored.
func (c *Client) AnalyzeRequirements(ctx context.Context, req RefinementRequest) (*RefinementResponse, error) {
	var result RefinementResponse
	if err := c.postJSON(ctx, "analyze requirements", "/requirements/analyze", req, &result); err != nil {
		return nil, err
	}

	return &result, nil
}
