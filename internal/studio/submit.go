package studio

import (
	"context"

	"github.com/tryforce-dev/forge/internal/client"
	"github.com/tryforce-dev/forge/internal/selection"
)

// Result is one artifact or failure produced by a submission.
type Result struct {
	Kind string
	Body string
	Err  string
}

// Submit fans one submission out to the generation endpoints.
// Artifacts chain forward the way the backend's own content lookup
// does: stories feed diagram and code requests, and a generated
// diagram wins over stories as the code source. A failed call is
// recorded and the rest of the chain still runs.
func Submit(ctx context.Context, gen Generator, rec Recorder, userID, requirement string, kinds []selection.Kind) []Result {
	var results []Result

	record := func(r Result) {
		results = append(results, r)
		if rec == nil {
			return
		}
		if r.Err != "" {
			_ = rec.AppendError(r.Err)
			return
		}
		_ = rec.AppendResponse(r.Kind, r.Body)
	}

	var documents, diagrams, languages []selection.Kind
	for _, k := range kinds {
		switch k.Category {
		case selection.CategoryDocument:
			documents = append(documents, k)
		case selection.CategoryDiagram:
			diagrams = append(diagrams, k)
		case selection.CategoryLanguage:
			languages = append(languages, k)
		}
	}

	// With nothing selected the requirement goes to the general agent
	// as a plain conversational message.
	if len(documents)+len(diagrams)+len(languages) == 0 {
		resp, err := gen.SendMessage(ctx, client.ConversationRequest{
			UserID:    userID,
			Content:   requirement,
			AgentType: client.AgentGeneral,
		})
		if err != nil {
			record(Result{Kind: "Chat", Err: err.Error()})
			return results
		}
		record(Result{Kind: "Chat", Body: resp.Response})
		return results
	}

	stories := ""
	for _, k := range documents {
		resp, err := gen.GenerateStories(ctx, client.DocumentationRequest{
			UserID:         userID,
			Requirement:    requirement,
			DocumentFormat: k.Value,
			AgentType:      client.AgentDocumentation,
		})
		if err != nil {
			record(Result{Kind: k.Name, Err: err.Error()})
			continue
		}
		if resp.IsValid {
			stories = resp.JiraStories
		}
		record(Result{Kind: k.Name, Body: resp.JiraStories})
	}

	// The diagram endpoint refuses requests without story content, so
	// the raw requirement stands in when no document kind produced any.
	storySource := stories
	if storySource == "" {
		storySource = requirement
	}

	diagramCode := ""
	for _, k := range diagrams {
		resp, err := gen.GenerateDiagram(ctx, client.DiagramRequest{
			UserID:        userID,
			DiagramFormat: k.Value,
			JiraStories:   storySource,
			DiagramType:   defaultDiagramType,
		})
		if err != nil {
			record(Result{Kind: k.Name, Err: err.Error()})
			continue
		}
		diagramCode = resp.Response
		record(Result{Kind: k.Name, Body: resp.Response})
	}

	for _, k := range languages {
		req := client.CodeRequest{
			UserID:              userID,
			ProgrammingLanguage: k.Value,
		}
		if diagramCode != "" {
			req.DiagramCode = diagramCode
		} else {
			req.JiraStories = storySource
		}

		resp, err := gen.GenerateCode(ctx, req)
		if err != nil {
			record(Result{Kind: k.Name, Err: err.Error()})
			continue
		}
		record(Result{Kind: k.Name, Body: resp.Response})
	}

	return results
}
