package studio

import (
	"context"
	"errors"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/tryforce-dev/forge/internal/client"
	"github.com/tryforce-dev/forge/internal/identity"
	"github.com/tryforce-dev/forge/internal/preset"
)

// stubGenerator returns canned artifacts and records every request it
// receives, in order.
type stubGenerator struct {
	mu       sync.Mutex
	messages []client.ConversationRequest
	stories  []client.DocumentationRequest
	diagrams []client.DiagramRequest
	code     []client.CodeRequest

	failMessage bool
	failStories bool
	failDiagram bool
	failCode    bool

	invalidStories bool
}

const (
	stubStoriesBody = "Story 1: As a user, I can sign in."
	stubDiagramBody = "graph TD; A-->B"
	stubCodeBody    = "def main():\n    pass"
	stubChatBody    = "Here is what I can do."
)

func (g *stubGenerator) SendMessage(_ context.Context, msg client.ConversationRequest) (*client.ConversationResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.messages = append(g.messages, msg)
	if g.failMessage {
		return nil, errors.New("conversation backend unavailable")
	}
	return &client.ConversationResponse{Response: stubChatBody}, nil
}

func (g *stubGenerator) GenerateStories(_ context.Context, req client.DocumentationRequest) (*client.StoriesResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.stories = append(g.stories, req)
	if g.failStories {
		return nil, errors.New("documentation backend unavailable")
	}
	return &client.StoriesResponse{JiraStories: stubStoriesBody, IsValid: !g.invalidStories}, nil
}

func (g *stubGenerator) GenerateDiagram(_ context.Context, req client.DiagramRequest) (*client.ConversationResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.diagrams = append(g.diagrams, req)
	if g.failDiagram {
		return nil, errors.New("diagram backend unavailable")
	}
	return &client.ConversationResponse{Response: stubDiagramBody}, nil
}

func (g *stubGenerator) GenerateCode(_ context.Context, req client.CodeRequest) (*client.ConversationResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.code = append(g.code, req)
	if g.failCode {
		return nil, errors.New("code backend unavailable")
	}
	return &client.ConversationResponse{Response: stubCodeBody}, nil
}

// stubRecorder captures history appends.
type stubRecorder struct {
	submits   int
	responses []string
	errors    []string
}

func (r *stubRecorder) AppendSubmit(string, []string) error {
	r.submits++
	return nil
}

func (r *stubRecorder) AppendResponse(kind, _ string) error {
	r.responses = append(r.responses, kind)
	return nil
}

func (r *stubRecorder) AppendError(message string) error {
	r.errors = append(r.errors, message)
	return nil
}

// countingSignIn builds a SignInFunc that counts invocations and
// reports the given session.
func countingSignIn(calls *int, s identity.Session) SignInFunc {
	return func(context.Context) identity.Session {
		*calls++
		return s
	}
}

type testModelOption func(*Options)

func withRoute(route string) testModelOption {
	return func(o *Options) { o.Route = route }
}

func withSignIn(f SignInFunc) testModelOption {
	return func(o *Options) { o.SignIn = f }
}

func withGenerator(g Generator) testModelOption {
	return func(o *Options) { o.Generator = g }
}

func withRecorder(r Recorder) testModelOption {
	return func(o *Options) { o.Recorder = r }
}

func withPreset(p *preset.Preset) testModelOption {
	return func(o *Options) { o.Preset = p }
}

func newTestModel(t *testing.T, mgr *identity.Manager, opts ...testModelOption) Model {
	t.Helper()

	o := Options{
		Manager: mgr,
		SignIn: func(context.Context) identity.Session {
			return mgr.Session()
		},
		Generator: &stubGenerator{},
		Version:   "v0.0.0-test",
	}
	for _, opt := range opts {
		opt(&o)
	}

	m, err := New(o)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return m
}

// apply drives one message through the root model.
func apply(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()

	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T, want Model", next)
	}
	return model, cmd
}

// collect executes a command synchronously and flattens any batches
// into the messages they produce. Only safe for commands that do not
// block; timer messages are synthesized in the tests instead.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func keyRunes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func newTestWorkspace(t *testing.T, mutate ...func(*workspaceConfig)) workspaceModel {
	t.Helper()

	cfg := workspaceConfig{
		styles: DefaultStyles(),
		gen:    &stubGenerator{},
	}
	for _, f := range mutate {
		f(&cfg)
	}

	w := newWorkspaceModel(cfg)
	w.setSize(100, 40)
	return w
}
