// Package studio is the interactive TryForce client. A route guard
// keyed off the auth session decides between the landing view, which
// runs the provider sign-in flow, and the workspace, where output
// kinds are toggled and requirements are submitted for generation.
package studio

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tryforce-dev/forge/internal/client"
	"github.com/tryforce-dev/forge/internal/identity"
	"github.com/tryforce-dev/forge/internal/preset"
)

// Generator is the slice of the backend client the workspace submits
// through.
type Generator interface {
	SendMessage(ctx context.Context, msg client.ConversationRequest) (*client.ConversationResponse, error)
	GenerateStories(ctx context.Context, req client.DocumentationRequest) (*client.StoriesResponse, error)
	GenerateDiagram(ctx context.Context, req client.DiagramRequest) (*client.ConversationResponse, error)
	GenerateCode(ctx context.Context, req client.CodeRequest) (*client.ConversationResponse, error)
}

// Recorder appends studio events to the session history stream.
type Recorder interface {
	AppendSubmit(requirement string, kinds []string) error
	AppendResponse(kind, artifact string) error
	AppendError(message string) error
}

// SignInFunc runs the provider sign-in flow and returns the session
// snapshot it ended in. The flow reports completion only through that
// snapshot. Implementations must tolerate being invoked again after a
// safety reset while an earlier flow is still pending.
type SignInFunc func(ctx context.Context) identity.Session

// Options configure a studio program.
type Options struct {
	Manager   *identity.Manager
	SignIn    SignInFunc
	Generator Generator

	// Recorder is optional; without one the session is not recorded.
	Recorder Recorder

	// Route is the initial route. Unknown paths land on "/" and the
	// guard redirects from there once the session resolves.
	Route string

	// Preset seeds the workspace selection and requirement text.
	Preset *preset.Preset

	Version string
}

type activeView int

const (
	viewGuard activeView = iota
	viewError
	viewLanding
	viewWorkspace
)

// Model is the root studio model. It owns the session snapshot and
// the current route; the landing and workspace views are mounted and
// torn down as the guard moves between them.
type Model struct {
	opts   Options
	styles Styles

	session identity.Session
	route   string

	landing    landingModel
	hasLanding bool
	// landingSeq increments on every landing mount so timer messages
	// scheduled by a torn-down landing cannot reach its successor.
	landingSeq int

	workspace    workspaceModel
	hasWorkspace bool

	width, height int
}

// New builds the root model. The session starts in its loading state
// and Init kicks off the resolve that settles it.
func New(opts Options) (Model, error) {
	if opts.Manager == nil {
		return Model{}, errors.New("identity manager is required")
	}
	if opts.SignIn == nil {
		return Model{}, errors.New("sign-in flow is required")
	}
	if opts.Generator == nil {
		return Model{}, errors.New("generation client is required")
	}

	return Model{
		opts:    opts,
		styles:  DefaultStyles(),
		session: opts.Manager.Session(),
		route:   NormalizeRoute(opts.Route),
		width:   80,
		height:  24,
	}, nil
}

func (m Model) Init() tea.Cmd {
	return m.resolveCmd()
}

func (m Model) resolveCmd() tea.Cmd {
	mgr := m.opts.Manager
	return func() tea.Msg {
		return sessionMsg(mgr.Resolve(time.Now()))
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit

		case "q":
			if !m.editorFocused() {
				return m, tea.Quit
			}

		case "r":
			// The error screen's only exit besides quitting: re-run
			// the startup validation on explicit request.
			if m.activeView() == viewError {
				return m, m.resolveCmd()
			}

		case "ctrl+x":
			if m.activeView() == viewWorkspace {
				// Credential deletion may fail; the session is torn
				// down regardless, so the guard still redirects.
				session, _ := m.opts.Manager.SignOut()
				next, cmd := m.applySession(session)
				return next, cmd
			}
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if m.hasLanding {
			m.landing.width = msg.Width
		}
		if m.hasWorkspace {
			m.workspace.setSize(msg.Width, msg.Height)
		}
		return m, nil

	case sessionMsg:
		next, cmd := m.applySession(identity.Session(msg))
		return next, cmd
	}

	switch m.activeView() {
	case viewLanding:
		var cmd tea.Cmd
		m.landing, cmd = m.landing.Update(msg)
		return m, cmd
	case viewWorkspace:
		var cmd tea.Cmd
		m.workspace, cmd = m.workspace.Update(msg)
		return m, cmd
	}

	return m, nil
}

// applySession is the route guard: it stores the snapshot, applies
// the redirect rules and mounts the view the route now names. Views
// are rebuilt from scratch on every mount so no indicator or timer
// state leaks across visits.
func (m Model) applySession(s identity.Session) (Model, tea.Cmd) {
	m.session = s
	m.route = nextRoute(m.route, s)

	switch s.Status {
	case identity.StatusAuthenticated:
		if m.route == RouteWorkspace && !m.hasWorkspace {
			return m.mountWorkspace()
		}
	case identity.StatusUnauthenticated:
		if m.route == RouteLanding {
			return m.mountLanding()
		}
	}

	return m, nil
}

func (m Model) mountLanding() (Model, tea.Cmd) {
	m.landingSeq++
	m.landing = newLandingModel(m.styles, m.landingSeq, m.opts.SignIn)
	m.landing.width = m.width
	m.hasLanding = true
	m.hasWorkspace = false

	return m, nil
}

func (m Model) mountWorkspace() (Model, tea.Cmd) {
	cfg := workspaceConfig{
		styles:   m.styles,
		gen:      m.opts.Generator,
		recorder: m.opts.Recorder,
		user:     m.session.User,
		version:  m.opts.Version,
	}
	if m.opts.Preset != nil {
		// Presets are validated at load time; a selection that still
		// fails to build leaves the grid empty rather than aborting.
		if s, err := m.opts.Preset.Selection(); err == nil {
			cfg.sel = s
		}
		cfg.seed = m.opts.Preset.Requirement
	}

	m.workspace = newWorkspaceModel(cfg)
	m.workspace.setSize(m.width, m.height)
	m.hasWorkspace = true
	m.hasLanding = false

	return m, m.workspace.Init()
}

func (m Model) activeView() activeView {
	switch m.session.Status {
	case identity.StatusLoading:
		return viewGuard
	case identity.StatusError:
		return viewError
	}

	if m.route == RouteWorkspace && m.hasWorkspace {
		return viewWorkspace
	}
	if m.hasLanding {
		return viewLanding
	}
	return viewGuard
}

func (m Model) editorFocused() bool {
	return m.activeView() == viewWorkspace && m.workspace.focus == focusEditor
}

func (m Model) View() string {
	switch m.activeView() {
	case viewGuard:
		return m.guardView()
	case viewError:
		return m.errorView()
	case viewLanding:
		return m.landing.View()
	default:
		return m.workspace.View()
	}
}

func (m Model) guardView() string {
	return lipgloss.NewStyle().Padding(1, 2).Render(
		m.styles.Muted.Render("Checking your session..."),
	)
}

// errorView is the fail-closed screen: while the session is failed
// nothing routed renders, only the failure itself.
func (m Model) errorView() string {
	msg := m.session.ErrorMessage
	if msg == "" {
		msg = "authentication failed"
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		m.styles.Error.Render("Sign-in error"),
		"",
		msg,
		"",
		m.styles.Muted.Render("Check the provider settings with 'forge doctor'. Press r to retry, q to quit."),
	)
	return lipgloss.NewStyle().Padding(1, 2).Render(body)
}

// Run starts the studio on the alternate screen and blocks until it
// exits.
func Run(opts Options) error {
	m, err := New(opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("studio: %w", err)
	}

	return nil
}
