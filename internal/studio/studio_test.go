package studio

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zalando/go-keyring"

	"github.com/tryforce-dev/forge/internal/identity"
	"github.com/tryforce-dev/forge/internal/preset"
)

// useTempStorage redirects the keyring and the file fallback away from
// the developer's real credentials. Incompatible with t.Parallel.
func useTempStorage(t *testing.T) {
	t.Helper()
	keyring.MockInit()
	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, ".config"))
	t.Setenv("FORGE_ID_TOKEN", "")
}

func TestNew_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	mgr := identity.NewManager()
	signIn := func(context.Context) identity.Session { return mgr.Session() }

	tests := []struct {
		name string
		opts Options
	}{
		{"missing manager", Options{SignIn: signIn, Generator: &stubGenerator{}}},
		{"missing sign-in flow", Options{Manager: mgr, Generator: &stubGenerator{}}},
		{"missing generator", Options{Manager: mgr, SignIn: signIn}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := New(tt.opts); err == nil {
				t.Error("New() accepted incomplete options")
			}
		})
	}
}

func TestGuard_LoadingShowsIndicator(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, identity.NewManager())
	view := m.View()
	if !strings.Contains(view, "Checking your session") {
		t.Errorf("loading view missing the indicator:\n%s", view)
	}
	if strings.Contains(view, "Sign in") || strings.Contains(view, "TryForce Studio") {
		t.Errorf("loading view leaked routed content:\n%s", view)
	}
}

func TestGuard_ErrorFailsClosed(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, identity.NewManager())
	m, _ = apply(t, m, sessionMsg(identity.Session{
		Status:       identity.StatusError,
		ErrorMessage: "discovery document unreachable",
	}))

	view := m.View()
	if !strings.Contains(view, "Sign-in error") {
		t.Errorf("error view missing the heading:\n%s", view)
	}
	if !strings.Contains(view, "discovery document unreachable") {
		t.Errorf("error view missing the failure message:\n%s", view)
	}
	if strings.Contains(view, "TryForce Studio") {
		t.Errorf("error view leaked routed content:\n%s", view)
	}
}

func TestGuard_ErrorRetryRevalidates(t *testing.T) {
	useTempStorage(t)

	m := newTestModel(t, identity.NewManager())
	m, _ = apply(t, m, sessionMsg(identity.Session{
		Status:       identity.StatusError,
		ErrorMessage: "discovery document unreachable",
	}))

	if !strings.Contains(m.View(), "Press r to retry") {
		t.Errorf("error view missing the retry hint:\n%s", m.View())
	}

	m, cmd := apply(t, m, keyRunes("r"))
	if cmd == nil {
		t.Fatal("pressing r on the error screen produced no re-validation command")
	}
	for _, msg := range collect(cmd) {
		m, _ = apply(t, m, msg)
	}

	// No stored credentials, so the retry settles on the sign-in route.
	if m.session.Status != identity.StatusUnauthenticated {
		t.Fatalf("session after retry = %v, want %v", m.session.Status, identity.StatusUnauthenticated)
	}
	if !strings.Contains(m.View(), "Sign in") {
		t.Errorf("retry should land on the sign-in route:\n%s", m.View())
	}
}

func TestGuard_AuthenticatedLandingRedirectsToWorkspace(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, identity.NewManager())
	m, _ = apply(t, m, sessionMsg(identity.Session{
		Status: identity.StatusAuthenticated,
		User:   &identity.Profile{Subject: "sub-1", Email: "dev@tryforce.dev"},
	}))

	if m.route != RouteWorkspace {
		t.Fatalf("route = %q, want %q", m.route, RouteWorkspace)
	}
	view := m.View()
	if !strings.Contains(view, "TryForce Studio") {
		t.Errorf("workspace view missing the header:\n%s", view)
	}
	if !strings.Contains(view, "dev@tryforce.dev") {
		t.Errorf("workspace view missing the signed-in user:\n%s", view)
	}
}

func TestGuard_UnauthenticatedWorkspaceRedirectsToLanding(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, identity.NewManager(), withRoute(RouteWorkspace))
	m, _ = apply(t, m, sessionMsg(identity.Session{Status: identity.StatusUnauthenticated}))

	if m.route != RouteLanding {
		t.Fatalf("route = %q, want %q", m.route, RouteLanding)
	}
	if !strings.Contains(m.View(), "Sign in") {
		t.Errorf("landing view missing the sign-in control:\n%s", m.View())
	}
}

func TestSignInFlow_LandsOnWorkspace(t *testing.T) {
	t.Parallel()

	calls := 0
	auth := identity.Session{
		Status: identity.StatusAuthenticated,
		User:   &identity.Profile{Subject: "sub-1", Email: "dev@tryforce.dev"},
	}
	m := mountedLanding(t, withSignIn(countingSignIn(&calls, auth)))

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	var cmd tea.Cmd
	for i := 0; i < signInTicks; i++ {
		m, cmd = apply(t, m, landingTickMsg{seq: m.landing.seq, attempt: m.landing.attempt})
	}
	if cmd == nil {
		t.Fatal("animation finished without a redirect command")
	}

	m, _ = apply(t, m, cmd())
	if calls != 1 {
		t.Fatalf("sign-in flow ran %d times, want 1", calls)
	}
	if m.route != RouteWorkspace {
		t.Fatalf("route = %q after sign-in, want %q", m.route, RouteWorkspace)
	}
	if !strings.Contains(m.View(), "dev@tryforce.dev") {
		t.Errorf("workspace missing the signed-in user:\n%s", m.View())
	}
}

func TestWorkspaceMount_AppliesPreset(t *testing.T) {
	t.Parallel()

	p := &preset.Preset{
		Kinds:       []string{"Mermaid", "Python"},
		Requirement: "Generate artifacts for: ",
	}
	m := newTestModel(t, identity.NewManager(), withPreset(p))
	m, _ = apply(t, m, sessionMsg(identity.Session{Status: identity.StatusAuthenticated}))

	if got := m.workspace.sel.Count(); got != 2 {
		t.Fatalf("selection count = %d, want 2", got)
	}
	for _, name := range p.Kinds {
		if !m.workspace.sel.IsEnabled(name) {
			t.Errorf("IsEnabled(%s) = false, want true", name)
		}
	}
	if got := m.workspace.editor.Value(); got != p.Requirement {
		t.Errorf("editor value = %q, want the preset template", got)
	}
}

func TestSignOut_ReturnsToLanding(t *testing.T) {
	useTempStorage(t)

	mgr := identity.NewManager()
	mgr.SetAuthenticated(&identity.Profile{Subject: "sub-1", Email: "dev@tryforce.dev"})
	m := newTestModel(t, mgr)
	m, _ = apply(t, m, sessionMsg(mgr.Session()))
	if m.activeView() != viewWorkspace {
		t.Fatalf("activeView = %v before sign-out, want workspace", m.activeView())
	}

	m, _ = apply(t, m, tea.KeyMsg{Type: tea.KeyCtrlX})

	if got := mgr.Session().Status; got != identity.StatusUnauthenticated {
		t.Errorf("manager status = %v after sign-out, want unauthenticated", got)
	}
	if m.route != RouteLanding {
		t.Errorf("route = %q after sign-out, want %q", m.route, RouteLanding)
	}
	if !strings.Contains(m.View(), "Sign in") {
		t.Errorf("landing view missing the sign-in control:\n%s", m.View())
	}
}

func TestInit_ResolvesStoredSession(t *testing.T) {
	useTempStorage(t)

	m := newTestModel(t, identity.NewManager())
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init() returned no resolve command")
	}

	raw := cmd()
	msg, ok := raw.(sessionMsg)
	if !ok {
		t.Fatalf("resolve produced %T, want sessionMsg", raw)
	}
	if identity.Session(msg).Status != identity.StatusUnauthenticated {
		t.Errorf("status = %v with no stored tokens, want unauthenticated", identity.Session(msg).Status)
	}

	m, _ = apply(t, m, msg)
	if m.activeView() != viewLanding {
		t.Errorf("activeView = %v after resolve, want landing", m.activeView())
	}
}

func TestResize_PropagatesToViews(t *testing.T) {
	t.Parallel()

	m := newTestModel(t, identity.NewManager())
	m, _ = apply(t, m, sessionMsg(identity.Session{Status: identity.StatusAuthenticated}))
	m, _ = apply(t, m, tea.WindowSizeMsg{Width: 120, Height: 50})

	if m.width != 120 || m.height != 50 {
		t.Errorf("root size = %dx%d, want 120x50", m.width, m.height)
	}
	if m.workspace.width != 120 {
		t.Errorf("workspace width = %d, want 120", m.workspace.width)
	}
}

func TestView_NeverPanics(t *testing.T) {
	t.Parallel()

	sessions := []identity.Session{
		{Status: identity.StatusLoading},
		{Status: identity.StatusError, ErrorMessage: "bad config"},
		{Status: identity.StatusUnauthenticated},
		{Status: identity.StatusAuthenticated, User: &identity.Profile{Email: "dev@tryforce.dev"}},
	}
	sizes := []tea.WindowSizeMsg{
		{Width: 5, Height: 3},
		{Width: 20, Height: 8},
		{Width: 80, Height: 24},
		{Width: 200, Height: 60},
	}

	for _, s := range sessions {
		for _, size := range sizes {
			func() {
				defer func() {
					if r := recover(); r != nil {
						t.Errorf("View panicked for status %v at %dx%d: %v", s.Status, size.Width, size.Height, r)
					}
				}()

				m := newTestModel(t, identity.NewManager())
				m, _ = apply(t, m, sessionMsg(s))
				m, _ = apply(t, m, size)
				_ = m.View()
			}()
		}
	}
}
