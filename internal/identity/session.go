package identity

import (
	"sync"
	"sync/atomic"
	"time"
)

// Status is the sign-in lifecycle state of a session.
type Status string

const (
	StatusLoading         Status = "loading"
	StatusAuthenticated   Status = "authenticated"
	StatusUnauthenticated Status = "unauthenticated"
	StatusError           Status = "error"
)

// Session is an immutable snapshot of authentication state. Everything
// outside this package treats it as read-only; transitions happen only
// through a Manager.
type Session struct {
	Status       Status   `json:"status"`
	User         *Profile `json:"user,omitempty"`
	ErrorMessage string   `json:"errorMessage,omitempty"`
}

// Authenticated reports whether the session holds a signed-in user.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

// Manager owns the session state. It is the single writer; readers get
// value snapshots and never observe partial transitions.
type Manager struct {
	mu        sync.RWMutex
	session   Session
	signingIn atomic.Bool
}

// NewManager returns a manager in the loading state.
func NewManager() *Manager {
	return &Manager{session: Session{Status: StatusLoading}}
}

// Session returns a snapshot of the current state.
func (m *Manager) Session() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Resolve inspects stored credentials and transitions out of the loading
// state. It never touches the network; a live ID token is parsed locally
// and the backend re-validates it on every request.
func (m *Manager) Resolve(now time.Time) Session {
	_, tokens := GetTokens()
	s := sessionFor(tokens, now)

	m.mu.Lock()
	m.session = s
	m.mu.Unlock()

	return s
}

// sessionFor computes the session state a stored token set yields.
func sessionFor(tokens *TokenSet, now time.Time) Session {
	if tokens == nil || tokens.Expired(now) {
		return Session{Status: StatusUnauthenticated}
	}

	if tokens.IDToken == "" {
		// Access token only. Signed in, but no profile to show.
		return Session{Status: StatusAuthenticated}
	}

	profile, err := ParseProfile(tokens.IDToken)
	if err != nil {
		// A corrupted stored token means signing in again, not a dead
		// end: land on the sign-in route instead of the error screen.
		return Session{Status: StatusUnauthenticated}
	}

	return Session{Status: StatusAuthenticated, User: profile}
}

// BeginSignIn claims the single in-flight sign-in slot. Only one flow
// can hold the loopback listener at a time; a second activation while
// one is running must not start another flow (its net.Listen would
// fail and flip the session onto the error screen).
func (m *Manager) BeginSignIn() bool {
	return m.signingIn.CompareAndSwap(false, true)
}

// EndSignIn releases the slot claimed by BeginSignIn.
func (m *Manager) EndSignIn() {
	m.signingIn.Store(false)
}

// SetAuthenticated transitions to authenticated with an optional profile.
func (m *Manager) SetAuthenticated(user *Profile) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	var snapshot *Profile
	if user != nil {
		cloned := *user
		snapshot = &cloned
	}

	m.session = Session{Status: StatusAuthenticated, User: snapshot}
	return m.session
}

// SetUnauthenticated transitions to signed-out.
func (m *Manager) SetUnauthenticated() Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = Session{Status: StatusUnauthenticated}
	return m.session
}

// SetError transitions to the fail-closed error state.
func (m *Manager) SetError(message string) Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.session = Session{Status: StatusError, ErrorMessage: message}
	return m.session
}

// SignOut deletes stored credentials and transitions to signed-out. The
// session is torn down even when deletion reports an error, so a failed
// delete never leaves a live-looking session behind.
func (m *Manager) SignOut() (Session, error) {
	err := DeleteTokens()
	return m.SetUnauthenticated(), err
}
