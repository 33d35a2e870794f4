package studio

import "github.com/tryforce-dev/forge/internal/identity"

// sessionMsg delivers a fresh auth session snapshot to the route
// guard. Everything that changes the session, the initial resolve,
// the sign-in flow and sign-out, arrives through this message.
type sessionMsg identity.Session

// landingTickMsg advances the sign-in progress animation. seq pins
// the message to one landing mount and attempt to one sign-in
// activation; stale messages are dropped without effect.
type landingTickMsg struct {
	seq     int
	attempt int
}

// landingResetMsg re-enables the sign-in control when the redirect
// has not moved the session along after the safety delay.
type landingResetMsg struct {
	seq     int
	attempt int
}

// submitDoneMsg carries everything one submission produced, in the
// order the generation calls ran.
type submitDoneMsg struct {
	results []Result
}
