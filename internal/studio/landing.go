package studio

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Sign-in indicator timing. The progress bar walks to 100% over half
// a second and the provider flow starts exactly once when it gets
// there. The safety reset re-enables the control three seconds after
// activation in case the flow stalls before the session changes.
const (
	signInTicks        = 10
	signInTickInterval = 50 * time.Millisecond
	signInResetDelay   = 3 * time.Second
)

// landingModel is the signed-out view: product copy, the sign-in
// control and the progress indicator shown while the provider flow
// starts.
type landingModel struct {
	styles Styles
	signIn SignInFunc

	// seq identifies this mount. Timer messages from a previous mount
	// carry an older seq and are ignored, so nothing a torn-down
	// landing scheduled can touch its successor.
	seq int

	// attempt counts sign-in activations within this mount. Timers
	// belong to the attempt that scheduled them.
	attempt int

	signingIn  bool
	ticks      int
	redirected bool

	bar  progress.Model
	year int

	width int
}

func newLandingModel(styles Styles, seq int, signIn SignInFunc) landingModel {
	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 40

	return landingModel{
		styles: styles,
		signIn: signIn,
		seq:    seq,
		bar:    bar,
		year:   time.Now().Year(),
		width:  80,
	}
}

func (l landingModel) Update(msg tea.Msg) (landingModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "enter", "s":
			// The control is disabled for the whole of an activation.
			if l.signingIn {
				return l, nil
			}
			return l.startSignIn()
		}

	case landingTickMsg:
		if msg.seq != l.seq || msg.attempt != l.attempt || !l.signingIn {
			return l, nil
		}
		if l.ticks < signInTicks {
			l.ticks++
		}
		if l.ticks < signInTicks {
			return l, l.tickCmd()
		}
		if l.redirected {
			return l, nil
		}
		l.redirected = true
		return l, l.redirectCmd()

	case landingResetMsg:
		if msg.seq != l.seq || msg.attempt != l.attempt {
			return l, nil
		}
		// The session has not changed since activation. Re-enable the
		// control so the user can try again.
		l.signingIn = false
		l.ticks = 0
		return l, nil
	}

	return l, nil
}

func (l landingModel) startSignIn() (landingModel, tea.Cmd) {
	l.signingIn = true
	l.ticks = 0
	l.redirected = false
	l.attempt++

	return l, tea.Batch(l.tickCmd(), l.resetCmd())
}

func (l landingModel) tickCmd() tea.Cmd {
	seq, attempt := l.seq, l.attempt
	return tea.Tick(signInTickInterval, func(time.Time) tea.Msg {
		return landingTickMsg{seq: seq, attempt: attempt}
	})
}

func (l landingModel) resetCmd() tea.Cmd {
	seq, attempt := l.seq, l.attempt
	return tea.Tick(signInResetDelay, func(time.Time) tea.Msg {
		return landingResetMsg{seq: seq, attempt: attempt}
	})
}

// redirectCmd hands off to the provider flow. The flow reports back
// only through the session snapshot it returns; the guard takes over
// from there.
func (l landingModel) redirectCmd() tea.Cmd {
	signIn := l.signIn
	return func() tea.Msg {
		return sessionMsg(signIn(context.Background()))
	}
}

func (l landingModel) View() string {
	title := l.styles.Title.Render("TryForce")
	subtitle := l.styles.Subtitle.Render("Turn plain-text requirements into stories, diagrams and code.")

	var action string
	if l.signingIn {
		pct := float64(l.ticks) / float64(signInTicks)
		label := "Signing in..."
		if l.redirected {
			label = "Opening your browser..."
		}
		action = lipgloss.JoinVertical(lipgloss.Left,
			l.styles.Muted.Render(label),
			l.bar.ViewAs(pct),
		)
	} else {
		action = lipgloss.JoinVertical(lipgloss.Left,
			l.styles.Button.Render("Sign in"),
			l.styles.Muted.Render("press enter to sign in with your identity provider"),
		)
	}

	footer := l.styles.Footer.Render(fmt.Sprintf("© %d TryForce", l.year))

	body := lipgloss.JoinVertical(lipgloss.Left,
		title,
		subtitle,
		"",
		action,
		"",
		footer,
	)

	if l.width <= 0 {
		return body
	}
	return lipgloss.NewStyle().Width(l.width).Padding(1, 2).Render(body)
}
