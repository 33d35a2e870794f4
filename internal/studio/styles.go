package studio

import "github.com/charmbracelet/lipgloss"

// Brand palette. Adaptive pairs keep the views readable on light and
// dark terminals.
var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#1d3557", Dark: "#8ecae6"}
	colorAccent  = lipgloss.AdaptiveColor{Light: "#b5179e", Dark: "#f72585"}
	colorMuted   = lipgloss.AdaptiveColor{Light: "#6c757d", Dark: "#868e96"}
	colorError   = lipgloss.AdaptiveColor{Light: "#c1121f", Dark: "#ff6b6b"}
	colorSuccess = lipgloss.AdaptiveColor{Light: "#2d6a4f", Dark: "#95d5b2"}
	colorBorder  = lipgloss.AdaptiveColor{Light: "#adb5bd", Dark: "#495057"}
)

// Styles holds the lipgloss styles shared by the studio views.
type Styles struct {
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Footer   lipgloss.Style
	Muted    lipgloss.Style
	Accent   lipgloss.Style

	Error   lipgloss.Style
	Success lipgloss.Style

	Button lipgloss.Style

	ToggleOn     lipgloss.Style
	ToggleOff    lipgloss.Style
	ToggleCursor lipgloss.Style

	Pane lipgloss.Style
}

// DefaultStyles builds the studio style set.
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(colorPrimary),
		Subtitle: lipgloss.NewStyle().Foreground(colorMuted),
		Footer:   lipgloss.NewStyle().Foreground(colorMuted),
		Muted:    lipgloss.NewStyle().Foreground(colorMuted),
		Accent:   lipgloss.NewStyle().Foreground(colorAccent),

		Error:   lipgloss.NewStyle().Bold(true).Foreground(colorError),
		Success: lipgloss.NewStyle().Bold(true).Foreground(colorSuccess),

		Button: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#1d3557"}).
			Background(colorPrimary).
			Padding(0, 2),

		ToggleOn:     lipgloss.NewStyle().Bold(true).Foreground(colorSuccess),
		ToggleOff:    lipgloss.NewStyle().Foreground(colorMuted),
		ToggleCursor: lipgloss.NewStyle().Bold(true).Foreground(colorAccent),

		Pane: lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1),
	}
}
