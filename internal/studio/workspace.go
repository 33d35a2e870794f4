package studio

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/tryforce-dev/forge/internal/identity"
	"github.com/tryforce-dev/forge/internal/selection"
	"github.com/tryforce-dev/forge/internal/tui/render"
)

// defaultDiagramType is sent with every diagram request; the backend
// maps it to its flowchart prompt.
const defaultDiagramType = "flow"

const (
	editorHeight = 4
	gridColWidth = 18
	maxGridCols  = 6
	minPaneBody  = 3
)

type focusArea int

const (
	focusGrid focusArea = iota
	focusEditor
)

// workspaceModel is the signed-in view: the output-kind toggle grid,
// the requirement editor and the scrollable result pane.
type workspaceModel struct {
	styles Styles

	gen      Generator
	recorder Recorder
	user     *identity.Profile
	version  string

	kinds  []selection.Kind
	sel    *selection.Selection
	cursor int
	focus  focusArea

	editor textarea.Model
	pane   viewport.Model
	spin   spinner.Model

	busy    bool
	entries []Result

	width, height int
}

type workspaceConfig struct {
	styles   Styles
	gen      Generator
	recorder Recorder
	user     *identity.Profile
	sel      *selection.Selection
	seed     string
	version  string
}

func newWorkspaceModel(cfg workspaceConfig) workspaceModel {
	editor := textarea.New()
	editor.Placeholder = "Describe the feature or system you need..."
	editor.SetHeight(editorHeight)
	editor.CharLimit = 0
	if cfg.seed != "" {
		editor.SetValue(cfg.seed)
	}
	editor.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = cfg.styles.Accent

	sel := cfg.sel
	if sel == nil {
		sel = selection.New()
	}

	w := workspaceModel{
		styles:   cfg.styles,
		gen:      cfg.gen,
		recorder: cfg.recorder,
		user:     cfg.user,
		version:  cfg.version,
		kinds:    selection.Kinds(),
		sel:      sel,
		focus:    focusEditor,
		editor:   editor,
		pane:     viewport.New(76, 10),
		spin:     spin,
		width:    80,
		height:   24,
	}
	w.refreshPane()

	return w
}

func (w workspaceModel) Init() tea.Cmd {
	return textarea.Blink
}

func (w workspaceModel) Update(msg tea.Msg) (workspaceModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return w.handleKey(msg)

	case spinner.TickMsg:
		if !w.busy {
			return w, nil
		}
		var cmd tea.Cmd
		w.spin, cmd = w.spin.Update(msg)
		return w, cmd

	case submitDoneMsg:
		w.busy = false
		w.entries = append(w.entries, msg.results...)
		w.refreshPane()
		return w, nil
	}

	return w.forward(msg)
}

func (w workspaceModel) handleKey(msg tea.KeyMsg) (workspaceModel, tea.Cmd) {
	switch msg.String() {
	case "tab":
		if w.focus == focusGrid {
			w.focus = focusEditor
			return w, w.editor.Focus()
		}
		w.focus = focusGrid
		w.editor.Blur()
		return w, nil

	case "esc":
		if w.focus == focusEditor {
			w.focus = focusGrid
			w.editor.Blur()
			return w, nil
		}

	case "ctrl+s":
		return w.submit()
	}

	if w.focus == focusGrid {
		switch msg.String() {
		case "left", "h":
			if w.cursor > 0 {
				w.cursor--
			}
			return w, nil
		case "right", "l":
			if w.cursor < len(w.kinds)-1 {
				w.cursor++
			}
			return w, nil
		case "up", "k":
			if c := w.cursor - w.gridColumns(); c >= 0 {
				w.cursor = c
			}
			return w, nil
		case "down", "j":
			if c := w.cursor + w.gridColumns(); c < len(w.kinds) {
				w.cursor = c
			}
			return w, nil
		case " ", "enter":
			// Toggling never touches any other kind's state.
			_ = w.sel.Toggle(w.kinds[w.cursor].Name)
			return w, nil
		}
	}

	return w.forward(msg)
}

// forward hands a message to whichever inner widget owns it.
func (w workspaceModel) forward(msg tea.Msg) (workspaceModel, tea.Cmd) {
	var cmds []tea.Cmd

	if w.focus == focusEditor {
		var cmd tea.Cmd
		w.editor, cmd = w.editor.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		var cmd tea.Cmd
		w.pane, cmd = w.pane.Update(msg)
		cmds = append(cmds, cmd)
	}

	return w, tea.Batch(cmds...)
}

func (w workspaceModel) submit() (workspaceModel, tea.Cmd) {
	if w.busy {
		return w, nil
	}
	requirement := strings.TrimSpace(w.editor.Value())
	if requirement == "" {
		return w, nil
	}

	if w.recorder != nil {
		// History is best-effort; a failed append never blocks a
		// submission.
		_ = w.recorder.AppendSubmit(requirement, w.sel.EnabledNames())
	}

	w.busy = true
	return w, tea.Batch(w.spin.Tick, w.submitCmd(requirement, w.sel.Enabled()))
}

func (w workspaceModel) submitCmd(requirement string, kinds []selection.Kind) tea.Cmd {
	gen, rec := w.gen, w.recorder
	userID := ""
	if w.user != nil {
		userID = w.user.Subject
	}

	return func() tea.Msg {
		return submitDoneMsg{
			results: Submit(context.Background(), gen, rec, userID, requirement, kinds),
		}
	}
}

func (w *workspaceModel) setSize(width, height int) {
	w.width = width
	w.height = height

	editorWidth := width - 2
	if editorWidth < 20 {
		editorWidth = 20
	}
	w.editor.SetWidth(editorWidth)

	paneWidth := width - 4
	if paneWidth < 10 {
		paneWidth = 10
	}
	paneHeight := height - w.chromeHeight()
	if paneHeight < minPaneBody {
		paneHeight = minPaneBody
	}
	w.pane.Width = paneWidth
	w.pane.Height = paneHeight
	w.refreshPane()
}

// chromeHeight is everything the layout draws around the result pane,
// including the pane's own border rows.
func (w workspaceModel) chromeHeight() int {
	return 1 + 1 + w.gridRows() + 1 + editorHeight + 1 + 2 + 1
}

func (w workspaceModel) gridColumns() int {
	cols := (w.width - 2) / gridColWidth
	if cols < 1 {
		cols = 1
	}
	if cols > maxGridCols {
		cols = maxGridCols
	}
	return cols
}

func (w workspaceModel) gridRows() int {
	cols := w.gridColumns()
	return (len(w.kinds) + cols - 1) / cols
}

func (w *workspaceModel) refreshPane() {
	if len(w.entries) == 0 {
		w.pane.SetContent(w.styles.Muted.Render("Results appear here after you submit."))
		return
	}

	var b strings.Builder
	for i, e := range w.entries {
		if i > 0 {
			b.WriteString("\n")
		}
		if e.Err != "" {
			b.WriteString(w.styles.Error.Render("x "+e.Kind) + "\n")
			b.WriteString(e.Err + "\n")
			continue
		}
		b.WriteString(w.styles.Success.Render("* "+e.Kind) + "\n")
		b.WriteString(e.Body + "\n")
	}
	w.pane.SetContent(b.String())
	w.pane.GotoBottom()
}

func (w workspaceModel) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		w.headerView(),
		"",
		w.gridView(),
		"",
		w.editor.View(),
		"",
		w.styles.Pane.Render(w.pane.View()),
		w.footerView(),
	)
}

func (w workspaceModel) headerView() string {
	left := w.styles.Title.Render("TryForce Studio")
	if w.version != "" {
		left += " " + w.styles.Muted.Render(w.version)
	}

	right := ""
	if w.user != nil {
		name := w.user.Email
		if name == "" {
			name = w.user.Username
		}
		right = w.styles.Muted.Render(name)
	}

	gap := w.width - render.VisibleWidth(left) - render.VisibleWidth(right)
	if gap < 1 {
		return left
	}
	return left + strings.Repeat(" ", gap) + right
}

func (w workspaceModel) gridView() string {
	cols := w.gridColumns()

	var rows []string
	var row strings.Builder
	for i, k := range w.kinds {
		mark := "[ ]"
		style := w.styles.ToggleOff
		if w.sel.IsEnabled(k.Name) {
			mark = "[x]"
			style = w.styles.ToggleOn
		}
		if w.focus == focusGrid && i == w.cursor {
			style = w.styles.ToggleCursor
		}

		cell := style.Render(fmt.Sprintf("%s %s", mark, k.Name))
		row.WriteString(render.PadRight(cell, gridColWidth))

		if (i+1)%cols == 0 || i == len(w.kinds)-1 {
			rows = append(rows, strings.TrimRight(row.String(), " "))
			row.Reset()
		}
	}

	return strings.Join(rows, "\n")
}

func (w workspaceModel) footerView() string {
	left := fmt.Sprintf("%d of %d outputs selected", w.sel.Count(), len(w.kinds))
	if w.busy {
		left = w.spin.View() + "generating..."
	}

	right := "tab focus | space toggle | ctrl+s submit | ctrl+x sign out | ctrl+c quit"
	line := render.PadRight(left, w.width-render.VisibleWidth(right))
	if render.VisibleWidth(line)+render.VisibleWidth(right) > w.width {
		return w.styles.Footer.Render(left)
	}
	return w.styles.Footer.Render(line + right)
}
