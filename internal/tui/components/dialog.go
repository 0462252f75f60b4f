package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/michaelgrohs/ccviz/internal/tui/themes"
	"github.com/michaelgrohs/ccviz/internal/view"
)

// SequenceDialogModel shows the distinct sequences behind one bar.
type SequenceDialogModel struct {
	theme  themes.Theme
	target view.ClickTarget
	width  int
}

// NewSequenceDialog creates a dialog for target.
func NewSequenceDialog(target view.ClickTarget, theme themes.Theme) SequenceDialogModel {
	return SequenceDialogModel{theme: theme, target: target, width: 60}
}

// Target returns the bar the dialog was opened for.
func (m SequenceDialogModel) Target() view.ClickTarget {
	return m.target
}

// Resize sets the maximum dialog width.
func (m *SequenceDialogModel) Resize(width int) {
	m.width = max(20, width)
}

// View renders the dialog.
func (m SequenceDialogModel) View() string {
	title := m.theme.Title.Render(m.target.Label)

	var body string
	if m.target.Empty() {
		body = m.theme.MutedText(view.NoSequences)
	} else {
		lines := make([]string, len(m.target.Groups))
		for i, g := range m.target.Groups {
			lines[i] = m.theme.Normal.Render(g.String())
		}
		body = strings.Join(lines, "\n")
	}

	footer := m.theme.MutedText("Esc to close")

	return m.theme.RoundedBox.
		MaxWidth(m.width).
		Render(lipgloss.JoinVertical(lipgloss.Left, title, "", body, "", footer))
}
