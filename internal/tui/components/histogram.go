// Package components holds the reusable widgets of the terminal UI.
package components

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/michaelgrohs/ccviz/internal/cli"
	"github.com/michaelgrohs/ccviz/internal/tui/themes"
)

const (
	labelWidth  = 28
	minBarWidth = 10
	maxBarWidth = 48
)

// Row is one horizontal bar.
type Row struct {
	Label string
	Text  string // Rendered after the bar, e.g. the count
	Color string
	Value float64
}

// HistogramKeys are the bindings that move the cursor.
type HistogramKeys struct {
	Up   key.Binding
	Down key.Binding
}

// HistogramModel renders a list of bars with a cursor.
type HistogramModel struct {
	theme  themes.Theme
	keys   HistogramKeys
	empty  string
	rows   []Row
	max    float64
	cursor int
	width  int
	height int
}

// NewHistogram creates an empty histogram.
func NewHistogram(theme themes.Theme, keys HistogramKeys) HistogramModel {
	return HistogramModel{theme: theme, keys: keys, width: 80}
}

// SetRows replaces the bars. Values are scaled against highest, or against
// the largest value when highest is not positive. empty is shown when there
// are no rows.
func (m *HistogramModel) SetRows(rows []Row, highest float64, empty string) {
	m.rows = rows
	m.empty = empty
	m.max = highest
	if m.max <= 0 {
		for _, r := range rows {
			m.max = math.Max(m.max, r.Value)
		}
	}
	m.cursor = max(0, min(m.cursor, len(rows)-1))
}

// Cursor returns the index of the highlighted bar.
func (m HistogramModel) Cursor() int {
	return m.cursor
}

// Len returns the number of bars.
func (m HistogramModel) Len() int {
	return len(m.rows)
}

// Reset moves the cursor to the first bar.
func (m *HistogramModel) Reset() {
	m.cursor = 0
}

// Resize sets the available area.
func (m *HistogramModel) Resize(width, height int) {
	m.width = width
	m.height = height
}

// Update handles cursor movement.
func (m HistogramModel) Update(msg tea.Msg) (HistogramModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.rows)-1 {
				m.cursor++
			}
		}

	case tea.WindowSizeMsg:
		m.Resize(msg.Width, msg.Height)
	}

	return m, nil
}

// View renders the bars.
func (m HistogramModel) View() string {
	if len(m.rows) == 0 {
		return m.theme.MutedText(m.empty)
	}

	barWidth := max(minBarWidth, min(maxBarWidth, m.width-labelWidth-16))

	first, last := m.window()
	lines := make([]string, 0, last-first)
	for i := first; i < last; i++ {
		r := m.rows[i]
		label := fmt.Sprintf("%-*s", labelWidth, truncate(r.Label, labelWidth))
		bar := cli.Bar(m.barLength(r.Value, barWidth), r.Color)
		pad := strings.Repeat(" ", max(0, barWidth-lipgloss.Width(bar)))
		line := label + " " + bar + pad + " " + r.Text

		if i == m.cursor {
			line = m.theme.Highlighted.Render("▸ " + line)
		} else {
			line = "  " + line
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// window returns the rows that fit the height, keeping the cursor visible.
func (m HistogramModel) window() (int, int) {
	if m.height <= 0 || len(m.rows) <= m.height {
		return 0, len(m.rows)
	}
	first := max(0, m.cursor-m.height+1)
	return first, min(len(m.rows), first+m.height)
}

func (m HistogramModel) barLength(v float64, width int) int {
	if m.max <= 0 || v <= 0 {
		return 0
	}
	return min(width, max(1, int(math.Round(v/m.max*float64(width)))))
}

func truncate(s string, width int) string {
	if lipgloss.Width(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:max(0, width-1)]) + "…"
}
