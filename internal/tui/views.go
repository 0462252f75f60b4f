package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/michaelgrohs/ccviz/internal/chart"
	"github.com/michaelgrohs/ccviz/internal/model"
	"github.com/michaelgrohs/ccviz/internal/outcome"
	"github.com/michaelgrohs/ccviz/internal/tui/components"
	"github.com/michaelgrohs/ccviz/internal/view"
)

func bucketRows(v view.DistributionView, palette outcome.Palette) []components.Row {
	rows := make([]components.Row, len(v.Buckets))
	for i, bar := range v.Buckets {
		b := bar.Bucket
		rows[i] = components.Row{
			Label: "Bin " + b.RangeLabel(),
			Value: float64(b.TraceCount),
			Text:  fmt.Sprintf("%d traces, %d unique", b.TraceCount, bar.UniqueSequences),
			Color: palette.ColorFor(b.AverageConformance),
		}
	}
	return rows
}

func traceRows(v view.DistributionView, buckets []model.Bucket, palette outcome.Palette) []components.Row {
	rows := make([]components.Row, len(v.Traces))
	for i, bar := range v.Traces {
		c := bar.Trace.Conformance
		rows[i] = components.Row{
			Label: bar.Label(buckets),
			Value: c,
			Text:  fmt.Sprintf("%.4f", c),
			Color: palette.ColorFor(c),
		}
	}
	return rows
}

func outcomeRows(v view.OutcomeView, palette outcome.Palette) []components.Row {
	rows := make([]components.Row, len(v.Bubbles))
	for i, b := range v.Bubbles {
		rows[i] = components.Row{
			Label: "Bin " + b.RangeLabel(),
			Value: b.Y,
			Text:  fmt.Sprintf("%5.1f%% of %d", b.Y, b.Count),
			Color: palette.ColorFor(b.X),
		}
	}
	return rows
}

// View renders the UI.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	sections := []string{
		m.renderHeader(),
		m.renderStatus(),
		m.input.View(),
		"",
	}

	if m.dialog != nil {
		sections = append(sections, m.dialog.View())
	} else {
		sections = append(sections, m.histogram.View())
	}

	sections = append(sections, "", m.renderFooter())
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	tabs := make([]string, 0, 2)
	for _, s := range []Screen{ScreenDistribution, ScreenOutcome} {
		if s == m.screen {
			tabs = append(tabs, m.theme.Selected.Render(" "+s.String()+" "))
		} else {
			tabs = append(tabs, m.theme.Subtitle.Render(" "+s.String()+" "))
		}
	}
	return strings.Join(tabs, " ")
}

func (m Model) renderStatus() string {
	var parts []string
	parts = append(parts, fmt.Sprintf("Threshold %.2f", m.filter.Threshold))

	if m.screen == ScreenOutcome {
		parts = append(parts, chart.OutcomeAxisTitle(m.outcomeView.Mode, m.outcomeView.Desired))
		if m.outcomeView.Source != view.SourceNone {
			parts = append(parts, "source: "+string(m.outcomeView.Source))
		}
	} else {
		parts = append(parts,
			m.distribution.Mode.String(),
			fmt.Sprintf("%d buckets", m.pipeline.BucketCount()),
			fmt.Sprintf("%d traces", len(m.pipeline.Traces())))
	}

	line := m.theme.StatusInfo.Render(strings.Join(parts, " · "))
	switch {
	case m.lastError != nil:
		line += "  " + m.theme.StatusError.Render(m.lastError.Error())
	case m.status != "":
		line += "  " + m.theme.StatusOK.Render(m.status)
	}
	return line
}

func (m Model) renderFooter() string {
	return m.help.View(m.keymap)
}
