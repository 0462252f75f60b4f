package tui

import (
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelgrohs/ccviz/internal/model"
	"github.com/michaelgrohs/ccviz/internal/store"
	"github.com/michaelgrohs/ccviz/internal/testutil"
	"github.com/michaelgrohs/ccviz/internal/view"
)

func sampleBundle() store.Bundle {
	return testutil.NewBundleBuilder().
		WithTrace("Trace 1", 0.05, "A", "B", "End").
		WithTrace("Trace 2", 0.15, "A", "C").
		WithTrace("Trace 3", 0.95, "A", "B", "End").
		WithTrace("Trace 4", 0.02, "A", "B", "End").
		Build()
}

func newTestPipeline(t *testing.T) *view.Pipeline {
	t.Helper()
	p, err := view.NewPipeline(store.New(sampleBundle()), 10)
	require.NoError(t, err)
	return p
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func keyMsg(k tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: k}
}

// press feeds messages through Update and returns the resulting model.
func press(t *testing.T, m Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		var ok bool
		m, ok = next.(Model)
		require.True(t, ok)
	}
	return m
}

func TestModel_Initial(t *testing.T) {
	m := New(newTestPipeline(t))

	assert.Equal(t, ScreenDistribution, m.Screen())
	assert.Equal(t, 0.0, m.Filter().Threshold)
	assert.Empty(t, m.Filter().Selection)
	assert.Equal(t, 0, m.Cursor())
	assert.Nil(t, m.Init())

	out := m.View()
	assert.Contains(t, out, "Conformance distribution")
	assert.Contains(t, out, "Bin 0–0.1")
	assert.Contains(t, out, "Aggregated")
}

func TestModel_Threshold(t *testing.T) {
	tests := []struct {
		name string
		keys []tea.Msg
		want float64
	}{
		{name: "right raises", keys: []tea.Msg{keyMsg(tea.KeyRight)}, want: 0.1},
		{name: "steps do not drift", keys: []tea.Msg{keyMsg(tea.KeyRight), keyMsg(tea.KeyRight), keyMsg(tea.KeyRight)}, want: 0.3},
		{name: "left stops at zero", keys: []tea.Msg{keyMsg(tea.KeyLeft)}, want: 0},
		{name: "vim keys", keys: []tea.Msg{runes("l"), runes("l"), runes("h")}, want: 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := press(t, New(newTestPipeline(t), WithThresholdStep(0.1)), tt.keys...)
			assert.InDelta(t, tt.want, m.Filter().Threshold, 1e-12)
		})
	}
}

func TestModel_ThresholdClampsAtOne(t *testing.T) {
	m := New(newTestPipeline(t), WithThresholdStep(0.4))
	m = press(t, m, keyMsg(tea.KeyRight), keyMsg(tea.KeyRight), keyMsg(tea.KeyRight))
	assert.Equal(t, 1.0, m.Filter().Threshold)
	assert.Contains(t, m.View(), "Bin 0.9–1")
	assert.NotContains(t, m.View(), "Bin 0–0.1")
}

func TestModel_SelectionInput(t *testing.T) {
	m := New(newTestPipeline(t))

	m = press(t, m, runes("/"), runes("3, 1"))
	assert.Equal(t, []int{3, 1}, m.Filter().Selection)
	assert.Equal(t, model.ModeEnumerated, m.Filter().Mode())
	out := m.View()
	assert.Contains(t, out, "Trace 3 (Bin 0.9–1)")
	assert.Contains(t, out, "Enumerated")

	// Keys go to the input while it is focused.
	m = press(t, m, runes("q"))
	assert.Equal(t, []int{3}, m.Filter().Selection)

	m = press(t, m, keyMsg(tea.KeyEnter))
	next, cmd := m.Update(runes("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

func TestModel_SelectionOutOfRange(t *testing.T) {
	m := press(t, New(newTestPipeline(t)), runes("/"), runes("99"), keyMsg(tea.KeyEsc))

	assert.Equal(t, model.ModeEnumerated, m.Filter().Mode())
	assert.Contains(t, m.View(), view.NoTracesSelected)
}

func TestModel_SequenceDialog(t *testing.T) {
	m := press(t, New(newTestPipeline(t)), keyMsg(tea.KeyEnter))

	target, ok := m.Dialog()
	require.True(t, ok)
	assert.Equal(t, "Bin 0–0.1", target.Label)
	require.Len(t, target.Groups, 1)
	assert.Equal(t, 2, target.Groups[0].Count)
	assert.Contains(t, m.View(), "A → B → End (×2)")

	// Navigation is blocked while the dialog is open.
	m = press(t, m, keyMsg(tea.KeyDown))
	assert.Equal(t, 0, m.Cursor())

	m = press(t, m, keyMsg(tea.KeyEsc))
	_, ok = m.Dialog()
	assert.False(t, ok)

	m = press(t, m, keyMsg(tea.KeyDown), keyMsg(tea.KeyDown), keyMsg(tea.KeyEnter))
	target, ok = m.Dialog()
	require.True(t, ok)
	assert.Equal(t, "Bin 0.2–0.3", target.Label)
	assert.Contains(t, m.View(), view.NoSequences)
}

func TestModel_SequenceDialogEnumerated(t *testing.T) {
	m := press(t, New(newTestPipeline(t)),
		runes("/"), runes("2, 3"), keyMsg(tea.KeyEnter),
		keyMsg(tea.KeyDown), keyMsg(tea.KeyEnter))

	target, ok := m.Dialog()
	require.True(t, ok)
	assert.Equal(t, "Trace 3 (Bin 0.9–1)", target.Label)
	require.Len(t, target.Groups, 1)
	assert.Equal(t, []string{"A", "B", "End"}, target.Groups[0].Sequence)
}

func TestModel_Reset(t *testing.T) {
	m := press(t, New(newTestPipeline(t), WithThresholdStep(0.5)),
		keyMsg(tea.KeyRight),
		runes("/"), runes("1"), keyMsg(tea.KeyEnter),
		runes("r"))

	assert.Equal(t, 0.0, m.Filter().Threshold)
	assert.Empty(t, m.Filter().Selection)
	assert.Equal(t, 0, m.Cursor())
	assert.Contains(t, m.View(), "Filters reset")
}

func TestModel_OutcomeScreen(t *testing.T) {
	spec := view.OutcomeSpec{Mode: model.MatchEnd, Desired: []string{"End"}}
	m := press(t, New(newTestPipeline(t), WithOutcome(spec)), keyMsg(tea.KeyTab))

	assert.Equal(t, ScreenOutcome, m.Screen())
	out := m.View()
	assert.Contains(t, out, "Percentage of Traces Ending with End")
	assert.Contains(t, out, "source: local")
	assert.Contains(t, out, "100.0% of 2")

	// Sequences are only opened from the distribution chart.
	m = press(t, m, keyMsg(tea.KeyEnter))
	_, ok := m.Dialog()
	assert.False(t, ok)

	m = press(t, m, keyMsg(tea.KeyTab))
	assert.Equal(t, ScreenDistribution, m.Screen())
}

func TestModel_OutcomeScreenWithoutData(t *testing.T) {
	m := press(t, New(newTestPipeline(t)), keyMsg(tea.KeyTab))
	assert.Contains(t, m.View(), view.NoOutcomeAvailable)
}

func TestModel_Help(t *testing.T) {
	m := New(newTestPipeline(t))
	short := m.View()

	m = press(t, m, runes("?"))
	assert.Contains(t, m.View(), "switch chart")
	assert.NotEqual(t, short, m.View())

	m = press(t, m, keyMsg(tea.KeyEsc))
	assert.Equal(t, short, m.View())
}

func TestModel_Reload(t *testing.T) {
	m := New(newTestPipeline(t))

	m = press(t, m, datasetReloadedMsg{err: errors.New("bad json")})
	require.Error(t, m.Err())
	assert.Contains(t, m.View(), "bad json")

	b := sampleBundle()
	b.Fitness = b.Fitness[:1]
	b.TraceSequences = b.TraceSequences[:1]
	p, err := view.NewPipeline(store.New(b), 10)
	require.NoError(t, err)

	m = press(t, m, datasetReloadedMsg{pipeline: p})
	assert.NoError(t, m.Err())
	out := m.View()
	assert.Contains(t, out, "1 traces")
	assert.Contains(t, out, "Dataset reloaded")
}

func TestModel_WindowSize(t *testing.T) {
	m := press(t, New(newTestPipeline(t)), tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}
