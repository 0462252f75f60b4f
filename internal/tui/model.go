package tui

import (
	"log/slog"
	"math"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/michaelgrohs/ccviz/internal/config"
	"github.com/michaelgrohs/ccviz/internal/filter"
	"github.com/michaelgrohs/ccviz/internal/model"
	"github.com/michaelgrohs/ccviz/internal/outcome"
	"github.com/michaelgrohs/ccviz/internal/tui/components"
	"github.com/michaelgrohs/ccviz/internal/tui/themes"
	"github.com/michaelgrohs/ccviz/internal/view"
)

// Model holds the TUI state. Every view is derived from the pipeline and the
// current filter on each change.
type Model struct {
	theme        themes.Theme
	lastError    error
	pipeline     *view.Pipeline
	watcher      *Watcher
	dialog       *components.SequenceDialogModel
	status       string
	palette      outcome.Palette
	outcomeSpec  view.OutcomeSpec
	distribution view.DistributionView
	outcomeView  view.OutcomeView
	input        textinput.Model
	help         help.Model
	histogram    components.HistogramModel
	keymap       KeyMap
	filter       filter.Filter
	step         float64
	width        int
	height       int
	screen       Screen
	quitting     bool
	showHelp     bool
}

// New creates a model over p.
func New(p *view.Pipeline, opts ...Option) Model {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newModel(p, cfg)
}

// newModel creates a new model with the given configuration.
func newModel(p *view.Pipeline, cfg Config) Model {
	keymap := DefaultKeyMap()

	input := textinput.New()
	input.Placeholder = "e.g. 1, 3, 2"
	input.Prompt = "Traces: "
	input.CharLimit = 256

	palette := cfg.Palette
	if len(palette) == 0 {
		palette = outcome.Palette(config.DefaultPalette)
	}

	m := Model{
		theme:       cfg.Theme,
		pipeline:    p,
		palette:     palette,
		outcomeSpec: cfg.Outcome,
		input:       input,
		help:        help.New(),
		histogram:   components.NewHistogram(cfg.Theme, components.HistogramKeys{Up: keymap.Up, Down: keymap.Down}),
		keymap:      keymap,
		step:        cfg.ThresholdStep,
		width:       cfg.Width,
		height:      cfg.Height,
	}
	m.resize()
	m.refresh()
	return m
}

// Init starts listening for dataset reloads when watching.
func (m Model) Init() tea.Cmd {
	return m.waitForReload()
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case datasetReloadedMsg:
		m.handleReload(msg)
		return m, m.waitForReload()

	case watchStoppedMsg:
		m.watcher = nil
		return m, nil
	}

	if m.input.Focused() {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.ForceQuit) {
		m.quitting = true
		return m, tea.Quit
	}

	// The selection input takes every key while focused and is parsed on
	// each change.
	if m.input.Focused() {
		if msg.Type == tea.KeyEnter || key.Matches(msg, m.keymap.Close) {
			m.input.Blur()
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		m.filter = m.filter.WithSelectionText(m.input.Value())
		m.refresh()
		return m, cmd
	}

	if m.dialog != nil {
		if key.Matches(msg, m.keymap.Close, m.keymap.Select, m.keymap.Quit) {
			m.dialog = nil
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keymap.ToggleHelp):
		m.showHelp = !m.showHelp
		m.help.ShowAll = m.showHelp

	case key.Matches(msg, m.keymap.Close):
		m.showHelp = false
		m.help.ShowAll = false

	case key.Matches(msg, m.keymap.Left):
		m.setThreshold(m.filter.Threshold - m.step)

	case key.Matches(msg, m.keymap.Right):
		m.setThreshold(m.filter.Threshold + m.step)

	case key.Matches(msg, m.keymap.Filter):
		m.status = ""
		return m, m.input.Focus()

	case key.Matches(msg, m.keymap.Reset):
		m.filter = filter.Filter{}
		m.input.SetValue("")
		m.histogram.Reset()
		m.status = "Filters reset"
		m.refresh()

	case key.Matches(msg, m.keymap.SwitchScreen):
		if m.screen == ScreenDistribution {
			m.screen = ScreenOutcome
		} else {
			m.screen = ScreenDistribution
		}
		m.histogram.Reset()
		m.refresh()

	case key.Matches(msg, m.keymap.Select):
		m.openDialog()

	case key.Matches(msg, m.keymap.Up, m.keymap.Down):
		m.histogram, _ = m.histogram.Update(msg)
	}

	return m, nil
}

// setThreshold rounds away the drift of repeated float steps.
func (m *Model) setThreshold(t float64) {
	m.filter = m.filter.WithThreshold(math.Round(t*1e6) / 1e6)
	m.refresh()
}

func (m *Model) openDialog() {
	if m.screen != ScreenDistribution {
		return
	}
	target, ok := m.pipeline.ResolveClickTarget(m.distribution, m.histogram.Cursor())
	if !ok {
		return
	}
	d := components.NewSequenceDialog(target, m.theme)
	d.Resize(m.width - 4)
	m.dialog = &d
}

func (m *Model) handleReload(msg datasetReloadedMsg) {
	if msg.err != nil {
		m.lastError = msg.err
		slog.Warn("Dataset reload failed", "error", msg.err)
		return
	}
	m.pipeline = msg.pipeline
	m.lastError = nil
	m.dialog = nil
	m.status = "Dataset reloaded"
	m.refresh()
}

// refresh recomputes the derived view of the current screen and its bars.
func (m *Model) refresh() {
	m.distribution = m.pipeline.Distribution(m.filter)
	m.outcomeView = m.pipeline.Outcome(m.filter, m.outcomeSpec)

	if m.screen == ScreenOutcome {
		m.histogram.SetRows(outcomeRows(m.outcomeView, m.palette), 100, m.outcomeView.EmptyMessage)
		return
	}

	if m.distribution.Mode == model.ModeEnumerated {
		m.histogram.SetRows(traceRows(m.distribution, m.pipeline.Buckets(), m.palette), 1, m.distribution.EmptyMessage)
		return
	}
	m.histogram.SetRows(bucketRows(m.distribution, m.palette), 0, m.distribution.EmptyMessage)
}

func (m *Model) resize() {
	// title, status, input, blank, help
	const chrome = 7
	m.histogram.Resize(m.width, max(1, m.height-chrome))
	m.help.Width = m.width
	m.input.Width = max(10, m.width-12)
	if m.dialog != nil {
		m.dialog.Resize(m.width - 4)
	}
}

func (m Model) waitForReload() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	return m.watcher.Next()
}

// Filter returns the current filter state.
func (m Model) Filter() filter.Filter {
	return m.filter
}

// Screen returns the active screen.
func (m Model) Screen() Screen {
	return m.screen
}

// Cursor returns the index of the highlighted bar.
func (m Model) Cursor() int {
	return m.histogram.Cursor()
}

// Dialog returns the bar whose sequences are shown, if any.
func (m Model) Dialog() (view.ClickTarget, bool) {
	if m.dialog == nil {
		return view.ClickTarget{}, false
	}
	return m.dialog.Target(), true
}

// Err returns the last reload error.
func (m Model) Err() error {
	return m.lastError
}
