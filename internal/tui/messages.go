package tui

import "github.com/michaelgrohs/ccviz/internal/view"

// Screen is one of the two charts of the UI.
type Screen int

const (
	ScreenDistribution Screen = iota
	ScreenOutcome
)

// String returns the screen title.
func (s Screen) String() string {
	if s == ScreenOutcome {
		return "Conformance vs. outcome"
	}
	return "Conformance distribution"
}

// datasetReloadedMsg carries a pipeline rebuilt after the dataset file changed.
type datasetReloadedMsg struct {
	pipeline *view.Pipeline
	err      error
}

// watchStoppedMsg is sent once the file watcher has shut down.
type watchStoppedMsg struct{}
