package tui

import (
	"github.com/michaelgrohs/ccviz/internal/outcome"
	"github.com/michaelgrohs/ccviz/internal/tui/themes"
	"github.com/michaelgrohs/ccviz/internal/view"
)

// DefaultThresholdStep is how far one arrow key press moves the threshold.
const DefaultThresholdStep = 0.01

// Loader rebuilds a pipeline from a dataset file.
type Loader func(path string) (*view.Pipeline, error)

// Config holds TUI configuration.
type Config struct {
	Theme         themes.Theme
	Load          Loader
	DatasetPath   string
	Palette       outcome.Palette
	Outcome       view.OutcomeSpec
	ThresholdStep float64
	Width         int
	Height        int
	Watch         bool
}

// Option is a functional option for configuring the TUI.
type Option func(*Config)

// defaultConfig returns the default configuration.
func defaultConfig() Config {
	return Config{
		Theme:         themes.Default,
		ThresholdStep: DefaultThresholdStep,
		Outcome:       view.OutcomeSpec{Scale: outcome.DefaultRadiusScale},
		Width:         80,
		Height:        24,
	}
}

// WithTheme sets the visual theme.
func WithTheme(theme themes.Theme) Option {
	return func(c *Config) {
		c.Theme = theme
	}
}

// WithPalette sets the conformance color scale of the bars.
func WithPalette(p outcome.Palette) Option {
	return func(c *Config) {
		c.Palette = p
	}
}

// WithOutcome sets the desired outcomes and matching mode of the outcome screen.
func WithOutcome(spec view.OutcomeSpec) Option {
	return func(c *Config) {
		c.Outcome = spec
	}
}

// WithThresholdStep sets the threshold increment of the arrow keys.
// Non-positive steps are ignored.
func WithThresholdStep(step float64) Option {
	return func(c *Config) {
		if step > 0 {
			c.ThresholdStep = step
		}
	}
}

// WithSize sets the initial terminal size.
func WithSize(width, height int) Option {
	return func(c *Config) {
		c.Width = width
		c.Height = height
	}
}

// WithWatch reloads the dataset at path through load whenever the file changes.
func WithWatch(path string, load Loader) Option {
	return func(c *Config) {
		c.DatasetPath = path
		c.Load = load
		c.Watch = path != "" && load != nil
	}
}
