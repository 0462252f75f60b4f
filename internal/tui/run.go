package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/michaelgrohs/ccviz/internal/view"
)

// Run shows the interactive views of p until the user quits or ctx is done.
func Run(ctx context.Context, p *view.Pipeline, opts ...Option) error {
	if p == nil {
		return fmt.Errorf("pipeline is required")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	// Set up terminal cleanup on any exit
	cleanupTerminal := func() {
		// Ignore errors as this is best-effort cleanup
		_, _ = os.Stdout.Write([]byte("\033[?1049l")) // Exit alternate screen
		_, _ = os.Stdout.Write([]byte("\033[?25h"))   // Show cursor
		_, _ = os.Stdout.Write([]byte("\033[m"))      // Reset colors
	}
	defer cleanupTerminal()

	m := newModel(p, cfg)

	if cfg.Watch {
		w, err := NewWatcher(cfg.DatasetPath, cfg.Load)
		if err != nil {
			return err
		}
		defer func() { _ = w.Close() }()
		m.watcher = w
	}

	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) || ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
