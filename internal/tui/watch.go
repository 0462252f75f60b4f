package tui

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// reloadDelay coalesces the burst of events a single save produces.
const reloadDelay = 100 * time.Millisecond

// Watcher reloads a dataset file whenever it is written.
type Watcher struct {
	fs     *fsnotify.Watcher
	load   Loader
	events chan tea.Msg
	done   chan struct{}
	path   string
	once   sync.Once
}

// NewWatcher watches path and rebuilds the pipeline with load on change. The
// parent directory is watched so editors that replace the file are seen.
func NewWatcher(path string, load Loader) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", path, err)
	}

	w := &Watcher{
		fs:     fw,
		load:   load,
		path:   abs,
		events: make(chan tea.Msg, 1),
		done:   make(chan struct{}),
	}
	go w.loop()
	return w, nil
}

func (w *Watcher) loop() {
	defer close(w.events)

	timer := time.NewTimer(reloadDelay)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != w.path || ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			timer.Reset(reloadDelay)

		case <-timer.C:
			p, err := w.load(w.path)
			w.send(datasetReloadedMsg{pipeline: p, err: err})

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.send(datasetReloadedMsg{err: fmt.Errorf("watch %s: %w", w.path, err)})

		case <-w.done:
			return
		}
	}
}

// send delivers msg, replacing a reload the UI has not picked up yet.
func (w *Watcher) send(msg tea.Msg) {
	select {
	case <-w.events:
	default:
	}
	select {
	case w.events <- msg:
	case <-w.done:
	}
}

// Next returns a command that waits for the next reload.
func (w *Watcher) Next() tea.Cmd {
	return func() tea.Msg {
		msg, ok := <-w.events
		if !ok {
			return watchStoppedMsg{}
		}
		return msg
	}
}

// Close stops watching.
func (w *Watcher) Close() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.fs.Close()
	})
	return err
}
