package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"strings"
	"sync"
)

// ErrInputCancelled is returned when input is canceled by context.
var ErrInputCancelled = errors.New("input canceled")

type line struct {
	err   error
	value string
}

// NonBlockingReader reads lines without blocking past context cancellation.
// A single goroutine owns the underlying reader; a line read after the caller
// gave up is kept for the next call.
type NonBlockingReader struct {
	reader *bufio.Reader
	lines  chan line
	start  sync.Once
}

// NewNonBlockingReader creates a new non-blocking reader.
func NewNonBlockingReader(reader io.Reader) *NonBlockingReader {
	if reader == nil {
		panic("reader cannot be nil")
	}

	return &NonBlockingReader{
		reader: bufio.NewReader(reader),
		lines:  make(chan line),
	}
}

func (r *NonBlockingReader) pump() {
	for {
		value, err := r.reader.ReadString('\n')
		r.lines <- line{value: value, err: err}
		if err != nil {
			close(r.lines)
			return
		}
	}
}

// ReadLine reads one trimmed line, respecting context cancellation.
func (r *NonBlockingReader) ReadLine(ctx context.Context) (string, error) {
	if ctx.Err() != nil {
		return "", ErrInputCancelled
	}
	r.start.Do(func() { go r.pump() })

	select {
	case <-ctx.Done():
		return "", ErrInputCancelled
	case l, ok := <-r.lines:
		if !ok {
			return "", io.EOF
		}
		if l.err != nil && (l.err != io.EOF || l.value == "") {
			return "", l.err
		}
		return strings.TrimSpace(l.value), nil
	}
}
