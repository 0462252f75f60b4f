package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/schollz/progressbar/v3"
)

// FetchProgress shows a step counter while analysis results are downloaded.
type FetchProgress struct {
	bar     *progressbar.ProgressBar
	started bool
}

// NewFetchProgress creates a progress bar over the given number of steps.
func NewFetchProgress(w io.Writer, steps int) *FetchProgress {
	if w == nil {
		w = os.Stderr
	}

	bar := progressbar.NewOptions(steps,
		progressbar.OptionSetWriter(w),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription("[cyan][bold]Fetching results...[reset]"),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[red]=[reset]",
			SaucerHead:    "[red]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
		progressbar.OptionOnCompletion(func() {
			if _, err := fmt.Fprintln(w); err != nil {
				slog.Warn("Failed to write newline after progress bar", "error", err)
			}
		}),
	)

	return &FetchProgress{bar: bar}
}

// Step advances the bar past the previous step and names the next one.
// The first call only sets the description.
func (p *FetchProgress) Step(name string) {
	if p.started {
		p.advance()
	}
	p.started = true
	p.bar.Describe(fmt.Sprintf("[cyan][bold]%s[reset]", name))
}

func (p *FetchProgress) advance() {
	if err := p.bar.Add(1); err != nil {
		slog.Warn("Failed to update progress bar", "error", err)
	}
}

// Finish completes the bar.
func (p *FetchProgress) Finish() {
	if err := p.bar.Finish(); err != nil {
		slog.Warn("Failed to finish progress bar", "error", err)
	}
}
