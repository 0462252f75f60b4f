package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/michaelgrohs/ccviz/internal/filter"
	"github.com/michaelgrohs/ccviz/internal/model"
)

// Prompter asks the user how trace outcomes should be classified.
type Prompter struct {
	reader *NonBlockingReader
	writer io.Writer
}

// NewPrompter creates a prompter with the given reader and writer.
func NewPrompter(reader io.Reader, writer io.Writer) *Prompter {
	if reader == nil {
		reader = os.Stdin
	}
	if writer == nil {
		writer = os.Stdout
	}

	return &Prompter{
		reader: NewNonBlockingReader(reader),
		writer: writer,
	}
}

// ChooseOutcomes lists the model's activities and reads the desired ones as
// comma separated numbers or names. An empty answer returns no activities,
// which leaves the choice to the analysis service.
func (p *Prompter) ChooseOutcomes(ctx context.Context, activities []string) ([]string, error) {
	if len(activities) == 0 {
		return nil, nil
	}

	var content strings.Builder
	for i, a := range activities {
		fmt.Fprintf(&content, "  [%d] %s\n", i+1, a)
	}
	if _, err := fmt.Fprintln(p.writer, RenderBox("Model activities", strings.TrimRight(content.String(), "\n"))); err != nil {
		return nil, fmt.Errorf("failed to write activity list: %w", err)
	}

	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt("Desired outcomes (e.g. 2,5; empty for automatic)")); err != nil {
			return nil, fmt.Errorf("failed to write prompt: %w", err)
		}

		answer, err := p.reader.ReadLine(ctx)
		if err != nil {
			return nil, err
		}
		if answer == "" {
			return nil, nil
		}

		chosen, unknown := resolveActivities(answer, activities)
		if len(unknown) == 0 {
			return chosen, nil
		}
		if _, err := fmt.Fprintln(p.writer, FormatWarning("Unknown activities: "+strings.Join(unknown, ", "))); err != nil {
			return nil, fmt.Errorf("failed to write warning: %w", err)
		}
	}
}

// ChooseMatchingMode asks whether outcomes must end or merely occur in a trace.
func (p *Prompter) ChooseMatchingMode(ctx context.Context, current model.MatchingMode) (model.MatchingMode, error) {
	if _, err := fmt.Fprintf(p.writer, "  [E] Trace ends with a desired outcome\n  [C] Trace contains a desired outcome\n"); err != nil {
		return "", fmt.Errorf("failed to write matching options: %w", err)
	}

	for {
		if _, err := fmt.Fprint(p.writer, FormatPrompt(fmt.Sprintf("Matching mode [%s]", current))); err != nil {
			return "", fmt.Errorf("failed to write prompt: %w", err)
		}

		answer, err := p.reader.ReadLine(ctx)
		if err != nil {
			return "", err
		}

		switch strings.ToLower(answer) {
		case "":
			return current, nil
		case "e", "end":
			return model.MatchEnd, nil
		case "c", "contains":
			return model.MatchContains, nil
		}
		if _, err := fmt.Fprintln(p.writer, FormatWarning("Please answer E or C")); err != nil {
			return "", fmt.Errorf("failed to write warning: %w", err)
		}
	}
}

// resolveActivities maps each comma separated entry to an activity, either
// by its 1-based number or by name.
func resolveActivities(answer string, activities []string) (chosen, unknown []string) {
	byName := make(map[string]string, len(activities))
	for _, a := range activities {
		byName[strings.ToLower(a)] = a
	}

	for _, part := range strings.Split(answer, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if ids := filter.ParseSelection(part); len(ids) == 1 {
			if n := ids[0]; n >= 1 && n <= len(activities) {
				chosen = append(chosen, activities[n-1])
				continue
			}
		}
		if a, ok := byName[strings.ToLower(part)]; ok {
			chosen = append(chosen, a)
			continue
		}
		unknown = append(unknown, part)
	}
	return chosen, unknown
}
