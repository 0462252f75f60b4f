package cli

import (
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/michaelgrohs/ccviz/internal/model"
	"github.com/michaelgrohs/ccviz/internal/outcome"
	"github.com/michaelgrohs/ccviz/internal/view"
)

// MaxBarWidth is the width of the longest histogram bar.
const MaxBarWidth = 30

// Report writes the textual form of the derived views.
type Report struct {
	w       io.Writer
	palette outcome.Palette
}

// NewReport creates a report colouring bars with the given palette.
func NewReport(w io.Writer, palette outcome.Palette) *Report {
	return &Report{w: w, palette: palette}
}

func (r *Report) printf(format string, args ...any) error {
	if _, err := fmt.Fprintf(r.w, format, args...); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// scaled returns the bar width of value relative to highest.
func scaled(value, highest float64) int {
	if highest <= 0 || value <= 0 {
		return 0
	}
	return max(1, int(math.Round(value/highest*MaxBarWidth)))
}

// Distribution prints the conformance histogram.
func (r *Report) Distribution(v view.DistributionView, buckets []model.Bucket) error {
	title := fmt.Sprintf("Conformance distribution (%s, threshold %.2f)", v.Mode, v.Threshold)
	if err := r.printf("%s\n", FormatTitle(title)); err != nil {
		return err
	}

	if v.IsEmpty() {
		return r.printf("%s\n", FormatInfo(v.EmptyMessage))
	}

	if v.Mode == model.ModeEnumerated {
		return r.traces(v, buckets)
	}
	return r.buckets(v)
}

func (r *Report) buckets(v view.DistributionView) error {
	highest := 0
	for _, bar := range v.Buckets {
		highest = max(highest, bar.Bucket.TraceCount)
	}

	header := fmt.Sprintf("%-4s %-12s %7s %9s %8s", "#", "Range", "Traces", "Mean", "Unique")
	if err := r.printf("%s\n", TableHeaderStyle.Render(header)); err != nil {
		return err
	}

	for i, bar := range v.Buckets {
		b := bar.Bucket
		row := fmt.Sprintf("%-4d %-12s %7d %9.4f %8d  %s",
			i+1, b.RangeLabel(), b.TraceCount, b.AverageConformance, bar.UniqueSequences,
			Bar(scaled(float64(b.TraceCount), float64(highest)), r.palette.ColorFor(b.AverageConformance)))
		if err := r.printf("%s\n", row); err != nil {
			return err
		}
	}
	return nil
}

func (r *Report) traces(v view.DistributionView, buckets []model.Bucket) error {
	header := fmt.Sprintf("%-4s %-32s %11s", "#", "Trace", "Conformance")
	if err := r.printf("%s\n", TableHeaderStyle.Render(header)); err != nil {
		return err
	}

	for i, bar := range v.Traces {
		c := bar.Trace.Conformance
		row := fmt.Sprintf("%-4d %-32s %11.4f  %s",
			i+1, bar.Label(buckets), c, Bar(scaled(c, 1), r.palette.ColorFor(c)))
		if err := r.printf("%s\n", row); err != nil {
			return err
		}
	}
	return nil
}

// Sequences prints the sequences behind one clicked bar.
func (r *Report) Sequences(target view.ClickTarget) error {
	if target.Empty() {
		return r.printf("%s\n", RenderBox(target.Label, view.NoSequences))
	}

	lines := make([]string, len(target.Groups))
	for i, g := range target.Groups {
		lines[i] = g.String()
	}
	return r.printf("%s\n", RenderBox(target.Label, strings.Join(lines, "\n")))
}

// Outcome prints the conformance vs. outcome bubbles.
func (r *Report) Outcome(v view.OutcomeView) error {
	title := "Conformance vs. outcome"
	if len(v.Desired) > 0 {
		title = fmt.Sprintf("Percentage of traces %s %s", v.Mode.Describe(), strings.Join(v.Desired, ", "))
	}
	if err := r.printf("%s\n", FormatTitle(title)); err != nil {
		return err
	}

	if len(v.Bubbles) == 0 {
		return r.printf("%s\n", FormatInfo(v.EmptyMessage))
	}

	header := fmt.Sprintf("%-12s %9s %7s %8s", "Range", "Outcome %", "Traces", "Radius")
	if err := r.printf("%s\n", TableHeaderStyle.Render(header)); err != nil {
		return err
	}

	for _, b := range v.Bubbles {
		row := fmt.Sprintf("%-12s %9.1f %7d %8.1f  %s",
			b.RangeLabel(), b.Y, b.Count, b.Radius,
			Bar(scaled(b.Y, 100), r.palette.ColorFor(b.X)))
		if err := r.printf("%s\n", row); err != nil {
			return err
		}
	}
	return r.printf("%s\n", SubtleStyle.Render("source: "+string(v.Source)))
}

// Check prints the result of a consistency check.
func (r *Report) Check(res view.CheckResult) error {
	if res.BucketsCompared == 0 && res.SequencesCompared == 0 {
		return r.printf("%s\n", FormatWarning("The dataset has no backend bins to compare against"))
	}

	if res.OK() {
		return r.printf("%s\n", FormatSuccess(fmt.Sprintf(
			"Local buckets match the backend (%d buckets, %d sequence bins)",
			res.BucketsCompared, res.SequencesCompared)))
	}

	if err := r.printf("%s\n", FormatError(fmt.Sprintf("%d mismatches", len(res.Mismatches)))); err != nil {
		return err
	}
	for _, m := range res.Mismatches {
		if err := r.printf("  %s\n", m.String()); err != nil {
			return err
		}
	}
	return nil
}

// Palette prints the colour scale with the conformance range of each step.
func (r *Report) Palette() error {
	n := len(r.palette)
	for i, color := range r.palette {
		lo, hi := float64(i)/float64(n), float64(i+1)/float64(n)
		if err := r.printf("%s %s %s\n", Swatch(color), color, SubtleStyle.Render(model.FormatRange(round(lo), round(hi)))); err != nil {
			return err
		}
	}
	return nil
}

func round(v float64) float64 {
	return math.Round(v*1000) / 1000
}
