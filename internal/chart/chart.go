// Package chart renders the distribution and outcome views as PNG images.
package chart

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/michaelgrohs/ccviz/internal/model"
	"github.com/michaelgrohs/ccviz/internal/outcome"
	"github.com/michaelgrohs/ccviz/internal/view"
)

// ErrNothingToDraw is returned for views without bars or bubbles.
var ErrNothingToDraw = errors.New("nothing to draw")

// Default image size in pixels.
const (
	DefaultWidth  = 1024
	DefaultHeight = 512
)

const (
	barWidth   = 40
	barSpacing = 12
)

// Options controls the size and colours of rendered charts.
type Options struct {
	Palette outcome.Palette
	Width   int
	Height  int
}

func (o Options) size() (int, int) {
	w, h := o.Width, o.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return w, h
}

// color converts a "#rrggbb" palette entry.
func color(hex string) drawing.Color {
	if hex == "" {
		return chart.ColorAlternateGray
	}
	return drawing.ColorFromHex(strings.TrimPrefix(hex, "#"))
}

func background() chart.Style {
	return chart.Style{Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16}}
}

// Distribution renders the histogram of a distribution view: one bar per
// bucket in aggregated mode, one bar per selected trace in enumerated mode.
func Distribution(w io.Writer, v view.DistributionView, buckets []model.Bucket, opts Options) error {
	if v.IsEmpty() {
		return fmt.Errorf("%w: %s", ErrNothingToDraw, v.EmptyMessage)
	}

	var (
		bars   []chart.Value
		yName  string
		yRange *chart.ContinuousRange
	)

	if v.Mode == model.ModeEnumerated {
		yName = "Conformance"
		yRange = &chart.ContinuousRange{Min: 0, Max: 1}
		for _, bar := range v.Traces {
			c := bar.Trace.Conformance
			bars = append(bars, chart.Value{
				Label: bar.Label(buckets),
				Value: c,
				Style: barStyle(opts.Palette.ColorFor(c)),
			})
		}
	} else {
		yName = "Traces"
		highest := 0
		for _, bar := range v.Buckets {
			b := bar.Bucket
			highest = max(highest, b.TraceCount)
			bars = append(bars, chart.Value{
				Label: b.RangeLabel(),
				Value: float64(b.TraceCount),
				Style: barStyle(opts.Palette.ColorFor(b.AverageConformance)),
			})
		}
		yRange = &chart.ContinuousRange{Min: 0, Max: float64(max(highest, 1))}
	}

	width, height := opts.size()
	width = max(width, len(bars)*(barWidth+barSpacing)+120)

	bc := chart.BarChart{
		Title:      fmt.Sprintf("Conformance distribution (threshold %.2f)", v.Threshold),
		Width:      width,
		Height:     height,
		BarWidth:   barWidth,
		BarSpacing: barSpacing,
		Background: background(),
		YAxis: chart.YAxis{
			Name:  yName,
			Range: yRange,
		},
		Bars: bars,
	}

	if err := bc.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render distribution chart: %w", err)
	}
	return nil
}

func barStyle(hex string) chart.Style {
	c := color(hex)
	return chart.Style{
		FillColor:   c,
		StrokeColor: c,
		StrokeWidth: 1,
	}
}

// OutcomeAxisTitle returns the y-axis title for the desired outcomes.
func OutcomeAxisTitle(mode model.MatchingMode, desired []string) string {
	if len(desired) == 0 {
		return "Percentage of Traces with Desired Outcome"
	}
	verb := "Ending with"
	if mode == model.MatchContains {
		verb = "Containing"
	}
	return fmt.Sprintf("Percentage of Traces %s %s", verb, strings.Join(desired, ", "))
}

// Outcome renders the conformance vs. outcome bubble chart. Each bubble is
// drawn at its bucket midpoint with its own radius and palette colour.
func Outcome(w io.Writer, v view.OutcomeView, opts Options) error {
	if len(v.Bubbles) == 0 {
		return fmt.Errorf("%w: %s", ErrNothingToDraw, v.EmptyMessage)
	}

	xs := make([]float64, len(v.Bubbles))
	ys := make([]float64, len(v.Bubbles))
	for i, b := range v.Bubbles {
		xs[i] = b.X
		ys[i] = b.Y
	}

	bubbles := v.Bubbles
	series := chart.ContinuousSeries{
		Name:    "Buckets",
		XValues: xs,
		YValues: ys,
		Style: chart.Style{
			StrokeWidth: chart.Disabled,
			DotWidthProvider: func(_, _ chart.Range, index int, _, _ float64) float64 {
				return bubbles[index].Radius
			},
			DotColorProvider: func(_, _ chart.Range, index int, _, _ float64) drawing.Color {
				return color(opts.Palette.ColorFor(bubbles[index].X)).WithAlpha(200)
			},
		},
	}

	width, height := opts.size()
	ch := chart.Chart{
		Title:      "Conformance vs. Outcome",
		Width:      width,
		Height:     height,
		Background: background(),
		XAxis: chart.XAxis{
			Name:  "Conformance",
			Range: &chart.ContinuousRange{Min: 0, Max: 1},
			Ticks: unitTicks(),
		},
		YAxis: chart.YAxis{
			Name:  OutcomeAxisTitle(v.Mode, v.Desired),
			Range: &chart.ContinuousRange{Min: 0, Max: 100},
			Ticks: []chart.Tick{
				{Value: 0, Label: "0"}, {Value: 25, Label: "25"}, {Value: 50, Label: "50"},
				{Value: 75, Label: "75"}, {Value: 100, Label: "100"},
			},
		},
		Series: []chart.Series{series},
	}

	if err := ch.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render outcome chart: %w", err)
	}
	return nil
}

func unitTicks() []chart.Tick {
	ticks := make([]chart.Tick, 0, 11)
	for i := 0; i <= 10; i++ {
		v := float64(i) / 10
		ticks = append(ticks, chart.Tick{Value: v, Label: fmt.Sprintf("%.1f", v)})
	}
	return ticks
}
