// Package filter applies a conformance threshold and an explicit trace
// selection to derived views without touching the buckets themselves.
package filter

import (
	"math"
	"strconv"
	"strings"

	"github.com/michaelgrohs/ccviz/internal/model"
)

// Filter is the interactive filter state. The zero value keeps everything.
type Filter struct {
	Selection []int // 1-based trace numbers in the order they were typed
	Threshold float64
}

// Mode returns the view mode implied by the selection.
func (f Filter) Mode() model.ViewMode {
	return ModeFor(f.Selection)
}

// WithThreshold returns a copy of f with the threshold clamped to [0, 1].
func (f Filter) WithThreshold(t float64) Filter {
	f.Threshold = ClampThreshold(t)
	return f
}

// WithSelectionText returns a copy of f with the selection parsed from text.
func (f Filter) WithSelectionText(text string) Filter {
	f.Selection = ParseSelection(text)
	return f
}

// WithSelection returns a copy of f with the given selection.
func (f Filter) WithSelection(ids []int) Filter {
	f.Selection = append([]int(nil), ids...)
	return f
}

// SelectionText renders the selection the way it is typed.
func (f Filter) SelectionText() string {
	parts := make([]string, len(f.Selection))
	for i, id := range f.Selection {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}

// ModeFor returns ModeEnumerated exactly when the selection is non-empty.
func ModeFor(selection []int) model.ViewMode {
	if len(selection) > 0 {
		return model.ModeEnumerated
	}
	return model.ModeAggregated
}

// ClampThreshold limits t to [0, 1].
func ClampThreshold(t float64) float64 {
	switch {
	case math.IsNaN(t), t < 0:
		return 0
	case t > 1:
		return 1
	default:
		return t
	}
}

// ParseSelection parses comma separated trace numbers. Entries that are not
// integers are dropped silently.
func ParseSelection(text string) []int {
	var ids []int
	for _, part := range strings.Split(text, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// Overlaps reports whether a range ending at hi reaches the threshold, i.e.
// whether any part of it lies at or above t. A closed range ending exactly at
// t still qualifies.
func Overlaps(hi float64, closed bool, t float64) bool {
	return hi > t || (closed && hi >= t)
}

// FilterByThreshold keeps the buckets that overlap [t, 1], in order.
func FilterByThreshold(buckets []model.Bucket, t float64) []model.Bucket {
	t = ClampThreshold(t)
	out := make([]model.Bucket, 0, len(buckets))
	for _, b := range buckets {
		if Overlaps(b.Hi, b.Closed, t) {
			out = append(out, b)
		}
	}
	return out
}

// FilterBubbles keeps the outcome bubbles whose range overlaps [t, 1].
func FilterBubbles(bubbles []model.OutcomeBubble, t float64) []model.OutcomeBubble {
	t = ClampThreshold(t)
	out := make([]model.OutcomeBubble, 0, len(bubbles))
	for _, b := range bubbles {
		if Overlaps(b.Hi, b.Closed, t) {
			out = append(out, b)
		}
	}
	return out
}

// SelectTraces returns the traces with the given 1-based numbers in the order
// given, duplicates included. Numbers outside 1..len(traces) are dropped.
func SelectTraces(traces []model.Trace, ids []int) []model.Trace {
	out := make([]model.Trace, 0, len(ids))
	for _, id := range ids {
		if id < 1 || id > len(traces) {
			continue
		}
		out = append(out, traces[id-1])
	}
	return out
}

// TracesAtOrAbove keeps the scored traces whose conformance is at least t.
func TracesAtOrAbove(traces []model.Trace, t float64) []model.Trace {
	t = ClampThreshold(t)
	out := make([]model.Trace, 0, len(traces))
	for _, tr := range traces {
		if tr.HasScore() && tr.Conformance >= t {
			out = append(out, tr)
		}
	}
	return out
}
