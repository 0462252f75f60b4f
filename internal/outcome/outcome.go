// Package outcome relates conformance buckets to the share of traces reaching
// a desired outcome.
package outcome

import (
	"math"

	"github.com/michaelgrohs/ccviz/internal/model"
	"github.com/michaelgrohs/ccviz/internal/store"
)

// Classification maps each trace to whether it reached a desired outcome.
type Classification map[model.TraceID]bool

// Classify tests every trace against the desired outcome labels. In MatchEnd
// mode only the final activity counts; in MatchContains mode any activity does.
func Classify(traces []model.Trace, desired []string, mode model.MatchingMode) Classification {
	want := make(map[string]bool, len(desired))
	for _, d := range desired {
		want[store.CanonicalActivity(d)] = true
	}

	out := make(Classification, len(traces))
	for _, t := range traces {
		out[t.ID] = reaches(t, want, mode)
	}
	return out
}

func reaches(t model.Trace, want map[string]bool, mode model.MatchingMode) bool {
	if mode == model.MatchContains {
		for _, a := range t.Sequence {
			if want[a] {
				return true
			}
		}
		return false
	}

	last, ok := t.FinalActivity()
	return ok && want[last]
}

// Rate returns the percentage of the bucket's traces classified positive.
// An empty bucket has rate 0.
func Rate(b model.Bucket, outcomeOf Classification) float64 {
	if len(b.Traces) == 0 {
		return 0
	}

	positive := 0
	for _, t := range b.Traces {
		if outcomeOf[t.ID] {
			positive++
		}
	}
	return clampPercent(100 * float64(positive) / float64(len(b.Traces)))
}

// Build builds one bubble per bucket: x is the bucket midpoint, y the
// percentage of positive outcomes and the radius grows with the trace count.
func (s RadiusScale) Build(buckets []model.Bucket, outcomeOf Classification) []model.OutcomeBubble {
	highest := 0
	for _, b := range buckets {
		highest = max(highest, b.TraceCount)
	}

	bubbles := make([]model.OutcomeBubble, len(buckets))
	for i, b := range buckets {
		bubbles[i] = model.OutcomeBubble{
			X:      b.Midpoint(),
			Y:      Rate(b, outcomeOf),
			Radius: s.Radius(b.TraceCount, highest),
			Lo:     b.Lo,
			Hi:     b.Hi,
			Count:  b.TraceCount,
			Closed: b.Closed,
		}
	}
	return bubbles
}

// FromDistribution converts the backend's outcome bins into bubbles. The last
// bin is treated as closed.
func (s RadiusScale) FromDistribution(bins []store.OutcomeBin) []model.OutcomeBubble {
	highest := 0
	for _, b := range bins {
		highest = max(highest, b.Traces())
	}

	bubbles := make([]model.OutcomeBubble, len(bins))
	for i, b := range bins {
		lo, hi := b.Range[0], b.Range[1]
		bubbles[i] = model.OutcomeBubble{
			X:      (lo + hi) / 2,
			Y:      clampPercent(b.PercentageEndingCorrectly),
			Radius: s.Radius(b.Traces(), highest),
			Lo:     lo,
			Hi:     hi,
			Count:  b.Traces(),
			Closed: i == len(bins)-1,
		}
	}
	return bubbles
}

func clampPercent(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
