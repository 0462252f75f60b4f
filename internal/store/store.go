// Package store holds the traces of one uploaded dataset as received from the
// analysis backend.
package store

import (
	"log/slog"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/michaelgrohs/ccviz/internal/model"
)

// Store is the immutable trace collection of a session.
type Store struct {
	bundle   Bundle
	traces   []model.Trace
	unscored int
}

// New builds a store from a backend bundle. Traces are numbered 1..n in
// fitness-list order; sequences are joined by trace label. Entries without a
// usable conformance are kept, so ordinals stay aligned, but marked unscored.
func New(b Bundle) *Store {
	sequences := make(map[string][]string, len(b.TraceSequences))
	for _, ts := range b.TraceSequences {
		sequences[canonicalLabel(ts.Trace)] = CanonicalSequence(ts.Sequence)
	}

	s := &Store{
		bundle: b,
		traces: make([]model.Trace, 0, len(b.Fitness)),
	}

	for i, entry := range b.Fitness {
		id := model.TraceID(i + 1)
		label := canonicalLabel(entry.Trace)

		trace := model.Trace{
			ID:          id,
			Label:       label,
			Conformance: entry.Conformance.Value,
			Scored:      entry.Conformance.Valid,
			Sequence:    sequences[label],
		}
		if !trace.Scored {
			s.unscored++
		}

		s.traces = append(s.traces, trace)
	}

	if s.unscored > 0 {
		slog.Warn("Traces without a usable conformance score are excluded from aggregates",
			"unscored", s.unscored,
			"total", len(s.traces))
	}

	return s
}

// Len returns the number of traces, scored or not.
func (s *Store) Len() int {
	return len(s.traces)
}

// Unscored returns how many traces carry no usable conformance.
func (s *Store) Unscored() int {
	return s.unscored
}

// Traces returns a copy of the trace list in ordinal order.
func (s *Store) Traces() []model.Trace {
	out := make([]model.Trace, len(s.traces))
	copy(out, s.traces)
	return out
}

// Trace returns the trace with the given ordinal.
func (s *Store) Trace(id model.TraceID) (model.Trace, bool) {
	i := int(id) - 1
	if i < 0 || i >= len(s.traces) {
		return model.Trace{}, false
	}
	return s.traces[i], true
}

// Activities returns every distinct activity label in first-seen order.
func (s *Store) Activities() []string {
	seen := make(map[string]bool)
	var out []string
	for _, t := range s.traces {
		for _, a := range t.Sequence {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
		}
	}
	return out
}

// ConformanceBins returns the backend's pre-aggregated buckets, if any.
func (s *Store) ConformanceBins() []ConformanceBin {
	return s.bundle.ConformanceBins
}

// UniqueSequenceBins returns the backend's per-bucket distinct sequences, if any.
func (s *Store) UniqueSequenceBins() []UniqueSequenceBin {
	return s.bundle.UniqueSequences
}

// Outcome returns the backend's outcome distribution, if any.
func (s *Store) Outcome() *OutcomeDistribution {
	return s.bundle.Outcome
}

// CanonicalSequence returns a copy of the sequence with every label in
// canonical form, so structurally equal sequences compare equal.
func CanonicalSequence(seq []string) []string {
	out := make([]string, len(seq))
	for i, a := range seq {
		out[i] = CanonicalActivity(a)
	}
	return out
}

// CanonicalActivity trims and NFC-normalizes an activity label.
func CanonicalActivity(a string) string {
	return norm.NFC.String(strings.TrimSpace(a))
}

func canonicalLabel(label string) string {
	return norm.NFC.String(strings.TrimSpace(label))
}
