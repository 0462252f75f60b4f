// Package sequence deduplicates the activity sequences of conformance buckets.
package sequence

import (
	"strconv"
	"strings"

	"github.com/michaelgrohs/ccviz/internal/model"
)

// Key returns a string that is equal for two sequences exactly when they have
// the same length and the same labels in order. Labels are length-prefixed so
// no label content can collide with the separator.
func Key(seq []string) string {
	var b strings.Builder
	for _, label := range seq {
		b.WriteString(strconv.Itoa(len(label)))
		b.WriteByte(':')
		b.WriteString(label)
	}
	return b.String()
}

// Deduplicate groups the bucket's traces by sequence, in first-seen order.
func Deduplicate(bucket model.Bucket) []model.SequenceGroup {
	return Group(bucket.Traces)
}

// Group groups traces by sequence, in first-seen order. No traces yield an
// empty, non-nil list.
func Group(traces []model.Trace) []model.SequenceGroup {
	if len(traces) == 0 {
		return []model.SequenceGroup{}
	}

	positions := make(map[string]int, len(traces))
	groups := make([]model.SequenceGroup, 0, len(traces))

	for _, t := range traces {
		key := Key(t.Sequence)
		if i, ok := positions[key]; ok {
			groups[i].Count++
			continue
		}
		positions[key] = len(groups)
		groups = append(groups, model.SequenceGroup{
			Sequence: append([]string(nil), t.Sequence...),
			Count:    1,
		})
	}

	return groups
}

// Index answers sequence lookups by bucket and by trace.
type Index struct {
	groups   [][]model.SequenceGroup
	byTrace  map[model.TraceID][]string
	bucketOf map[model.TraceID]int
}

// NewIndex deduplicates every bucket once.
func NewIndex(buckets []model.Bucket) *Index {
	idx := &Index{
		groups:   make([][]model.SequenceGroup, len(buckets)),
		byTrace:  make(map[model.TraceID][]string),
		bucketOf: make(map[model.TraceID]int),
	}

	for i, b := range buckets {
		idx.groups[i] = Deduplicate(b)
		for _, t := range b.Traces {
			idx.byTrace[t.ID] = t.Sequence
			idx.bucketOf[t.ID] = i
		}
	}

	return idx
}

// SequencesForBucket returns the distinct sequences of a bucket. An empty or
// unknown bucket yields no groups.
func (x *Index) SequencesForBucket(i int) []model.SequenceGroup {
	if i < 0 || i >= len(x.groups) {
		return []model.SequenceGroup{}
	}
	return x.groups[i]
}

// SequenceForTrace returns the sequence of one bucketed trace.
func (x *Index) SequenceForTrace(id model.TraceID) ([]string, bool) {
	seq, ok := x.byTrace[id]
	return seq, ok
}

// BucketOf returns the index of the bucket holding the trace.
func (x *Index) BucketOf(id model.TraceID) (int, bool) {
	i, ok := x.bucketOf[id]
	return i, ok
}

// UniqueCount returns the number of distinct sequences in a bucket.
func (x *Index) UniqueCount(i int) int {
	return len(x.SequencesForBucket(i))
}

// Buckets returns the number of indexed buckets.
func (x *Index) Buckets() int {
	return len(x.groups)
}
