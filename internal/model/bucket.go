package model

import "strconv"

// Bucket is one fixed-width interval of the conformance range.
// The interval is [Lo, Hi) except for the final bucket, which is closed.
type Bucket struct {
	Traces             []Trace
	Index              int
	TraceCount         int
	Lo                 float64
	Hi                 float64
	AverageConformance float64
	Closed             bool
}

// Midpoint returns the center of the bucket range.
func (b Bucket) Midpoint() float64 {
	return (b.Lo + b.Hi) / 2
}

// Contains reports whether a score falls inside the bucket range.
func (b Bucket) Contains(score float64) bool {
	if score < b.Lo {
		return false
	}
	if b.Closed {
		return score <= b.Hi
	}
	return score < b.Hi
}

// IsEmpty reports whether no trace was assigned to the bucket.
func (b Bucket) IsEmpty() bool {
	return b.TraceCount == 0
}

// RangeLabel renders the bucket bounds, e.g. "0.2–0.3".
func (b Bucket) RangeLabel() string {
	return FormatRange(b.Lo, b.Hi)
}

// FormatRange renders a conformance interval using the shortest exact decimals.
func FormatRange(lo, hi float64) string {
	return strconv.FormatFloat(lo, 'f', -1, 64) + "–" + strconv.FormatFloat(hi, 'f', -1, 64)
}

// SequenceGroup is a distinct activity sequence and the number of traces sharing it.
type SequenceGroup struct {
	Sequence []string
	Count    int
}

// String renders the sequence with its multiplicity.
func (g SequenceGroup) String() string {
	return FormatSequence(g.Sequence) + " (×" + strconv.Itoa(g.Count) + ")"
}
