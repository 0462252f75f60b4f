package model

import "fmt"

// ViewMode tells whether a distribution view is driven by buckets or by an
// explicit trace selection.
type ViewMode int

const (
	// ModeAggregated shows one bar per conformance bucket.
	ModeAggregated ViewMode = iota
	// ModeEnumerated shows one bar per explicitly selected trace.
	ModeEnumerated
)

// String returns a string representation of the view mode.
func (m ViewMode) String() string {
	switch m {
	case ModeAggregated:
		return "Aggregated"
	case ModeEnumerated:
		return "Enumerated"
	default:
		return fmt.Sprintf("Unknown(%d)", m)
	}
}
