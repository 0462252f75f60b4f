// Package model defines the core domain models used throughout the application.
package model

import (
	"fmt"
	"math"
	"strings"
)

// TraceID is the stable 1-based ordinal of a trace within its dataset.
type TraceID int

// Label returns the display label the backend uses for the ordinal.
func (id TraceID) Label() string {
	return fmt.Sprintf("Trace %d", int(id))
}

// Trace is one recorded execution of the process.
type Trace struct {
	Label       string   // Backend label, e.g. "Trace 7"
	Sequence    []string // Activity labels in execution order
	Conformance float64
	ID          TraceID
	Scored      bool // False when the backend sent no usable conformance
}

// HasScore reports whether the trace carries a finite conformance score.
func (t Trace) HasScore() bool {
	return t.Scored && !math.IsNaN(t.Conformance) && !math.IsInf(t.Conformance, 0)
}

// DisplayName returns the backend label, falling back to the ordinal label.
func (t Trace) DisplayName() string {
	if t.Label != "" {
		return t.Label
	}
	return t.ID.Label()
}

// FinalActivity returns the last activity of the sequence.
func (t Trace) FinalActivity() (string, bool) {
	if len(t.Sequence) == 0 {
		return "", false
	}
	return t.Sequence[len(t.Sequence)-1], true
}

// ContainsActivity reports whether the activity occurs anywhere in the sequence.
func (t Trace) ContainsActivity(activity string) bool {
	for _, a := range t.Sequence {
		if a == activity {
			return true
		}
	}
	return false
}

// FormatSequence joins activity labels for display.
func FormatSequence(sequence []string) string {
	return strings.Join(sequence, " → ")
}
