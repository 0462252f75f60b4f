package model

import (
	"fmt"
	"strings"
)

// MatchingMode selects how a trace is tested against the desired outcomes.
type MatchingMode string

// Matching modes supported by the outcome classification.
const (
	MatchEnd      MatchingMode = "end"
	MatchContains MatchingMode = "contains"
)

// ParseMatchingMode validates a configured matching mode.
func ParseMatchingMode(s string) (MatchingMode, error) {
	switch MatchingMode(strings.ToLower(strings.TrimSpace(s))) {
	case MatchEnd, "":
		return MatchEnd, nil
	case MatchContains:
		return MatchContains, nil
	default:
		return "", fmt.Errorf("unknown matching mode %q: must be end or contains", s)
	}
}

// Describe returns the phrase used in axis titles and tooltips.
func (m MatchingMode) Describe() string {
	if m == MatchContains {
		return "containing"
	}
	return "ending with"
}

// OutcomeBubble is one point of the conformance vs. outcome chart.
type OutcomeBubble struct {
	X      float64 // Bucket midpoint
	Y      float64 // Percentage of positive outcomes, within [0, 100]
	Radius float64
	Lo     float64
	Hi     float64
	Count  int
	Closed bool
}

// RangeLabel renders the bucket bounds of the bubble.
func (b OutcomeBubble) RangeLabel() string {
	return FormatRange(b.Lo, b.Hi)
}
