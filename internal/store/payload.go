package store

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/michaelgrohs/ccviz/internal/model"
)

// Score is a conformance value as sent by the backend. Values that are
// missing, non-numeric or not finite decode without error and stay invalid.
type Score struct {
	Value float64
	Valid bool
}

// NewScore returns a valid score.
func NewScore(v float64) Score {
	return Score{Value: v, Valid: true}
}

func (s *Score) set(v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		*s = Score{}
		return
	}
	*s = Score{Value: v, Valid: true}
}

func (s *Score) parse(raw string) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		*s = Score{}
		return
	}
	s.set(v)
}

// UnmarshalJSON accepts numbers and numeric strings.
func (s *Score) UnmarshalJSON(data []byte) error {
	*s = Score{}

	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil //nolint:nilerr // malformed scores mark the trace unscored
	}

	switch x := v.(type) {
	case float64:
		s.set(x)
	case string:
		s.parse(x)
	}
	return nil
}

// MarshalJSON writes invalid scores as null.
func (s Score) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(s.Value)
}

// UnmarshalYAML accepts scalar numbers and numeric strings.
func (s *Score) UnmarshalYAML(node *yaml.Node) error {
	*s = Score{}
	if node.Kind == yaml.ScalarNode {
		s.parse(node.Value)
	}
	return nil
}

// MarshalYAML writes invalid scores as null.
func (s Score) MarshalYAML() (any, error) {
	if !s.Valid {
		return nil, nil
	}
	return s.Value, nil
}

// FitnessEntry is one element of the trace/fitness list.
type FitnessEntry struct {
	Trace       string `json:"trace" yaml:"trace"`
	Conformance Score  `json:"conformance" yaml:"conformance"`
}

// ConformanceBin is a pre-aggregated bucket computed by the backend.
type ConformanceBin struct {
	AverageConformance float64 `json:"averageConformance" yaml:"averageConformance"`
	TraceCount         int     `json:"traceCount" yaml:"traceCount"`
}

// UniqueSequenceBin lists the distinct sequences of one backend bucket.
type UniqueSequenceBin struct {
	Sequences       [][]string `json:"sequences" yaml:"sequences"`
	UniqueSequences int        `json:"uniqueSequences" yaml:"uniqueSequences"`
}

// TraceSequence maps a trace label to its activity sequence.
type TraceSequence struct {
	Trace    string   `json:"trace" yaml:"trace"`
	Sequence []string `json:"sequence" yaml:"sequence"`
}

// ActivityDeviations is carried through to the presentation layer untouched.
type ActivityDeviations struct {
	Deviations  any `json:"deviations" yaml:"deviations"`
	TotalTraces int `json:"total_traces" yaml:"total_traces"`
}

// OutcomeBin is one bucket of the backend's outcome distribution.
type OutcomeBin struct {
	Range                     [2]float64 `json:"range" yaml:"range"`
	Count                     int        `json:"count" yaml:"count"`
	TraceCount                int        `json:"traceCount,omitempty" yaml:"traceCount,omitempty"`
	PercentageEndingCorrectly float64    `json:"percentageEndingCorrectly" yaml:"percentageEndingCorrectly"`
}

// Traces returns the bin's trace count; older backends send it as traceCount.
func (b OutcomeBin) Traces() int {
	if b.Count > 0 {
		return b.Count
	}
	return b.TraceCount
}

// OutcomeDistribution is the response of the outcome-distribution endpoint.
type OutcomeDistribution struct {
	Bins            []OutcomeBin       `json:"bins" yaml:"bins"`
	DesiredOutcomes []string           `json:"desiredOutcomes" yaml:"desiredOutcomes"`
	MatchingMode    model.MatchingMode `json:"matching_mode" yaml:"matching_mode"`
}

// Bundle groups every payload the backend produces for one uploaded dataset.
type Bundle struct {
	ActivityDeviations   *ActivityDeviations  `json:"activityDeviations,omitempty" yaml:"activityDeviations,omitempty"`
	Outcome              *OutcomeDistribution `json:"outcome,omitempty" yaml:"outcome,omitempty"`
	AttributeConformance any                  `json:"attributeConformance,omitempty" yaml:"attributeConformance,omitempty"`
	Fitness              []FitnessEntry       `json:"fitness" yaml:"fitness"`
	ConformanceBins      []ConformanceBin     `json:"conformanceBins,omitempty" yaml:"conformanceBins,omitempty"`
	UniqueSequences      []UniqueSequenceBin  `json:"uniqueSequences,omitempty" yaml:"uniqueSequences,omitempty"`
	TraceSequences       []TraceSequence      `json:"traceSequences,omitempty" yaml:"traceSequences,omitempty"`
}
