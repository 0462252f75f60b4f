package view

import (
	"github.com/michaelgrohs/ccviz/internal/filter"
	"github.com/michaelgrohs/ccviz/internal/model"
	"github.com/michaelgrohs/ccviz/internal/outcome"
)

// OutcomeSource tells where the outcome rates of a view came from.
type OutcomeSource string

// Outcome sources.
const (
	SourceLocal   OutcomeSource = "local"
	SourceBackend OutcomeSource = "backend"
	SourceNone    OutcomeSource = "none"
)

// OutcomeSpec selects the desired outcomes and how bubbles are sized.
type OutcomeSpec struct {
	Mode    model.MatchingMode
	Desired []string
	Scale   outcome.RadiusScale
}

// OutcomeView is the conformance vs. outcome bubble chart for one filter state.
type OutcomeView struct {
	EmptyMessage string
	Source       OutcomeSource
	Mode         model.MatchingMode
	Desired      []string
	Bubbles      []model.OutcomeBubble
	Threshold    float64
}

// Outcome derives the bubble chart. When desired outcomes are given the rates
// are classified locally from the trace sequences; otherwise the backend's
// outcome distribution is used as is. Bubbles are filtered by threshold.
func (p *Pipeline) Outcome(f filter.Filter, spec OutcomeSpec) OutcomeView {
	v := OutcomeView{
		Threshold: filter.ClampThreshold(f.Threshold),
		Mode:      spec.Mode,
		Desired:   spec.Desired,
		Source:    SourceNone,
	}
	if v.Mode == "" {
		v.Mode = model.MatchEnd
	}

	scale := spec.Scale
	if scale == (outcome.RadiusScale{}) {
		scale = outcome.DefaultRadiusScale
	}

	var bubbles []model.OutcomeBubble
	switch {
	case len(spec.Desired) > 0:
		classes := outcome.Classify(p.traces, spec.Desired, v.Mode)
		bubbles = scale.Build(p.buckets, classes)
		v.Source = SourceLocal
	case p.store.Outcome() != nil && len(p.store.Outcome().Bins) > 0:
		dist := p.store.Outcome()
		bubbles = scale.FromDistribution(dist.Bins)
		v.Desired = dist.DesiredOutcomes
		if dist.MatchingMode != "" {
			v.Mode = dist.MatchingMode
		}
		v.Source = SourceBackend
	default:
		v.EmptyMessage = NoOutcomeAvailable
		return v
	}

	v.Bubbles = filter.FilterBubbles(bubbles, v.Threshold)
	if len(v.Bubbles) == 0 {
		v.EmptyMessage = NoBucketsAbove
	}
	return v
}
