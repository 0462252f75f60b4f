// Package view derives the chart-ready views of a dataset from the current
// filter state.
package view

import (
	"fmt"

	"github.com/michaelgrohs/ccviz/internal/binning"
	"github.com/michaelgrohs/ccviz/internal/filter"
	"github.com/michaelgrohs/ccviz/internal/model"
	"github.com/michaelgrohs/ccviz/internal/sequence"
	"github.com/michaelgrohs/ccviz/internal/store"
)

// Messages shown when a view has nothing to draw.
const (
	NoTracesSelected   = "No traces match the selection."
	NoBucketsAbove     = "No conformance buckets at or above the threshold."
	NoSequences        = "No sequences available."
	NoOutcomeAvailable = "No outcome data available."
)

// Pipeline holds the buckets of one immutable dataset. The store never
// changes during a session, so buckets and their sequence index are computed
// once; every derived view is recomputed from scratch on request.
type Pipeline struct {
	store   *store.Store
	index   *sequence.Index
	buckets []model.Bucket
	traces  []model.Trace
}

// NewPipeline bins the store's traces into bucketCount buckets.
func NewPipeline(s *store.Store, bucketCount int) (*Pipeline, error) {
	traces := s.Traces()

	buckets, err := binning.ComputeBuckets(traces, bucketCount)
	if err != nil {
		return nil, fmt.Errorf("failed to bin traces: %w", err)
	}

	return &Pipeline{
		store:   s,
		traces:  traces,
		buckets: buckets,
		index:   sequence.NewIndex(buckets),
	}, nil
}

// Store returns the underlying trace store.
func (p *Pipeline) Store() *store.Store {
	return p.store
}

// Buckets returns a copy of the unfiltered buckets.
func (p *Pipeline) Buckets() []model.Bucket {
	return append([]model.Bucket(nil), p.buckets...)
}

// BucketCount returns the number of buckets.
func (p *Pipeline) BucketCount() int {
	return len(p.buckets)
}

// Traces returns every trace in ordinal order.
func (p *Pipeline) Traces() []model.Trace {
	return append([]model.Trace(nil), p.traces...)
}

// Index returns the sequence index of the buckets.
func (p *Pipeline) Index() *sequence.Index {
	return p.index
}

// BucketBar is one bar of the aggregated distribution.
type BucketBar struct {
	Bucket          model.Bucket
	UniqueSequences int
}

// TraceBar is one bar of the enumerated distribution.
type TraceBar struct {
	Trace  model.Trace
	Bucket int // Index of the bucket holding the trace
}

// Label renders the bar label, e.g. "Trace 3 (Bin 0.2–0.3)".
func (b TraceBar) Label(buckets []model.Bucket) string {
	return fmt.Sprintf("%s (Bin %s)", b.Trace.DisplayName(), buckets[b.Bucket].RangeLabel())
}

// DistributionView is the conformance histogram for one filter state.
type DistributionView struct {
	EmptyMessage string
	Buckets      []BucketBar // Aggregated mode
	Traces       []TraceBar  // Enumerated mode
	Threshold    float64
	Mode         model.ViewMode
}

// Len returns the number of bars.
func (v DistributionView) Len() int {
	if v.Mode == model.ModeEnumerated {
		return len(v.Traces)
	}
	return len(v.Buckets)
}

// IsEmpty reports whether the view has no bars.
func (v DistributionView) IsEmpty() bool {
	return v.Len() == 0
}

// Distribution derives the histogram for f. With no selection it lists the
// buckets overlapping the threshold; with a selection it lists the selected
// traces scoring at or above the threshold, in selection order.
func (p *Pipeline) Distribution(f filter.Filter) DistributionView {
	v := DistributionView{
		Mode:      f.Mode(),
		Threshold: filter.ClampThreshold(f.Threshold),
	}

	if v.Mode == model.ModeEnumerated {
		selected := filter.SelectTraces(p.traces, f.Selection)
		// Unscored traces never pass the threshold, so each bar has a bucket.
		for _, t := range filter.TracesAtOrAbove(selected, v.Threshold) {
			bucket, _ := p.index.BucketOf(t.ID)
			v.Traces = append(v.Traces, TraceBar{Trace: t, Bucket: bucket})
		}
		if len(v.Traces) == 0 {
			v.EmptyMessage = NoTracesSelected
		}
		return v
	}

	for _, b := range filter.FilterByThreshold(p.buckets, v.Threshold) {
		v.Buckets = append(v.Buckets, BucketBar{
			Bucket:          b,
			UniqueSequences: p.index.UniqueCount(b.Index),
		})
	}
	if len(v.Buckets) == 0 {
		v.EmptyMessage = NoBucketsAbove
	}
	return v
}

// ClickTarget is what a click on one bar resolves to.
type ClickTarget struct {
	Label  string
	Groups []model.SequenceGroup
}

// Empty reports whether there is nothing to show for the target.
func (c ClickTarget) Empty() bool {
	return len(c.Groups) == 0
}

// ResolveClickTarget maps bar i of the view to its sequences. In aggregated
// mode the groups are the distinct sequences of the clicked bucket; in
// enumerated mode the single sequence of the clicked trace.
func (p *Pipeline) ResolveClickTarget(v DistributionView, i int) (ClickTarget, bool) {
	if i < 0 || i >= v.Len() {
		return ClickTarget{}, false
	}

	if v.Mode == model.ModeEnumerated {
		bar := v.Traces[i]
		target := ClickTarget{Label: bar.Label(p.buckets)}
		if len(bar.Trace.Sequence) > 0 {
			target.Groups = []model.SequenceGroup{{
				Sequence: append([]string(nil), bar.Trace.Sequence...),
				Count:    1,
			}}
		}
		return target, true
	}

	bar := v.Buckets[i]
	return ClickTarget{
		Label:  "Bin " + bar.Bucket.RangeLabel(),
		Groups: p.index.SequencesForBucket(bar.Bucket.Index),
	}, true
}

// SequencesForBucket returns the distinct sequences of bucket i.
func (p *Pipeline) SequencesForBucket(i int) []model.SequenceGroup {
	return p.index.SequencesForBucket(i)
}

// SequenceForTrace returns the sequence of the trace with the given ordinal.
func (p *Pipeline) SequenceForTrace(id model.TraceID) ([]string, bool) {
	t, ok := p.store.Trace(id)
	if !ok {
		return nil, false
	}
	return t.Sequence, true
}
