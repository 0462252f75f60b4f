package filter

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelgrohs/ccviz/internal/binning"
	"github.com/michaelgrohs/ccviz/internal/model"
)

func traces(scores ...float64) []model.Trace {
	out := make([]model.Trace, len(scores))
	for i, s := range scores {
		out[i] = model.Trace{ID: model.TraceID(i + 1), Conformance: s, Scored: true}
	}
	return out
}

func ids(ts []model.Trace) []model.TraceID {
	out := make([]model.TraceID, len(ts))
	for i, t := range ts {
		out[i] = t.ID
	}
	return out
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []int
	}{
		{name: "mixed with garbage", input: "1, 3, abc, 2", want: []int{1, 3, 2}},
		{name: "empty", input: "", want: nil},
		{name: "only separators", input: " , ,, ", want: nil},
		{name: "duplicates kept", input: "2,2,1", want: []int{2, 2, 1}},
		{name: "decimals dropped", input: "1.5, 4", want: []int{4}},
		{name: "signed numbers parsed", input: "-1, +2", want: []int{-1, 2}},
		{name: "embedded text dropped", input: "3a, 5", want: []int{5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSelection(tt.input))
		})
	}
}

func TestSelectTraces(t *testing.T) {
	all := traces(0.1, 0.2, 0.3)

	tests := []struct {
		name string
		ids  []int
		want []model.TraceID
	}{
		{name: "order preserved", ids: []int{1, 3, 2}, want: []model.TraceID{1, 3, 2}},
		{name: "out of range dropped", ids: []int{0, 4, 2, -1}, want: []model.TraceID{2}},
		{name: "duplicates kept", ids: []int{3, 3}, want: []model.TraceID{3, 3}},
		{name: "nothing selected", ids: nil, want: []model.TraceID{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(SelectTraces(all, tt.ids)))
		})
	}
}

func TestSelectionScenario(t *testing.T) {
	f := Filter{}.WithSelectionText("1, 3, abc, 2")

	assert.Equal(t, model.ModeEnumerated, f.Mode())
	assert.Equal(t, []model.TraceID{1, 3, 2}, ids(SelectTraces(traces(0.1, 0.5, 0.9), f.Selection)))
	assert.Equal(t, "1, 3, 2", f.SelectionText())
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, model.ModeAggregated, ModeFor(nil))
	assert.Equal(t, model.ModeAggregated, Filter{}.WithSelectionText("abc").Mode())
	assert.Equal(t, model.ModeEnumerated, ModeFor([]int{7}))
}

func TestFilterByThreshold(t *testing.T) {
	buckets, err := binning.ComputeBuckets(nil, 10)
	require.NoError(t, err)

	tests := []struct {
		name      string
		threshold float64
		wantFirst int
		wantLen   int
	}{
		{name: "zero keeps all", threshold: 0, wantFirst: 0, wantLen: 10},
		{name: "one keeps the closed last bucket", threshold: 1, wantFirst: 9, wantLen: 1},
		{name: "straddling bucket stays", threshold: 0.35, wantFirst: 3, wantLen: 7},
		{name: "exact boundary drops the bucket below", threshold: 0.5, wantFirst: 5, wantLen: 5},
		{name: "negative is clamped", threshold: -4, wantFirst: 0, wantLen: 10},
		{name: "above one is clamped", threshold: 9, wantFirst: 9, wantLen: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterByThreshold(buckets, tt.threshold)
			require.Len(t, got, tt.wantLen)
			assert.Equal(t, tt.wantFirst, got[0].Index)
		})
	}
}

func TestFilterByThreshold_DoesNotMutate(t *testing.T) {
	buckets, err := binning.ComputeBuckets(traces(0.1, 0.6, 0.61), 10)
	require.NoError(t, err)
	before := append([]model.Bucket(nil), buckets...)

	FilterByThreshold(buckets, 0.55)

	assert.Equal(t, before, buckets)
}

func TestFilterBubbles(t *testing.T) {
	bubbles := []model.OutcomeBubble{
		{Lo: 0, Hi: 0.5},
		{Lo: 0.5, Hi: 1, Closed: true},
	}

	assert.Len(t, FilterBubbles(bubbles, 0), 2)
	assert.Len(t, FilterBubbles(bubbles, 0.5), 1)
	assert.Len(t, FilterBubbles(bubbles, 1), 1)
}

func TestTracesAtOrAbove(t *testing.T) {
	all := append(traces(0.2, 0.5, 0.8), model.Trace{ID: 4, Conformance: 0.9})

	assert.Equal(t, []model.TraceID{2, 3}, ids(TracesAtOrAbove(all, 0.5)))
	assert.Equal(t, []model.TraceID{1, 2, 3}, ids(TracesAtOrAbove(all, 0)))
	assert.Empty(t, TracesAtOrAbove(all, 1))
}

func TestClampThreshold(t *testing.T) {
	assert.Equal(t, 0.0, ClampThreshold(math.NaN()))
	assert.Equal(t, 0.0, ClampThreshold(-0.1))
	assert.Equal(t, 0.4, ClampThreshold(0.4))
	assert.Equal(t, 1.0, ClampThreshold(1.2))

	f := Filter{}.WithThreshold(3)
	assert.Equal(t, 1.0, f.Threshold)
}
