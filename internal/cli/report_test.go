package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelgrohs/ccviz/internal/filter"
	"github.com/michaelgrohs/ccviz/internal/model"
	"github.com/michaelgrohs/ccviz/internal/outcome"
	"github.com/michaelgrohs/ccviz/internal/store"
	"github.com/michaelgrohs/ccviz/internal/view"
)

var testPalette = outcome.Palette{"#67000d", "#a50f15", "#cb181d", "#ef3b2c", "#fb6a4a", "#fc9272", "#fcbba1", "#fee0d2", "#fff5f0"}

func testPipeline(t *testing.T) *view.Pipeline {
	t.Helper()
	b := store.Bundle{
		Fitness: []store.FitnessEntry{
			{Trace: "Trace 1", Conformance: store.NewScore(0.05)},
			{Trace: "Trace 2", Conformance: store.NewScore(0.55)},
			{Trace: "Trace 3", Conformance: store.NewScore(0.95)},
		},
		TraceSequences: []store.TraceSequence{
			{Trace: "Trace 1", Sequence: []string{"A", "B"}},
			{Trace: "Trace 2", Sequence: []string{"A", "C"}},
			{Trace: "Trace 3", Sequence: []string{"A", "B"}},
		},
	}
	p, err := view.NewPipeline(store.New(b), 10)
	require.NoError(t, err)
	return p
}

func TestReport_DistributionAggregated(t *testing.T) {
	p := testPipeline(t)
	var buf bytes.Buffer

	err := NewReport(&buf, testPalette).Distribution(p.Distribution(filter.Filter{Threshold: 0.5}), p.Buckets())
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "Aggregated")
	assert.Contains(t, out, "0.5–0.6")
	assert.Contains(t, out, "0.9–1")
	assert.NotContains(t, out, "0–0.1")
	assert.Contains(t, out, BarGlyph)
}

func TestReport_DistributionEnumerated(t *testing.T) {
	p := testPipeline(t)
	var buf bytes.Buffer

	v := p.Distribution(filter.Filter{}.WithSelectionText("3, 1"))
	require.NoError(t, NewReport(&buf, testPalette).Distribution(v, p.Buckets()))

	out := buf.String()
	assert.Contains(t, out, "Enumerated")
	assert.Less(t, bytes.Index(buf.Bytes(), []byte("Trace 3")), bytes.Index(buf.Bytes(), []byte("Trace 1")))
	assert.Contains(t, out, "Trace 3 (Bin 0.9–1)")
}

func TestReport_DistributionEmpty(t *testing.T) {
	p := testPipeline(t)
	var buf bytes.Buffer

	v := p.Distribution(filter.Filter{}.WithSelectionText("12"))
	require.NoError(t, NewReport(&buf, testPalette).Distribution(v, p.Buckets()))
	assert.Contains(t, buf.String(), view.NoTracesSelected)
}

func TestReport_Sequences(t *testing.T) {
	var buf bytes.Buffer
	r := NewReport(&buf, testPalette)

	require.NoError(t, r.Sequences(view.ClickTarget{
		Label:  "Bin 0–0.1",
		Groups: []model.SequenceGroup{{Sequence: []string{"A", "B"}, Count: 2}},
	}))
	assert.Contains(t, buf.String(), "A → B (×2)")

	buf.Reset()
	require.NoError(t, r.Sequences(view.ClickTarget{Label: "Bin 0.3–0.4"}))
	assert.Contains(t, buf.String(), view.NoSequences)
}

func TestReport_Outcome(t *testing.T) {
	p := testPipeline(t)
	var buf bytes.Buffer

	v := p.Outcome(filter.Filter{}, view.OutcomeSpec{Desired: []string{"B"}, Mode: model.MatchEnd})
	require.NoError(t, NewReport(&buf, testPalette).Outcome(v))

	out := buf.String()
	assert.Contains(t, out, "Percentage of traces ending with B")
	assert.Contains(t, out, "100.0")
	assert.Contains(t, out, "source: local")
}

func TestReport_Check(t *testing.T) {
	var buf bytes.Buffer
	r := NewReport(&buf, testPalette)

	require.NoError(t, r.Check(view.CheckResult{}))
	assert.Contains(t, buf.String(), "no backend bins")

	buf.Reset()
	require.NoError(t, r.Check(view.CheckResult{BucketsCompared: 10}))
	assert.Contains(t, buf.String(), "match the backend")

	buf.Reset()
	require.NoError(t, r.Check(view.CheckResult{
		BucketsCompared: 10,
		Mismatches:      []view.Mismatch{{Bucket: 2, Field: "trace count", Local: "1", Remote: "2"}},
	}))
	assert.Contains(t, buf.String(), "bucket 2 trace count: local 1, backend 2")
}

func TestReport_Palette(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewReport(&buf, outcome.Palette{"#000000", "#ffffff"}).Palette())

	out := buf.String()
	assert.Contains(t, out, "#000000")
	assert.Contains(t, out, "0–0.5")
	assert.Contains(t, out, "0.5–1")
}

func TestScaled(t *testing.T) {
	assert.Equal(t, 0, scaled(0, 10))
	assert.Equal(t, 0, scaled(5, 0))
	assert.Equal(t, MaxBarWidth, scaled(10, 10))
	assert.Equal(t, 1, scaled(0.001, 10))
}
