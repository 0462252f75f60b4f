package backend

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/michaelgrohs/ccviz/internal/model"
	"github.com/michaelgrohs/ccviz/internal/store"
)

// OutcomeRequest selects how the service classifies trace outcomes. An empty
// activity list lets the service pick the desired outcomes itself.
type OutcomeRequest struct {
	MatchingMode       model.MatchingMode `json:"matchingMode"`
	SelectedActivities []string           `json:"selectedActivities"`
}

// Progress is told the name of each fetch step as it starts.
type Progress func(step string)

// FetchSteps is the number of steps Fetch reports to its Progress.
const FetchSteps = 7

// Fetch downloads every analysis payload of the last uploaded dataset. A
// failing outcome distribution is logged and left empty, since the rest of
// the bundle is still usable.
func (c *Client) Fetch(ctx context.Context, req OutcomeRequest, progress Progress) (store.Bundle, error) {
	if progress == nil {
		progress = func(string) {}
	}
	if req.SelectedActivities == nil {
		req.SelectedActivities = []string{}
	}

	var b store.Bundle

	steps := []struct {
		out  any
		name string
		path string
	}{
		{name: "unique sequences", path: pathUniqueSequences, out: &b.UniqueSequences},
		{name: "trace sequences", path: pathTraceSequences, out: &b.TraceSequences},
		{name: "fitness", path: pathFitness, out: &b.Fitness},
		{name: "conformance bins", path: pathConformanceBins, out: &b.ConformanceBins},
		{name: "activity deviations", path: pathActivityDeviations, out: &b.ActivityDeviations},
	}

	for _, step := range steps {
		progress(step.name)
		if err := c.getJSON(ctx, step.path, step.out); err != nil {
			return store.Bundle{}, fmt.Errorf("failed to fetch %s: %w", step.name, err)
		}
	}

	progress("outcome distribution")
	var dist store.OutcomeDistribution
	if err := c.postJSON(ctx, pathOutcomeDistribution, req, &dist); err != nil {
		if ctx.Err() != nil {
			return store.Bundle{}, ctx.Err()
		}
		slog.Warn("Outcome distribution unavailable, continuing without it",
			"matching_mode", req.MatchingMode,
			"error", err)
	} else {
		b.Outcome = &dist
	}

	progress("attribute conformance")
	if err := c.getJSON(ctx, pathAttributeConformance, &b.AttributeConformance); err != nil {
		return store.Bundle{}, fmt.Errorf("failed to fetch attribute conformance: %w", err)
	}

	slog.Info("Fetched analysis results",
		"traces", len(b.Fitness),
		"conformance_bins", len(b.ConformanceBins),
		"unique_sequence_bins", len(b.UniqueSequences))

	return b, nil
}
