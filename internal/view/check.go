package view

import (
	"fmt"
	"math"
)

// MeanTolerance is the largest accepted difference between a local and a
// backend bucket mean.
const MeanTolerance = 1e-6

// Mismatch is one disagreement between the local buckets and the backend's
// pre-aggregated bins.
type Mismatch struct {
	Field  string
	Local  string
	Remote string
	Bucket int // -1 for dataset-wide mismatches
}

func (m Mismatch) String() string {
	if m.Bucket < 0 {
		return fmt.Sprintf("%s: local %s, backend %s", m.Field, m.Local, m.Remote)
	}
	return fmt.Sprintf("bucket %d %s: local %s, backend %s", m.Bucket, m.Field, m.Local, m.Remote)
}

// CheckResult summarizes a consistency check.
type CheckResult struct {
	Mismatches        []Mismatch
	BucketsCompared   int
	SequencesCompared int
}

// OK reports whether no mismatch was found.
func (r CheckResult) OK() bool {
	return len(r.Mismatches) == 0
}

// Check compares the locally computed buckets with the backend's conformance
// bins and unique-sequence bins, where the backend sent them.
func Check(p *Pipeline) CheckResult {
	var res CheckResult

	if bins := p.store.ConformanceBins(); len(bins) > 0 {
		if len(bins) != len(p.buckets) {
			res.Mismatches = append(res.Mismatches, Mismatch{
				Bucket: -1,
				Field:  "bucket count",
				Local:  fmt.Sprint(len(p.buckets)),
				Remote: fmt.Sprint(len(bins)),
			})
		}

		for i := 0; i < min(len(bins), len(p.buckets)); i++ {
			local, remote := p.buckets[i], bins[i]
			res.BucketsCompared++

			if local.TraceCount != remote.TraceCount {
				res.Mismatches = append(res.Mismatches, Mismatch{
					Bucket: i,
					Field:  "trace count",
					Local:  fmt.Sprint(local.TraceCount),
					Remote: fmt.Sprint(remote.TraceCount),
				})
			}
			if math.Abs(local.AverageConformance-remote.AverageConformance) > MeanTolerance {
				res.Mismatches = append(res.Mismatches, Mismatch{
					Bucket: i,
					Field:  "average conformance",
					Local:  fmt.Sprintf("%.6f", local.AverageConformance),
					Remote: fmt.Sprintf("%.6f", remote.AverageConformance),
				})
			}
		}
	}

	if bins := p.store.UniqueSequenceBins(); len(bins) > 0 {
		for i := 0; i < min(len(bins), len(p.buckets)); i++ {
			remote := bins[i].UniqueSequences
			if remote == 0 {
				remote = len(bins[i].Sequences)
			}
			local := p.index.UniqueCount(i)
			res.SequencesCompared++

			if local != remote {
				res.Mismatches = append(res.Mismatches, Mismatch{
					Bucket: i,
					Field:  "unique sequences",
					Local:  fmt.Sprint(local),
					Remote: fmt.Sprint(remote),
				})
			}
		}
	}

	return res
}
