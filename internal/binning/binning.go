// Package binning partitions traces into fixed-width conformance buckets.
package binning

import (
	"errors"
	"fmt"
	"math"

	"github.com/michaelgrohs/ccviz/internal/model"
)

// DefaultBucketCount is the number of buckets used when none is configured.
const DefaultBucketCount = 10

// ErrInvalidBucketCount is returned when fewer than one bucket is requested.
var ErrInvalidBucketCount = errors.New("bucket count must be at least 1")

// Index returns the bucket a score falls into. Scores outside [0, 1] are
// clamped to the first or last bucket; 1.0 lands in the last bucket.
func Index(score float64, n int) int {
	if n <= 1 || math.IsNaN(score) || score <= 0 {
		return 0
	}
	if score >= 1 {
		return n - 1
	}
	// Multiply rather than divide by the width: 0.3/0.1 floors to 2.
	i := int(math.Floor(score * float64(n)))

	// score*n can round across an integer that i/n does not, so settle the
	// edge against Bounds to keep every member inside its bucket range.
	if lo, hi := Bounds(i, n); score < lo && i > 0 {
		i--
	} else if score >= hi && i < n-1 {
		i++
	}
	return i
}

// Bounds returns the range of bucket i out of n.
func Bounds(i, n int) (lo, hi float64) {
	return float64(i) / float64(n), float64(i+1) / float64(n)
}

// ComputeBuckets assigns every scored trace to exactly one of n buckets and
// computes the per-bucket count and mean conformance. Unscored traces are
// left out of every bucket.
func ComputeBuckets(traces []model.Trace, n int) ([]model.Bucket, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBucketCount, n)
	}

	buckets := make([]model.Bucket, n)
	for i := range buckets {
		lo, hi := Bounds(i, n)
		buckets[i] = model.Bucket{
			Index:  i,
			Lo:     lo,
			Hi:     hi,
			Closed: i == n-1,
		}
	}

	sums := make([]float64, n)
	for _, t := range traces {
		if !t.HasScore() {
			continue
		}
		i := Index(t.Conformance, n)
		buckets[i].Traces = append(buckets[i].Traces, t)
		buckets[i].TraceCount++
		sums[i] += t.Conformance
	}

	for i := range buckets {
		if buckets[i].TraceCount > 0 {
			buckets[i].AverageConformance = sums[i] / float64(buckets[i].TraceCount)
		}
	}

	return buckets, nil
}
