package binning

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/michaelgrohs/ccviz/internal/model"
)

func scored(id int, score float64) model.Trace {
	return model.Trace{ID: model.TraceID(id), Conformance: score, Scored: true}
}

func TestIndex(t *testing.T) {
	tests := []struct {
		name  string
		score float64
		n     int
		want  int
	}{
		{name: "zero", score: 0, n: 10, want: 0},
		{name: "first bucket", score: 0.05, n: 10, want: 0},
		{name: "lower bound is inclusive", score: 0.1, n: 10, want: 1},
		{name: "point three", score: 0.3, n: 10, want: 3},
		{name: "point seven", score: 0.7, n: 10, want: 7},
		{name: "just below one", score: 0.999, n: 10, want: 9},
		{name: "exactly one", score: 1.0, n: 10, want: 9},
		{name: "above one is clamped", score: 1.7, n: 10, want: 9},
		{name: "negative is clamped", score: -0.2, n: 10, want: 0},
		{name: "nan", score: math.NaN(), n: 10, want: 0},
		{name: "single bucket", score: 1.0, n: 1, want: 0},
		{name: "three buckets", score: 0.5, n: 3, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Index(tt.score, tt.n))
		})
	}
}

func TestBounds_PartitionUnitInterval(t *testing.T) {
	for _, n := range []int{1, 3, 7, 10, 100} {
		prevHi := 0.0
		for i := 0; i < n; i++ {
			lo, hi := Bounds(i, n)
			assert.Equal(t, prevHi, lo, "bucket %d of %d must start where the previous ended", i, n)
			assert.Greater(t, hi, lo)
			prevHi = hi
		}
		assert.Equal(t, 1.0, prevHi)
	}
}

func TestComputeBuckets_Scenario(t *testing.T) {
	traces := []model.Trace{scored(1, 0.05), scored(2, 0.15), scored(3, 0.95)}

	buckets, err := ComputeBuckets(traces, 10)
	require.NoError(t, err)
	require.Len(t, buckets, 10)

	for i, b := range buckets {
		switch i {
		case 0, 1, 9:
			assert.Equal(t, 1, b.TraceCount, "bucket %d", i)
		default:
			assert.Equal(t, 0, b.TraceCount, "bucket %d", i)
		}
	}

	assert.InDelta(t, 0.05, buckets[0].AverageConformance, 1e-12)
	assert.InDelta(t, 0.95, buckets[9].AverageConformance, 1e-12)
	assert.True(t, buckets[9].Closed)
	assert.False(t, buckets[8].Closed)
}

func TestComputeBuckets_Empty(t *testing.T) {
	buckets, err := ComputeBuckets(nil, 10)
	require.NoError(t, err)
	require.Len(t, buckets, 10)

	for _, b := range buckets {
		assert.Equal(t, 0, b.TraceCount)
		assert.Equal(t, 0.0, b.AverageConformance)
		assert.False(t, math.IsNaN(b.AverageConformance))
		assert.Empty(t, b.Traces)
	}
}

func TestComputeBuckets_InvalidCount(t *testing.T) {
	for _, n := range []int{0, -3} {
		_, err := ComputeBuckets(nil, n)
		require.ErrorIs(t, err, ErrInvalidBucketCount)
	}
}

func TestComputeBuckets_PerfectScoreLandsInLastBucket(t *testing.T) {
	traces := []model.Trace{scored(1, 1.0), scored(2, 1.0)}

	for _, n := range []int{1, 4, 10, 33} {
		buckets, err := ComputeBuckets(traces, n)
		require.NoError(t, err)
		require.Len(t, buckets, n)
		assert.Equal(t, 2, buckets[n-1].TraceCount)
		assert.InDelta(t, 1.0, buckets[n-1].AverageConformance, 1e-12)
	}
}

func TestComputeBuckets_ExcludesUnscored(t *testing.T) {
	traces := []model.Trace{
		scored(1, 0.4),
		{ID: 2, Conformance: 0.4},
		{ID: 3, Conformance: math.NaN(), Scored: true},
	}

	buckets, err := ComputeBuckets(traces, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, countAll(buckets))
	assert.Equal(t, 1, buckets[4].TraceCount)
}

func TestComputeBuckets_ClampsOutOfRange(t *testing.T) {
	traces := []model.Trace{scored(1, -0.5), scored(2, 2.5)}

	buckets, err := ComputeBuckets(traces, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, buckets[0].TraceCount)
	assert.Equal(t, 1, buckets[9].TraceCount)
}

func TestComputeBuckets_EveryTraceInExactlyOneBucket(t *testing.T) {
	rng := rand.New(rand.NewSource(42)) // #nosec G404 - deterministic test data

	for round := 0; round < 20; round++ {
		n := 1 + rng.Intn(25)
		traces := make([]model.Trace, rng.Intn(200))
		for i := range traces {
			traces[i] = scored(i+1, rng.Float64())
		}

		buckets, err := ComputeBuckets(traces, n)
		require.NoError(t, err)
		assert.Equal(t, len(traces), countAll(buckets))

		seen := make(map[model.TraceID]int)
		for _, b := range buckets {
			for _, tr := range b.Traces {
				seen[tr.ID]++
				assert.True(t, b.Contains(tr.Conformance), "trace %d outside bucket %d", tr.ID, b.Index)
			}
		}
		for _, tr := range traces {
			assert.Equal(t, 1, seen[tr.ID])
		}
	}
}

func TestComputeBuckets_DoesNotMutateInput(t *testing.T) {
	traces := []model.Trace{scored(1, 0.2), scored(2, 0.8)}
	snapshot := append([]model.Trace(nil), traces...)

	_, err := ComputeBuckets(traces, 5)
	require.NoError(t, err)
	assert.Equal(t, snapshot, traces)
}

func TestIndex_LowerBoundsLandInTheirBucket(t *testing.T) {
	for n := 1; n <= 1000; n++ {
		for i := range n {
			lo, hi := Bounds(i, n)
			require.Equal(t, i, Index(lo, n), "lower bound %v of bucket %d/%d", lo, i, n)
			if i < n-1 {
				require.Equal(t, i+1, Index(hi, n), "upper bound %v of bucket %d/%d", hi, i, n)
			}
		}
	}
}

func TestComputeBuckets_ScoreOnBoundaryIsContained(t *testing.T) {
	// 15/22 times 22 rounds to just under 15.
	lo, _ := Bounds(15, 22)
	require.InDelta(t, 0.6818181818181818, lo, 1e-16)

	buckets, err := ComputeBuckets([]model.Trace{scored(1, lo)}, 22)
	require.NoError(t, err)
	assert.Equal(t, 1, buckets[15].TraceCount)
	assert.Zero(t, buckets[14].TraceCount)
	assert.True(t, buckets[15].Contains(lo))
}

func countAll(buckets []model.Bucket) int {
	total := 0
	for _, b := range buckets {
		total += b.TraceCount
	}
	return total
}
