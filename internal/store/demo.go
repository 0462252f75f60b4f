package store

import (
	"math"
	"math/rand/v2"

	"github.com/michaelgrohs/ccviz/internal/model"
)

// demoVariants is a small order-to-cash process, each variant paired with
// the best conformance it can reach.
var demoVariants = []struct {
	sequence []string
	best     float64
}{
	{[]string{"Register order", "Check stock", "Ship goods", "Send invoice", "Close order"}, 1},
	{[]string{"Register order", "Check stock", "Send invoice", "Ship goods", "Close order"}, 0.86},
	{[]string{"Register order", "Check stock", "Check stock", "Ship goods", "Send invoice", "Close order"}, 0.78},
	{[]string{"Register order", "Ship goods", "Send invoice", "Close order"}, 0.7},
	{[]string{"Register order", "Check stock", "Cancel order"}, 0.55},
	{[]string{"Register order", "Send invoice", "Cancel order"}, 0.36},
	{[]string{"Ship goods", "Register order", "Close order"}, 0.2},
}

// DemoBundle generates a deterministic dataset of n traces for demos and
// tests. The same seed always yields the same bundle.
func DemoBundle(n int, seed uint64) Bundle {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	b := Bundle{
		Fitness:        make([]FitnessEntry, 0, n),
		TraceSequences: make([]TraceSequence, 0, n),
	}
	for i := range n {
		// Skew towards the conforming variants.
		v := demoVariants[min(len(demoVariants)-1, int(r.ExpFloat64()*1.5))]
		score := v.best - r.Float64()*0.15
		score = math.Round(math.Max(0, math.Min(1, score))*10000) / 10000

		label := model.TraceID(i + 1).Label()
		b.Fitness = append(b.Fitness, FitnessEntry{Trace: label, Conformance: NewScore(score)})
		b.TraceSequences = append(b.TraceSequences, TraceSequence{
			Trace:    label,
			Sequence: append([]string(nil), v.sequence...),
		})
	}
	return b
}
