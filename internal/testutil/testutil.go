// Package testutil provides dataset builders and database setup shared by
// tests across packages.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/michaelgrohs/ccviz/internal/storage"
	"github.com/michaelgrohs/ccviz/internal/store"
)

// BundleBuilder provides a fluent interface for constructing test datasets.
// Traces are numbered in the order they are added.
type BundleBuilder struct {
	bundle store.Bundle
}

// NewBundleBuilder returns an empty builder.
func NewBundleBuilder() *BundleBuilder {
	return &BundleBuilder{}
}

// WithTrace adds a scored trace and its activity sequence.
func (b *BundleBuilder) WithTrace(label string, conformance float64, sequence ...string) *BundleBuilder {
	return b.add(label, store.NewScore(conformance), sequence)
}

// WithUnscoredTrace adds a trace the backend could not score.
func (b *BundleBuilder) WithUnscoredTrace(label string, sequence ...string) *BundleBuilder {
	return b.add(label, store.Score{}, sequence)
}

func (b *BundleBuilder) add(label string, score store.Score, sequence []string) *BundleBuilder {
	b.bundle.Fitness = append(b.bundle.Fitness, store.FitnessEntry{Trace: label, Conformance: score})
	if len(sequence) > 0 {
		b.bundle.TraceSequences = append(b.bundle.TraceSequences, store.TraceSequence{Trace: label, Sequence: sequence})
	}
	return b
}

// WithConformanceBins sets the backend's pre-aggregated buckets.
func (b *BundleBuilder) WithConformanceBins(bins ...store.ConformanceBin) *BundleBuilder {
	b.bundle.ConformanceBins = append(b.bundle.ConformanceBins, bins...)
	return b
}

// WithOutcome sets the backend's outcome distribution.
func (b *BundleBuilder) WithOutcome(outcome store.OutcomeDistribution) *BundleBuilder {
	b.bundle.Outcome = &outcome
	return b
}

// Build returns the dataset.
func (b *BundleBuilder) Build() store.Bundle {
	return b.bundle
}

// WriteDataset saves bundle as a JSON dataset file in a temp directory and
// returns its path.
func WriteDataset(t *testing.T, bundle store.Bundle) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dataset.json")
	if err := store.SaveFile(path, bundle); err != nil {
		t.Fatalf("failed to write dataset: %v", err)
	}
	return path
}

// SetupTestDB creates a migrated snapshot database in a temp directory.
// It is closed automatically when the test ends.
func SetupTestDB(t *testing.T) *storage.SQLiteStorage {
	t.Helper()

	db, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), storage.DefaultFileName))
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close test database: %v", err)
		}
	})

	return db
}
