// Package storage persists exported view snapshots in SQLite.
package storage

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
)

// Validation errors.
var (
	ErrNilContext      = errors.New("context cannot be nil")
	ErrEmptyString     = errors.New("string parameter cannot be empty")
	ErrNilParameter    = errors.New("parameter cannot be nil")
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrNotFound        = errors.New("snapshot not found")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateSnapshot checks the fields a snapshot row cannot do without.
func validateSnapshot(snap *Snapshot) error {
	if snap == nil {
		return fmt.Errorf("%w: snapshot", ErrNilParameter)
	}
	if strings.TrimSpace(snap.Dataset) == "" {
		return fmt.Errorf("%w: missing dataset", ErrInvalidSnapshot)
	}
	if snap.BucketCount < 1 {
		return fmt.Errorf("%w: bucket count must be at least 1", ErrInvalidSnapshot)
	}
	if math.IsNaN(snap.Threshold) || snap.Threshold < 0 || snap.Threshold > 1 {
		return fmt.Errorf("%w: threshold must be between 0 and 1", ErrInvalidSnapshot)
	}
	for i, b := range snap.Buckets {
		if b.Index < 0 || b.Index >= snap.BucketCount {
			return fmt.Errorf("%w: bucket %d has index %d", ErrInvalidSnapshot, i, b.Index)
		}
	}
	return nil
}
