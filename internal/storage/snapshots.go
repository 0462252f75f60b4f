package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/michaelgrohs/ccviz/internal/model"
	"github.com/michaelgrohs/ccviz/internal/view"
)

// BucketRow is the persisted form of one visible histogram bar.
type BucketRow struct {
	Index              int
	Lo                 float64
	Hi                 float64
	TraceCount         int
	AverageConformance float64
	UniqueSequences    int
}

// Snapshot freezes the derived views of one filter state.
type Snapshot struct {
	CreatedAt    time.Time
	Groups       map[int][]model.SequenceGroup // Keyed by bucket index
	ID           string
	Dataset      string
	Selection    string
	Mode         string
	MatchingMode model.MatchingMode
	Desired      []string
	Buckets      []BucketRow
	Bubbles      []model.OutcomeBubble
	BucketCount  int
	TraceCount   int
	Threshold    float64
}

// SnapshotSummary is one line of the snapshot listing.
type SnapshotSummary struct {
	CreatedAt   time.Time
	ID          string
	Dataset     string
	Mode        string
	BucketCount int
	TraceCount  int
	Buckets     int
	Threshold   float64
}

// NewSnapshot captures the distribution and outcome views of one filter
// state. Only the buckets visible in dv and their sequence groups are kept.
func NewSnapshot(dataset string, p *view.Pipeline, dv view.DistributionView, ov view.OutcomeView, selection string) Snapshot {
	snap := Snapshot{
		Dataset:      dataset,
		Selection:    selection,
		Mode:         dv.Mode.String(),
		MatchingMode: ov.Mode,
		Desired:      ov.Desired,
		Bubbles:      ov.Bubbles,
		BucketCount:  p.BucketCount(),
		Threshold:    dv.Threshold,
		Groups:       make(map[int][]model.SequenceGroup),
	}

	for _, b := range p.Buckets() {
		snap.TraceCount += b.TraceCount
	}

	for _, bar := range dv.Buckets {
		b := bar.Bucket
		snap.Buckets = append(snap.Buckets, BucketRow{
			Index:              b.Index,
			Lo:                 b.Lo,
			Hi:                 b.Hi,
			TraceCount:         b.TraceCount,
			AverageConformance: b.AverageConformance,
			UniqueSequences:    bar.UniqueSequences,
		})
		if groups := p.SequencesForBucket(b.Index); len(groups) > 0 {
			snap.Groups[b.Index] = groups
		}
	}

	return snap
}

// SaveSnapshot writes the snapshot in one transaction and returns its id.
// An empty ID is replaced by a new UUID.
func (s *SQLiteStorage) SaveSnapshot(ctx context.Context, snap *Snapshot) (string, error) {
	if err := validateContext(ctx); err != nil {
		return "", err
	}
	if err := validateSnapshot(snap); err != nil {
		return "", err
	}

	if snap.ID == "" {
		snap.ID = uuid.NewString()
	}
	if snap.CreatedAt.IsZero() {
		snap.CreatedAt = time.Now().UTC()
	}

	desired, err := json.Marshal(nonNil(snap.Desired))
	if err != nil {
		return "", fmt.Errorf("failed to encode desired outcomes: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, dataset, bucket_count, threshold, selection, mode,
			trace_count, created_at, matching_mode, desired_outcomes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		snap.ID, snap.Dataset, snap.BucketCount, snap.Threshold, snap.Selection, snap.Mode,
		snap.TraceCount, snap.CreatedAt, string(snap.MatchingMode), string(desired))
	if err != nil {
		return "", fmt.Errorf("failed to insert snapshot: %w", err)
	}

	for _, b := range snap.Buckets {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO buckets (snapshot_id, bucket_index, lo, hi, trace_count,
				average_conformance, unique_sequences)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			snap.ID, b.Index, b.Lo, b.Hi, b.TraceCount, b.AverageConformance, b.UniqueSequences)
		if err != nil {
			return "", fmt.Errorf("failed to insert bucket %d: %w", b.Index, err)
		}
	}

	for bucket, groups := range snap.Groups {
		for pos, g := range groups {
			seq, err := json.Marshal(nonNil(g.Sequence))
			if err != nil {
				return "", fmt.Errorf("failed to encode sequence: %w", err)
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO sequence_groups (snapshot_id, bucket_index, position, sequence, occurrences)
				VALUES (?, ?, ?, ?, ?)`,
				snap.ID, bucket, pos, string(seq), g.Count)
			if err != nil {
				return "", fmt.Errorf("failed to insert sequence group: %w", err)
			}
		}
	}

	for pos, b := range snap.Bubbles {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO outcome_bubbles (snapshot_id, position, x, y, radius, lo, hi, trace_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			snap.ID, pos, b.X, b.Y, b.Radius, b.Lo, b.Hi, b.Count)
		if err != nil {
			return "", fmt.Errorf("failed to insert outcome bubble: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit snapshot: %w", err)
	}
	return snap.ID, nil
}

// ListSnapshots returns every snapshot, newest first.
func (s *SQLiteStorage) ListSnapshots(ctx context.Context) ([]SnapshotSummary, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT s.id, s.dataset, s.mode, s.bucket_count, s.trace_count, s.threshold, s.created_at,
			(SELECT COUNT(*) FROM buckets b WHERE b.snapshot_id = s.id)
		FROM snapshots s
		ORDER BY s.created_at DESC, s.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshots: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []SnapshotSummary
	for rows.Next() {
		var sum SnapshotSummary
		if err := rows.Scan(&sum.ID, &sum.Dataset, &sum.Mode, &sum.BucketCount, &sum.TraceCount,
			&sum.Threshold, &sum.CreatedAt, &sum.Buckets); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// GetSnapshot loads one snapshot with its buckets, sequence groups and bubbles.
func (s *SQLiteStorage) GetSnapshot(ctx context.Context, id string) (*Snapshot, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(id, "id"); err != nil {
		return nil, err
	}

	snap := &Snapshot{Groups: make(map[int][]model.SequenceGroup)}
	var matching, desired string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, dataset, bucket_count, threshold, selection, mode, trace_count,
			created_at, matching_mode, desired_outcomes
		FROM snapshots WHERE id = ?`, id).
		Scan(&snap.ID, &snap.Dataset, &snap.BucketCount, &snap.Threshold, &snap.Selection,
			&snap.Mode, &snap.TraceCount, &snap.CreatedAt, &matching, &desired)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query snapshot: %w", err)
	}

	snap.MatchingMode = model.MatchingMode(matching)
	if err := json.Unmarshal([]byte(desired), &snap.Desired); err != nil {
		return nil, fmt.Errorf("failed to decode desired outcomes: %w", err)
	}

	if err := s.loadBuckets(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadGroups(ctx, snap); err != nil {
		return nil, err
	}
	if err := s.loadBubbles(ctx, snap); err != nil {
		return nil, err
	}
	return snap, nil
}

// DeleteSnapshot removes a snapshot and everything it owns.
func (s *SQLiteStorage) DeleteSnapshot(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(id, "id"); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (s *SQLiteStorage) loadBuckets(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bucket_index, lo, hi, trace_count, average_conformance, unique_sequences
		FROM buckets WHERE snapshot_id = ? ORDER BY bucket_index`, snap.ID)
	if err != nil {
		return fmt.Errorf("failed to query buckets: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var b BucketRow
		if err := rows.Scan(&b.Index, &b.Lo, &b.Hi, &b.TraceCount, &b.AverageConformance, &b.UniqueSequences); err != nil {
			return fmt.Errorf("failed to scan bucket: %w", err)
		}
		snap.Buckets = append(snap.Buckets, b)
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadGroups(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT bucket_index, sequence, occurrences
		FROM sequence_groups WHERE snapshot_id = ? ORDER BY bucket_index, position`, snap.ID)
	if err != nil {
		return fmt.Errorf("failed to query sequence groups: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var (
			bucket int
			raw    string
			g      model.SequenceGroup
		)
		if err := rows.Scan(&bucket, &raw, &g.Count); err != nil {
			return fmt.Errorf("failed to scan sequence group: %w", err)
		}
		if err := json.Unmarshal([]byte(raw), &g.Sequence); err != nil {
			return fmt.Errorf("failed to decode sequence: %w", err)
		}
		snap.Groups[bucket] = append(snap.Groups[bucket], g)
	}
	return rows.Err()
}

func (s *SQLiteStorage) loadBubbles(ctx context.Context, snap *Snapshot) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT x, y, radius, lo, hi, trace_count
		FROM outcome_bubbles WHERE snapshot_id = ? ORDER BY position`, snap.ID)
	if err != nil {
		return fmt.Errorf("failed to query outcome bubbles: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var b model.OutcomeBubble
		if err := rows.Scan(&b.X, &b.Y, &b.Radius, &b.Lo, &b.Hi, &b.Count); err != nil {
			return fmt.Errorf("failed to scan outcome bubble: %w", err)
		}
		snap.Bubbles = append(snap.Bubbles, b)
	}
	if n := len(snap.Bubbles); n > 0 {
		snap.Bubbles[n-1].Closed = snap.Bubbles[n-1].Hi >= 1
	}
	return rows.Err()
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
