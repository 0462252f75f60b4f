package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/michaelgrohs/ccviz/internal/backend"
	"github.com/michaelgrohs/ccviz/internal/cli"
	"github.com/michaelgrohs/ccviz/internal/common"
	"github.com/michaelgrohs/ccviz/internal/config"
	"github.com/michaelgrohs/ccviz/internal/filter"
	"github.com/michaelgrohs/ccviz/internal/model"
	"github.com/michaelgrohs/ccviz/internal/outcome"
	"github.com/michaelgrohs/ccviz/internal/storage"
	"github.com/michaelgrohs/ccviz/internal/store"
	"github.com/michaelgrohs/ccviz/internal/view"
)

// loadSettings returns the validated settings of the current invocation.
func loadSettings() (config.Settings, error) {
	return config.Load(viper.GetViper())
}

// newClient creates a backend client from the settings.
func newClient(s config.Settings) *backend.Client {
	return backend.NewClient(s.Backend.URL,
		backend.WithTimeout(s.Backend.Timeout),
		backend.WithMaxAttempts(s.Backend.Retries))
}

// loadPipeline builds a pipeline from a dataset file.
func loadPipeline(path string, buckets int) (*view.Pipeline, error) {
	b, err := store.LoadFile(config.ExpandPath(path))
	if err != nil {
		return nil, err
	}
	return view.NewPipeline(store.New(b), buckets)
}

// dataset is the pipeline a command works on and where it came from.
type dataset struct {
	pipeline *view.Pipeline
	name     string
	path     string // Empty when fetched from the backend
}

// openDataset loads --dataset, or fetches the analysis of the last uploaded
// dataset from the backend when no file is given.
func openDataset(ctx context.Context, s config.Settings) (dataset, error) {
	if path := viper.GetString("dataset"); path != "" {
		p, err := loadPipeline(path, s.Buckets.Count)
		if err != nil {
			return dataset{}, common.NewUserError(fmt.Sprintf("Could not load dataset %s", path), err)
		}
		return dataset{pipeline: p, name: filepath.Base(path), path: config.ExpandPath(path)}, nil
	}

	client := newClient(s)
	common.LogDebug("No dataset file given, fetching from backend", common.Fields{"url": client.BaseURL()})

	mode, err := model.ParseMatchingMode(s.Outcome.MatchingMode)
	if err != nil {
		return dataset{}, err
	}
	b, err := client.Fetch(ctx, backend.OutcomeRequest{
		MatchingMode:       mode,
		SelectedActivities: s.Outcome.Desired,
	}, nil)
	if err != nil {
		return dataset{}, common.NewUserError("Could not fetch results from the backend; run 'ccviz fetch' first or pass --dataset", err)
	}

	p, err := view.NewPipeline(store.New(b), s.Buckets.Count)
	if err != nil {
		return dataset{}, err
	}
	return dataset{pipeline: p, name: client.BaseURL()}, nil
}

// addFilterFlags registers the threshold and trace selection flags.
func addFilterFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("threshold", 0, "hide buckets entirely below this conformance (0..1)")
	cmd.Flags().String("traces", "", `comma separated trace numbers to show individually, e.g. "1, 3, 2"`)
}

// thresholdFromFlags reads and range checks --threshold.
func thresholdFromFlags(cmd *cobra.Command) (float64, error) {
	threshold, err := cmd.Flags().GetFloat64("threshold")
	if err != nil {
		return 0, err
	}
	if threshold < 0 || threshold > 1 {
		return 0, common.NewUserError(fmt.Sprintf("--threshold must be between 0 and 1, got %g", threshold), nil)
	}
	return threshold, nil
}

// filterFromFlags builds the filter state from the filter flags.
func filterFromFlags(cmd *cobra.Command) (filter.Filter, error) {
	threshold, err := thresholdFromFlags(cmd)
	if err != nil {
		return filter.Filter{}, err
	}
	traces, err := cmd.Flags().GetString("traces")
	if err != nil {
		return filter.Filter{}, err
	}
	return filter.Filter{}.WithThreshold(threshold).WithSelectionText(traces), nil
}

// addOutcomeFlags registers the desired outcome flags.
func addOutcomeFlags(cmd *cobra.Command) {
	cmd.Flags().StringSlice("desired", nil, "desired outcome activities (default from config)")
	cmd.Flags().String("mode", "", "outcome matching mode: end or contains (default from config)")
}

// outcomeSpec combines the outcome flags with the configured defaults.
func outcomeSpec(cmd *cobra.Command, s config.Settings) (view.OutcomeSpec, error) {
	desired := s.Outcome.Desired
	if cmd.Flags().Changed("desired") {
		d, err := cmd.Flags().GetStringSlice("desired")
		if err != nil {
			return view.OutcomeSpec{}, err
		}
		desired = d
	}

	modeName := s.Outcome.MatchingMode
	if cmd.Flags().Changed("mode") {
		m, err := cmd.Flags().GetString("mode")
		if err != nil {
			return view.OutcomeSpec{}, err
		}
		modeName = m
	}
	mode, err := model.ParseMatchingMode(modeName)
	if err != nil {
		return view.OutcomeSpec{}, common.NewUserError(err.Error(), nil)
	}

	return view.OutcomeSpec{
		Mode:    mode,
		Desired: desired,
		Scale:   outcome.RadiusScale{Min: s.Outcome.RadiusMin, Max: s.Outcome.RadiusMax},
	}, nil
}

func palette(s config.Settings) outcome.Palette {
	return outcome.Palette(s.Colors.Palette)
}

func newReport(cmd *cobra.Command, s config.Settings) *cli.Report {
	return cli.NewReport(cmd.OutOrStdout(), palette(s))
}

// snapshotPath returns the snapshot database path, defaulting to the config directory.
func snapshotPath(cmd *cobra.Command) (string, error) {
	path, err := cmd.Flags().GetString("db")
	if err != nil {
		return "", err
	}
	if path != "" {
		return config.ExpandPath(path), nil
	}
	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(dir, storage.DefaultFileName), nil
}

// initStorage opens the snapshot database and runs migrations.
func initStorage(ctx context.Context, cmd *cobra.Command) (*storage.SQLiteStorage, error) {
	path, err := snapshotPath(cmd)
	if err != nil {
		return nil, err
	}
	s, err := storage.Open(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot database: %w", err)
	}
	return s, nil
}
