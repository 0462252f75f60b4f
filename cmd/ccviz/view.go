package main

import (
	"github.com/spf13/cobra"

	"github.com/michaelgrohs/ccviz/internal/common"
	"github.com/michaelgrohs/ccviz/internal/tui"
	"github.com/michaelgrohs/ccviz/internal/tui/themes"
	"github.com/michaelgrohs/ccviz/internal/view"
)

func viewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "view",
		Short: "Browse the conformance views interactively",
		Long: `Open the terminal UI: the conformance histogram and the conformance vs.
outcome chart, with a threshold slider, a trace selection input and the
sequence dialog for the highlighted bar.

With --watch the dataset file is reloaded whenever it changes.`,
		Example: `  ccviz view --dataset dataset.json --watch`,
		RunE:    runView,
	}
	cmd.Flags().Bool("watch", false, "reload the dataset file when it changes")
	addOutcomeFlags(cmd)
	return cmd
}

func runView(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	spec, err := outcomeSpec(cmd, s)
	if err != nil {
		return err
	}
	watch, _ := cmd.Flags().GetBool("watch")

	ds, err := openDataset(cmd.Context(), s)
	if err != nil {
		return err
	}

	opts := []tui.Option{
		tui.WithTheme(themes.GetTheme(s.UI.Theme)),
		tui.WithPalette(palette(s)),
		tui.WithOutcome(spec),
		tui.WithThresholdStep(s.UI.ThresholdStep),
	}
	if watch {
		if ds.path == "" {
			return common.NewUserError("--watch needs a dataset file; pass --dataset", nil)
		}
		buckets := s.Buckets.Count
		opts = append(opts, tui.WithWatch(ds.path, func(path string) (*view.Pipeline, error) {
			return loadPipeline(path, buckets)
		}))
	}

	return tui.Run(cmd.Context(), ds.pipeline, opts...)
}
