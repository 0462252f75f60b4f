package main

import (
	"github.com/spf13/cobra"

	"github.com/michaelgrohs/ccviz/internal/filter"
)

func outcomeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "outcome",
		Short: "Relate conformance to process outcomes",
		Long: `Show, per conformance bucket, the percentage of traces that reach a desired
outcome.

With --desired the outcome of every trace is decided locally: in "end" mode a
trace counts when its last activity is one of the desired ones, in "contains"
mode when any of them occurs. Without desired outcomes the distribution
computed by the analysis service during 'ccviz fetch' is shown.`,
		Example: `  ccviz outcome --dataset dataset.json --desired "O_ACCEPTED" --mode end`,
		RunE:    runOutcome,
	}
	addOutcomeFlags(cmd)
	cmd.Flags().Float64("threshold", 0, "hide buckets entirely below this conformance (0..1)")
	return cmd
}

func runOutcome(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	spec, err := outcomeSpec(cmd, s)
	if err != nil {
		return err
	}
	threshold, err := thresholdFromFlags(cmd)
	if err != nil {
		return err
	}

	ds, err := openDataset(cmd.Context(), s)
	if err != nil {
		return err
	}

	f := filter.Filter{}.WithThreshold(threshold)
	return newReport(cmd, s).Outcome(ds.pipeline.Outcome(f, spec))
}
