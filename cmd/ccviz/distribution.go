package main

import (
	"github.com/spf13/cobra"
)

func distributionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "distribution",
		Aliases: []string{"dist"},
		Short:   "Show the conformance histogram",
		Long: `Show how many traces fall into each conformance bucket, with the mean
conformance and the number of distinct activity sequences per bucket.

--threshold hides buckets that lie entirely below it. --traces switches to one
bar per listed trace, in the order given; the threshold then applies to the
traces' own conformance.`,
		Example: `  ccviz distribution --dataset dataset.json --threshold 0.5
  ccviz distribution --dataset dataset.json --traces "4, 1, 9"`,
		RunE: runDistribution,
	}
	addFilterFlags(cmd)
	return cmd
}

func runDistribution(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	f, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}

	ds, err := openDataset(cmd.Context(), s)
	if err != nil {
		return err
	}

	p := ds.pipeline
	return newReport(cmd, s).Distribution(p.Distribution(f), p.Buckets())
}
