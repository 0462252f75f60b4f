package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/michaelgrohs/ccviz/internal/common"
	"github.com/michaelgrohs/ccviz/internal/filter"
)

func sequencesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sequences",
		Short: "List the activity sequences behind a bar",
		Long: `List the distinct activity sequences of one conformance bucket, with how
many traces share each, or the sequence of a single trace.`,
		Example: `  ccviz sequences --dataset dataset.json --bucket 10
  ccviz sequences --dataset dataset.json --trace 42`,
		RunE: runSequences,
	}
	cmd.Flags().Int("bucket", 0, "bucket number, 1 for the lowest conformance")
	cmd.Flags().Int("trace", 0, "trace number")
	cmd.MarkFlagsOneRequired("bucket", "trace")
	cmd.MarkFlagsMutuallyExclusive("bucket", "trace")
	return cmd
}

func runSequences(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	bucket, _ := cmd.Flags().GetInt("bucket")
	trace, _ := cmd.Flags().GetInt("trace")

	ds, err := openDataset(cmd.Context(), s)
	if err != nil {
		return err
	}
	p := ds.pipeline

	// Both lookups go through the same click resolution as the charts: an
	// unfiltered histogram for buckets, a one-trace selection for traces.
	var (
		f   filter.Filter
		bar int
	)
	if cmd.Flags().Changed("trace") {
		if trace < 1 || trace > p.Store().Len() {
			return common.NewUserError(fmt.Sprintf("--trace must be between 1 and %d", p.Store().Len()), nil)
		}
		f = f.WithSelection([]int{trace})
	} else {
		if bucket < 1 || bucket > p.BucketCount() {
			return common.NewUserError(fmt.Sprintf("--bucket must be between 1 and %d", p.BucketCount()), nil)
		}
		bar = bucket - 1
	}

	target, ok := p.ResolveClickTarget(p.Distribution(f), bar)
	if !ok {
		return common.NewUserError(fmt.Sprintf("Trace %d has no conformance score", trace), nil)
	}
	return newReport(cmd, s).Sequences(target)
}
