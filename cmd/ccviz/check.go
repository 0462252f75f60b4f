package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/michaelgrohs/ccviz/internal/common"
	"github.com/michaelgrohs/ccviz/internal/view"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Compare local buckets with the backend's bins",
		Long: `Recompute the conformance buckets locally and compare them with the
pre-aggregated bins the analysis service returned: trace count and mean
conformance per bucket, and the number of distinct sequences per bucket.

The command fails when any bucket disagrees.`,
		RunE: runCheck,
	}
}

func runCheck(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	ds, err := openDataset(cmd.Context(), s)
	if err != nil {
		return err
	}

	res := view.Check(ds.pipeline)
	if err := newReport(cmd, s).Check(res); err != nil {
		return err
	}
	if !res.OK() {
		return common.NewUserError(fmt.Sprintf("Consistency check failed with %d mismatches", len(res.Mismatches)), nil)
	}
	return nil
}
