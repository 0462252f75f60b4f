// Package main runs the terminal UI over a generated dataset
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/michaelgrohs/ccviz/internal/model"
	"github.com/michaelgrohs/ccviz/internal/store"
	"github.com/michaelgrohs/ccviz/internal/tui"
	"github.com/michaelgrohs/ccviz/internal/view"
)

func main() {
	var (
		traces  int
		seed    uint64
		buckets int
	)

	cmd := &cobra.Command{
		Use:   "tui-demo",
		Short: "Browse a generated conformance dataset",
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := view.NewPipeline(store.New(store.DemoBundle(traces, seed)), buckets)
			if err != nil {
				return fmt.Errorf("failed to build demo dataset: %w", err)
			}
			return tui.Run(cmd.Context(), p,
				tui.WithSize(120, 40),
				tui.WithOutcome(view.OutcomeSpec{Mode: model.MatchEnd, Desired: []string{"Close order"}}),
			)
		},
	}
	cmd.Flags().IntVar(&traces, "traces", 500, "number of generated traces")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "generator seed")
	cmd.Flags().IntVar(&buckets, "buckets", 10, "number of conformance buckets")

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cmd.ExecuteContext(ctx)
	cancel()

	if err != nil {
		// Use explicit error check to satisfy forbidigo
		_, _ = fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
