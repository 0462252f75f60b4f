package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/michaelgrohs/ccviz/internal/cli"
	"github.com/michaelgrohs/ccviz/internal/common"
	"github.com/michaelgrohs/ccviz/internal/model"
	"github.com/michaelgrohs/ccviz/internal/storage"
)

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Save the current views as a snapshot",
		Long: `Save the visible buckets, their distinct sequences and the outcome bubbles
of one filter state to the snapshot database.

Snapshots can be listed, shown and deleted with the subcommands.`,
		Example: `  ccviz export --dataset dataset.json --threshold 0.5
  ccviz export list
  ccviz export show 1b4e28ba-2fa1-11d2-883f-0016d3cca427`,
		RunE: runExport,
	}
	cmd.PersistentFlags().String("db", "", "snapshot database (default: $HOME/.config/ccviz/snapshots.db)")
	addFilterFlags(cmd)
	addOutcomeFlags(cmd)

	cmd.AddCommand(exportListCmd())
	cmd.AddCommand(exportShowCmd())
	cmd.AddCommand(exportDeleteCmd())
	return cmd
}

// withStorage opens the snapshot database for the duration of fn.
func withStorage(cmd *cobra.Command, fn func(context.Context, *storage.SQLiteStorage) error) error {
	ctx := cmd.Context()
	db, err := initStorage(ctx, cmd)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			common.LogError(closeErr, "failed to close storage", nil)
		}
	}()
	return fn(ctx, db)
}

func runExport(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	f, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	spec, err := outcomeSpec(cmd, s)
	if err != nil {
		return err
	}

	ds, err := openDataset(cmd.Context(), s)
	if err != nil {
		return err
	}
	p := ds.pipeline
	snap := storage.NewSnapshot(ds.name, p, p.Distribution(f), p.Outcome(f, spec), f.SelectionText())

	return withStorage(cmd, func(ctx context.Context, db *storage.SQLiteStorage) error {
		id, err := db.SaveSnapshot(ctx, &snap)
		if err != nil {
			return fmt.Errorf("failed to save snapshot: %w", err)
		}
		common.LogInfo("Saved snapshot", common.Fields{
			"id":      id,
			"buckets": len(snap.Buckets),
			"db":      db.Path(),
		})
		_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
		return err
	})
}

func exportListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStorage(cmd, func(ctx context.Context, db *storage.SQLiteStorage) error {
				snaps, err := db.ListSnapshots(ctx)
				if err != nil {
					return fmt.Errorf("failed to list snapshots: %w", err)
				}
				return printSnapshotList(cmd.OutOrStdout(), snaps)
			})
		},
	}
}

func printSnapshotList(out io.Writer, snaps []storage.SnapshotSummary) error {
	if len(snaps) == 0 {
		_, err := fmt.Fprintln(out, cli.InfoStyle.Render("No snapshots found. Use 'ccviz export' to create one."))
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("ID"),
		headerStyle.Render("Created"),
		headerStyle.Render("Dataset"),
		headerStyle.Render("Mode"),
		headerStyle.Render("Threshold"),
		headerStyle.Render("Buckets"),
	)
	for _, s := range snaps {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\t%d/%d\n",
			s.ID,
			s.CreatedAt.Local().Format(time.DateTime),
			s.Dataset,
			s.Mode,
			s.Threshold,
			s.Buckets,
			s.BucketCount,
		)
	}
	return w.Flush()
}

func exportShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd, func(ctx context.Context, db *storage.SQLiteStorage) error {
				snap, err := db.GetSnapshot(ctx, args[0])
				if errors.Is(err, storage.ErrNotFound) {
					return common.NewUserError(fmt.Sprintf("No snapshot with id %s", args[0]), nil)
				}
				if err != nil {
					return fmt.Errorf("failed to load snapshot: %w", err)
				}
				return printSnapshot(cmd.OutOrStdout(), snap)
			})
		},
	}
}

func printSnapshot(out io.Writer, snap *storage.Snapshot) error {
	var b []byte
	add := func(format string, args ...any) {
		b = fmt.Appendf(b, format, args...)
	}

	add("%s\n\n", cli.FormatTitle("Snapshot "+snap.ID))
	add("Dataset:    %s\n", snap.Dataset)
	add("Created:    %s\n", snap.CreatedAt.Local().Format(time.DateTime))
	add("Traces:     %d in %d buckets\n", snap.TraceCount, snap.BucketCount)
	add("Threshold:  %.2f\n", snap.Threshold)
	add("Mode:       %s", snap.Mode)
	if snap.Selection != "" {
		add(" (%s)", snap.Selection)
	}
	add("\n")
	if snap.MatchingMode != "" {
		add("Outcome:    %s %v\n", snap.MatchingMode.Describe(), snap.Desired)
	}

	add("\n")
	for _, row := range snap.Buckets {
		add("Bin %s  %d traces, mean %.4f, %d unique\n",
			model.FormatRange(row.Lo, row.Hi), row.TraceCount, row.AverageConformance, row.UniqueSequences)
		for _, g := range snap.Groups[row.Index] {
			add("    %s\n", g.String())
		}
	}

	if len(snap.Bubbles) > 0 {
		add("\n")
		bubbles := append([]model.OutcomeBubble(nil), snap.Bubbles...)
		sort.Slice(bubbles, func(i, j int) bool { return bubbles[i].X < bubbles[j].X })
		for _, bub := range bubbles {
			add("Bin %s  %5.1f%% of %d\n", bub.RangeLabel(), bub.Y, bub.Count)
		}
	}

	_, err := out.Write(b)
	return err
}

func exportDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a saved snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStorage(cmd, func(ctx context.Context, db *storage.SQLiteStorage) error {
				err := db.DeleteSnapshot(ctx, args[0])
				if errors.Is(err, storage.ErrNotFound) {
					return common.NewUserError(fmt.Sprintf("No snapshot with id %s", args[0]), nil)
				}
				if err != nil {
					return fmt.Errorf("failed to delete snapshot: %w", err)
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess("Deleted snapshot "+args[0]))
				return err
			})
		},
	}
}
