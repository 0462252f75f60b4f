package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/michaelgrohs/ccviz/internal/chart"
	"github.com/michaelgrohs/ccviz/internal/cli"
	"github.com/michaelgrohs/ccviz/internal/config"
)

// Chart file names written by render.
const (
	distributionFile = "distribution.png"
	outcomeFile      = "outcome.png"
)

func renderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render the charts as PNG images",
		Long: `Render the conformance histogram and the conformance vs. outcome chart as
PNG images. The filter and outcome flags work as for the distribution and
outcome commands.

A chart with nothing to draw is skipped with a warning.`,
		Example: `  ccviz render --dataset dataset.json --out-dir charts --threshold 0.3`,
		RunE:    runRender,
	}
	cmd.Flags().String("out-dir", ".", "directory for the PNG files")
	cmd.Flags().Int("width", chart.DefaultWidth, "image width in pixels")
	cmd.Flags().Int("height", chart.DefaultHeight, "image height in pixels")
	addFilterFlags(cmd)
	addOutcomeFlags(cmd)
	return cmd
}

func runRender(cmd *cobra.Command, _ []string) error {
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
	outDir, _ := cmd.Flags().GetString("out-dir")
	width, _ := cmd.Flags().GetInt("width")
	height, _ := cmd.Flags().GetInt("height")

	ds, err := openDataset(cmd.Context(), s)
	if err != nil {
		return err
	}
	p := ds.pipeline

	outDir = config.ExpandPath(outDir)
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}
	opts := chart.Options{Palette: palette(s), Width: width, Height: height}

	charts := []struct {
		draw func(io.Writer) error
		name string
	}{
		{name: distributionFile, draw: func(w io.Writer) error {
			return chart.Distribution(w, p.Distribution(f), p.Buckets(), opts)
		}},
		{name: outcomeFile, draw: func(w io.Writer) error {
			return chart.Outcome(w, p.Outcome(f, spec), opts)
		}},
	}

	out := cmd.OutOrStdout()
	for _, c := range charts {
		path := filepath.Join(outDir, c.name)
		err := writeChart(path, c.draw)
		switch {
		case errors.Is(err, chart.ErrNothingToDraw):
			slog.Warn("Skipping chart", "file", c.name, "reason", err)
			fmt.Fprintln(out, cli.FormatWarning(fmt.Sprintf("Skipped %s: %v", c.name, err)))
		case err != nil:
			return err
		default:
			fmt.Fprintln(out, cli.FormatSuccess("Wrote "+path))
		}
	}
	return nil
}

// writeChart renders into path, removing the file again when drawing fails.
func writeChart(path string, draw func(io.Writer) error) (err error) {
	file, err := os.Create(path) //nolint:gosec // path is built from a user supplied directory
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("failed to close %s: %w", path, cerr)
		}
		if err != nil {
			_ = os.Remove(path)
		}
	}()

	return draw(file)
}
