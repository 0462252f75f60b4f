package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/michaelgrohs/ccviz/internal/backend"
	"github.com/michaelgrohs/ccviz/internal/cli"
	"github.com/michaelgrohs/ccviz/internal/common"
	"github.com/michaelgrohs/ccviz/internal/config"
	"github.com/michaelgrohs/ccviz/internal/store"
)

func fetchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Upload a model and log and download the analysis",
		Long: `Upload a BPMN process model and an event log to the analysis service,
then download every analysis result into one dataset file.

Use --sample to analyse the sample files shipped with the service. With
--interactive the model's activities are listed and you choose the desired
outcomes and matching mode before the results are computed.`,
		RunE: runFetch,
	}

	cmd.Flags().String("model", "", "BPMN process model file")
	cmd.Flags().String("log", "", "event log file (.xes or .csv)")
	cmd.Flags().Bool("sample", false, "use the sample model and log of the service")
	cmd.Flags().StringP("out", "o", "dataset.json", "dataset file to write (.json, .yaml)")
	cmd.Flags().BoolP("interactive", "i", false, "choose desired outcomes interactively")
	addOutcomeFlags(cmd)

	return cmd
}

func runFetch(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	modelPath, _ := cmd.Flags().GetString("model")
	logPath, _ := cmd.Flags().GetString("log")
	sample, _ := cmd.Flags().GetBool("sample")
	out, _ := cmd.Flags().GetString("out")
	interactive, _ := cmd.Flags().GetBool("interactive")

	if sample == (modelPath != "" || logPath != "") {
		return common.NewUserError("Pass either --sample or both --model and --log", nil)
	}
	if !sample && (modelPath == "" || logPath == "") {
		return common.NewUserError("Both --model and --log are required", nil)
	}
	if _, err := store.FormatFor(out); err != nil {
		return common.NewUserError(fmt.Sprintf("Cannot write %s", out), err)
	}

	spec, err := outcomeSpec(cmd, s)
	if err != nil {
		return err
	}

	handler := cli.NewInterruptHandler(cmd.ErrOrStderr())
	ctx := handler.HandleInterrupts(cmd.Context(), "Fetch", "Nothing was written; run the command again to retry.")

	client := newClient(s)
	w := cmd.OutOrStdout()

	var bpmn, eventLog backend.File
	if sample {
		if bpmn, err = client.Preload(ctx, backend.SampleModel); err != nil {
			return err
		}
		if eventLog, err = client.Preload(ctx, backend.SampleLog); err != nil {
			return err
		}
	} else {
		if bpmn, err = readFile(modelPath); err != nil {
			return err
		}
		if eventLog, err = readFile(logPath); err != nil {
			return err
		}
	}

	if err := client.Upload(ctx, bpmn, eventLog); err != nil {
		return common.NewUserError("Upload failed", err)
	}
	if _, err := fmt.Fprintln(w, cli.FormatSuccess(fmt.Sprintf("Uploaded %s and %s", bpmn.Name, eventLog.Name))); err != nil {
		return err
	}

	if interactive {
		activities, err := client.Activities(ctx, bpmn)
		if err != nil {
			return err
		}
		prompter := cli.NewPrompter(cmd.InOrStdin(), w)
		if spec.Desired, err = prompter.ChooseOutcomes(ctx, activities); err != nil {
			return err
		}
		if spec.Mode, err = prompter.ChooseMatchingMode(ctx, spec.Mode); err != nil {
			return err
		}
	}

	progress := cli.NewFetchProgress(cmd.ErrOrStderr(), backend.FetchSteps)
	bundle, err := client.Fetch(ctx, backend.OutcomeRequest{
		MatchingMode:       spec.Mode,
		SelectedActivities: spec.Desired,
	}, progress.Step)
	if err != nil {
		if handler.WasInterrupted() {
			return nil
		}
		return common.NewUserError("Fetching results failed", err)
	}
	progress.Finish()

	if err := store.SaveFile(config.ExpandPath(out), bundle); err != nil {
		return err
	}

	loaded := store.New(bundle)
	msg := fmt.Sprintf("Wrote %d traces to %s", loaded.Len(), out)
	if n := loaded.Unscored(); n > 0 {
		msg += fmt.Sprintf(" (%d without a conformance score)", n)
	}
	_, err = fmt.Fprintln(w, cli.FormatSuccess(msg))
	return err
}

func readFile(path string) (backend.File, error) {
	content, err := os.ReadFile(config.ExpandPath(path))
	if err != nil {
		return backend.File{}, common.NewUserError(fmt.Sprintf("Cannot read %s", path), err)
	}
	return backend.File{Name: filepath.Base(path), Content: content}, nil
}
