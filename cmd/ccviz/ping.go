package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/michaelgrohs/ccviz/internal/cli"
	"github.com/michaelgrohs/ccviz/internal/common"
)

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Wake the analysis service",
		Long: `Ping the analysis service and report how long it took to answer.

Hosted instances go to sleep when idle; the first request after a pause can
take most of a minute. Run this before 'ccviz fetch' to wake it up.`,
		RunE: runPing,
	}
}

func runPing(cmd *cobra.Command, _ []string) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}

	client := newClient(s)
	elapsed, err := client.Ping(cmd.Context())
	if err != nil {
		return common.NewUserError(fmt.Sprintf("Backend at %s did not answer", client.BaseURL()), err)
	}

	_, err = fmt.Fprintln(cmd.OutOrStdout(), cli.FormatSuccess(
		fmt.Sprintf("Backend at %s is awake (%s)", client.BaseURL(), elapsed.Round(1e6))))
	return err
}
