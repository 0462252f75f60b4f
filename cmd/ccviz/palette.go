package main

import "github.com/spf13/cobra"

func paletteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "palette",
		Short: "Show the conformance color scale",
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			return newReport(cmd, s).Palette()
		},
	}
}
