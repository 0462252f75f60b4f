package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/michaelgrohs/ccviz/internal/common"
	"github.com/michaelgrohs/ccviz/internal/config"
)

var (
	cfgFile string
	version = "dev"
)

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "ccviz",
		Short: "📊 Conformance checking visualizer",
		Long: `ccviz: explore how the traces of an event log conform to a process model.

Traces are scored by the analysis service, binned into conformance buckets,
and shown as histograms, sequence listings and outcome charts.`,
		PersistentPreRunE: initConfig,
		SilenceUsage:      true,
	}

	// Global flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/ccviz/config.yaml)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("dataset", "", "dataset file (.json, .yaml) written by 'ccviz fetch'; the backend is queried when empty")
	flags.Int("buckets", 0, "number of conformance buckets (default from config)")
	flags.String("backend-url", "", "analysis service URL (default from config)")

	// Add commands
	rootCmd.AddCommand(pingCmd())
	rootCmd.AddCommand(fetchCmd())
	rootCmd.AddCommand(distributionCmd())
	rootCmd.AddCommand(sequencesCmd())
	rootCmd.AddCommand(outcomeCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(renderCmd())
	rootCmd.AddCommand(exportCmd())
	rootCmd.AddCommand(viewCmd())
	rootCmd.AddCommand(paletteCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := newRootCmd().ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		var userErr *common.UserError
		if errors.As(err, &userErr) {
			fmt.Fprintln(os.Stderr, userErr.UserMessage)
		} else {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func initConfig(cmd *cobra.Command, _ []string) error {
	v := viper.GetViper()
	config.SetDefaults(v)

	flags := cmd.Root().PersistentFlags()
	_ = v.BindPFlag("logging.level", flags.Lookup("log-level"))
	_ = v.BindPFlag("logging.format", flags.Lookup("log-format"))
	_ = v.BindPFlag("dataset", flags.Lookup("dataset"))
	if flags.Changed("buckets") {
		_ = v.BindPFlag("buckets.count", flags.Lookup("buckets"))
	}
	if flags.Changed("backend-url") {
		_ = v.BindPFlag("backend.url", flags.Lookup("backend-url"))
	}

	// Set up config file
	if cfgFile != "" {
		v.SetConfigFile(config.ExpandPath(cfgFile))
	} else {
		dir, err := config.Dir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Search for config in standard locations
		v.AddConfigPath(dir)
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	// Environment variables
	v.SetEnvPrefix("CCVIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	// Set up logging
	if err := common.SetupLogger(v.GetString("logging.level"), v.GetString("logging.format")); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "ccviz %s\n", version)
			return err
		},
	}
}
