package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"batchstamp/internal/config"
	"batchstamp/internal/logger"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "batchstamp",
	Short: "Batch Number stamper - adds batch numbers to PDF forms",
	Long: `batchstamp finds the text "Batch Number:" on every page of a PDF and
writes the batch number you enter right next to it.

Pages without the label are left untouched. Run "batchstamp serve" for the
web form or "batchstamp stamp" to process a file from the terminal.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig reads the environment configuration.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
