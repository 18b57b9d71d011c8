package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gwi.com/docqa/internal/config"
	"gwi.com/docqa/internal/logger"
)

var cfg config.Config

var rootCmd = &cobra.Command{
	Use:   "docqa",
	Short: "Ask questions about uploaded documents",
	Long: `docqa splits uploaded PDF and text documents into chunks, embeds them and
answers questions from the most relevant chunks.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfg, err = config.Load(); err != nil {
			return err
		}
		if err := logger.Init(cfg.LogLevel); err != nil {
			return fmt.Errorf("failed to initialise logger: %w", err)
		}
		return nil
	},
	// Running without a subcommand serves the HTTP API.
	RunE: runServe,
}

func main() {
	defer logger.Sync()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
