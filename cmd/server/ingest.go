package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Ingest documents into the database and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if err := requireDatabase(cfg); err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	for _, path := range args {
		payload, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		doc, err := a.session.IngestDocument(cmd.Context(), filepath.Base(path), payload)
		if err != nil {
			return fmt.Errorf("data ingestion failed: %w", err)
		}
		cmd.Printf("%s  %s  pages=%d chunks=%d\n", doc.ID, doc.Name, doc.Pages, doc.ChunkCount)
	}

	cmd.Printf("Data ingestion complete. %d chunks indexed.\n", a.session.ChunkCount())
	return nil
}
