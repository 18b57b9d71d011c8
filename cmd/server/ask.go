package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer one question from the ingested documents",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "output the answer as JSON")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if err := requireDatabase(cfg); err != nil {
		return err
	}
	a, err := newApp(cmd.Context(), cfg, true)
	if err != nil {
		return err
	}
	defer a.close()

	answer := a.session.Ask(cmd.Context(), strings.Join(args, " "))
	if answer == nil {
		return errors.New("question cannot be empty")
	}

	if askJSON {
		data, err := json.MarshalIndent(answer, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal answer: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	cmd.Println(answer.Text)
	if len(answer.Sources) == 0 {
		return nil
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, sc := range answer.Sources {
		snippet := sc.Chunk.Text
		if r := []rune(snippet); len(r) > 80 {
			snippet = string(r[:80]) + "..."
		}
		snippet = strings.ReplaceAll(snippet, "\n", " ")
		cmd.Printf("[%d] %s (%s %.3f) %s\n", i+1, a.session.DocumentName(sc.Chunk.DocumentID), sc.Method, sc.Score, snippet)
	}
	return nil
}
