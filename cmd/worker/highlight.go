package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/highlight"
)

// highlightCmd runs the alignment chain on a proposed excerpt without any
// model calls. Useful for checking why a highlight fell back.
var highlightCmd = &cobra.Command{
	Use:   "highlight [display-text-file]",
	Short: "Align an excerpt against a document's display text",
	Long:  "Reads display text from the given file (or stdin with \"-\") and prints it with the excerpt marked.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		excerpt, _ := cmd.Flags().GetString("excerpt")
		keywords, _ := cmd.Flags().GetStringSlice("keywords")
		sentenceContext, _ := cmd.Flags().GetBool("sentence-context")

		display, err := readInput(cmd.InOrStdin(), args[0])
		if err != nil {
			return err
		}

		res := highlight.AlignExcerpt(highlight.ParseExcerpt(excerpt), display, keywords, sentenceContext)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "strategy: %s\nhighlighted: %t\nexcerpt rejected: %t\n\n%s\n", res.Strategy, res.Highlighted, res.Rejected, res.Marked)
		return nil
	},
}

func readInput(stdin io.Reader, path string) (string, error) {
	if path == "-" {
		b, err := io.ReadAll(stdin)
		return string(b), err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read display text: %w", err)
	}
	return string(b), nil
}

func init() {
	highlightCmd.Flags().String("excerpt", "None", "excerpt as returned by the model")
	highlightCmd.Flags().StringSlice("keywords", nil, "keywords for the fallback strategy")
	highlightCmd.Flags().Bool("sentence-context", true, "include neighbouring sentences in sentence matches")
	rootCmd.AddCommand(highlightCmd)
}
