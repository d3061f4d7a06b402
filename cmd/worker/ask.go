package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/retrieval"
)

// askCmd runs one query end to end against a JSONL corpus held in memory.
var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question over a local JSONL corpus",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		corpusPath, _ := cmd.Flags().GetString("corpus")
		jurisdiction, _ := cmd.Flags().GetString("jurisdiction")
		noFilter, _ := cmd.Flags().GetBool("no-filter")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if noFilter {
			cfg.Pipeline.RelevanceFilter = false
		}
		ctx := cmd.Context()

		docs, err := retrieval.LoadCorpus(corpusPath)
		if err != nil {
			return err
		}

		cacheStore, err := bootstrap.OpenCacheStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer cacheStore.Close()

		client, err := bootstrap.NewLLMClient(cfg.LLM)
		if err != nil {
			return err
		}
		cache := bootstrap.NewEmbeddingCache(cfg, cacheStore.Store, client)

		docs, _ = bootstrap.EmbedCorpus(ctx, cache, docs)
		svc := bootstrap.NewSearchService(cfg, client, cache, retrieval.NewMemoryStore(docs))

		res, err := svc.Query(ctx, domain.Query{
			Text:         strings.Join(args, " "),
			Jurisdiction: jurisdiction,
		}, false)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s\n\nkeywords: %s\noutcome: %s\n", res.ResponseText, strings.Join(res.Keywords, ", "), res.Outcome)
		for i, d := range res.Documents {
			fmt.Fprintf(out, "\n[%d] %s - %s (highlighted=%t)\n%s\n", i+1, d.Title, d.Heading, d.Highlighted, d.MarkedDisplayText)
		}
		return nil
	},
}

func init() {
	askCmd.Flags().String("corpus", "data/corpus.jsonl", "path to a JSONL corpus")
	askCmd.Flags().String("jurisdiction", "", "jurisdiction or corpus id to search")
	askCmd.Flags().Bool("no-filter", false, "skip the relevance filter")
	_ = askCmd.MarkFlagRequired("jurisdiction")
	rootCmd.AddCommand(askCmd)
}
