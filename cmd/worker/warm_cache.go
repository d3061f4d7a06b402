package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/bootstrap"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/retrieval"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/storage/postgres"
)

// warmCacheCmd embeds every document of a corpus through the cache and can
// load the result into the Postgres documents table.
var warmCacheCmd = &cobra.Command{
	Use:   "warm-cache",
	Short: "Embed a JSONL corpus into the embedding cache",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		corpusPath, _ := cmd.Flags().GetString("corpus")
		upsert, _ := cmd.Flags().GetBool("upsert")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
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

		embedded, skipped := bootstrap.EmbedCorpus(ctx, cache, docs)
		fmt.Fprintf(cmd.OutOrStdout(), "embedded %d documents, skipped %d\n", len(embedded), skipped)

		if !upsert {
			return nil
		}

		pool, err := bootstrap.OpenDB(ctx, bootstrap.DBOptions{
			DSN:      postgres.DSN(&cfg.Database),
			MaxConns: cfg.Database.MaxConns,
		})
		if err != nil {
			return err
		}
		defer pool.Close()

		store := retrieval.NewPGStore(pool, cfg.LLM.EmbeddingDims)
		if err := store.EnsureSchema(ctx); err != nil {
			return err
		}
		if err := store.Upsert(ctx, embedded); err != nil {
			return fmt.Errorf("upsert documents: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "upserted %d documents\n", len(embedded))
		return nil
	},
}

func init() {
	warmCacheCmd.Flags().String("corpus", "data/corpus.jsonl", "path to a JSONL corpus")
	warmCacheCmd.Flags().Bool("upsert", false, "also write documents and embeddings to Postgres")
	rootCmd.AddCommand(warmCacheCmd)
}
