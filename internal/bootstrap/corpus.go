package bootstrap

import (
	"context"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/logger"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/embedcache"
)

// EmbedCorpus fills in missing document embeddings through the cache.
// Documents whose batch failed upstream are dropped and counted in skipped.
func EmbedCorpus(ctx context.Context, cache *embedcache.Cache, docs []domain.Document) (out []domain.Document, skipped int) {
	var texts []string
	for _, d := range docs {
		if len(d.Embedding) == 0 {
			texts = append(texts, d.SourceText)
		}
	}

	vectors := cache.Embed(ctx, texts)

	out = make([]domain.Document, 0, len(docs))
	for _, d := range docs {
		if len(d.Embedding) == 0 {
			vec, ok := vectors[d.SourceText]
			if !ok {
				skipped++
				continue
			}
			d.Embedding = vec
		}
		out = append(out, d)
	}

	logger.New(ctx).LogInfof("embed_corpus", "embedded %d of %d documents, skipped %d", len(out), len(docs), skipped)
	return out, skipped
}

