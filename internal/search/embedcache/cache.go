// Package embedcache fronts an embedding service with a content-addressed,
// persistent cache shared by all concurrent queries.
package embedcache

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/logger"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/llm"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/metrics"
)

const (
	DefaultTokenBudget   = 8000
	DefaultTokensPerChar = 0.5
	DefaultConcurrency   = 4
)

type Options struct {
	// TokenBudget is the estimated token ceiling per upstream request.
	TokenBudget int
	// TokensPerChar is the conservative multiplier used to estimate tokens.
	TokensPerChar float64
	// Dims is the expected vector length; 0 disables the check.
	Dims int
	// Concurrency caps in-flight upstream batches.
	Concurrency int
}

// Cache is constructed once at startup and injected wherever texts need embedding.
type Cache struct {
	store    Store
	embedder llm.Embedder
	opts     Options
}

func New(store Store, embedder llm.Embedder, opts Options) *Cache {
	if opts.TokenBudget <= 0 {
		opts.TokenBudget = DefaultTokenBudget
	}
	if opts.TokensPerChar <= 0 {
		opts.TokensPerChar = DefaultTokensPerChar
	}
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	return &Cache{store: store, embedder: embedder, opts: opts}
}

// Embed returns vectors keyed by the original texts. Texts whose batch failed
// upstream are absent from the result; callers must tolerate partial maps.
func (c *Cache) Embed(ctx context.Context, texts []string) map[string][]float32 {
	log := logger.New(ctx)

	unique := dedupe(texts)
	result := make(map[string][]float32, len(unique))
	if len(unique) == 0 {
		return result
	}

	hashOf := make(map[string]string, len(unique))
	hashes := make([]string, 0, len(unique))
	for _, t := range unique {
		h := HashText(t)
		hashOf[t] = h
		hashes = append(hashes, h)
	}

	cached, err := c.store.GetMany(ctx, hashes)
	if err != nil {
		log.LogWarnf("embed_cache_lookup", "lookup of %d hashes failed, treating all as misses: %v", len(hashes), err)
		cached = nil
	}

	var misses []string
	for _, t := range unique {
		if vec, ok := cached[hashOf[t]]; ok && c.dimsOK(vec) {
			result[t] = vec
			continue
		}
		misses = append(misses, t)
	}
	metrics.RecordCacheLookup(len(unique)-len(misses), len(misses))
	log.LogDebugf("embed_cache_lookup", "hits=%d misses=%d", len(unique)-len(misses), len(misses))

	if len(misses) == 0 {
		return result
	}

	var (
		mu      sync.Mutex
		entries []domain.CacheEntry
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.opts.Concurrency)

	for _, batch := range batchByTokenBudget(misses, c.opts.TokenBudget, c.opts.TokensPerChar) {
		g.Go(func() error {
			vecs, err := c.embedBatch(gctx, batch)
			if err != nil {
				metrics.RecordCacheBatchFailure()
				log.LogErrorf("embed_batch", "dropping batch of %d texts starting %q: %v", len(batch), preview(batch[0]), err)
				return nil
			}

			mu.Lock()
			defer mu.Unlock()
			for i, t := range batch {
				result[t] = vecs[i]
				entries = append(entries, domain.CacheEntry{TextHash: hashOf[t], Embedding: vecs[i]})
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(entries) > 0 {
		res, err := c.store.PutMany(ctx, entries)
		if err != nil {
			log.LogWarnf("embed_cache_write", "cache write incomplete: %v", err)
		}
		for range res.Duplicates {
			metrics.RecordCacheDuplicateWrite()
		}
		if res.Duplicates > 0 {
			log.LogInfof("embed_cache_write", "ignored %d duplicate cache entries", res.Duplicates)
		}
	}

	return result
}

// EmbedOne embeds a single text and fails if no vector came back.
func (c *Cache) EmbedOne(ctx context.Context, text string) ([]float32, error) {
	vec, ok := c.Embed(ctx, []string{text})[text]
	if !ok {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrQueryEmbeddingUnavailable, err)
		}
		return nil, domain.ErrQueryEmbeddingUnavailable
	}
	return vec, nil
}

func (c *Cache) embedBatch(ctx context.Context, batch []string) ([][]float32, error) {
	vecs, err := c.embedder.EmbedBatch(ctx, batch)
	if err != nil {
		return nil, err
	}
	if len(vecs) != len(batch) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", domain.ErrUpstream, len(vecs), len(batch))
	}
	for _, v := range vecs {
		if !c.dimsOK(v) {
			return nil, fmt.Errorf("%w: got %d, want %d", domain.ErrDimensionMismatch, len(v), c.opts.Dims)
		}
	}
	return vecs, nil
}

func (c *Cache) dimsOK(vec []float32) bool {
	if c.opts.Dims == 0 {
		return len(vec) > 0
	}
	return len(vec) == c.opts.Dims
}

func dedupe(texts []string) []string {
	seen := make(map[string]struct{}, len(texts))
	out := make([]string, 0, len(texts))
	for _, t := range texts {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func preview(s string) string {
	r := []rune(s)
	if len(r) > 40 {
		return string(r[:40]) + "..."
	}
	return s
}
