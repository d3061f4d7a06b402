// Package retrieval ranks documents by lexical keyword match first and
// cosine distance to the query embedding second.
package retrieval

import (
	"context"
	"fmt"
	"strings"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/logger"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
)

const DefaultLimit = 30

// Store runs the ranked query against one jurisdiction's partition. An empty
// keywords slice means ranking by distance alone.
type Store interface {
	Search(ctx context.Context, jurisdiction string, keywords []string, embedding []float32, limit int) ([]domain.Candidate, error)
}

type Retriever struct {
	store Store
	dims  int
}

// New returns a Retriever. dims is the corpus embedding length; 0 skips the check.
func New(store Store, dims int) *Retriever {
	return &Retriever{store: store, dims: dims}
}

// Retrieve returns at most limit candidates, best first, with Rank set to
// each candidate's position.
func (r *Retriever) Retrieve(ctx context.Context, jurisdiction string, keywords []string, queryEmbedding []float32, limit int) ([]domain.Candidate, error) {
	if strings.TrimSpace(jurisdiction) == "" {
		return nil, domain.ErrMissingJurisdiction
	}
	if r.dims > 0 && len(queryEmbedding) != r.dims {
		return nil, fmt.Errorf("%w: query has %d dims, corpus has %d", domain.ErrDimensionMismatch, len(queryEmbedding), r.dims)
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	candidates, err := r.store.Search(ctx, jurisdiction, sanitizeKeywords(keywords), queryEmbedding, limit)
	if err != nil {
		return nil, fmt.Errorf("hybrid search in %s: %w", jurisdiction, err)
	}
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	for i := range candidates {
		candidates[i].Rank = i
	}

	lexical := 0
	for _, c := range candidates {
		if c.LexicalMatch {
			lexical++
		}
	}
	logger.New(ctx).LogInfof("retrieve", "jurisdiction=%s keywords=%d candidates=%d lexical_matches=%d",
		jurisdiction, len(keywords), len(candidates), lexical)
	return candidates, nil
}

// sanitizeKeywords strips characters that carry operator meaning in web-style
// full-text queries (quotes, leading minus) and the OR operator itself.
func sanitizeKeywords(keywords []string) []string {
	out := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.TrimLeft(strings.ReplaceAll(kw, `"`, ""), "-")
		kw = strings.TrimSpace(kw)
		if kw == "" || strings.EqualFold(kw, "or") {
			continue
		}
		out = append(out, kw)
	}
	return out
}

// lexicalQuery renders keywords as a disjunctive websearch_to_tsquery input.
func lexicalQuery(keywords []string) string {
	return strings.Join(keywords, " OR ")
}
