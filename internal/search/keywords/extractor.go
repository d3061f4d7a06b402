// Package keywords pulls proper-noun keywords out of a question so the
// retriever can boost passages that mention them literally.
package keywords

import (
	"context"
	"fmt"
	"strings"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/logger"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/llm"
)

const (
	maxTokens    = 32
	systemPrompt = `You extract proper nouns from questions about municipal codes and meeting records.
Return at most 3 proper nouns or named entities (place names, district codes, organization names,
defined terms written in capitals) as a comma-separated list. Return nothing else.
If the question contains no proper noun, return exactly: None`
)

// Extractor asks a language model for keywords and tokenizes its answer.
type Extractor struct {
	gen llm.Generator
}

func New(gen llm.Generator) *Extractor {
	return &Extractor{gen: gen}
}

// Extract returns the keyword tokens for query. An empty, non-nil slice means
// the model found no proper noun. Any upstream failure is returned wrapped in
// domain.ErrKeywordExtraction.
func (e *Extractor) Extract(ctx context.Context, query string) ([]string, error) {
	raw, err := e.gen.Complete(ctx, llm.UserPrompt(systemPrompt, "Question: "+query, maxTokens))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrKeywordExtraction, err)
	}

	kws := Parse(raw)
	logger.New(ctx).LogDebugf("extract_keywords", "raw=%q keywords=%v", raw, kws)
	return kws, nil
}

// Parse splits the model output on commas, then whitespace, dropping "none"
// in any case, empty tokens and repeats. "New York City" therefore becomes
// three keywords; the lexical match is a disjunctive boost, not a phrase filter.
func Parse(raw string) []string {
	out := []string{}
	seen := make(map[string]struct{})

	for phrase := range strings.SplitSeq(raw, ",") {
		for tok := range strings.FieldsSeq(strings.TrimSpace(phrase)) {
			tok = strings.Trim(tok, `"'.;:`)
			if tok == "" || strings.EqualFold(tok, "none") {
				continue
			}
			key := strings.ToLower(tok)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, tok)
		}
	}
	return out
}
