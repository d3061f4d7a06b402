package highlight

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/logger"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/metrics"
)

// Aligner selects an excerpt per document with a model and places it.
type Aligner struct {
	selector        *Selector
	sentenceContext bool
	concurrency     int
}

func NewAligner(selector *Selector, sentenceContext bool, concurrency int) *Aligner {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Aligner{selector: selector, sentenceContext: sentenceContext, concurrency: concurrency}
}

// Align never fails: an upstream error leaves the document unhighlighted and
// a malformed or unverifiable excerpt falls through to the keyword strategy.
func (a *Aligner) Align(ctx context.Context, query string, doc domain.Document, keywords []string) domain.HighlightResult {
	log := logger.New(ctx)

	excerpt, err := a.selector.Select(ctx, query, doc)
	if err != nil {
		log.LogWarnf("highlight_select", "doc=%s left unhighlighted: %v", doc.ID, err)
		metrics.RecordHighlight(StrategyNone)
		return domain.HighlightResult{DocumentID: doc.ID, MarkedDisplayText: doc.DisplayText, Strategy: StrategyNone}
	}
	if excerpt.Kind == ExcerptMalformed {
		log.LogWarnf("highlight_select", "doc=%s %v: excerpt of %d chars", doc.ID, domain.ErrMalformedOutput, len([]rune(excerpt.Text)))
	}

	res := AlignExcerpt(excerpt, doc.DisplayText, keywords, a.sentenceContext)
	if res.Rejected && excerpt.Kind == ExcerptQuote {
		log.LogInfof("highlight_validate", "doc=%s excerpt not found in display text: %q", doc.ID, excerpt.Text)
	}
	log.LogDebugf("highlight", "doc=%s strategy=%s", doc.ID, res.Strategy)
	metrics.RecordHighlight(res.Strategy)

	return domain.HighlightResult{
		DocumentID:        doc.ID,
		MarkedDisplayText: res.Marked,
		Highlighted:       res.Highlighted,
		Strategy:          res.Strategy,
	}
}

// AlignAll highlights every document concurrently; results are in input order.
func (a *Aligner) AlignAll(ctx context.Context, query string, docs []domain.Document, keywords []string) []domain.HighlightResult {
	out := make([]domain.HighlightResult, len(docs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for i, d := range docs {
		g.Go(func() error {
			out[i] = a.Align(gctx, query, d, keywords)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
