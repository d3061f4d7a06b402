package relevance

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/logger"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/llm"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/metrics"
)

const judgePrompt = `You are grading whether a passage from a government code or meeting record
helps answer a user's question. Answer with a single word: yes or no.`

// Filter runs one judge call per candidate concurrently.
type Filter struct {
	judge       llm.Generator
	enabled     bool
	concurrency int
}

// New returns a Filter. When enabled is false FilterRelevant passes
// candidates through untouched.
func New(judge llm.Generator, enabled bool, concurrency int) *Filter {
	if concurrency <= 0 {
		concurrency = 8
	}
	return &Filter{judge: judge, enabled: enabled, concurrency: concurrency}
}

func (f *Filter) Enabled() bool { return f.enabled }

// FilterRelevant keeps the candidates judged relevant, in input order. A
// failed or malformed judgement excludes that candidate only.
func (f *Filter) FilterRelevant(ctx context.Context, query string, candidates []domain.Candidate) []domain.Candidate {
	if !f.enabled || len(candidates) == 0 {
		return candidates
	}
	log := logger.New(ctx)

	verdicts := make([]Verdict, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)

	for i, c := range candidates {
		g.Go(func() error {
			verdicts[i] = f.judgeOne(gctx, log, query, c)
			return nil
		})
	}
	_ = g.Wait()

	kept := make([]domain.Candidate, 0, len(candidates))
	for i, c := range candidates {
		if verdicts[i] == Relevant {
			kept = append(kept, c)
		}
	}
	log.LogInfof("relevance_filter", "kept=%d of=%d", len(kept), len(candidates))
	return kept
}

func (f *Filter) judgeOne(ctx context.Context, log *logger.Logger, query string, c domain.Candidate) Verdict {
	req := llm.UserPrompt(judgePrompt,
		fmt.Sprintf("Question: %s\n\nPassage:\n%s", query, c.Document.SourceText), 3)

	raw, err := f.judge.Complete(ctx, req)
	if err != nil {
		log.LogWarnf("relevance_judge", "doc=%s excluded, judge failed: %v", c.Document.ID, err)
		return Malformed
	}

	v := ParseVerdict(raw)
	if v == Malformed {
		metrics.RecordRelevanceMalformed()
		log.LogWarnf("relevance_judge", "doc=%s excluded, %v: %q", c.Document.ID, domain.ErrMalformedOutput, raw)
	}
	return v
}
