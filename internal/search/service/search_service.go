// Package service orchestrates the query pipeline: keyword extraction and
// query embedding, hybrid retrieval, relevance filtering, highlighting and
// answer synthesis.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/logger"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/metrics"
)

const DefaultTimeout = 90 * time.Second

type QueryEmbedder interface {
	EmbedOne(ctx context.Context, text string) ([]float32, error)
}

type KeywordExtractor interface {
	Extract(ctx context.Context, query string) ([]string, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, jurisdiction string, keywords []string, queryEmbedding []float32, limit int) ([]domain.Candidate, error)
}

type RelevanceFilter interface {
	FilterRelevant(ctx context.Context, query string, candidates []domain.Candidate) []domain.Candidate
}

type Highlighter interface {
	AlignAll(ctx context.Context, query string, docs []domain.Document, keywords []string) []domain.HighlightResult
}

type Synthesizer interface {
	Answer(ctx context.Context, q domain.Query, docs []domain.Document) (string, error)
	Stream(ctx context.Context, q domain.Query, docs []domain.Document, onDelta func(string) error) (string, error)
}

// Deps are the pipeline stages, constructed once at startup.
type Deps struct {
	Embedder    QueryEmbedder
	Keywords    KeywordExtractor
	Retriever   Retriever
	Relevance   RelevanceFilter
	Highlighter Highlighter
	Synthesizer Synthesizer
}

type Options struct {
	RetrievalLimit int
	// Timeout is the overall deadline for one request.
	Timeout time.Duration
	// Jurisdictions, when non-empty, is the set of accepted jurisdiction ids.
	Jurisdictions map[string]string
}

// StreamHandlers receive a streamed query's progress. OnDocuments is called
// once, before any delta, with the result minus its response text.
type StreamHandlers struct {
	OnDocuments func(res *domain.SearchResult) error
	OnDelta     func(delta string) error
}

// SearchService handles the query and highlight pipelines
type SearchService struct {
	deps Deps
	opts Options
}

// NewSearchService creates a new SearchService
func NewSearchService(deps Deps, opts Options) *SearchService {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &SearchService{deps: deps, opts: opts}
}

// Query runs the full pipeline. An empty outcome is a normal result carrying
// domain.NoRelevantDocumentsText, not an error.
func (s *SearchService) Query(ctx context.Context, q domain.Query, deferHighlight bool) (*domain.SearchResult, error) {
	if err := s.validate(q); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	res, docs, err := s.gather(ctx, q, deferHighlight)
	if err != nil || len(docs) == 0 {
		return res, err
	}

	text, err := s.deps.Synthesizer.Answer(ctx, q, docs)
	if err != nil {
		logger.New(ctx).LogError("synthesize", err)
		return nil, err
	}
	res.ResponseText = text
	return res, nil
}

// QueryStream is Query with the answer streamed through h.OnDelta.
func (s *SearchService) QueryStream(ctx context.Context, q domain.Query, deferHighlight bool, h StreamHandlers) (*domain.SearchResult, error) {
	if err := s.validate(q); err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	res, docs, err := s.gather(ctx, q, deferHighlight)
	if err != nil {
		return nil, err
	}
	if h.OnDocuments != nil {
		if err := h.OnDocuments(res); err != nil {
			return nil, err
		}
	}
	if len(docs) == 0 {
		return res, nil
	}

	onDelta := h.OnDelta
	if onDelta == nil {
		onDelta = func(string) error { return nil }
	}
	text, err := s.deps.Synthesizer.Stream(ctx, q, docs, onDelta)
	if err != nil {
		logger.New(ctx).LogError("synthesize_stream", err)
		return nil, err
	}
	res.ResponseText = text
	return res, nil
}

// Highlight aligns excerpts for documents the caller already holds, for
// clients that deferred highlighting.
func (s *SearchService) Highlight(ctx context.Context, query string, docs []domain.Document, keywords []string) ([]domain.HighlightedDocument, error) {
	if strings.TrimSpace(query) == "" {
		return nil, domain.ErrEmptyQuery
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.Timeout)
	defer cancel()

	results := s.deps.Highlighter.AlignAll(ctx, query, docs, keywords)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return merge(docs, results), nil
}

func (s *SearchService) validate(q domain.Query) error {
	if strings.TrimSpace(q.Text) == "" {
		return domain.ErrEmptyQuery
	}
	if strings.TrimSpace(q.Jurisdiction) == "" {
		return domain.ErrMissingJurisdiction
	}
	if len(s.opts.Jurisdictions) > 0 {
		if _, ok := s.opts.Jurisdictions[q.Jurisdiction]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrUnknownJurisdiction, q.Jurisdiction)
		}
	}
	return nil
}

// gather runs everything up to synthesis. It returns the result so far and
// the documents to answer from; no documents means an empty outcome whose
// response text is already set.
func (s *SearchService) gather(ctx context.Context, q domain.Query, deferHighlight bool) (*domain.SearchResult, []domain.Document, error) {
	log := logger.New(ctx)
	metrics.RecordQuery()
	start := time.Now()

	res := &domain.SearchResult{SearchID: uuid.NewString(), Documents: []domain.HighlightedDocument{}}

	var (
		keywords []string
		queryVec []float32
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		kws, err := s.deps.Keywords.Extract(gctx, q.Text)
		if err != nil {
			return err
		}
		keywords = kws
		return nil
	})
	g.Go(func() error {
		vec, err := s.deps.Embedder.EmbedOne(gctx, q.Text)
		if err != nil {
			return err
		}
		queryVec = vec
		return nil
	})
	if err := g.Wait(); err != nil {
		log.LogError("prepare_query", err)
		return nil, nil, err
	}
	res.Keywords = keywords

	candidates, err := s.deps.Retriever.Retrieve(ctx, q.Jurisdiction, keywords, queryVec, s.opts.RetrievalLimit)
	if err != nil {
		log.LogError("retrieve", err)
		return nil, nil, err
	}
	if len(candidates) == 0 {
		metrics.RecordRetrievalEmpty()
		log.LogWarnf("retrieve", "no candidates retrieved jurisdiction=%s keywords=%v", q.Jurisdiction, keywords)
		return s.empty(res, domain.OutcomeNoCandidates), nil, nil
	}

	relevant := s.deps.Relevance.FilterRelevant(ctx, q.Text, candidates)
	// A filter cut short by the deadline rejects everything; report the timeout instead.
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if len(relevant) == 0 {
		metrics.RecordFilteredEmpty()
		log.LogWarnf("relevance_filter", "all %d candidates judged not relevant jurisdiction=%s", len(candidates), q.Jurisdiction)
		return s.empty(res, domain.OutcomeAllFilteredOut), nil, nil
	}

	docs := make([]domain.Document, len(relevant))
	for i, c := range relevant {
		docs[i] = c.Document
	}

	if deferHighlight {
		res.Documents = merge(docs, nil)
		res.Outcome = domain.OutcomeDeferredHighlight
	} else {
		res.Documents = merge(docs, s.deps.Highlighter.AlignAll(ctx, q.Text, docs, keywords))
		res.Outcome = domain.OutcomeAnswered
	}

	log.LogInfof("query", "search_id=%s candidates=%d relevant=%d outcome=%s elapsed=%s",
		res.SearchID, len(candidates), len(relevant), res.Outcome, time.Since(start).Round(time.Millisecond))
	return res, docs, nil
}

func (s *SearchService) empty(res *domain.SearchResult, outcome domain.Outcome) *domain.SearchResult {
	res.Outcome = outcome
	res.ResponseText = domain.NoRelevantDocumentsText
	return res
}

// merge pairs documents with their highlight results by position. A missing
// result leaves the document unhighlighted.
func merge(docs []domain.Document, results []domain.HighlightResult) []domain.HighlightedDocument {
	out := make([]domain.HighlightedDocument, len(docs))
	for i, d := range docs {
		out[i] = domain.HighlightedDocument{Document: d, MarkedDisplayText: d.DisplayText}
		if i < len(results) && results[i].DocumentID == d.ID {
			out[i].MarkedDisplayText = results[i].MarkedDisplayText
			out[i].Highlighted = results[i].Highlighted
		}
	}
	return out
}
