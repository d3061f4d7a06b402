package bootstrap

import (
	"fmt"

	"github.com/GoSim-25-26J-441/civic-rag-backend/config"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/answer"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/embedcache"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/highlight"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/keywords"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/llm"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/relevance"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/retrieval"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/service"
)

// NewLLMClient builds the configured provider behind a shared rate limiter.
func NewLLMClient(cfg config.LLMConfig) (llm.Client, error) {
	var (
		client llm.Client
		err    error
	)
	switch cfg.Provider {
	case "ollama":
		client, err = llm.NewOllamaClient(llm.OllamaConfig{
			Host:           cfg.BaseURL,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Timeout:        cfg.Timeout,
		})
	case "openai":
		client, err = llm.NewOpenAIClient(llm.OpenAIConfig{
			BaseURL:        cfg.BaseURL,
			APIKey:         cfg.APIKey,
			ChatModel:      cfg.ChatModel,
			EmbeddingModel: cfg.EmbeddingModel,
			Timeout:        cfg.Timeout,
		})
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}
	return llm.NewThrottled(client, cfg.RateLimit, cfg.Burst), nil
}

// NewEmbeddingCache wires the cache with the pipeline's batching settings.
func NewEmbeddingCache(cfg *config.Config, store embedcache.Store, embedder llm.Embedder) *embedcache.Cache {
	return embedcache.New(store, embedder, embedcache.Options{
		TokenBudget:   cfg.Pipeline.EmbedTokenBudget,
		TokensPerChar: cfg.Pipeline.EmbedTokensPerChar,
		Dims:          cfg.LLM.EmbeddingDims,
		Concurrency:   cfg.Pipeline.Concurrency,
	})
}

// NewSearchService assembles every pipeline stage around one model client,
// one embedding cache and one document store.
func NewSearchService(cfg *config.Config, client llm.Client, cache *embedcache.Cache, docs retrieval.Store) *service.SearchService {
	deps := service.Deps{
		Embedder:    cache,
		Keywords:    keywords.New(client),
		Retriever:   retrieval.New(docs, cfg.LLM.EmbeddingDims),
		Relevance:   relevance.New(client, cfg.Pipeline.RelevanceFilter, cfg.Pipeline.Concurrency),
		Highlighter: highlight.NewAligner(highlight.NewSelector(client), cfg.Pipeline.SentenceContext, cfg.Pipeline.Concurrency),
		Synthesizer: answer.New(client, cfg.Pipeline.Jurisdictions),
	}

	return service.NewSearchService(deps, service.Options{
		RetrievalLimit: cfg.Pipeline.RetrievalLimit,
		Timeout:        cfg.Pipeline.Timeout,
		Jurisdictions:  cfg.Pipeline.Jurisdictions,
	})
}
