package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/civic-rag-backend/config"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/embedcache"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/llm"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/retrieval"
)

type lengthEmbedder struct{}

func (lengthEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if strings.Contains(t, "unembeddable") {
			return nil, errors.New("upstream rejected batch")
		}
		out[i] = []float32{float32(len(t)), 1, 0}
	}
	return out, nil
}

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Cache: config.CacheConfig{
			Driver:     "sqlite",
			SQLitePath: filepath.Join(t.TempDir(), "embeddings.db"),
		},
		LLM: config.LLMConfig{Provider: "ollama", EmbeddingDims: 3},
		Pipeline: config.PipelineConfig{
			RetrievalLimit:     10,
			Concurrency:        2,
			EmbedTokenBudget:   10,
			EmbedTokensPerChar: 0.5,
			Jurisdictions:      map[string]string{"austin": "Austin, TX"},
		},
	}
}

func TestOpenCacheStore_SQLite(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)

	cs, err := OpenCacheStore(ctx, cfg)
	require.NoError(t, err)
	defer cs.Close()

	assert.Nil(t, cs.Redis)
	_, isSQL := cs.Store.(*embedcache.SQLStore)
	assert.True(t, isSQL)
}

func TestOpenCacheStore_RedisTier(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	mr := miniredis.RunT(t)
	cfg.Cache.RedisAddr = mr.Addr()

	cs, err := OpenCacheStore(ctx, cfg)
	require.NoError(t, err)
	defer cs.Close()

	require.NotNil(t, cs.Redis)
	_, isTiered := cs.Store.(*embedcache.TieredStore)
	assert.True(t, isTiered)
}

func TestOpenCacheStore_RedisDown(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	mr := miniredis.RunT(t)
	cfg.Cache.RedisAddr = mr.Addr()
	mr.Close()

	cs, err := OpenCacheStore(ctx, cfg)
	require.NoError(t, err)
	defer cs.Close()

	assert.Nil(t, cs.Redis)
}

func TestNewLLMClient(t *testing.T) {
	_, err := NewLLMClient(config.LLMConfig{Provider: "bard"})
	assert.Error(t, err)

	_, err = NewLLMClient(config.LLMConfig{Provider: "openai"})
	assert.Error(t, err, "missing api key")

	c, err := NewLLMClient(config.LLMConfig{Provider: "openai", APIKey: "sk-test", RateLimit: 5, Burst: 2})
	require.NoError(t, err)
	_, throttled := c.(*llm.Throttled)
	assert.True(t, throttled)

	c, err = NewLLMClient(config.LLMConfig{Provider: "ollama"})
	require.NoError(t, err)
	_, isOllama := c.(*llm.OllamaClient)
	assert.True(t, isOllama)
}

func TestEmbedCorpus(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t)
	cs, err := OpenCacheStore(ctx, cfg)
	require.NoError(t, err)
	defer cs.Close()

	cache := NewEmbeddingCache(cfg, cs.Store, lengthEmbedder{})
	docs := []domain.Document{
		{ID: "a", SourceText: "Church means a building."},
		{ID: "b", SourceText: "already embedded", Embedding: []float32{9, 9, 9}},
		{ID: "c", SourceText: "an unembeddable section of considerable length"},
	}

	out, skipped := EmbedCorpus(ctx, cache, docs)
	assert.Equal(t, 1, skipped)
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].ID)
	assert.Equal(t, []float32{24, 1, 0}, out[0].Embedding)
	assert.Equal(t, []float32{9, 9, 9}, out[1].Embedding)
}

func TestBuildRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := testConfig(t)
	cs, err := OpenCacheStore(context.Background(), cfg)
	require.NoError(t, err)
	defer cs.Close()

	client, err := NewLLMClient(cfg.LLM)
	require.NoError(t, err)
	cache := NewEmbeddingCache(cfg, cs.Store, client)
	svc := NewSearchService(cfg, client, cache, retrieval.NewMemoryStore(nil))

	r := BuildRouter(RouterDeps{
		ServiceName:   "civic-rag",
		Version:       "test",
		CORSOrigins:   []string{"http://localhost:3000"},
		SearchService: svc,
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-Id"))

	var health map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &health))
	assert.Equal(t, map[string]any{"db": "disabled", "redis": "disabled"}, health["checks"])

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/query", strings.NewReader(`{"query":"","jurisdictionOrCorpus":"austin"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodOptions, "/api/v1/search/query", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", "POST")
	r.ServeHTTP(w, req)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
