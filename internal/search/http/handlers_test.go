package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/service"
)

type stubEmbedder struct{ err error }

func (s stubEmbedder) EmbedOne(context.Context, string) ([]float32, error) {
	return []float32{1, 0}, s.err
}

type stubKeywords struct{}

func (stubKeywords) Extract(context.Context, string) ([]string, error) { return []string{"RLD"}, nil }

type stubRetriever struct{ docs []domain.Document }

func (s stubRetriever) Retrieve(context.Context, string, []string, []float32, int) ([]domain.Candidate, error) {
	out := make([]domain.Candidate, len(s.docs))
	for i, d := range s.docs {
		out[i] = domain.Candidate{Document: d, Rank: i}
	}
	return out, nil
}

type keepAll struct{}

func (keepAll) FilterRelevant(_ context.Context, _ string, c []domain.Candidate) []domain.Candidate {
	return c
}

type markFirstWord struct{}

func (markFirstWord) AlignAll(_ context.Context, _ string, docs []domain.Document, _ []string) []domain.HighlightResult {
	out := make([]domain.HighlightResult, len(docs))
	for i, d := range docs {
		word, rest, _ := strings.Cut(d.DisplayText, " ")
		out[i] = domain.HighlightResult{DocumentID: d.ID, MarkedDisplayText: "<mark>" + word + "</mark> " + rest, Highlighted: true}
	}
	return out
}

type stubSynth struct{ err error }

func (s stubSynth) Answer(context.Context, domain.Query, []domain.Document) (string, error) {
	return "The RLD district allows homes.", s.err
}

func (s stubSynth) Stream(_ context.Context, _ domain.Query, _ []domain.Document, onDelta func(string) error) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	for _, d := range []string{"The RLD ", "district allows homes."} {
		if err := onDelta(d); err != nil {
			return "", err
		}
	}
	return "The RLD district allows homes.", nil
}

func setupRouter(deps service.Deps) *gin.Engine {
	gin.SetMode(gin.TestMode)
	if deps.Embedder == nil {
		deps.Embedder = stubEmbedder{}
	}
	if deps.Keywords == nil {
		deps.Keywords = stubKeywords{}
	}
	if deps.Retriever == nil {
		deps.Retriever = stubRetriever{docs: []domain.Document{
			{ID: "d1", SourceText: "RLD district allows homes.", DisplayText: "RLD district allows homes."},
		}}
	}
	if deps.Relevance == nil {
		deps.Relevance = keepAll{}
	}
	if deps.Highlighter == nil {
		deps.Highlighter = markFirstWord{}
	}
	if deps.Synthesizer == nil {
		deps.Synthesizer = stubSynth{}
	}

	svc := service.NewSearchService(deps, service.Options{Jurisdictions: map[string]string{"austin": "Austin"}})
	r := gin.New()
	New(svc).Register(r.Group("/api/v1/search"))
	return r
}

func postJSON(r *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHandler_Query(t *testing.T) {
	r := setupRouter(service.Deps{})

	w := postJSON(r, "/api/v1/search/query", gin.H{
		"query":                "What is allowed in RLD?",
		"jurisdictionOrCorpus": "austin",
		"conversationHistory":  []gin.H{{"question": "q0", "answer": "a0", "searchId": "s0"}},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		SearchID     string `json:"searchId"`
		ResponseText string `json:"responseText"`
		Documents    []struct {
			ID                string `json:"id"`
			DisplayText       string `json:"displayText"`
			MarkedDisplayText string `json:"markedDisplayText"`
			Highlighted       bool   `json:"highlighted"`
		} `json:"documents"`
		Keywords []string `json:"keywords"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))

	assert.NotEmpty(t, resp.SearchID)
	assert.Equal(t, "The RLD district allows homes.", resp.ResponseText)
	require.Len(t, resp.Documents, 1)
	assert.Equal(t, "<mark>RLD</mark> district allows homes.", resp.Documents[0].MarkedDisplayText)
	assert.True(t, resp.Documents[0].Highlighted)
	assert.Equal(t, []string{"RLD"}, resp.Keywords)
}

func TestHandler_Query_Empty(t *testing.T) {
	r := setupRouter(service.Deps{Retriever: stubRetriever{}})

	w := postJSON(r, "/api/v1/search/query", gin.H{"query": "q", "jurisdictionOrCorpus": "austin"})
	require.Equal(t, http.StatusOK, w.Code)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "No relevant code chunks found.", resp["responseText"])
	assert.Equal(t, []any{}, resp["documents"])
}

func TestHandler_Query_Errors(t *testing.T) {
	tests := []struct {
		name   string
		deps   service.Deps
		body   any
		status int
	}{
		{"bad json", service.Deps{}, "not an object", http.StatusBadRequest},
		{"empty query", service.Deps{}, gin.H{"query": " ", "jurisdictionOrCorpus": "austin"}, http.StatusBadRequest},
		{"unknown jurisdiction", service.Deps{}, gin.H{"query": "q", "jurisdictionOrCorpus": "gotham"}, http.StatusBadRequest},
		{"embedding down", service.Deps{Embedder: stubEmbedder{err: domain.ErrQueryEmbeddingUnavailable}},
			gin.H{"query": "q", "jurisdictionOrCorpus": "austin"}, http.StatusBadGateway},
		{"synthesis failed", service.Deps{Synthesizer: stubSynth{err: domain.ErrUpstream}},
			gin.H{"query": "q", "jurisdictionOrCorpus": "austin"}, http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(setupRouter(tt.deps), "/api/v1/search/query", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Contains(t, w.Body.String(), `"error"`)
		})
	}
}

func TestHandler_Highlight(t *testing.T) {
	r := setupRouter(service.Deps{})

	w := postJSON(r, "/api/v1/search/highlight", gin.H{
		"query":     "What is a Church?",
		"documents": []gin.H{{"id": "c1", "displayText": "Church means a building."}},
		"keywords":  []string{"Church"},
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Documents []struct {
			ID                string `json:"id"`
			MarkedDisplayText string `json:"markedDisplayText"`
		} `json:"documents"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Documents, 1)
	assert.Equal(t, "c1", resp.Documents[0].ID)
	assert.Equal(t, "<mark>Church</mark> means a building.", resp.Documents[0].MarkedDisplayText)
}

func TestHandler_QueryStream(t *testing.T) {
	r := setupRouter(service.Deps{})

	w := postJSON(r, "/api/v1/search/query/stream", gin.H{"query": "q", "jurisdictionOrCorpus": "austin"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/event-stream", w.Header().Get("Content-Type"))

	body := w.Body.String()
	docs := strings.Index(body, "event: documents")
	delta := strings.Index(body, "event: delta\ndata: \"The RLD \"")
	done := strings.Index(body, "event: done")
	require.True(t, docs >= 0 && delta > docs && done > delta, body)
	assert.Contains(t, body, `"responseText":"The RLD district allows homes."`)
}

func TestHandler_QueryStream_Error(t *testing.T) {
	r := setupRouter(service.Deps{Synthesizer: stubSynth{err: domain.ErrUpstream}})

	w := postJSON(r, "/api/v1/search/query/stream", gin.H{"query": "q", "jurisdictionOrCorpus": "austin"})

	body := w.Body.String()
	assert.Contains(t, body, "event: documents")
	assert.Contains(t, body, "event: error")
	assert.Contains(t, body, `"status":502`)
	assert.NotContains(t, body, "event: done")
}

func TestHandler_Metrics(t *testing.T) {
	r := setupRouter(service.Deps{})

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/metrics", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"highlight_by_strategy"`)
}
