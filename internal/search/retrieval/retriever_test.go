package retrieval

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
)

func testCorpus() []domain.Document {
	return []domain.Document{
		// closest to the query but no keyword
		{ID: "near", Jurisdiction: "austin", SourceText: "Residential districts allow houses.", Embedding: []float32{1, 0, 0}},
		// keyword match, far away
		{ID: "far-rld", Jurisdiction: "austin", SourceText: "Uses permitted in the RLD district.", Embedding: []float32{0, 1, 0}},
		// keyword match, closer
		{ID: "mid-rld", Jurisdiction: "austin", SourceText: "RLD setbacks are 25 feet.", Embedding: []float32{0.7, 0.7, 0}},
		{ID: "other", Jurisdiction: "oakland", SourceText: "RLD in another city.", Embedding: []float32{1, 0, 0}},
		{ID: "mid", Jurisdiction: "austin", SourceText: "Commercial frontage rules.", Embedding: []float32{0.9, 0.1, 0}},
	}
}

func ids(cs []domain.Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Document.ID
	}
	return out
}

func TestRetriever_LexicalMatchesRankFirst(t *testing.T) {
	r := New(NewMemoryStore(testCorpus()), 3)

	got, err := r.Retrieve(context.Background(), "austin", []string{"RLD"}, []float32{1, 0, 0}, 30)
	require.NoError(t, err)

	assert.Equal(t, []string{"mid-rld", "far-rld", "near", "mid"}, ids(got))

	// every lexical match precedes every non-match, regardless of distance
	seenNonMatch := false
	for i, c := range got {
		assert.Equal(t, i, c.Rank)
		if !c.LexicalMatch {
			seenNonMatch = true
			continue
		}
		assert.False(t, seenNonMatch, "lexical match %s ranked after a non-match", c.Document.ID)
	}
}

func TestRetriever_NoKeywordsIsPureDistance(t *testing.T) {
	r := New(NewMemoryStore(testCorpus()), 3)

	got, err := r.Retrieve(context.Background(), "austin", nil, []float32{1, 0, 0}, 30)
	require.NoError(t, err)

	assert.Equal(t, []string{"near", "mid", "mid-rld", "far-rld"}, ids(got))
	for _, c := range got {
		assert.False(t, c.LexicalMatch)
	}
}

func TestRetriever_Limit(t *testing.T) {
	r := New(NewMemoryStore(testCorpus()), 3)

	got, err := r.Retrieve(context.Background(), "austin", []string{"RLD"}, []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"mid-rld", "far-rld"}, ids(got))
}

func TestRetriever_DimensionMismatch(t *testing.T) {
	r := New(NewMemoryStore(testCorpus()), 1536)

	_, err := r.Retrieve(context.Background(), "austin", nil, []float32{1, 0, 0}, 30)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestRetriever_MissingJurisdiction(t *testing.T) {
	r := New(NewMemoryStore(testCorpus()), 3)

	_, err := r.Retrieve(context.Background(), " ", nil, []float32{1, 0, 0}, 30)
	assert.ErrorIs(t, err, domain.ErrMissingJurisdiction)
}

func TestSanitizeKeywords(t *testing.T) {
	got := sanitizeKeywords([]string{`"Austin"`, "-RLD", "or", "OR", " ", "Board"})
	assert.Equal(t, []string{"Austin", "RLD", "Board"}, got)
	assert.Equal(t, "Austin OR RLD OR Board", lexicalQuery(got))
}

func TestCosineDistance(t *testing.T) {
	assert.InDelta(t, 0, cosineDistance([]float32{1, 0}, []float32{2, 0}), 1e-9)
	assert.InDelta(t, 1, cosineDistance([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.InDelta(t, 2, cosineDistance([]float32{1, 0}, []float32{-1, 0}), 1e-9)
	assert.Equal(t, float64(1), cosineDistance([]float32{0, 0}, []float32{1, 0}))
}

func TestLoadCorpus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	content := `{"id":"a","displayText":"Church means a building.","jurisdiction":"austin","embedding":[0.5,0.5]}

{"id":"b","sourceText":"raw","displayText":"shown","jurisdiction":"austin"}
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	docs, err := LoadCorpus(path)
	require.NoError(t, err)
	require.Len(t, docs, 2)

	assert.Equal(t, "Church means a building.", docs[0].SourceText, "source text defaults to display text")
	assert.Equal(t, []float32{0.5, 0.5}, docs[0].Embedding)
	assert.Equal(t, "raw", docs[1].SourceText)
	assert.Nil(t, docs[1].Embedding)
}

func TestLoadCorpus_BadLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{not json}\n"), 0o644))

	_, err := LoadCorpus(path)
	assert.ErrorContains(t, err, "corpus.jsonl:1")
}
