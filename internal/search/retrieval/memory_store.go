package retrieval

import (
	"bufio"
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"slices"
	"strings"
	"unicode"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
)

// corpusRecord is one JSONL line of a prepared corpus. Embedding is optional.
type corpusRecord struct {
	domain.Document
	Embedding []float32 `json:"embedding,omitempty"`
}

// LoadCorpus reads documents from a JSONL file, one document per line.
func LoadCorpus(path string) ([]domain.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var docs []domain.Document
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		raw := strings.TrimSpace(sc.Text())
		if raw == "" {
			continue
		}
		var rec corpusRecord
		if err := json.Unmarshal([]byte(raw), &rec); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", path, line, err)
		}
		doc := rec.Document
		doc.Embedding = rec.Embedding
		if doc.SourceText == "" {
			doc.SourceText = doc.DisplayText
		}
		docs = append(docs, doc)
	}
	return docs, sc.Err()
}

// MemoryStore ranks an in-process corpus the same way the SQL query does.
// Lexical matching is exact lower-cased word equality, without stemming.
type MemoryStore struct {
	docs  []domain.Document
	words [][]string
}

func NewMemoryStore(docs []domain.Document) *MemoryStore {
	words := make([][]string, len(docs))
	for i, d := range docs {
		words[i] = tokenize(d.Title + " " + d.SourceText)
	}
	return &MemoryStore{docs: docs, words: words}
}

func (m *MemoryStore) Search(_ context.Context, jurisdiction string, keywords []string, embedding []float32, limit int) ([]domain.Candidate, error) {
	wanted := make(map[string]struct{})
	for _, kw := range keywords {
		for _, w := range tokenize(kw) {
			wanted[w] = struct{}{}
		}
	}

	var out []domain.Candidate
	for i, d := range m.docs {
		if d.Jurisdiction != jurisdiction {
			continue
		}
		if len(d.Embedding) != len(embedding) {
			return nil, fmt.Errorf("%w: document %s has %d dims, query has %d", domain.ErrDimensionMismatch, d.ID, len(d.Embedding), len(embedding))
		}
		c := domain.Candidate{Document: d, Distance: cosineDistance(embedding, d.Embedding)}
		if len(wanted) > 0 {
			c.LexicalMatch = slices.ContainsFunc(m.words[i], func(w string) bool {
				_, ok := wanted[w]
				return ok
			})
		}
		out = append(out, c)
	}

	slices.SortStableFunc(out, func(a, b domain.Candidate) int {
		if a.LexicalMatch != b.LexicalMatch {
			if a.LexicalMatch {
				return -1
			}
			return 1
		}
		return cmp.Compare(a.Distance, b.Distance)
	})

	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func tokenize(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// cosineDistance is 1 - cosine similarity; a zero vector is distance 1.
func cosineDistance(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(normA)*math.Sqrt(normB))
}
