// Package highlight places a highlight around the part of a document's
// display text that a model quoted as answering the question.
package highlight

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/llm"
)

// MaxExcerptRunes is the longest excerpt the model may propose.
const MaxExcerptRunes = 100

type ExcerptKind int

const (
	ExcerptNone ExcerptKind = iota
	ExcerptQuote
	ExcerptMalformed
)

// Excerpt is the parsed model output. Text is set only for ExcerptQuote.
type Excerpt struct {
	Kind ExcerptKind
	Text string
}

// Quote builds an ExcerptQuote, for callers that already hold the text.
func Quote(text string) Excerpt {
	return Excerpt{Kind: ExcerptQuote, Text: text}
}

var quotePairs = [][2]string{{`"`, `"`}, {"'", "'"}, {"`", "`"}, {"“", "”"}, {"‘", "’"}}

// ParseExcerpt validates the raw model answer against the excerpt contract:
// "None", or a quote of at most MaxExcerptRunes. One pair of surrounding
// quotation marks is removed; inner whitespace and case are kept.
func ParseExcerpt(raw string) Excerpt {
	s := strings.TrimSpace(raw)
	for _, p := range quotePairs {
		if len(s) >= len(p[0])+len(p[1]) && strings.HasPrefix(s, p[0]) && strings.HasSuffix(s, p[1]) {
			s = strings.TrimSpace(s[len(p[0]) : len(s)-len(p[1])])
			break
		}
	}

	if s == "" || strings.EqualFold(strings.TrimRight(s, "."), "none") {
		return Excerpt{Kind: ExcerptNone}
	}
	if utf8.RuneCountInString(s) > MaxExcerptRunes {
		return Excerpt{Kind: ExcerptMalformed, Text: s}
	}
	return Quote(s)
}

const selectPrompt = `You help users find the exact sentence in a government code or meeting record that
answers their question. Copy the single most relevant excerpt from the passage exactly as written,
preserving case, punctuation and spacing. The excerpt must be at most 100 characters and must be a
contiguous part of the passage. Reply with the excerpt only, without quotation marks.
If nothing in the passage is relevant, reply exactly: None`

// Selector asks the model which excerpt of a document to highlight.
type Selector struct {
	gen llm.Generator
}

func NewSelector(gen llm.Generator) *Selector {
	return &Selector{gen: gen}
}

// Select returns the parsed excerpt, or an error if the upstream call failed.
func (s *Selector) Select(ctx context.Context, query string, doc domain.Document) (Excerpt, error) {
	text := doc.SourceText
	if text == "" {
		text = doc.DisplayText
	}
	req := llm.UserPrompt(selectPrompt, fmt.Sprintf("Question: %s\n\nPassage:\n%s", query, text), 64)

	raw, err := s.gen.Complete(ctx, req)
	if err != nil {
		return Excerpt{}, err
	}
	return ParseExcerpt(raw), nil
}
