// Package answer assembles the generation prompt from the surviving documents
// and conversation history and hands it to the text-generation service.
package answer

import (
	"context"
	"fmt"
	"strings"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/llm"
)

const (
	defaultMaxTokens = 1024

	systemTemplate = `You are a research assistant for %s.
Answer the user's question using only the numbered documents provided with it.
Quote the defining language where it exists and cite documents by their number, e.g. [2].
If the documents do not answer the question, say so plainly instead of guessing.`
)

type Synthesizer struct {
	gen           llm.Generator
	jurisdictions map[string]string
	maxTokens     int
}

// New returns a Synthesizer. jurisdictions maps an id to the description
// used in the system prompt; unknown ids are described by the id itself.
func New(gen llm.Generator, jurisdictions map[string]string) *Synthesizer {
	return &Synthesizer{gen: gen, jurisdictions: jurisdictions, maxTokens: defaultMaxTokens}
}

// BuildRequest folds history in oldest first, then asks the question over
// the numbered documents.
func (s *Synthesizer) BuildRequest(q domain.Query, docs []domain.Document) llm.CompletionRequest {
	desc := s.jurisdictions[q.Jurisdiction]
	if desc == "" {
		desc = "the " + q.Jurisdiction + " municipal code and public records"
	}

	msgs := make([]llm.Message, 0, 2*len(q.History)+1)
	for _, turn := range q.History {
		msgs = append(msgs,
			llm.Message{Role: "user", Content: turn.Question},
			llm.Message{Role: "assistant", Content: turn.Answer},
		)
	}

	var b strings.Builder
	b.WriteString("Documents:\n")
	for i, d := range docs {
		fmt.Fprintf(&b, "\n[%d] %s", i+1, d.Title)
		if d.Heading != "" {
			fmt.Fprintf(&b, " - %s", d.Heading)
		}
		b.WriteString("\n")
		b.WriteString(d.SourceText)
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\nQuestion: %s", q.Text)
	msgs = append(msgs, llm.Message{Role: "user", Content: b.String()})

	return llm.CompletionRequest{
		System:    fmt.Sprintf(systemTemplate, desc),
		Messages:  msgs,
		MaxTokens: s.maxTokens,
	}
}

// Answer returns the generated text untouched. Failures are not retried.
func (s *Synthesizer) Answer(ctx context.Context, q domain.Query, docs []domain.Document) (string, error) {
	text, err := s.gen.Complete(ctx, s.BuildRequest(q, docs))
	if err != nil {
		return "", fmt.Errorf("answer synthesis: %w", err)
	}
	return text, nil
}

// Stream is Answer with onDelta called for each generated fragment.
func (s *Synthesizer) Stream(ctx context.Context, q domain.Query, docs []domain.Document, onDelta func(string) error) (string, error) {
	text, err := s.gen.Stream(ctx, s.BuildRequest(q, docs), onDelta)
	if err != nil {
		return text, fmt.Errorf("answer synthesis: %w", err)
	}
	return text, nil
}
