// Package llm holds the ports and adapters for the external text-generation
// and embedding services used by the search pipeline.
package llm

import (
	"context"
	"time"
)

const (
	// DefaultTimeout bounds a single non-streamed model call
	DefaultTimeout = 30 * time.Second

	// StreamTimeout bounds a whole streamed answer
	StreamTimeout = 3 * time.Minute
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is a provider-neutral chat request. System is sent as
// the leading system message; Messages follow in order.
type CompletionRequest struct {
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float64
}

// Generator produces text from a chat prompt.
type Generator interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// Stream calls onDelta for every text fragment as it arrives and returns
	// the concatenated text. An error from onDelta aborts the stream.
	Stream(ctx context.Context, req CompletionRequest, onDelta func(string) error) (string, error)
}

// Embedder turns texts into vectors, one per input, in input order.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Client is a provider that can do both.
type Client interface {
	Generator
	Embedder
}

// UserPrompt is a shorthand for a single-turn request.
func UserPrompt(system, prompt string, maxTokens int) CompletionRequest {
	return CompletionRequest{
		System:    system,
		Messages:  []Message{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	}
}
