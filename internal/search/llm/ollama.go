package llm

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/metrics"
)

const DefaultOllamaHost = "http://localhost:11434"

// OllamaConfig holds settings for a local Ollama server.
type OllamaConfig struct {
	Host           string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
}

// OllamaClient wraps the Ollama API for chat and embedding generation.
type OllamaClient struct {
	client         *api.Client
	chatModel      string
	embeddingModel string
	timeout        time.Duration
}

var _ Client = (*OllamaClient)(nil)

// NewOllamaClient creates a client connected to Ollama.
func NewOllamaClient(cfg OllamaConfig) (*OllamaClient, error) {
	if cfg.Host == "" {
		cfg.Host = DefaultOllamaHost
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	u, err := url.Parse(cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("parse ollama host: %w", err)
	}

	// The api client streams NDJSON, so the deadline is applied per call via
	// context rather than as a client-wide timeout.
	return &OllamaClient{
		client:         api.NewClient(u, &http.Client{}),
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		timeout:        cfg.Timeout,
	}, nil
}

func (c *OllamaClient) chatRequest(req CompletionRequest, stream bool) *api.ChatRequest {
	msgs := make([]api.Message, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, api.Message{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		msgs = append(msgs, api.Message{Role: m.Role, Content: m.Content})
	}
	opts := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		opts["num_predict"] = req.MaxTokens
	}
	return &api.ChatRequest{
		Model:    c.chatModel,
		Messages: msgs,
		Stream:   &stream,
		Options:  opts,
	}
}

// Complete runs a non-streamed chat call
func (c *OllamaClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	start := time.Now()

	var b strings.Builder
	err := c.client.Chat(ctx, c.chatRequest(req, false), func(resp api.ChatResponse) error {
		b.WriteString(resp.Message.Content)
		return nil
	})
	if err != nil {
		err = fmt.Errorf("%w: ollama chat: %v", domain.ErrUpstream, err)
	}
	metrics.RecordUpstreamCall(time.Since(start), err)
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// Stream runs a streamed chat call
func (c *OllamaClient) Stream(ctx context.Context, req CompletionRequest, onDelta func(string) error) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, StreamTimeout)
	defer cancel()
	start := time.Now()

	var b strings.Builder
	var callbackErr error
	err := c.client.Chat(ctx, c.chatRequest(req, true), func(resp api.ChatResponse) error {
		if resp.Message.Content == "" {
			return nil
		}
		b.WriteString(resp.Message.Content)
		if err := onDelta(resp.Message.Content); err != nil {
			callbackErr = err
			return err
		}
		return nil
	})
	if callbackErr != nil {
		metrics.RecordUpstreamCall(time.Since(start), nil)
		return b.String(), callbackErr
	}
	if err != nil {
		err = fmt.Errorf("%w: ollama chat stream: %v", domain.ErrUpstream, err)
	}
	metrics.RecordUpstreamCall(time.Since(start), err)
	return b.String(), err
}

// EmbedBatch generates embeddings for multiple texts in one call.
func (c *OllamaClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	start := time.Now()

	resp, err := c.client.Embed(ctx, &api.EmbedRequest{
		Model: c.embeddingModel,
		Input: texts,
	})
	if err != nil {
		err = fmt.Errorf("%w: ollama embed: %v", domain.ErrUpstream, err)
		metrics.RecordUpstreamCall(time.Since(start), err)
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		err = fmt.Errorf("%w: ollama returned %d embeddings for %d inputs", domain.ErrUpstream, len(resp.Embeddings), len(texts))
		metrics.RecordUpstreamCall(time.Since(start), err)
		return nil, err
	}

	metrics.RecordUpstreamCall(time.Since(start), nil)
	return resp.Embeddings, nil
}
