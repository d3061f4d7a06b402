package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/logger"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/metrics"
)

const DefaultOpenAIBaseURL = "https://api.openai.com/v1"

// OpenAIConfig configures an OpenAI-compatible REST client.
type OpenAIConfig struct {
	BaseURL        string
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Timeout        time.Duration
}

// OpenAIClient talks to /chat/completions and /embeddings.
type OpenAIClient struct {
	baseURL        string
	apiKey         string
	chatModel      string
	embeddingModel string
	defaultClient  *http.Client
	streamClient   *http.Client // streamed answers may run far longer than a single call
}

var _ Client = (*OpenAIClient)(nil)

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
	Stream      bool      `json:"stream,omitempty"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *apiError `json:"error,omitempty"`
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
	Error *apiError `json:"error,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// NewOpenAIClient creates a new OpenAI-compatible client
func NewOpenAIClient(cfg OpenAIConfig) (*OpenAIClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("openai: api key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	return &OpenAIClient{
		baseURL:        strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:         cfg.APIKey,
		chatModel:      cfg.ChatModel,
		embeddingModel: cfg.EmbeddingModel,
		defaultClient:  &http.Client{Timeout: cfg.Timeout},
		streamClient:   &http.Client{Timeout: StreamTimeout},
	}, nil
}

func (c *OpenAIClient) messages(req CompletionRequest) []Message {
	msgs := make([]Message, 0, len(req.Messages)+1)
	if req.System != "" {
		msgs = append(msgs, Message{Role: "system", Content: req.System})
	}
	return append(msgs, req.Messages...)
}

// Complete runs a blocking chat completion
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	log := logger.New(ctx)
	start := time.Now()

	body := chatCompletionRequest{
		Model:       c.chatModel,
		Messages:    c.messages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	raw, err := c.post(ctx, c.defaultClient, "/chat/completions", body)
	if err != nil {
		metrics.RecordUpstreamCall(time.Since(start), err)
		log.LogError("openai_complete", err)
		return "", err
	}

	var out chatCompletionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		err = fmt.Errorf("%w: decode chat completion: %v", domain.ErrUpstream, err)
		metrics.RecordUpstreamCall(time.Since(start), err)
		return "", err
	}
	if len(out.Choices) == 0 {
		err = fmt.Errorf("%w: chat completion returned no choices", domain.ErrUpstream)
		metrics.RecordUpstreamCall(time.Since(start), err)
		return "", err
	}

	metrics.RecordUpstreamCall(time.Since(start), nil)
	return out.Choices[0].Message.Content, nil
}

// Stream runs a chat completion with server-sent events
func (c *OpenAIClient) Stream(ctx context.Context, req CompletionRequest, onDelta func(string) error) (string, error) {
	start := time.Now()
	body := chatCompletionRequest{
		Model:       c.chatModel,
		Messages:    c.messages(req),
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      true,
	}

	resp, err := c.do(ctx, c.streamClient, "/chat/completions", body)
	if err != nil {
		metrics.RecordUpstreamCall(time.Since(start), err)
		return "", err
	}
	defer resp.Body.Close()

	var full strings.Builder
	sc := bufio.NewScanner(resp.Body)
	sc.Buffer(make([]byte, 0, 64*1024), 2*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			break
		}
		var chunk chatCompletionResponse
		if json.Unmarshal([]byte(data), &chunk) != nil || len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		full.WriteString(delta)
		if err := onDelta(delta); err != nil {
			metrics.RecordUpstreamCall(time.Since(start), nil)
			return full.String(), err
		}
	}
	if err := sc.Err(); err != nil {
		err = fmt.Errorf("%w: read stream: %v", domain.ErrUpstream, err)
		metrics.RecordUpstreamCall(time.Since(start), err)
		return full.String(), err
	}

	metrics.RecordUpstreamCall(time.Since(start), nil)
	return full.String(), nil
}

// EmbedBatch embeds all texts in a single request
func (c *OpenAIClient) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	start := time.Now()

	raw, err := c.post(ctx, c.defaultClient, "/embeddings", embeddingRequest{Model: c.embeddingModel, Input: texts})
	if err != nil {
		metrics.RecordUpstreamCall(time.Since(start), err)
		return nil, err
	}

	var out embeddingResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		err = fmt.Errorf("%w: decode embeddings: %v", domain.ErrUpstream, err)
		metrics.RecordUpstreamCall(time.Since(start), err)
		return nil, err
	}
	if len(out.Data) != len(texts) {
		err = fmt.Errorf("%w: expected %d embeddings, got %d", domain.ErrUpstream, len(texts), len(out.Data))
		metrics.RecordUpstreamCall(time.Since(start), err)
		return nil, err
	}

	sort.Slice(out.Data, func(i, j int) bool { return out.Data[i].Index < out.Data[j].Index })
	vectors := make([][]float32, len(out.Data))
	for i, d := range out.Data {
		vectors[i] = d.Embedding
	}

	metrics.RecordUpstreamCall(time.Since(start), nil)
	return vectors, nil
}

func (c *OpenAIClient) post(ctx context.Context, client *http.Client, path string, payload any) ([]byte, error) {
	resp, err := c.do(ctx, client, path, payload)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response body: %v", domain.ErrUpstream, err)
	}
	return raw, nil
}

// do sends the request and returns the response only for 2xx statuses.
func (c *OpenAIClient) do(ctx context.Context, client *http.Client, path string, payload any) (*http.Response, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrUpstream, path, err)
	}
	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var errResp struct {
			Error *apiError `json:"error"`
		}
		if json.Unmarshal(raw, &errResp) == nil && errResp.Error != nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("%w: %s returned %d: %s", domain.ErrUpstream, path, resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("%w: %s returned %d: %s", domain.ErrUpstream, path, resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return resp, nil
}
