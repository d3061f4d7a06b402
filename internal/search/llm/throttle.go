package llm

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"
)

// Throttled shares one token bucket across every model call so the
// per-candidate fan-out cannot burst past the provider's rate limit.
type Throttled struct {
	next    Client
	limiter *rate.Limiter
}

// NewThrottled wraps next with a limiter. rps <= 0 returns next unchanged.
func NewThrottled(next Client, rps float64, burst int) Client {
	if rps <= 0 {
		return next
	}
	if burst <= 0 {
		burst = 1
	}
	return &Throttled{next: next, limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

func (t *Throttled) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return t.next.Complete(ctx, req)
}

func (t *Throttled) Stream(ctx context.Context, req CompletionRequest, onDelta func(string) error) (string, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	return t.next.Stream(ctx, req, onDelta)
}

func (t *Throttled) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}
	return t.next.EmbedBatch(ctx, texts)
}
