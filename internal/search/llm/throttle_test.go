package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingClient struct {
	completes, streams, embeds int
}

func (c *countingClient) Complete(context.Context, CompletionRequest) (string, error) {
	c.completes++
	return "ok", nil
}

func (c *countingClient) Stream(_ context.Context, _ CompletionRequest, onDelta func(string) error) (string, error) {
	c.streams++
	return "ok", onDelta("ok")
}

func (c *countingClient) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	c.embeds++
	return make([][]float32, len(texts)), nil
}

func TestNewThrottled_DisabledReturnsNext(t *testing.T) {
	next := &countingClient{}
	assert.Same(t, next, NewThrottled(next, 0, 5))
}

func TestThrottled_Delegates(t *testing.T) {
	next := &countingClient{}
	c := NewThrottled(next, 1000, 10)
	ctx := context.Background()

	_, err := c.Complete(ctx, UserPrompt("", "q", 0))
	require.NoError(t, err)
	_, err = c.Stream(ctx, UserPrompt("", "q", 0), func(string) error { return nil })
	require.NoError(t, err)
	_, err = c.EmbedBatch(ctx, []string{"x"})
	require.NoError(t, err)

	assert.Equal(t, 1, next.completes)
	assert.Equal(t, 1, next.streams)
	assert.Equal(t, 1, next.embeds)
}

func TestThrottled_CancelledContext(t *testing.T) {
	next := &countingClient{}
	c := NewThrottled(next, 0.001, 1)

	// drain the single burst token
	_, err := c.Complete(context.Background(), UserPrompt("", "q", 0))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Complete(ctx, UserPrompt("", "q", 0))
	require.Error(t, err)
	assert.Equal(t, 1, next.completes)
}
