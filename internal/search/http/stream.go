package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/logger"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/service"
)

const keepAliveInterval = 15 * time.Second

// sseWriter serializes event writes from the handler and the keep-alive ticker.
type sseWriter struct {
	mu      sync.Mutex
	w       gin.ResponseWriter
	flusher http.Flusher
}

func (s *sseWriter) event(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *sseWriter) comment(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, ": %s\n\n", text)
	s.flusher.Flush()
}

// QueryStream answers a question as Server-Sent Events: one "documents"
// event, "delta" events for the answer text, then "done" or "error".
func (h *Handler) QueryStream(c *gin.Context) {
	var body queryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // nginx: disable buffering
	c.Status(http.StatusOK)

	sse := &sseWriter{w: c.Writer, flusher: flusher}
	ctx := c.Request.Context()
	log := logger.New(ctx)

	stop := make(chan struct{})
	defer close(stop)
	go func() {
		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-stop:
				return
			case <-ticker.C:
				sse.comment("keep-alive")
			}
		}
	}()

	res, err := h.searchService.QueryStream(ctx, body.toQuery(), body.DeferHighlight, service.StreamHandlers{
		OnDocuments: func(r *domain.SearchResult) error {
			return sse.event("documents", newQueryResponse(r))
		},
		OnDelta: func(delta string) error {
			return sse.event("delta", delta)
		},
	})
	if err != nil {
		status, msg := errorStatus(err)
		log.LogWarnf("query_stream", "stream ended with status=%d: %v", status, err)
		sse.event("error", gin.H{"status": status, "error": msg})
		return
	}

	sse.event("done", gin.H{
		"searchId":     res.SearchID,
		"responseText": res.ResponseText,
		"outcome":      res.Outcome,
	})
}
