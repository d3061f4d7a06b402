package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/metrics"
)

// Query answers a question over one jurisdiction's documents
func (h *Handler) Query(c *gin.Context) {
	var body queryRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.searchService.Query(c.Request.Context(), body.toQuery(), body.DeferHighlight)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, newQueryResponse(res))
}

// Highlight places highlights on documents returned by an earlier query
func (h *Handler) Highlight(c *gin.Context) {
	var body highlightRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	docs, err := h.searchService.Highlight(c.Request.Context(), body.Query, body.Documents, body.Keywords)
	if err != nil {
		status, msg := errorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, highlightResponse{Documents: docs})
}

// Metrics returns the pipeline counters
func (h *Handler) Metrics(c *gin.Context) {
	c.JSON(http.StatusOK, metrics.Get())
}

// errorStatus maps pipeline errors to a status code and a client-safe message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery),
		errors.Is(err, domain.ErrMissingJurisdiction),
		errors.Is(err, domain.ErrUnknownJurisdiction):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "search timed out"
	case errors.Is(err, domain.ErrQueryEmbeddingUnavailable),
		errors.Is(err, domain.ErrKeywordExtraction),
		errors.Is(err, domain.ErrUpstream):
		return http.StatusBadGateway, "upstream model service unavailable"
	default:
		return http.StatusInternalServerError, "search failed"
	}
}
