package http

import "github.com/gin-gonic/gin"

// Register registers the search routes
func (h *Handler) Register(rg *gin.RouterGroup) {
	rg.POST("/query", h.Query)
	rg.POST("/query/stream", h.QueryStream)
	rg.POST("/highlight", h.Highlight)
	rg.GET("/metrics", h.Metrics)
}
