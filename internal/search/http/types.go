package http

import (
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/service"
)

// Handler handles HTTP requests for the search pipeline
type Handler struct {
	searchService *service.SearchService
}

// New creates a new Handler
func New(searchService *service.SearchService) *Handler {
	return &Handler{searchService: searchService}
}

type queryRequest struct {
	Query                string               `json:"query"`
	ConversationHistory  []domain.HistoryTurn `json:"conversationHistory"`
	JurisdictionOrCorpus string               `json:"jurisdictionOrCorpus"`
	DeferHighlight       bool                 `json:"deferHighlight,omitempty"`
}

func (r queryRequest) toQuery() domain.Query {
	return domain.Query{
		Text:         r.Query,
		Jurisdiction: r.JurisdictionOrCorpus,
		History:      r.ConversationHistory,
	}
}

type queryResponse struct {
	SearchID     string                       `json:"searchId"`
	ResponseText string                       `json:"responseText"`
	Documents    []domain.HighlightedDocument `json:"documents"`
	Keywords     []string                     `json:"keywords"`
	Outcome      domain.Outcome               `json:"outcome"`
}

func newQueryResponse(res *domain.SearchResult) queryResponse {
	kws := res.Keywords
	if kws == nil {
		kws = []string{}
	}
	return queryResponse{
		SearchID:     res.SearchID,
		ResponseText: res.ResponseText,
		Documents:    res.Documents,
		Keywords:     kws,
		Outcome:      res.Outcome,
	}
}

type highlightRequest struct {
	Query     string            `json:"query"`
	Documents []domain.Document `json:"documents"`
	Keywords  []string          `json:"keywords"`
}

type highlightResponse struct {
	Documents []domain.HighlightedDocument `json:"documents"`
}
