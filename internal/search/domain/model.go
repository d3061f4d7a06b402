package domain

// Document is one retrievable passage of a government text corpus.
// SourceText feeds embeddings and prompts; DisplayText is the HTML-safe
// rendering shown to users and may differ from SourceText in whitespace,
// wrapping and escaping.
type Document struct {
	ID           string    `json:"id"`
	SourceText   string    `json:"sourceText,omitempty"`
	DisplayText  string    `json:"displayText"`
	Heading      string    `json:"heading"`
	Title        string    `json:"title"`
	SourceURL    string    `json:"sourceUrl"`
	Jurisdiction string    `json:"jurisdiction"`
	Embedding    []float32 `json:"-"`
}

// HistoryTurn is one prior question/answer exchange. Order is oldest first.
type HistoryTurn struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
	SearchID string `json:"searchId,omitempty"`
}

// Query is a user question scoped to one jurisdiction or corpus.
type Query struct {
	Text         string
	Jurisdiction string
	History      []HistoryTurn
}

// Candidate is a retrieved document with its rank (0 = best).
type Candidate struct {
	Document     Document
	Rank         int
	LexicalMatch bool
	Distance     float64
}

// HighlightResult carries a document's display text with the highlight
// markers inserted, or the untouched display text when nothing was placed.
type HighlightResult struct {
	DocumentID        string
	MarkedDisplayText string
	Highlighted       bool
	Strategy          string
}

// CacheEntry maps a content hash to an embedding. Entries are immutable.
type CacheEntry struct {
	TextHash  string
	Embedding []float32
}

// HighlightedDocument is a document ready for the response payload.
type HighlightedDocument struct {
	Document
	MarkedDisplayText string `json:"markedDisplayText"`
	Highlighted       bool   `json:"highlighted"`
}

// SearchResult is the outcome of one query pipeline run.
type SearchResult struct {
	SearchID     string
	ResponseText string
	Documents    []HighlightedDocument
	Keywords     []string
	Outcome      Outcome
}
