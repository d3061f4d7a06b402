package domain

import "errors"

var (
	ErrEmptyQuery                = errors.New("query is required")
	ErrMissingJurisdiction       = errors.New("jurisdiction or corpus is required")
	ErrUnknownJurisdiction       = errors.New("unknown jurisdiction")
	ErrDimensionMismatch         = errors.New("embedding dimensionality mismatch")
	ErrQueryEmbeddingUnavailable = errors.New("query embedding unavailable")
	ErrKeywordExtraction         = errors.New("keyword extraction failed")
	ErrUpstream                  = errors.New("upstream service error")
	ErrMalformedOutput           = errors.New("malformed model output")
)
