package embedcache

import (
	"context"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
)

// PutResult counts what a write actually did. Duplicates are entries that
// already existed, including ones inserted concurrently by another caller.
type PutResult struct {
	Inserted   int
	Duplicates int
}

// Store persists content-addressed embeddings with insert-or-ignore writes.
type Store interface {
	// GetMany returns the entries found for the given hashes. Missing hashes
	// are simply absent from the map.
	GetMany(ctx context.Context, hashes []string) (map[string][]float32, error)

	// PutMany inserts entries, ignoring ones whose hash already exists.
	PutMany(ctx context.Context, entries []domain.CacheEntry) (PutResult, error)
}
