package embedcache

import (
	"context"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/logger"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
)

// TieredStore reads through a fast hot store to a durable cold store.
// The cold store is the source of truth; hot-tier failures only cost latency.
type TieredStore struct {
	hot  Store
	cold Store
}

func NewTieredStore(hot, cold Store) *TieredStore {
	return &TieredStore{hot: hot, cold: cold}
}

func (t *TieredStore) GetMany(ctx context.Context, hashes []string) (map[string][]float32, error) {
	log := logger.New(ctx)

	found, err := t.hot.GetMany(ctx, hashes)
	if err != nil {
		log.LogWarnf("embed_cache_hot_read", "hot tier unavailable, reading cold tier: %v", err)
		found = map[string][]float32{}
	}

	var missing []string
	for _, h := range hashes {
		if _, ok := found[h]; !ok {
			missing = append(missing, h)
		}
	}
	if len(missing) == 0 {
		return found, nil
	}

	cold, err := t.cold.GetMany(ctx, missing)
	if err != nil {
		return nil, err
	}

	backfill := make([]domain.CacheEntry, 0, len(cold))
	for h, vec := range cold {
		found[h] = vec
		backfill = append(backfill, domain.CacheEntry{TextHash: h, Embedding: vec})
	}
	if len(backfill) > 0 {
		if _, err := t.hot.PutMany(ctx, backfill); err != nil {
			log.LogWarnf("embed_cache_backfill", "backfill of %d entries failed: %v", len(backfill), err)
		}
	}
	return found, nil
}

func (t *TieredStore) PutMany(ctx context.Context, entries []domain.CacheEntry) (PutResult, error) {
	res, err := t.cold.PutMany(ctx, entries)
	if _, hotErr := t.hot.PutMany(ctx, entries); hotErr != nil {
		logger.New(ctx).LogWarnf("embed_cache_hot_write", "hot tier write of %d entries failed: %v", len(entries), hotErr)
	}
	return res, err
}
