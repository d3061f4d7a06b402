package embedcache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
)

const (
	embedKeyPrefix  = "emb:"              // Key for a cached vector: emb:{text_hash}
	defaultEmbedTTL = 7 * 24 * time.Hour // TTL for hot-tier entries (7 days)
)

// RedisStore keeps embeddings in Redis as raw little-endian float32 blobs
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore creates a new RedisStore
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = defaultEmbedTTL
	}
	return &RedisStore{client: client, ttl: ttl}
}

func (r *RedisStore) key(hash string) string {
	return embedKeyPrefix + hash
}

// GetMany fetches all hashes with a single MGET
func (r *RedisStore) GetMany(ctx context.Context, hashes []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}

	keys := make([]string, len(hashes))
	for i, h := range hashes {
		keys[i] = r.key(h)
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to mget embeddings: %w", err)
	}

	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		vec, err := deserializeVector([]byte(s))
		if err != nil || len(vec) == 0 {
			continue
		}
		out[hashes[i]] = vec
	}
	return out, nil
}

// PutMany writes entries with SETNX so existing keys are left untouched
func (r *RedisStore) PutMany(ctx context.Context, entries []domain.CacheEntry) (PutResult, error) {
	var res PutResult
	if len(entries) == 0 {
		return res, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.BoolCmd, len(entries))
	for i, e := range entries {
		cmds[i] = pipe.SetNX(ctx, r.key(e.TextHash), serializeVector(e.Embedding), r.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return res, fmt.Errorf("failed to write embeddings: %w", err)
	}

	for _, cmd := range cmds {
		if cmd.Val() {
			res.Inserted++
		} else {
			res.Duplicates++
		}
	}
	return res, nil
}
