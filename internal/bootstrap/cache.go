package bootstrap

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/GoSim-25-26J-441/civic-rag-backend/config"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/logger"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/embedcache"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/storage/postgres"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/storage/sqlite"
)

// CacheStore is the persistent embedding store plus the handles behind it.
type CacheStore struct {
	Store embedcache.Store
	DB    *sql.DB
	Redis *redis.Client
}

// Close releases the SQL and Redis handles.
func (c *CacheStore) Close() {
	if c.Redis != nil {
		c.Redis.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

// OpenCacheStore opens the SQL store selected by cfg.Cache.Driver, creates
// its table, and puts a Redis hot tier in front of it when REDIS_ADDR is set.
// An unreachable Redis is logged and skipped.
func OpenCacheStore(ctx context.Context, cfg *config.Config) (*CacheStore, error) {
	var (
		db      *sql.DB
		dialect embedcache.Dialect
		err     error
	)
	switch cfg.Cache.Driver {
	case "sqlite":
		db, err = sqlite.NewConnection(ctx, cfg.Cache.SQLitePath)
		dialect = embedcache.DialectSQLite
	default:
		db, err = postgres.NewConnection(ctx, &cfg.Database)
		dialect = embedcache.DialectPostgres
	}
	if err != nil {
		return nil, fmt.Errorf("embedding cache: %w", err)
	}

	sqlStore := embedcache.NewSQLStore(db, dialect)
	if err := sqlStore.EnsureSchema(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("embedding cache schema: %w", err)
	}

	out := &CacheStore{Store: sqlStore, DB: db}
	if cfg.Cache.RedisAddr == "" {
		return out, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.Cache.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.New(ctx).LogWarnf("cache_bootstrap", "redis at %s unreachable, running without hot tier: %v", cfg.Cache.RedisAddr, err)
		rdb.Close()
		return out, nil
	}

	out.Redis = rdb
	out.Store = embedcache.NewTieredStore(embedcache.NewRedisStore(rdb, cfg.Cache.RedisTTL), sqlStore)
	return out, nil
}
