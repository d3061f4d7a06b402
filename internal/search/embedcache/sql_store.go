package embedcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/logger"
	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
)

// Dialect selects placeholder and schema syntax for SQLStore.
type Dialect int

const (
	DialectPostgres Dialect = iota
	DialectSQLite
)

// sqliteMaxVars keeps IN lists under SQLite's bound-variable limit.
const sqliteMaxVars = 500

const postgresSchema = `
CREATE TABLE IF NOT EXISTS embedding_cache (
	text_hash  TEXT PRIMARY KEY,
	dims       INTEGER NOT NULL,
	embedding  BYTEA NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS embedding_cache (
	text_hash  TEXT PRIMARY KEY,
	dims       INTEGER NOT NULL,
	embedding  BLOB NOT NULL,
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`

// SQLStore handles embedding_cache rows in PostgreSQL or SQLite
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLStore creates a new SQLStore
func NewSQLStore(db *sql.DB, dialect Dialect) *SQLStore {
	return &SQLStore{db: db, dialect: dialect}
}

// EnsureSchema creates the embedding_cache table if it does not exist
func (s *SQLStore) EnsureSchema(ctx context.Context) error {
	schema := postgresSchema
	if s.dialect == DialectSQLite {
		schema = sqliteSchema
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create embedding_cache table: %w", err)
	}
	return nil
}

// GetMany looks up all hashes in one round trip (chunked on SQLite).
func (s *SQLStore) GetMany(ctx context.Context, hashes []string) (map[string][]float32, error) {
	out := make(map[string][]float32, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}

	if s.dialect == DialectPostgres {
		rows, err := s.db.QueryContext(ctx,
			`SELECT text_hash, dims, embedding FROM embedding_cache WHERE text_hash = ANY($1)`,
			pq.Array(hashes),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to query embedding cache: %w", err)
		}
		if err := s.scanInto(ctx, rows, out); err != nil {
			return nil, err
		}
		return out, nil
	}

	for start := 0; start < len(hashes); start += sqliteMaxVars {
		end := min(start+sqliteMaxVars, len(hashes))
		chunk := hashes[start:end]

		args := make([]any, len(chunk))
		for i, h := range chunk {
			args[i] = h
		}
		query := `SELECT text_hash, dims, embedding FROM embedding_cache WHERE text_hash IN (` +
			strings.TrimSuffix(strings.Repeat("?,", len(chunk)), ",") + `)`

		rows, err := s.db.QueryContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("failed to query embedding cache: %w", err)
		}
		if err := s.scanInto(ctx, rows, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLStore) scanInto(ctx context.Context, rows *sql.Rows, out map[string][]float32) error {
	defer rows.Close()

	for rows.Next() {
		var hash string
		var dims int
		var blob []byte
		if err := rows.Scan(&hash, &dims, &blob); err != nil {
			return fmt.Errorf("failed to scan embedding cache row: %w", err)
		}
		vec, err := deserializeVector(blob)
		if err != nil || len(vec) != dims {
			logger.New(ctx).LogWarnf("embed_cache_read", "skipping corrupt entry hash=%s dims=%d", hash, dims)
			continue
		}
		out[hash] = vec
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to read embedding cache rows: %w", err)
	}
	return nil
}

// PutMany inserts each entry independently with insert-or-ignore semantics.
// Rows are not wrapped in a transaction so one failed row cannot abort the
// rest. A duplicate key, whether reported by the conflict clause or raised
// as a constraint error, counts as a duplicate, never as a failure.
func (s *SQLStore) PutMany(ctx context.Context, entries []domain.CacheEntry) (PutResult, error) {
	var res PutResult
	query := `INSERT INTO embedding_cache (text_hash, dims, embedding) VALUES ($1, $2, $3) ON CONFLICT (text_hash) DO NOTHING`
	if s.dialect == DialectSQLite {
		query = `INSERT INTO embedding_cache (text_hash, dims, embedding) VALUES (?, ?, ?) ON CONFLICT (text_hash) DO NOTHING`
	}

	var errs []error
	for _, e := range entries {
		result, err := s.db.ExecContext(ctx, query, e.TextHash, len(e.Embedding), serializeVector(e.Embedding))
		if err != nil {
			if isDuplicateKey(err) {
				res.Duplicates++
				continue
			}
			errs = append(errs, fmt.Errorf("insert %s: %w", e.TextHash, err))
			continue
		}
		if n, err := result.RowsAffected(); err == nil && n == 0 {
			res.Duplicates++
			continue
		}
		res.Inserted++
	}

	if len(errs) > 0 {
		return res, fmt.Errorf("failed to write %d embedding cache entries: %w", len(errs), errors.Join(errs...))
	}
	return res, nil
}

// isDuplicateKey reports unique/primary-key violations from either driver.
func isDuplicateKey(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) {
		code := liteErr.Code()
		return code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY || code == sqlite3.SQLITE_CONSTRAINT_UNIQUE
	}
	return false
}
