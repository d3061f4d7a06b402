package retrieval

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"

	"github.com/GoSim-25-26J-441/civic-rag-backend/internal/search/domain"
)

// documentsSchema is formatted with the embedding dimensionality.
const documentsSchema = `
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	jurisdiction  TEXT NOT NULL,
	source_text   TEXT NOT NULL,
	display_text  TEXT NOT NULL,
	heading       TEXT NOT NULL DEFAULT '',
	title         TEXT NOT NULL DEFAULT '',
	source_url    TEXT NOT NULL DEFAULT '',
	embedding     vector(%d) NOT NULL,
	search_vector tsvector GENERATED ALWAYS AS (to_tsvector('english', source_text)) STORED
);

CREATE INDEX IF NOT EXISTS documents_jurisdiction_idx ON documents (jurisdiction);
CREATE INDEX IF NOT EXISTS documents_search_idx ON documents USING GIN (search_vector);
CREATE INDEX IF NOT EXISTS documents_embedding_idx ON documents USING hnsw (embedding vector_cosine_ops);
`

const hybridQuery = `
SELECT id, source_text, display_text, heading, title, source_url, jurisdiction,
       search_vector @@ websearch_to_tsquery('english', $2) AS lexical_match,
       embedding <=> $3 AS distance
FROM documents
WHERE jurisdiction = $1
ORDER BY lexical_match DESC, distance ASC
LIMIT $4`

const vectorQuery = `
SELECT id, source_text, display_text, heading, title, source_url, jurisdiction,
       FALSE AS lexical_match,
       embedding <=> $2 AS distance
FROM documents
WHERE jurisdiction = $1
ORDER BY distance ASC
LIMIT $3`

// PGStore queries a pgvector-enabled documents table. The pool must have the
// pgvector types registered (see bootstrap.OpenDB).
type PGStore struct {
	pool *pgxpool.Pool
	dims int
}

func NewPGStore(pool *pgxpool.Pool, dims int) *PGStore {
	return &PGStore{pool: pool, dims: dims}
}

func (s *PGStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(documentsSchema, s.dims)); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}
	return nil
}

func (s *PGStore) Search(ctx context.Context, jurisdiction string, keywords []string, embedding []float32, limit int) ([]domain.Candidate, error) {
	vec := pgvector.NewVector(embedding)

	var rows pgx.Rows
	var err error
	if len(keywords) == 0 {
		rows, err = s.pool.Query(ctx, vectorQuery, jurisdiction, vec, limit)
	} else {
		rows, err = s.pool.Query(ctx, hybridQuery, jurisdiction, lexicalQuery(keywords), vec, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	var out []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		d := &c.Document
		if err := rows.Scan(&d.ID, &d.SourceText, &d.DisplayText, &d.Heading, &d.Title, &d.SourceURL, &d.Jurisdiction,
			&c.LexicalMatch, &c.Distance); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read documents: %w", err)
	}
	return out, nil
}

// Upsert loads prepared documents, replacing rows with the same id. Documents
// must already carry embeddings of the store's dimensionality.
func (s *PGStore) Upsert(ctx context.Context, docs []domain.Document) error {
	batch := &pgx.Batch{}
	for _, d := range docs {
		if len(d.Embedding) != s.dims {
			return fmt.Errorf("%w: document %s has %d dims, want %d", domain.ErrDimensionMismatch, d.ID, len(d.Embedding), s.dims)
		}
		batch.Queue(`
INSERT INTO documents (id, jurisdiction, source_text, display_text, heading, title, source_url, embedding)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	jurisdiction = EXCLUDED.jurisdiction,
	source_text  = EXCLUDED.source_text,
	display_text = EXCLUDED.display_text,
	heading      = EXCLUDED.heading,
	title        = EXCLUDED.title,
	source_url   = EXCLUDED.source_url,
	embedding    = EXCLUDED.embedding`,
			d.ID, d.Jurisdiction, d.SourceText, d.DisplayText, d.Heading, d.Title, d.SourceURL, pgvector.NewVector(d.Embedding))
	}

	br := s.pool.SendBatch(ctx, batch)
	defer br.Close()
	for _, d := range docs {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("upsert document %s: %w", d.ID, err)
		}
	}
	return nil
}
