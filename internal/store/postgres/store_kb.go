package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"seocoach-backend/internal/models"
	"seocoach-backend/internal/store"

	"github.com/jackc/pgx/v5"
)

// --- Knowledge Base Methods ---

// search_vector is a generated tsvector over title, section and body (see migrations).
const searchDocuments = `-- name: SearchDocuments :many
SELECT d.source, COALESCE(d.title, ''), COALESCE(d.section, ''), d.body, COALESCE(d.topic, ''),
       ts_rank_cd(d.search_vector, q) AS score
FROM kb_documents d, websearch_to_tsquery('english', $1) q
WHERE d.search_vector @@ q
  AND ($2 = '' OR d.topic = $2)
ORDER BY score DESC
LIMIT $3;
`

// Search runs a ranked full-text query.
func (s *PostgresStore) Search(ctx context.Context, arg store.SearchParams) ([]models.RetrievalHit, error) {
	rows, err := s.db.Query(ctx, searchDocuments, arg.Query, arg.Topic, arg.Limit)
	if err != nil {
		return nil, fmt.Errorf("error querying documents: %w", err)
	}
	defer rows.Close()

	hits := []models.RetrievalHit{}
	for rows.Next() {
		var h models.RetrievalHit
		if err := rows.Scan(
			&h.Source,
			&h.Title,
			&h.Section,
			&h.Body,
			&h.Topic,
			&h.Score,
		); err != nil {
			return nil, fmt.Errorf("error scanning document row: %w", err)
		}
		hits = append(hits, h)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document rows: %w", err)
	}

	return hits, nil
}

const upsertDocument = `-- name: UpsertDocument :exec
INSERT INTO kb_documents (source, title, section, body, topic)
VALUES ($1, NULLIF($2, ''), NULLIF($3, ''), $4, NULLIF($5, ''))
ON CONFLICT (source, section_key) DO UPDATE
SET title = EXCLUDED.title, body = EXCLUDED.body, topic = EXCLUDED.topic, updated_at = NOW();
`

// UpsertDocuments writes all documents in one transaction.
func (s *PostgresStore) UpsertDocuments(ctx context.Context, docs []models.Document) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	// No-op once committed
	defer tx.Rollback(ctx) //nolint:errcheck

	batch := &pgx.Batch{}
	for _, d := range docs {
		batch.Queue(upsertDocument, d.Source, d.Title, d.Section, d.Body, d.Topic)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("error upserting documents: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	slog.InfoContext(ctx, "documents upserted", "count", len(docs))
	return nil
}
