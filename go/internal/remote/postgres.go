package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/scout/go/internal/dbconfig"
	"github.com/mcdev12/scout/go/internal/models"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS remote_documents (
	collection TEXT NOT NULL,
	id TEXT NOT NULL,
	body JSONB NOT NULL,
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS idx_remote_documents_changed
	ON remote_documents (collection, (body->>'syncedAt') COLLATE "C");
`

// PostgresStore keeps all collections in one jsonb table
type PostgresStore struct {
	pool  *pgxpool.Pool
	clock clockwork.Clock
}

// NewPostgresStore connects using cfg and creates the document table
func NewPostgresStore(ctx context.Context, cfg dbconfig.Config, clock clockwork.Clock) (*PostgresStore, error) {
	pc, err := cfg.PoolConfig()
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, pc)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create remote_documents: %w", err)
	}
	return &PostgresStore{pool: pool, clock: clock}, nil
}

// Close releases the pool
func (s *PostgresStore) Close() {
	s.pool.Close()
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (Document, error) {
	var body []byte
	err := s.pool.QueryRow(ctx,
		`SELECT body FROM remote_documents WHERE collection = $1 AND id = $2`,
		collection, id,
	).Scan(&body)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get %s/%s: %w", collection, id, err)
	}
	return decodeBody(body)
}

func (s *PostgresStore) PutMerge(ctx context.Context, collection, id string, doc Document) error {
	body, err := json.Marshal(withChangedAt(doc, models.FormatTime(s.clock.Now())))
	if err != nil {
		return fmt.Errorf("failed to encode %s/%s: %w", collection, id, err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO remote_documents (collection, id, body)
		VALUES ($1, $2, $3::jsonb)
		ON CONFLICT (collection, id) DO UPDATE
		SET body = remote_documents.body || excluded.body
	`, collection, id, string(body))
	if err != nil {
		return fmt.Errorf("failed to put %s/%s: %w", collection, id, err)
	}
	return nil
}

func (s *PostgresStore) DeleteByID(ctx context.Context, collection, id string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM remote_documents WHERE collection = $1 AND id = $2`,
		collection, id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", collection, id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) QueryChangedSince(ctx context.Context, collection string, since time.Time) ([]Document, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT body FROM remote_documents
		WHERE collection = $1 AND (body->>'syncedAt') COLLATE "C" > $2
		ORDER BY (body->>'syncedAt') COLLATE "C"
	`, collection, models.FormatTime(since))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer rows.Close()

	var out []Document
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan %s document: %w", collection, err)
		}
		doc, err := decodeBody(body)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

func decodeBody(body []byte) (Document, error) {
	var doc Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode document body: %w", err)
	}
	return doc, nil
}
