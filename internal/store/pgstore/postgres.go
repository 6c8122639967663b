// Package pgstore keeps collection payloads in a postgres jsonb table.
package pgstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mentordesk/mentordesk/internal/collection"
	"github.com/mentordesk/mentordesk/internal/platform/db"
)

const schemaSQL = `CREATE TABLE IF NOT EXISTS collections (
	key        TEXT PRIMARY KEY,
	payload    JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

// Store is a collection.Repository over a pgx pool.
type Store struct {
	pool *pgxpool.Pool
}

// New wraps pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the collections table when missing.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("pgstore: migrate: %w", err)
	}
	return nil
}

// Load reads the payload under key.
func (s *Store) Load(ctx context.Context, key string) ([]byte, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `SELECT payload FROM collections WHERE key = $1`, key).Scan(&payload)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, collection.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("pgstore: load %s: %w", key, err)
	}
	return payload, nil
}

const upsertSQL = `INSERT INTO collections (key, payload, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at`

// Save upserts the payload under key.
func (s *Store) Save(ctx context.Context, key string, payload []byte) error {
	if _, err := s.pool.Exec(ctx, upsertSQL, key, payload); err != nil {
		return fmt.Errorf("pgstore: save %s: %w", key, err)
	}
	return nil
}

// SaveAll upserts several payloads in one transaction. Seeding uses it so a
// half-seeded database is never visible.
func (s *Store) SaveAll(ctx context.Context, payloads map[string][]byte) error {
	return db.WithTx(ctx, s.pool, pgx.ReadCommitted, func(tx pgx.Tx) error {
		for key, payload := range payloads {
			if _, err := tx.Exec(ctx, upsertSQL, key, payload); err != nil {
				return fmt.Errorf("pgstore: save %s: %w", key, err)
			}
		}
		return nil
	})
}

// Keys lists stored keys in lexical order.
func (s *Store) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT key FROM collections ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("pgstore: keys: %w", err)
	}
	keys, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("pgstore: keys: %w", err)
	}
	return keys, nil
}
