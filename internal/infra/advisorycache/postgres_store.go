package advisorycache

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/yanqian/travel-advisor/internal/domain/advisory"
)

const createTableSQL = `
	CREATE TABLE IF NOT EXISTS advisory_cache (
		cache_key  TEXT PRIMARY KEY,
		payload    JSONB NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)
`

// PostgresStore implements advisory.Cache using a single keyed row.
type PostgresStore struct {
	pool *pgxpool.Pool
	key  string
}

// NewPostgresStore constructs the store.
func NewPostgresStore(pool *pgxpool.Pool, key string) *PostgresStore {
	return &PostgresStore{pool: pool, key: normalizeKey(key)}
}

// EnsureSchema creates the cache table when missing.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create advisory_cache table: %w", err)
	}
	return nil
}

// Get fetches the stored snapshot.
func (s *PostgresStore) Get(ctx context.Context) (advisory.CacheEntry, bool, error) {
	var payload []byte
	err := s.pool.QueryRow(ctx, `
		SELECT payload
		FROM advisory_cache
		WHERE cache_key = $1
	`, s.key).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return advisory.CacheEntry{}, false, nil
		}
		return advisory.CacheEntry{}, false, err
	}
	entry, err := decodeEntry(payload)
	if err != nil {
		return advisory.CacheEntry{}, false, err
	}
	return entry, true, nil
}

// Set upserts the snapshot; the last writer wins.
func (s *PostgresStore) Set(ctx context.Context, entry advisory.CacheEntry) error {
	payload, err := encodeEntry(entry)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO advisory_cache (cache_key, payload, updated_at)
		VALUES ($1, $2, now())
		ON CONFLICT (cache_key) DO UPDATE
		SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`, s.key, payload)
	return err
}

var _ advisory.Cache = (*PostgresStore)(nil)
