package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// CacheRepository stores raw catalog API payloads keyed by request. Entries
// older than ttl are treated as misses and overwritten on the next Put.
type CacheRepository struct {
	db  *DB
	ttl time.Duration
}

func NewCacheRepository(db *DB, ttl time.Duration) *CacheRepository {
	return &CacheRepository{db: db, ttl: ttl}
}

// Get returns the cached payload for key, or ok=false on a miss or an
// expired entry.
func (r *CacheRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var payload []byte
	var fetchedAt time.Time

	row := r.db.Conn().QueryRowContext(ctx,
		`SELECT payload, fetched_at FROM catalog_cache WHERE cache_key = ?`, key)
	if err := row.Scan(&payload, &fetchedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if r.ttl > 0 && time.Since(fetchedAt) > r.ttl {
		return nil, false, nil
	}

	return payload, true, nil
}

// Put upserts the payload for key.
func (r *CacheRepository) Put(ctx context.Context, key string, payload []byte) error {
	_, err := r.db.Conn().ExecContext(ctx,
		`INSERT INTO catalog_cache (cache_key, payload, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(cache_key) DO UPDATE SET payload = excluded.payload, fetched_at = excluded.fetched_at`,
		key, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Prune deletes expired entries. Called opportunistically by the server on
// startup.
func (r *CacheRepository) Prune(ctx context.Context) (int64, error) {
	if r.ttl <= 0 {
		return 0, nil
	}

	res, err := r.db.Conn().ExecContext(ctx,
		`DELETE FROM catalog_cache WHERE fetched_at < ?`, time.Now().UTC().Add(-r.ttl))
	if err != nil {
		return 0, fmt.Errorf("failed to prune cache: %w", err)
	}
	return res.RowsAffected()
}
