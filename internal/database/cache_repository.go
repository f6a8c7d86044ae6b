package database

import (
	"fmt"
	"time"

	"github.com/example/wordmem/internal/cache"
)

// Cache namespaces used by the application.
const (
	CacheNamespaceAudio   = "audio"
	CacheNamespaceExplain = "explain"
)

// CacheRepository persists cache contents per namespace so expensive
// computations survive restarts.
type CacheRepository struct {
	db *DB
}

// NewCacheRepository creates a new repository instance
func NewCacheRepository(db *DB) *CacheRepository {
	return &CacheRepository{db: db}
}

type cacheRow struct {
	Key            string    `db:"key"`
	Value          []byte    `db:"value"`
	CreatedAt      time.Time `db:"created_at"`
	LastAccessedAt time.Time `db:"last_accessed_at"`
	TTLSeconds     int64     `db:"ttl_seconds"`
}

// SaveEntries replaces all stored entries for the namespace.
func (r *CacheRepository) SaveEntries(namespace string, entries []cache.Entry) error {
	tx, err := r.db.Beginx()
	if err != nil {
		return fmt.Errorf("failed to begin cache transaction: %v", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM cache_entries WHERE namespace = $1", namespace); err != nil {
		return fmt.Errorf("failed to clear cache namespace %q: %v", namespace, err)
	}

	query := `
		INSERT INTO cache_entries (namespace, key, value, created_at, last_accessed_at, ttl_seconds)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, e := range entries {
		_, err := tx.Exec(query, namespace, e.Key, e.Value, e.CreatedAt, e.LastAccessedAt, int64(e.TTL/time.Second))
		if err != nil {
			return fmt.Errorf("failed to save cache entry %q: %v", e.Key, err)
		}
	}

	return tx.Commit()
}

// LoadEntries returns the stored entries for the namespace. Entries whose
// TTL has already elapsed are dropped here so they never reach the store.
func (r *CacheRepository) LoadEntries(namespace string, now time.Time) ([]cache.Entry, error) {
	var rows []cacheRow
	query := `
		SELECT key, value, created_at, last_accessed_at, ttl_seconds
		FROM cache_entries
		WHERE namespace = $1
	`
	if err := r.db.Select(&rows, query, namespace); err != nil {
		return nil, fmt.Errorf("failed to load cache namespace %q: %v", namespace, err)
	}

	entries := make([]cache.Entry, 0, len(rows))
	for _, row := range rows {
		ttl := time.Duration(row.TTLSeconds) * time.Second
		if ttl > 0 && now.After(row.CreatedAt.Add(ttl)) {
			continue
		}
		entries = append(entries, cache.Entry{
			Key:            row.Key,
			Value:          row.Value,
			CreatedAt:      row.CreatedAt,
			LastAccessedAt: row.LastAccessedAt,
			TTL:            ttl,
		})
	}
	return entries, nil
}
