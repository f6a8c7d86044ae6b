// Package database is the persistence adapter: it stores item-store
// snapshots and cache contents in SQLite (default) or PostgreSQL.
package database

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Config selects the database driver and location.
type Config struct {
	// Driver is "sqlite3" or "postgres".
	Driver string
	// DSN is the database file path for sqlite3 or a connection string for
	// postgres.
	DSN string
}

// DB wraps the sqlx connection shared by the repositories.
type DB struct {
	*sqlx.DB
	driver string
}

// Connect opens the database and creates the schema if needed.
func Connect(cfg Config) (*DB, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = "sqlite3"
	}

	if driver == "sqlite3" {
		if dir := filepath.Dir(cfg.DSN); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create data directory: %v", err)
			}
		}
	}

	conn, err := sqlx.Connect(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}

	if driver == "sqlite3" {
		if _, err := conn.Exec("PRAGMA foreign_keys = ON"); err != nil {
			conn.Close()
			return nil, fmt.Errorf("failed to enable foreign keys: %v", err)
		}
		// SQLite doesn't support multiple writers
		conn.SetMaxOpenConns(1)
		conn.SetMaxIdleConns(1)
	}

	db := &DB{DB: conn, driver: driver}
	if err := db.initializeSchema(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// initializeSchema creates necessary tables if they don't exist
func (db *DB) initializeSchema() error {
	blobType := "BLOB"
	realType := "REAL"
	if db.driver == "postgres" {
		blobType = "BYTEA"
		realType = "DOUBLE PRECISION"
	}

	_, err := db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS items (
			word TEXT PRIMARY KEY,
			meaning TEXT NOT NULL DEFAULT '',
			pronunciation TEXT NOT NULL DEFAULT '',
			difficulty INTEGER NOT NULL DEFAULT 1,
			ease_factor %s NOT NULL DEFAULT 2.5,
			interval_days INTEGER NOT NULL DEFAULT 0,
			repetitions INTEGER NOT NULL DEFAULT 0,
			lapses INTEGER NOT NULL DEFAULT 0,
			review_count INTEGER NOT NULL DEFAULT 0,
			correct_count INTEGER NOT NULL DEFAULT 0,
			last_quality INTEGER NOT NULL DEFAULT 0,
			last_review_at TIMESTAMP NOT NULL,
			due_at TIMESTAMP NOT NULL,
			created_at TIMESTAMP NOT NULL,
			position INTEGER NOT NULL DEFAULT 0
		)
	`, realType))
	if err != nil {
		return fmt.Errorf("failed to create items table: %v", err)
	}

	_, err = db.Exec(fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS cache_entries (
			namespace TEXT NOT NULL,
			key TEXT NOT NULL,
			value %s NOT NULL,
			created_at TIMESTAMP NOT NULL,
			last_accessed_at TIMESTAMP NOT NULL,
			ttl_seconds INTEGER NOT NULL DEFAULT 0,
			PRIMARY KEY (namespace, key)
		)
	`, blobType))
	if err != nil {
		return fmt.Errorf("failed to create cache_entries table: %v", err)
	}

	return nil
}
