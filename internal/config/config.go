// Package config loads application settings from the environment, with an
// optional .env file.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application settings.
type Config struct {
	// DBType is "sqlite" (default) or "postgres".
	DBType string
	// DBPath is the SQLite database file path.
	DBPath string
	// DatabaseURL is the PostgreSQL connection string when DBType=postgres.
	DatabaseURL string
	// ImportFile is an optional CSV/Excel vocabulary file imported at startup.
	ImportFile string

	AudioCacheCapacity   int
	AudioCacheTTL        time.Duration
	ExplainCacheCapacity int
	ExplainCacheTTL      time.Duration

	SweepInterval time.Duration
	FlushInterval time.Duration
}

// Load reads configuration from the environment. A .env file in the working
// directory is honored when present.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		DBType:      envString("DB_TYPE", "sqlite"),
		DBPath:      envString("DB_PATH", "data/wordmem.db"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		ImportFile:  os.Getenv("IMPORT_FILE"),

		AudioCacheCapacity:   envInt("AUDIO_CACHE_CAPACITY", 512),
		AudioCacheTTL:        envHours("AUDIO_CACHE_TTL_HOURS", 30*24),
		ExplainCacheCapacity: envInt("EXPLAIN_CACHE_CAPACITY", 1024),
		ExplainCacheTTL:      envHours("EXPLAIN_CACHE_TTL_HOURS", 7*24),

		SweepInterval: envMinutes("SWEEP_INTERVAL_MINUTES", 60),
		FlushInterval: envMinutes("FLUSH_INTERVAL_MINUTES", 5),
	}
}

// Driver returns the database/sql driver name for the configured DBType.
func (c Config) Driver() string {
	if c.DBType == "postgres" {
		return "postgres"
	}
	return "sqlite3"
}

// DSN returns the data source name for the configured DBType.
func (c Config) DSN() string {
	if c.DBType == "postgres" {
		return c.DatabaseURL
	}
	return c.DBPath
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return fallback
}

func envHours(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Hour
}

func envMinutes(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Minute
}
