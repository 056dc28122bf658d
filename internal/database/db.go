// Package database provides SQLite connection management shared by the
// overlay agent's local configuration store and the sync service's
// edge KV store.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // pure-Go SQLite driver
)

// Profile tunes PRAGMAs for a database's access pattern.
type Profile string

const (
	// ProfileStandard balances durability and throughput. Used by the
	// agent's local config store.
	ProfileStandard Profile = "standard"
	// ProfileDurable favors safety over speed. Used by the sync
	// service's user/blob records, which are the system of record for
	// a user's configuration.
	ProfileDurable Profile = "durable"
	// ProfileCache favors speed over durability. Used for the
	// performance-series and rate-limit-counter tables, which are
	// either re-derivable or inherently ephemeral.
	ProfileCache Profile = "cache"
)

// Config configures a new database connection.
type Config struct {
	Path    string
	Profile Profile
	Name    string // used for logging/metrics tagging
}

// DB wraps a SQLite connection with profile-tuned PRAGMAs and a small
// key-value convenience table used by both configstore and
// syncservice's KV store.
type DB struct {
	conn    *sql.DB
	path    string
	profile Profile
	name    string
}

// New opens (creating if necessary) a SQLite database at cfg.Path.
func New(cfg Config) (*DB, error) {
	if !strings.HasPrefix(cfg.Path, "file:") {
		absPath, err := filepath.Abs(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
		if err := os.MkdirAll(filepath.Dir(absPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		cfg.Path = absPath
	}

	if cfg.Profile == "" {
		cfg.Profile = ProfileStandard
	}

	conn, err := sql.Open("sqlite", buildConnectionString(cfg.Path, cfg.Profile))
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.Name, err)
	}
	configureConnectionPool(conn, cfg.Profile)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := conn.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database %s: %w", cfg.Name, err)
	}

	return &DB{conn: conn, path: cfg.Path, profile: cfg.Profile, name: cfg.Name}, nil
}

func buildConnectionString(path string, profile Profile) string {
	connStr := path + "?_pragma=journal_mode(WAL)"

	switch profile {
	case ProfileDurable:
		connStr += "&_pragma=synchronous(FULL)"
		connStr += "&_pragma=auto_vacuum(NONE)"
	case ProfileCache:
		connStr += "&_pragma=synchronous(OFF)"
		connStr += "&_pragma=auto_vacuum(FULL)"
		connStr += "&_pragma=temp_store(MEMORY)"
	default: // ProfileStandard
		connStr += "&_pragma=synchronous(NORMAL)"
		connStr += "&_pragma=auto_vacuum(INCREMENTAL)"
		connStr += "&_pragma=temp_store(MEMORY)"
	}

	connStr += "&_pragma=foreign_keys(1)"
	connStr += "&_pragma=busy_timeout(5000)"
	connStr += "&_pragma=cache_size(-32000)"
	return connStr
}

func configureConnectionPool(conn *sql.DB, profile Profile) {
	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(24 * time.Hour)
	conn.SetConnMaxIdleTime(30 * time.Minute)

	if profile == ProfileCache {
		conn.SetMaxOpenConns(10)
		conn.SetMaxIdleConns(2)
	}
}

// Close closes the underlying connection.
func (db *DB) Close() error { return db.conn.Close() }

// Conn returns the underlying *sql.DB for repositories that need raw
// query access.
func (db *DB) Conn() *sql.DB { return db.conn }

// Name returns the friendly database name used in logs.
func (db *DB) Name() string { return db.name }

// Path returns the database file path.
func (db *DB) Path() string { return db.path }

// kvSchema is the schema shared by configstore and syncservice's KV
// store: both are "opaque string key -> opaque string value" stores.
const kvSchema = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      TEXT NOT NULL,
	updated_at INTEGER NOT NULL
);
`

// EnsureKVSchema creates the shared key-value table if it does not
// already exist.
func (db *DB) EnsureKVSchema() error {
	_, err := db.conn.Exec(kvSchema)
	if err != nil {
		return fmt.Errorf("failed to ensure kv schema: %w", err)
	}
	return nil
}
