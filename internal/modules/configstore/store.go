// Package configstore is the process-local key-value configuration
// store: targets, fixed flags, tags, portfolios, and drift settings,
// plus cached API payloads that are explicitly excluded from the sync
// envelope.
package configstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/database"
	"github.com/rs/zerolog"
)

// Store wraps a database.DB's shared kv table.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// New creates a Store over db, ensuring the kv table exists.
func New(db *database.DB, log zerolog.Logger) (*Store, error) {
	if err := db.EnsureKVSchema(); err != nil {
		return nil, err
	}
	return &Store{db: db.Conn(), log: log.With().Str("component", "configstore").Logger()}, nil
}

// Get returns the value for key, or (nil, nil) if absent.
func (s *Store) Get(key string) (*string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("configstore: get %s: %w", key, err)
	}
	return &value, nil
}

// Set upserts key=value.
func (s *Store) Set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("configstore: set %s: %w", key, err)
	}
	return nil
}

// Delete removes key, if present. Deleting an absent key is not an
// error.
func (s *Store) Delete(key string) error {
	_, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("configstore: delete %s: %w", key, err)
	}
	return nil
}

// Keys returns every key with the given prefix, useful for the sync
// collector and for tag/portfolio/target enumeration.
func (s *Store) Keys(prefix string) ([]string, error) {
	rows, err := s.db.Query("SELECT key FROM kv WHERE key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%")
	if err != nil {
		return nil, fmt.Errorf("configstore: keys %s: %w", prefix, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// All returns every key/value pair currently stored, used by the sync
// collector to build the envelope.
func (s *Store) All() (map[string]string, error) {
	rows, err := s.db.Query("SELECT key, value FROM kv")
	if err != nil {
		return nil, fmt.Errorf("configstore: all: %w", err)
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, err
		}
		out[key] = value
	}
	return out, rows.Err()
}

func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' || c == '_' || c == '\\' {
			out = append(out, '\\')
		}
		out = append(out, c)
	}
	return string(out)
}
