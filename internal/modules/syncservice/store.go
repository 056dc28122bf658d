package syncservice

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/database"
)

const (
	userKeyPrefix = "user:"
	blobKeyPrefix = "blob:"
)

// Store is the edge KV store: users and opaque blobs side by side in
// the same shared kv table configstore uses on the client
// (`database.DB`'s kv schema), namespaced by key prefix. Grounded on
// `configstore.Store`'s get/set/delete shape.
type Store struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewStore creates a Store over db, ensuring the shared kv table
// exists.
func NewStore(db *database.DB, log zerolog.Logger) (*Store, error) {
	if err := db.EnsureKVSchema(); err != nil {
		return nil, err
	}
	return &Store{db: db.Conn(), log: log.With().Str("component", "syncservice-store").Logger()}, nil
}

func (s *Store) get(key string) (*string, error) {
	var value string
	err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("syncservice: get %s: %w", key, err)
	}
	return &value, nil
}

func (s *Store) set(key, value string) error {
	_, err := s.db.Exec(`
		INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("syncservice: set %s: %w", key, err)
	}
	return nil
}

func (s *Store) delete(key string) error {
	_, err := s.db.Exec("DELETE FROM kv WHERE key = ?", key)
	if err != nil {
		return fmt.Errorf("syncservice: delete %s: %w", key, err)
	}
	return nil
}

// GetUser returns the user record for userID, or nil if it does not
// exist.
func (s *Store) GetUser(userID string) (*User, error) {
	raw, err := s.get(userKeyPrefix + userID)
	if err != nil || raw == nil {
		return nil, err
	}
	var u User
	if err := json.Unmarshal([]byte(*raw), &u); err != nil {
		return nil, fmt.Errorf("syncservice: decode user %s: %w", userID, err)
	}
	return &u, nil
}

// PutUser creates or overwrites a user record.
func (s *Store) PutUser(u User) error {
	raw, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return s.set(userKeyPrefix+u.UserID, string(raw))
}

// GetBlob returns the stored blob for userID, or nil if none exists.
func (s *Store) GetBlob(userID string) (*BlobRecord, error) {
	raw, err := s.get(blobKeyPrefix + userID)
	if err != nil || raw == nil {
		return nil, err
	}
	var b BlobRecord
	if err := json.Unmarshal([]byte(*raw), &b); err != nil {
		return nil, fmt.Errorf("syncservice: decode blob %s: %w", userID, err)
	}
	return &b, nil
}

// PutBlob stores or overwrites userID's blob.
func (s *Store) PutBlob(b BlobRecord) error {
	raw, err := json.Marshal(b)
	if err != nil {
		return err
	}
	return s.set(blobKeyPrefix+b.UserID, string(raw))
}

// DeleteBlob removes userID's blob. Deleting an absent blob is not an
// error.
func (s *Store) DeleteBlob(userID string) error {
	return s.delete(blobKeyPrefix + userID)
}
