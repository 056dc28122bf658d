package syncclient

import (
	"strconv"
	"time"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/configstore"
)

// Tokens is the client's persisted auth token set.
type Tokens struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// SaveTokens persists t into store.
func SaveTokens(store kvStore, t Tokens) error {
	if err := store.Set(configstore.KeySyncAccessToken, t.AccessToken); err != nil {
		return err
	}
	if err := store.Set(configstore.KeySyncRefreshToken, t.RefreshToken); err != nil {
		return err
	}
	if err := store.Set(configstore.KeySyncAccessExpiry, strconv.FormatInt(t.AccessExpiresAt.Unix(), 10)); err != nil {
		return err
	}
	return store.Set(configstore.KeySyncRefreshExpiry, strconv.FormatInt(t.RefreshExpiresAt.Unix(), 10))
}

// LoadTokens reads the persisted token set. Zero values are returned
// for any key that is absent.
func LoadTokens(store kvStore) (Tokens, error) {
	var t Tokens

	if raw, err := store.Get(configstore.KeySyncAccessToken); err != nil {
		return t, err
	} else if raw != nil {
		t.AccessToken = *raw
	}
	if raw, err := store.Get(configstore.KeySyncRefreshToken); err != nil {
		return t, err
	} else if raw != nil {
		t.RefreshToken = *raw
	}
	if raw, err := store.Get(configstore.KeySyncAccessExpiry); err != nil {
		return t, err
	} else if raw != nil {
		if sec, err := strconv.ParseInt(*raw, 10, 64); err == nil {
			t.AccessExpiresAt = time.Unix(sec, 0)
		}
	}
	if raw, err := store.Get(configstore.KeySyncRefreshExpiry); err != nil {
		return t, err
	} else if raw != nil {
		if sec, err := strconv.ParseInt(*raw, 10, 64); err == nil {
			t.RefreshExpiresAt = time.Unix(sec, 0)
		}
	}

	return t, nil
}

// ClearTokens removes every persisted token key, transitioning to the
// UNAUTHENTICATED state.
func ClearTokens(store kvStore) error {
	for _, key := range []string{
		configstore.KeySyncAccessToken,
		configstore.KeySyncRefreshToken,
		configstore.KeySyncAccessExpiry,
		configstore.KeySyncRefreshExpiry,
	} {
		if err := store.Delete(key); err != nil {
			return err
		}
	}
	return nil
}
