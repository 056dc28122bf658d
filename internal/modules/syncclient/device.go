package syncclient

import (
	"github.com/google/uuid"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/configstore"
)

// EnsureDeviceID returns the device's persisted identifier, generating
// and storing a new random one on first use.
func EnsureDeviceID(store kvStore) (string, error) {
	raw, err := store.Get(configstore.KeySyncDeviceID)
	if err != nil {
		return "", err
	}
	if raw != nil && *raw != "" {
		return *raw, nil
	}

	id := uuid.NewString()
	if err := store.Set(configstore.KeySyncDeviceID, id); err != nil {
		return "", err
	}
	return id, nil
}
