package interception

import "sync"

// AuthContext holds the latent auth state captured from outbound
// Platform-A requests: explicit Get/Merge, never ambient mutation.
type AuthContext struct {
	mu         sync.RWMutex
	authorization string
	clientID      string
	deviceID      string
}

// Snapshot is an immutable copy of the currently captured headers.
type Snapshot struct {
	Authorization string
	ClientID      string
	DeviceID      string
}

// Get returns a snapshot of the currently captured auth context.
func (a *AuthContext) Get() Snapshot {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Snapshot{
		Authorization: a.authorization,
		ClientID:      a.clientID,
		DeviceID:      a.deviceID,
	}
}

// Merge applies partial, with last-non-empty-wins semantics per
// field: a later request missing a header must not erase a
// previously captured value.
func (a *AuthContext) Merge(partial Snapshot) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if partial.Authorization != "" {
		a.authorization = partial.Authorization
	}
	if partial.ClientID != "" {
		a.clientID = partial.ClientID
	}
	if partial.DeviceID != "" {
		a.deviceID = partial.DeviceID
	}
}
