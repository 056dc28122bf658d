package performance

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
)

const (
	cacheTTL           = 7 * 24 * time.Hour
	forceRefreshWindow = 24 * time.Hour
)

// kvStore is the subset of configstore.Store the cache needs — narrow
// on purpose so tests can stub it without a real database.
type kvStore interface {
	Get(key string) (*string, error)
	Set(key, value string) error
	Delete(key string) error
}

type cacheEntry struct {
	FetchedAt int64                     `json:"fetchedAt"`
	Payload   domain.PerformanceSeries  `json:"payload"`
}

// Cache is the TTL-keyed performance cache layered over the shared
// config store.
type Cache struct {
	store kvStore
	now   func() time.Time
}

// NewCache creates a Cache over store.
func NewCache(store kvStore) *Cache {
	return &Cache{store: store, now: time.Now}
}

func performanceKey(id domain.GoalId) string {
	return "performance:" + string(id)
}

func refreshKey(id domain.GoalId) string {
	return "performance:refreshed:" + string(id)
}

// Get returns the cached series for id if present and fresh. A stale
// entry is treated as absent and removed.
func (c *Cache) Get(id domain.GoalId) (*domain.PerformanceSeries, error) {
	raw, err := c.store.Get(performanceKey(id))
	if err != nil {
		return nil, fmt.Errorf("performance: cache get %s: %w", id, err)
	}
	if raw == nil {
		return nil, nil
	}

	var entry cacheEntry
	if err := json.Unmarshal([]byte(*raw), &entry); err != nil {
		return nil, fmt.Errorf("performance: decode cache entry %s: %w", id, err)
	}

	fetchedAt := time.Unix(entry.FetchedAt, 0)
	if c.now().Sub(fetchedAt) >= cacheTTL {
		_ = c.store.Delete(performanceKey(id))
		return nil, nil
	}

	return &entry.Payload, nil
}

// Put stores series for id, stamped with the current time.
func (c *Cache) Put(id domain.GoalId, series domain.PerformanceSeries) error {
	entry := cacheEntry{FetchedAt: c.now().Unix(), Payload: series}
	raw, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("performance: encode cache entry %s: %w", id, err)
	}
	return c.store.Set(performanceKey(id), string(raw))
}

// CanForceRefresh reports whether a UI-initiated force refresh is
// permitted for id right now — at most once per 24h.
func (c *Cache) CanForceRefresh(id domain.GoalId) (bool, error) {
	raw, err := c.store.Get(refreshKey(id))
	if err != nil {
		return false, fmt.Errorf("performance: refresh throttle get %s: %w", id, err)
	}
	if raw == nil {
		return true, nil
	}
	last, err := strconv.ParseInt(*raw, 10, 64)
	if err != nil {
		return true, nil
	}
	return c.now().Sub(time.Unix(last, 0)) >= forceRefreshWindow, nil
}

// MarkForceRefreshed records that a force refresh was just performed
// for id, starting its 24h throttle window.
func (c *Cache) MarkForceRefreshed(id domain.GoalId) error {
	return c.store.Set(refreshKey(id), strconv.FormatInt(c.now().Unix(), 10))
}
