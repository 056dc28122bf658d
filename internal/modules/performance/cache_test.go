package performance

import (
	"testing"
	"time"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	data map[string]string
}

func newFakeStore() *fakeStore { return &fakeStore{data: make(map[string]string)} }

func (f *fakeStore) Get(key string) (*string, error) {
	v, ok := f.data[key]
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (f *fakeStore) Set(key, value string) error {
	f.data[key] = value
	return nil
}

func (f *fakeStore) Delete(key string) error {
	delete(f.data, key)
	return nil
}

func TestCache_PutThenGetWithinTTL(t *testing.T) {
	store := newFakeStore()
	cache := NewCache(store)
	now := time.Now()
	cache.now = func() time.Time { return now }

	series := domain.PerformanceSeries{GoalID: "g1", NetInvestment: 100}
	require.NoError(t, cache.Put("g1", series))

	got, err := cache.Get("g1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.GoalId("g1"), got.GoalID)
}

func TestCache_StaleEntryTreatedAsAbsentAndRemoved(t *testing.T) {
	store := newFakeStore()
	cache := NewCache(store)
	start := time.Now()
	cache.now = func() time.Time { return start }

	require.NoError(t, cache.Put("g1", domain.PerformanceSeries{GoalID: "g1"}))

	cache.now = func() time.Time { return start.Add(8 * 24 * time.Hour) }
	got, err := cache.Get("g1")
	require.NoError(t, err)
	assert.Nil(t, got)

	_, inStore := store.data[performanceKey("g1")]
	assert.False(t, inStore)
}

func TestCache_ForceRefreshThrottledTo24h(t *testing.T) {
	store := newFakeStore()
	cache := NewCache(store)
	start := time.Now()
	cache.now = func() time.Time { return start }

	ok, err := cache.CanForceRefresh("g1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, cache.MarkForceRefreshed("g1"))

	ok, err = cache.CanForceRefresh("g1")
	require.NoError(t, err)
	assert.False(t, ok)

	cache.now = func() time.Time { return start.Add(25 * time.Hour) }
	ok, err = cache.CanForceRefresh("g1")
	require.NoError(t, err)
	assert.True(t, ok)
}
