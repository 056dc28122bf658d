package configstore

import (
	"testing"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/database"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := database.New(database.Config{
		Path:    "file:" + t.Name() + "?mode=memory&cache=shared",
		Profile: database.ProfileStandard,
		Name:    "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := New(db, zerolog.Nop())
	require.NoError(t, err)
	return store
}

func TestStore_SetGetDelete(t *testing.T) {
	store := newTestStore(t)

	v, err := store.Get("missing")
	require.NoError(t, err)
	require.Nil(t, v)

	require.NoError(t, store.Set("goal_target_pct_g1", "42.5"))
	v, err = store.Get("goal_target_pct_g1")
	require.NoError(t, err)
	require.NotNil(t, v)
	require.Equal(t, "42.5", *v)

	require.NoError(t, store.Delete("goal_target_pct_g1"))
	v, err = store.Get("goal_target_pct_g1")
	require.NoError(t, err)
	require.Nil(t, v)
}

func TestStore_KeysPrefix(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("fsm_target_A1", "10"))
	require.NoError(t, store.Set("fsm_target_A2", "20"))
	require.NoError(t, store.Set("fsm_tag_A1", "core"))

	keys, err := store.Keys(PrefixFSMTarget)
	require.NoError(t, err)
	require.Len(t, keys, 2)
}

func TestStore_All(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, store.Set("a", "1"))
	require.NoError(t, store.Set("b", "2"))

	all, err := store.All()
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a": "1", "b": "2"}, all)
}
