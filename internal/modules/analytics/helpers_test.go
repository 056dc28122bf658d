package analytics

import (
	"testing"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/database"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/configstore"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *configstore.Store {
	t.Helper()
	db, err := database.New(database.Config{
		Path:    "file:" + t.Name() + "?mode=memory&cache=shared",
		Profile: database.ProfileStandard,
		Name:    "test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	store, err := configstore.New(db, zerolog.Nop())
	require.NoError(t, err)
	return store
}
