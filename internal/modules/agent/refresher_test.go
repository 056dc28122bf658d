package agent

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/database"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/configstore"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/interception"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/performance"
)

func TestRefresher_SubmitsFetchForUncachedGoals(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"timeSeries":[],"returnsTable":{},"netInvestment":0,"endingBalance":0,"gainOrLossTable":{"netInvestment":{}}}`))
	}))
	defer server.Close()

	auth := &interception.AuthContext{}
	auth.Merge(interception.Snapshot{Authorization: "Bearer tok"})
	client := performance.NewClient(server.Client(), server.URL, auth)

	db, err := database.New(database.Config{
		Path:    "file:" + t.Name() + "?mode=memory&cache=shared",
		Profile: database.ProfileStandard,
		Name:    "test-refresher",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store, err := configstore.New(db, zerolog.Nop())
	require.NoError(t, err)

	cache := performance.NewCache(store)
	queue := performance.NewQueue(rate.Every(time.Millisecond), 10)
	defer queue.Close()

	collector := NewCollector(zerolog.Nop())
	collector.OnPayload(interceptionPayload("platform_a_performance", performanceBody))
	collector.OnPayload(interceptionPayload("platform_a_investible", investibleBody))
	collector.OnPayload(interceptionPayload("platform_a_goal_summaries", summaryBody))

	refresher := NewRefresher(collector, client, cache, queue, zerolog.Nop())
	require.NoError(t, refresher.Run())

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(1), requests)
}

func TestRefresher_NoopWithoutAnyCapture(t *testing.T) {
	db, err := database.New(database.Config{
		Path:    "file:" + t.Name() + "?mode=memory&cache=shared",
		Profile: database.ProfileStandard,
		Name:    "test-refresher-empty",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store, err := configstore.New(db, zerolog.Nop())
	require.NoError(t, err)

	cache := performance.NewCache(store)
	queue := performance.NewQueue(rate.Every(time.Millisecond), 10)
	defer queue.Close()

	collector := NewCollector(zerolog.Nop())
	refresher := NewRefresher(collector, nil, cache, queue, zerolog.Nop())
	assert.NoError(t, refresher.Run())
}
