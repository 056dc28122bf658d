package syncclient

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	store := newFakeStore()
	require.NoError(t, SaveTokens(store, Tokens{AccessToken: "access-token", RefreshToken: "refresh-token"}))
	client := NewClient(server.Client(), server.URL, store, "passphrase")
	return client, server
}

func TestUpload_200PersistsServerReturnedTimestamp(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sync", r.URL.Path)
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "timestamp": 5000})
	})
	defer server.Close()

	outcome, err := client.Upload(context.Background(), "user-1", "device-1", false, 1000)
	require.NoError(t, err)
	assert.True(t, outcome.Uploaded)
	assert.Equal(t, int64(5000), outcome.LastSyncAt)

	raw, err := client.Store.Get("sync_last_sync")
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.Equal(t, "5000", *raw)
}

func TestUpload_409ReturnsConflictWithServerData(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"serverData": map[string]any{
				"encryptedData": "opaque",
				"deviceId":      "device-2",
				"timestamp":     2000,
				"version":       2,
			},
		})
	})
	defer server.Close()

	outcome, err := client.Upload(context.Background(), "user-1", "device-1", false, 1500)
	require.NoError(t, err)
	assert.True(t, outcome.Conflict)
	require.NotNil(t, outcome.ServerData)
	assert.Equal(t, int64(2000), outcome.ServerData.Timestamp)
}

// Scenario 4: conflict, keep local (force) — client uploads ts=1000,
// server stores ts=2000; client re-uploads with force:true ts=1500;
// service stores serverNow and returns it; client must adopt that as
// lastSyncAt.
func TestUpload_ForceUpload_AdoptsServerReturnedTimestamp(t *testing.T) {
	var sawForce bool
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		sawForce = body["force"] == true
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "timestamp": 9999})
	})
	defer server.Close()

	outcome, err := client.Upload(context.Background(), "user-1", "device-1", true, 1500)
	require.NoError(t, err)
	assert.True(t, sawForce)
	assert.True(t, outcome.Uploaded)
	assert.Equal(t, int64(9999), outcome.LastSyncAt)

	raw, err := client.Store.Get("sync_last_sync")
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.Equal(t, "9999", *raw)
}

func TestUpload_401RefreshesOnceThenRetries(t *testing.T) {
	calls := 0
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/sync":
			calls++
			if calls == 1 {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "timestamp": 42})
		case "/auth/refresh":
			w.WriteHeader(http.StatusOK)
			_ = json.NewEncoder(w).Encode(map[string]any{
				"accessToken": "new-access", "refreshToken": "new-refresh",
				"accessExpiresAt": 9999999999, "refreshExpiresAt": 9999999999,
			})
		}
	})
	defer server.Close()

	outcome, err := client.Upload(context.Background(), "user-1", "device-1", false, 1000)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	assert.True(t, outcome.Uploaded)
	assert.Equal(t, int64(42), outcome.LastSyncAt)
}

func TestUpload_401WithFailedRefreshClearsTokens(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	defer server.Close()

	_, err := client.Upload(context.Background(), "user-1", "device-1", false, 1000)
	assert.ErrorIs(t, err, ErrUnauthenticated)

	tokens, err := LoadTokens(client.Store)
	require.NoError(t, err)
	assert.Empty(t, tokens.AccessToken)
}

func TestUpload_SkipsWhenHashMatchesLastServerHash(t *testing.T) {
	calls := 0
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "timestamp": 1})
	})
	defer server.Close()

	_, err := client.Upload(context.Background(), "user-1", "device-1", false, 1000)
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	outcome, err := client.Upload(context.Background(), "user-1", "device-1", false, 1001)
	require.NoError(t, err)
	assert.True(t, outcome.Skipped)
	assert.Equal(t, 1, calls, "second upload must be short-circuited")
}

func TestDownload_404TreatedAsEmptyRemote(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	defer server.Close()

	applied, err := client.Download(context.Background(), "user-1")
	require.NoError(t, err)
	assert.False(t, applied)
}

func TestDelete_200ClearsLastSyncOnly(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	defer server.Close()

	require.NoError(t, client.Store.Set("sync_last_sync", "123"))
	require.NoError(t, client.Store.Set("goal_target_pct_g1", "10.00"))

	require.NoError(t, client.Delete(context.Background(), "user-1"))

	raw, err := client.Store.Get("sync_last_sync")
	require.NoError(t, err)
	assert.Nil(t, raw)

	raw, err = client.Store.Get("goal_target_pct_g1")
	require.NoError(t, err)
	require.NotNil(t, raw)
	assert.Equal(t, "10.00", *raw)
}

func TestTryBeginSync_PreventsSecondConcurrentSync(t *testing.T) {
	client, server := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]any{"success": true, "timestamp": 1})
	})
	defer server.Close()

	require.True(t, client.TryBeginSync())
	assert.False(t, client.TryBeginSync())
	client.EndSync()
	assert.True(t, client.TryBeginSync())
}
