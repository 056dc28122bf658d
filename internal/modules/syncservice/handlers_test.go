package syncservice

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) (*chi.Mux, *Handler, *RateLimiter) {
	t.Helper()
	store := newTestStore(t)
	auth := NewAuthenticator([]byte("test-signing-key"))
	h := NewHandler(store, auth, zerolog.Nop())
	rl := NewRateLimiter(store)

	r := chi.NewRouter()
	r.Post("/auth/register", h.HandleRegister)
	r.Post("/auth/login", h.HandleLogin)
	r.Post("/auth/refresh", h.HandleRefresh)
	r.Post("/sync", h.RequireAccessToken(h.HandleUpload))
	r.Get("/sync/{userId}", h.RequireAccessToken(h.HandleDownload))
	r.Delete("/sync/{userId}", h.RequireAccessToken(h.HandleDelete))
	return r, h, rl
}

func doJSON(t *testing.T, r http.Handler, method, path string, body interface{}, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func registerAndLogin(t *testing.T, r http.Handler, userID string) string {
	t.Helper()
	hash := sha256Hex("hunter2")

	rec := doJSON(t, r, http.MethodPost, "/auth/register", registerRequest{UserID: userID, PasswordHash: hash}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/auth/login", loginRequest{UserID: userID, PasswordHash: hash}, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp["accessToken"].(string)
}

func TestRegister_RejectsDuplicateUser(t *testing.T) {
	r, _, _ := newTestServer(t)
	hash := sha256Hex("hunter2")

	rec := doJSON(t, r, http.MethodPost, "/auth/register", registerRequest{UserID: "alice", PasswordHash: hash}, "")
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/auth/register", registerRequest{UserID: "alice", PasswordHash: hash}, "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestLogin_MismatchReturns401(t *testing.T) {
	r, _, _ := newTestServer(t)
	hash := sha256Hex("hunter2")
	doJSON(t, r, http.MethodPost, "/auth/register", registerRequest{UserID: "alice", PasswordHash: hash}, "")

	rec := doJSON(t, r, http.MethodPost, "/auth/login", loginRequest{UserID: "alice", PasswordHash: sha256Hex("wrong")}, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestUpload_200StoresAndEchoesTimestamp(t *testing.T) {
	r, _, _ := newTestServer(t)
	token := registerAndLogin(t, r, "alice")

	rec := doJSON(t, r, http.MethodPost, "/sync", uploadRequest{
		UserID: "alice", DeviceID: "dev1", EncryptedData: "ct", Timestamp: 1000, Version: 2,
	}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["success"])
	assert.EqualValues(t, 1000, resp["timestamp"])
}

func TestUpload_409WhenExistingNewerAndNotForced(t *testing.T) {
	r, _, _ := newTestServer(t)
	token := registerAndLogin(t, r, "alice")

	rec := doJSON(t, r, http.MethodPost, "/sync", uploadRequest{
		UserID: "alice", DeviceID: "dev1", EncryptedData: "ct1", Timestamp: 2000, Version: 2,
	}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, r, http.MethodPost, "/sync", uploadRequest{
		UserID: "alice", DeviceID: "dev2", EncryptedData: "ct2", Timestamp: 1000, Version: 2,
	}, token)
	assert.Equal(t, http.StatusConflict, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	serverData := resp["serverData"].(map[string]interface{})
	assert.EqualValues(t, 2000, serverData["timestamp"])
}

func TestUpload_ForceAdoptsServerClockTimestamp(t *testing.T) {
	r, _, _ := newTestServer(t)
	token := registerAndLogin(t, r, "alice")

	doJSON(t, r, http.MethodPost, "/sync", uploadRequest{
		UserID: "alice", DeviceID: "dev1", EncryptedData: "ct1", Timestamp: 2000, Version: 2,
	}, token)

	rec := doJSON(t, r, http.MethodPost, "/sync", uploadRequest{
		UserID: "alice", DeviceID: "dev2", EncryptedData: "ct2", Timestamp: 1000, Version: 2, Force: true,
	}, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEqualValues(t, 1000, resp["timestamp"])
}

func TestUpload_ForbiddenForCrossUserToken(t *testing.T) {
	r, _, _ := newTestServer(t)
	token := registerAndLogin(t, r, "alice")

	rec := doJSON(t, r, http.MethodPost, "/sync", uploadRequest{
		UserID: "bob", DeviceID: "dev1", EncryptedData: "ct", Timestamp: 1000, Version: 2,
	}, token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDownload_404WhenMissing(t *testing.T) {
	r, _, _ := newTestServer(t)
	token := registerAndLogin(t, r, "alice")

	rec := doJSON(t, r, http.MethodGet, "/sync/alice", nil, token)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDownload_ReturnsStoredRecord(t *testing.T) {
	r, _, _ := newTestServer(t)
	token := registerAndLogin(t, r, "alice")
	doJSON(t, r, http.MethodPost, "/sync", uploadRequest{
		UserID: "alice", DeviceID: "dev1", EncryptedData: "ct", Timestamp: 1000, Version: 2,
	}, token)

	rec := doJSON(t, r, http.MethodGet, "/sync/alice", nil, token)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ct", data["encryptedData"])
}

func TestDelete_IdempotentOnAbsentRecord(t *testing.T) {
	r, _, _ := newTestServer(t)
	token := registerAndLogin(t, r, "alice")

	rec := doJSON(t, r, http.MethodDelete, "/sync/alice", nil, token)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestUpload_RejectsOversizedPayload(t *testing.T) {
	r, _, _ := newTestServer(t)
	token := registerAndLogin(t, r, "alice")

	huge := make([]byte, maxPayloadBytes+1)
	for i := range huge {
		huge[i] = 'a'
	}
	rec := doJSON(t, r, http.MethodPost, "/sync", uploadRequest{
		UserID: "alice", DeviceID: "dev1", EncryptedData: string(huge), Timestamp: 1000, Version: 2,
	}, token)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestRateLimiter_PreSeededCounterTriggers429(t *testing.T) {
	r, h, rl := newTestServer(t)
	token := registerAndLogin(t, r, "alice")

	// Pre-seed (alice, "/sync/:userId", GET) at its ceiling so the very
	// next request is the one that trips the limit.
	for i := 0; i < limitSyncDownload; i++ {
		allowed, _, err := rl.Allow("alice", "/sync/{userId}", http.MethodGet, limitSyncDownload)
		require.NoError(t, err)
		require.True(t, allowed)
	}

	limited := chi.NewRouter()
	limited.Get("/sync/{userId}", h.RequireAccessToken(rl.Limit("/sync/{userId}", http.MethodGet, limitSyncDownload, h.HandleDownload)))

	rec := doJSON(t, limited, http.MethodGet, "/sync/alice", nil, token)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}
