package interception

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRoundTripper struct {
	resp *http.Response
	err  error
}

func (s *stubRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return s.resp, s.err
}

func newJSONResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}
}

func TestTransport_CapturesMatchedEndpointWithoutAlteringResponse(t *testing.T) {
	body := `{"goalId":"g1","cumulativeReturn":5.5}`
	delegate := &stubRoundTripper{resp: newJSONResponse(body)}
	transport := NewTransport(delegate, testLogger())

	var mu sync.Mutex
	var captured *EndpointPayload
	done := make(chan struct{})
	stop, err := transport.Start(func(p EndpointPayload) {
		mu.Lock()
		captured = &p
		mu.Unlock()
		close(done)
	})
	require.NoError(t, err)
	defer stop()

	req, _ := http.NewRequest(http.MethodGet, "https://app.example.com/v1/goals/performance", nil)
	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, body, string(got))
	resp.Body.Close()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for async capture")
	}

	mu.Lock()
	defer mu.Unlock()
	require.NotNil(t, captured)
	assert.Equal(t, EndpointPlatformAPerformance, captured.Endpoint)
	assert.JSONEq(t, body, string(captured.Body))
}

func TestTransport_IgnoresUnmatchedURLs(t *testing.T) {
	delegate := &stubRoundTripper{resp: newJSONResponse(`{"x":1}`)}
	transport := NewTransport(delegate, testLogger())

	called := false
	stop, err := transport.Start(func(EndpointPayload) { called = true })
	require.NoError(t, err)
	defer stop()

	req, _ := http.NewRequest(http.MethodGet, "https://app.example.com/v1/unrelated", nil)
	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, called)
}

func TestTransport_SkipsSyntheticRequests(t *testing.T) {
	delegate := &stubRoundTripper{resp: newJSONResponse(`{"x":1}`)}
	transport := NewTransport(delegate, testLogger())

	called := false
	stop, err := transport.Start(func(EndpointPayload) { called = true })
	require.NoError(t, err)
	defer stop()

	req, _ := http.NewRequest(http.MethodGet, "https://app.example.com/v1/goals/performance", nil)
	req = req.WithContext(WithSyntheticRequest(req.Context()))

	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, called)
}

func TestTransport_CapturesAuthHeadersFromMatchedRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	delegate := http.DefaultTransport
	transport := NewTransport(delegate, testLogger())

	req, _ := http.NewRequest(http.MethodGet, server.URL+"/v1/goals/performance", nil)
	req.Header.Set("Authorization", "Bearer abc123")
	req.Header.Set("client-id", "client-42")

	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	snap := transport.Auth().Get()
	assert.Equal(t, "Bearer abc123", snap.Authorization)
	assert.Equal(t, "client-42", snap.ClientID)
}

func TestTransport_StopPreventsFurtherCaptures(t *testing.T) {
	delegate := &stubRoundTripper{resp: newJSONResponse(`{"a":1}`)}
	transport := NewTransport(delegate, testLogger())

	called := false
	stop, err := transport.Start(func(EndpointPayload) { called = true })
	require.NoError(t, err)
	stop()

	req, _ := http.NewRequest(http.MethodGet, "https://app.example.com/v1/goals/performance", nil)
	resp, err := transport.RoundTrip(req)
	require.NoError(t, err)
	resp.Body.Close()

	time.Sleep(20 * time.Millisecond)
	assert.False(t, called)
}
