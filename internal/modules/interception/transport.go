package interception

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/rs/zerolog"
)

// syntheticRequestKey marks outbound requests this process originates
// itself (sync HTTP calls, the performance engine's BFF fetch) so the
// interception branch is skipped for them — a re-entrancy guard,
// since the performance engine's own fetch would otherwise be
// observed as more Platform-A traffic.
type syntheticRequestKey struct{}

// WithSyntheticRequest tags ctx so Transport passes the request
// straight through without treating it as observable traffic.
func WithSyntheticRequest(ctx context.Context) context.Context {
	return context.WithValue(ctx, syntheticRequestKey{}, true)
}

func isSynthetic(r *http.Request) bool {
	v, _ := r.Context().Value(syntheticRequestKey{}).(bool)
	return v
}

// Transport is an http.RoundTripper that passively observes responses
// from the five known endpoints without altering what the caller
// sees. It is the Go-native analogue of patching fetch/XMLHttpRequest
// on a host page.
type Transport struct {
	Delegate http.RoundTripper // defaults to http.DefaultTransport
	Log      zerolog.Logger

	auth    AuthContext
	emit    EndpointPayloadFunc
	started bool
}

// NewTransport creates a Transport wrapping delegate (nil for
// http.DefaultTransport).
func NewTransport(delegate http.RoundTripper, log zerolog.Logger) *Transport {
	if delegate == nil {
		delegate = http.DefaultTransport
	}
	return &Transport{Delegate: delegate, Log: log.With().Str("component", "interception").Logger()}
}

// Start registers onPayload and begins observing. Returns a stop
// function that unregisters the callback; in-flight captures
// complete, but no new ones are delivered after stop() returns.
func (t *Transport) Start(onPayload EndpointPayloadFunc) (func(), error) {
	t.emit = onPayload
	t.started = true
	return func() {
		t.started = false
		t.emit = nil
	}, nil
}

// Auth returns the AuthContext this transport populates.
func (t *Transport) Auth() *AuthContext { return &t.auth }

// RoundTrip implements http.RoundTripper. The original response is
// always returned synchronously and unaltered; cache population is
// asynchronous, so a capture failure never affects the caller.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if !isSynthetic(req) {
		t.captureAuthHeaders(req)
	}

	resp, err := t.Delegate.RoundTrip(req)
	if err != nil || resp == nil {
		return resp, err
	}

	if isSynthetic(req) || !t.started || t.emit == nil {
		return resp, nil
	}

	endpoint, matched := MatchEndpoint(req.URL.String())
	if !matched {
		return resp, nil
	}

	// Clone the body before the caller reads it: split the original
	// stream into a buffer the caller keeps reading, and a copy we
	// parse off the hot path.
	var buf bytes.Buffer
	resp.Body = &teeReadCloser{r: io.TeeReader(resp.Body, &buf), c: resp.Body, done: make(chan struct{})}

	go t.captureAsync(endpoint, &buf, resp)

	return resp, nil
}

// captureAsync waits for the caller to finish reading resp.Body (teeReadCloser
// closes a done channel), then parses whatever landed in buf.
func (t *Transport) captureAsync(endpoint Endpoint, buf *bytes.Buffer, resp *http.Response) {
	defer func() {
		if r := recover(); r != nil {
			t.Log.Debug().Interface("panic", r).Msg("interception: recovered from capture panic")
		}
	}()

	trc, ok := resp.Body.(*teeReadCloser)
	if !ok {
		return
	}
	<-trc.done

	body := buf.Bytes()
	if !json.Valid(body) {
		t.Log.Debug().Str("endpoint", string(endpoint)).Msg("interception: invalid JSON, dropping")
		return
	}

	if t.emit != nil {
		t.emit(EndpointPayload{Endpoint: endpoint, Body: append([]byte(nil), body...)})
	}
}

// captureAuthHeaders merges Authorization/client-id/device-id from an
// outbound Platform-A request into the AuthContext, using the same
// last-non-empty-wins merge policy as AuthContext.Merge.
func (t *Transport) captureAuthHeaders(req *http.Request) {
	if _, matched := MatchEndpoint(req.URL.String()); !matched {
		return
	}

	snapshot := Snapshot{
		Authorization: req.Header.Get("Authorization"),
		ClientID:      req.Header.Get("client-id"),
		DeviceID:      req.Header.Get("device-id"),
	}

	if snapshot.Authorization == "" {
		if c, err := req.Cookie("webapp-sg-access-token"); err == nil {
			snapshot.Authorization = "Bearer " + c.Value
		}
	}
	if snapshot.DeviceID == "" {
		if c, err := req.Cookie("webapp-deviceId"); err == nil {
			snapshot.DeviceID = c.Value
		}
	}

	t.auth.Merge(snapshot)
}

// teeReadCloser lets the original caller drain resp.Body as normal
// while a background goroutine waits on done to read whatever was
// teed into the capture buffer.
type teeReadCloser struct {
	r    io.Reader
	c    io.Closer
	done chan struct{}
}

func (t *teeReadCloser) Read(p []byte) (int, error) {
	n, err := t.r.Read(p)
	if err != nil {
		t.signalDone()
	}
	return n, err
}

func (t *teeReadCloser) Close() error {
	t.signalDone()
	return t.c.Close()
}

func (t *teeReadCloser) signalDone() {
	defer func() { recover() }() // guards against double-close of done
	select {
	case <-t.done:
	default:
		if t.done != nil {
			close(t.done)
		}
	}
}
