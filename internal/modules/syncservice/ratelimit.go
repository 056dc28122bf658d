package syncservice

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/httprate"
)

const rateLimitKeyPrefix = "ratelimit:"

// rateLimitWindow is the sliding-window duration every route limit is
// measured against.
const rateLimitWindow = 60 * time.Second

// Per-route budgets named for use when wrapping each handler at
// registration (spec: POST /sync 10/min, GET /sync/:userId 60/min,
// DELETE /sync/:userId 5/min, auth routes a small shared ceiling).
const (
	limitSyncUpload   = 10
	limitSyncDownload = 60
	limitSyncDelete   = 5
	limitAuthRegister = 5
	limitAuthLogin    = 10
	limitAuthRefresh  = 20
)

// rateCounter is the KV-stored sliding-window state for one identity,
// route, and method.
type rateCounter struct {
	Count   int   `json:"count"`
	ResetAt int64 `json:"resetAt"`
}

// RateLimiter enforces §4.7's per-(identity, routePattern, method)
// sliding window on top of the shared KV store.
type RateLimiter struct {
	store *Store
	now   func() time.Time
}

// NewRateLimiter creates a RateLimiter backed by store.
func NewRateLimiter(store *Store) *RateLimiter {
	return &RateLimiter{store: store, now: time.Now}
}

// Allow records one request for (identity, routePattern, method)
// against its window, returning whether it is within budget and, if
// not, the seconds until the window resets.
func (r *RateLimiter) Allow(identity, routePattern, method string, limit int) (allowed bool, retryAfterSec int, err error) {
	key := rateLimitKeyPrefix + identity + ":" + routePattern + ":" + method
	now := r.now()

	raw, err := r.store.get(key)
	if err != nil {
		return false, 0, err
	}

	var counter rateCounter
	if raw != nil {
		if err := json.Unmarshal([]byte(*raw), &counter); err != nil {
			return false, 0, fmt.Errorf("syncservice: decode rate counter %s: %w", key, err)
		}
	}

	if raw == nil || now.Unix() >= counter.ResetAt {
		counter = rateCounter{Count: 1, ResetAt: now.Add(rateLimitWindow).Unix()}
		if err := r.persist(key, counter); err != nil {
			return false, 0, err
		}
		return true, 0, nil
	}

	if counter.Count >= limit {
		return false, int(counter.ResetAt - now.Unix()), nil
	}

	counter.Count++
	if err := r.persist(key, counter); err != nil {
		return false, 0, err
	}
	return true, 0, nil
}

func (r *RateLimiter) persist(key string, c rateCounter) error {
	raw, err := json.Marshal(c)
	if err != nil {
		return err
	}
	return r.store.set(key, string(raw))
}

// Limit wraps next with the KV-backed sliding window for one specific
// (routePattern, method, limit), keyed by the authenticated user when
// present, else by IP. Applied at route registration so the pattern
// is a literal rather than inferred from chi's routing state.
func (r *RateLimiter) Limit(routePattern, method string, limit int, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		identity := identityFromRequest(req)
		allowed, retryAfter, err := r.Allow(identity, routePattern, method, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, ErrCodeInternal, "rate limit check failed")
			return
		}
		if !allowed {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			resp := newErrorResponse(ErrCodeRateLimitExceed, "rate limit exceeded")
			resp.RetryAfter = retryAfter
			writeJSON(w, http.StatusTooManyRequests, resp)
			return
		}
		next.ServeHTTP(w, req)
	}
}

func identityFromRequest(req *http.Request) string {
	if sub, ok := req.Context().Value(ctxKeySubject).(string); ok && sub != "" {
		return sub
	}
	if key, err := httprate.KeyByRealIP(req); err == nil && key != "" {
		return key
	}
	return req.RemoteAddr
}

// coarseIPLimiter is a defense-in-depth layer ahead of the KV-backed
// per-route limiter: a blunt per-IP ceiling that protects the KV store
// itself from being hammered before identity is even known.
func coarseIPLimiter() func(http.Handler) http.Handler {
	return httprate.LimitByIP(300, time.Minute)
}
