package agent

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/analytics"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/configstore"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/interception"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/syncclient"
)

// maxIngestBytes bounds a single ingested capture at 512 KiB: a
// bucket-building response is small, structured JSON, never a file
// upload.
const maxIngestBytes = 512 * 1024

// Handler serves the overlay's view-model and control API: read-only
// summary/detail screens, override mutation, manual ingestion for
// captures the local RoundTripper never saw directly, and sync
// triggers.
type Handler struct {
	collector *Collector
	store     *configstore.Store
	sync      *syncclient.Controller
	log       zerolog.Logger
}

// NewHandler builds a Handler. sync may be nil when sync is disabled.
func NewHandler(collector *Collector, store *configstore.Store, sync *syncclient.Controller, log zerolog.Logger) *Handler {
	return &Handler{collector: collector, store: store, sync: sync, log: log.With().Str("component", "agent-handler").Logger()}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) loadOverrides(w http.ResponseWriter) (analytics.Overrides, bool) {
	overrides, err := analytics.LoadOverrides(h.store)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to load overrides")
		writeError(w, http.StatusInternalServerError, "failed to load overrides")
		return analytics.Overrides{}, false
	}
	return overrides, true
}

// HandleSummary serves the top-level summary screen. 503 until the
// collector has built a bucket map (all three Platform-A streams, or
// the Platform-B holdings stream), since there is no meaningful
// portfolio view before then.
func (h *Handler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	bucketMap, ok := h.collector.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no portfolio data captured yet")
		return
	}
	overrides, ok := h.loadOverrides(w)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, analytics.BuildSummaryViewModel(bucketMap, overrides))
}

// HandleBucketDetail serves one bucket's drill-down view.
func (h *Handler) HandleBucketDetail(w http.ResponseWriter, r *http.Request) {
	bucketMap, ok := h.collector.Snapshot()
	if !ok {
		writeError(w, http.StatusServiceUnavailable, "no portfolio data captured yet")
		return
	}
	overrides, ok := h.loadOverrides(w)
	if !ok {
		return
	}
	bucket := chi.URLParam(r, "bucket")
	writeJSON(w, http.StatusOK, analytics.BuildBucketDetailViewModel(bucket, bucketMap, overrides))
}

// ingestRequest is the shape an external capturer (e.g. a browser
// extension acting as the eyes this process has none of) posts for
// each response it observes. Endpoint must be one of
// interception.MatchEndpoint's five identifiers.
type ingestRequest struct {
	Endpoint string          `json:"endpoint"`
	Body     json.RawMessage `json:"body"`
}

// HandleIngest accepts a single captured endpoint response and folds
// it into the collector, exactly as interception.Transport's own
// callback would. This is the seam an out-of-process capturer (the
// actual host-page traffic observer; see DESIGN.md) feeds, since a
// Go process has no standing access to a browser's network traffic
// without one.
func (h *Handler) HandleIngest(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxIngestBytes+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read body")
		return
	}
	if len(raw) > maxIngestBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
		return
	}

	var req ingestRequest
	if err := json.Unmarshal(raw, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	endpoint := interception.Endpoint(req.Endpoint)
	switch endpoint {
	case interception.EndpointPlatformAPerformance,
		interception.EndpointPlatformAInvestible,
		interception.EndpointPlatformAGoalSummaries,
		interception.EndpointPlatformABFFPerformance,
		interception.EndpointPlatformBHoldings:
	default:
		writeError(w, http.StatusBadRequest, "unrecognized endpoint")
		return
	}

	h.collector.OnPayload(interception.EndpointPayload{Endpoint: endpoint, Body: req.Body})
	writeJSON(w, http.StatusOK, map[string]bool{"accepted": true})
}

// targetRequest is shared by the goal and instrument target/fixed
// endpoints.
type targetRequest struct {
	TargetPct *float64 `json:"targetPct"`
	Fixed     *bool    `json:"fixed"`
}

// HandleSetGoalTarget handles PUT /goals/{goalId}/target.
func (h *Handler) HandleSetGoalTarget(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	id := domain.GoalId(chi.URLParam(r, "goalId"))

	if req.Fixed != nil {
		if err := analytics.SetGoalFixed(h.store, id, *req.Fixed, req.TargetPct); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}

	fixed, err := h.isGoalFixed(id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := analytics.SetGoalTarget(h.store, id, req.TargetPct, fixed); err != nil {
		status := http.StatusInternalServerError
		if err == analytics.ErrFixedTarget {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) isGoalFixed(id domain.GoalId) (bool, error) {
	overrides, err := analytics.LoadOverrides(h.store)
	if err != nil {
		return false, err
	}
	return overrides.GoalFixed[id], nil
}

// HandleSetInstrumentTarget handles PUT /instruments/{code}/target.
func (h *Handler) HandleSetInstrumentTarget(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	code := domain.InstrumentCode(chi.URLParam(r, "code"))

	if req.Fixed != nil {
		if err := analytics.SetInstrumentFixed(h.store, code, *req.Fixed, req.TargetPct); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		return
	}

	overrides, err := analytics.LoadOverrides(h.store)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := analytics.SetInstrumentTarget(h.store, code, req.TargetPct, overrides.InstrumentFixed[code]); err != nil {
		status := http.StatusInternalServerError
		if err == analytics.ErrFixedTarget {
			status = http.StatusConflict
		}
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// HandleTriggerSync handles POST /sync/trigger, nudging the debounced
// sync controller exactly as a local config change would. A no-op,
// successful response when sync is disabled — triggering sync is
// never a hard dependency for the overlay to function offline.
func (h *Handler) HandleTriggerSync(w http.ResponseWriter, r *http.Request) {
	if h.sync == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "sync-disabled"})
		return
	}
	h.sync.NotifyChange()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "sync-triggered"})
}
