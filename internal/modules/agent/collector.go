package agent

import (
	"sync"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/interception"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/normalizer"
	"github.com/rs/zerolog"
)

// Collector accumulates the latest capture of each of Platform A's
// three goal streams and Platform B's holdings stream, and rebuilds a
// merged domain.BucketMap whenever a new capture arrives. It is safe
// for concurrent use: the interception layer delivers payloads from
// its own goroutine, and HTTP handlers read the snapshot from others.
type Collector struct {
	mu sync.RWMutex

	performance []normalizer.PerformanceRecord
	investible  []normalizer.InvestibleRecord
	summary     []normalizer.SummaryRecord
	holdings    []domain.HoldingRow

	bucketMap *domain.BucketMap
	log       zerolog.Logger
}

// NewCollector returns an empty Collector.
func NewCollector(log zerolog.Logger) *Collector {
	return &Collector{log: log.With().Str("component", "agent-collector").Logger()}
}

// OnPayload is an interception.EndpointPayloadFunc: it decodes a
// captured response per its endpoint and folds it into the bucket
// map. Decode failures are logged and otherwise ignored — a malformed
// capture must not take down the overlay.
func (c *Collector) OnPayload(p interception.EndpointPayload) {
	switch p.Endpoint {
	case interception.EndpointPlatformAPerformance:
		rows, err := decodePerformance(p.Body)
		if err != nil {
			c.log.Warn().Err(err).Msg("dropping malformed performance capture")
			return
		}
		c.mu.Lock()
		c.performance = rows
		c.mu.Unlock()

	case interception.EndpointPlatformAInvestible:
		rows, err := decodeInvestible(p.Body)
		if err != nil {
			c.log.Warn().Err(err).Msg("dropping malformed investible capture")
			return
		}
		c.mu.Lock()
		c.investible = rows
		c.mu.Unlock()

	case interception.EndpointPlatformAGoalSummaries:
		rows, err := decodeSummary(p.Body)
		if err != nil {
			c.log.Warn().Err(err).Msg("dropping malformed goal-summaries capture")
			return
		}
		c.mu.Lock()
		c.summary = rows
		c.mu.Unlock()

	case interception.EndpointPlatformBHoldings:
		rows, err := decodeHoldings(p.Body)
		if err != nil {
			c.log.Warn().Err(err).Msg("dropping malformed holdings capture")
			return
		}
		c.mu.Lock()
		c.holdings = rows
		c.mu.Unlock()

	case interception.EndpointPlatformABFFPerformance:
		// Per-goal time series, consumed directly by the performance
		// cache/aggregate path rather than the bucket map.
		return

	default:
		return
	}

	c.rebuild()
}

// rebuild recomputes the merged bucket map from whatever streams have
// been captured so far. Platform A only contributes once all three of
// its streams are present (normalizer.BuildBucketMap's all-or-nothing
// rule); Platform B contributes independently as soon as its single
// stream arrives. Both sets of goals land in one BucketMap, keyed by
// bucket name, since that is the grain the overlay renders at.
func (c *Collector) rebuild() {
	c.mu.Lock()
	defer c.mu.Unlock()

	var merged *domain.BucketMap

	if c.performance != nil && c.investible != nil && c.summary != nil {
		if bm, ok := normalizer.BuildBucketMap(c.performance, c.investible, c.summary); ok {
			merged = bm
		}
	}

	if c.holdings != nil {
		holdingsMap := normalizer.BuildHoldingsBucketMap(c.holdings)
		if merged == nil {
			merged = holdingsMap
		} else {
			for _, g := range holdingsMap.AllGoals() {
				merged.Insert(g)
			}
		}
	}

	if merged == nil {
		return
	}
	merged.SortGoals()
	c.bucketMap = merged
}

// Snapshot returns the current bucket map and whether one has been
// built yet.
func (c *Collector) Snapshot() (*domain.BucketMap, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.bucketMap, c.bucketMap != nil
}
