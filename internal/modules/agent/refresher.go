package agent

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/domain"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/performance"
)

// Refresher walks the current bucket map's goals through the
// performance queue/cache pair, one request at a time, so refresh
// traffic never bursts against the BFF. It is a scheduler.Job: one run
// enumerates whatever goals are captured right now and submits a
// fetch for any whose cache entry is missing or stale.
type Refresher struct {
	collector *Collector
	client    *performance.Client
	cache     *performance.Cache
	queue     *performance.Queue
	log       zerolog.Logger
}

// NewRefresher builds a Refresher.
func NewRefresher(collector *Collector, client *performance.Client, cache *performance.Cache, queue *performance.Queue, log zerolog.Logger) *Refresher {
	return &Refresher{
		collector: collector,
		client:    client,
		cache:     cache,
		queue:     queue,
		log:       log.With().Str("component", "agent-refresher").Logger(),
	}
}

// Name satisfies scheduler.Job.
func (r *Refresher) Name() string { return "performance-refresh" }

// Run satisfies scheduler.Job: it never itself returns an error for an
// individual goal's fetch failure, since one bad goal must not stop
// the others from refreshing. Errors are logged and swallowed.
func (r *Refresher) Run() error {
	bucketMap, ok := r.collector.Snapshot()
	if !ok {
		return nil
	}

	for _, goal := range bucketMap.AllGoals() {
		goalID := goal.GoalID
		if cached, err := r.cache.Get(goalID); err != nil {
			r.log.Warn().Err(err).Str("goal_id", string(goalID)).Msg("cache read failed")
		} else if cached != nil {
			continue
		}

		submitted := r.queue.Submit(func(ctx context.Context) error {
			series, err := r.client.Fetch(ctx, goalID)
			if err != nil {
				r.log.Warn().Err(err).Str("goal_id", string(goalID)).Msg("performance fetch failed")
				return err
			}
			return r.cache.Put(goalID, *series)
		})
		if !submitted {
			r.log.Warn().Str("goal_id", string(goalID)).Msg("performance queue full, dropping refresh")
		}
	}
	return nil
}

// TriggerFor force-refreshes a single goal if its 24h force-refresh
// window has elapsed, bypassing the cache-freshness check Run applies.
func (r *Refresher) TriggerFor(ctx context.Context, goalID domain.GoalId) (bool, error) {
	allowed, err := r.cache.CanForceRefresh(goalID)
	if err != nil || !allowed {
		return false, err
	}
	series, err := r.client.Fetch(ctx, goalID)
	if err != nil {
		return false, err
	}
	if err := r.cache.Put(goalID, *series); err != nil {
		return false, err
	}
	return true, r.cache.MarkForceRefreshed(goalID)
}
