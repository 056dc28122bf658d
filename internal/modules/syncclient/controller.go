package syncclient

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/modules/crypto"
	"github.com/laurenceputra/goal-portfolio-viewer-sub002/internal/scheduler"
)

const (
	debounceDelay   = 2 * time.Second
	retryDelay      = 500 * time.Millisecond
	defaultAutoSync = 30 * time.Minute
)

// Controller wires the sync client to the scheduler: a 2s debounce
// collapses change-triggered syncs, and an auto-sync job fires on a
// configurable interval. It never queues a second sync on top of one
// in flight, instead retrying after a short delay.
type Controller struct {
	client   *Client
	userID   string
	deviceID string
	log      zerolog.Logger
	now      func() time.Time

	debouncer *scheduler.Debouncer
	sched     *scheduler.Scheduler

	onConflict func(local, remote EnvelopeV2)
	onError    func(error)
}

// NewController builds a Controller bound to client.
func NewController(client *Client, userID, deviceID string, log zerolog.Logger) *Controller {
	c := &Controller{
		client:   client,
		userID:   userID,
		deviceID: deviceID,
		log:      log,
		now:      time.Now,
	}
	c.debouncer = scheduler.NewDebouncer(debounceDelay, c.runTriggeredSync)
	return c
}

// OnConflict registers the callback invoked when an upload returns
// 409; the caller is responsible for opening and driving the Wizard.
func (c *Controller) OnConflict(fn func(local, remote EnvelopeV2)) {
	c.onConflict = fn
}

// OnError registers the callback invoked for surfaced, non-conflict
// sync failures (network errors, 413, 429, 5xx, unauthenticated).
func (c *Controller) OnError(fn func(error)) {
	c.onError = fn
}

// NotifyChange marks that synced config state changed; the resulting
// sync is debounced by ~2s.
func (c *Controller) NotifyChange() {
	c.debouncer.Trigger()
}

// StartAutoSync schedules a recurring sync on interval (default 30
// min) via the shared job scheduler. The job stays registered until
// sched itself is stopped; Controller.Stop cancels only a pending
// debounce.
func (c *Controller) StartAutoSync(sched *scheduler.Scheduler, interval time.Duration) error {
	if interval <= 0 {
		interval = defaultAutoSync
	}
	c.sched = sched
	return sched.AddJob(cronExpr(interval), autoSyncJob{c})
}

// Stop cancels any pending debounced sync.
func (c *Controller) Stop() {
	c.debouncer.Cancel()
}

type autoSyncJob struct{ c *Controller }

func (j autoSyncJob) Name() string { return "sync-client-auto-sync" }

func (j autoSyncJob) Run() error {
	j.c.runTriggeredSync()
	return nil
}

func cronExpr(interval time.Duration) string {
	if interval < time.Minute {
		interval = time.Minute
	}
	return "@every " + interval.String()
}

// runTriggeredSync performs one sync attempt, retrying after a short
// delay if another sync is already in flight rather than queueing a
// second concurrent operation.
func (c *Controller) runTriggeredSync() {
	if !c.client.TryBeginSync() {
		time.AfterFunc(retryDelay, c.runTriggeredSync)
		return
	}
	defer c.client.EndSync()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	outcome, err := c.client.Upload(ctx, c.userID, c.deviceID, false, nowMillis(c.now()))
	if err != nil {
		c.log.Warn().Err(err).Msg("sync upload failed")
		if c.onError != nil {
			c.onError(err)
		}
		return
	}

	if outcome.Conflict && outcome.ServerData != nil {
		local, collectErr := Collect(c.client.Store, nowMillis(c.now()))
		if collectErr != nil {
			c.log.Warn().Err(collectErr).Msg("sync conflict: failed to collect local envelope")
			if c.onError != nil {
				c.onError(collectErr)
			}
			return
		}
		remotePlain, decryptErr := decryptServerRecord(c.client, *outcome.ServerData)
		if decryptErr != nil {
			c.log.Warn().Err(decryptErr).Msg("sync conflict: failed to decrypt server envelope")
			if c.onError != nil {
				c.onError(decryptErr)
			}
			return
		}
		if c.onConflict != nil {
			c.onConflict(local, remotePlain)
		}
		return
	}

	if outcome.Uploaded {
		c.log.Info().Int64("lastSyncAt", outcome.LastSyncAt).Msg("sync uploaded")
	}
}

func decryptServerRecord(client *Client, record ServerRecord) (EnvelopeV2, error) {
	plaintext, err := crypto.Decrypt(record.EncryptedData, client.Passphrase)
	if err != nil {
		return EnvelopeV2{}, err
	}
	return DecodeEnvelope(plaintext)
}
