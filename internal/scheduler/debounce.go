package scheduler

import (
	"sync"
	"time"
)

// Debouncer collapses bursts of Trigger calls into a single fire
// after quiet settles for delay — the sync client's on-change upload
// path, which must not fire once per keystroke-equivalent config edit.
type Debouncer struct {
	mu    sync.Mutex
	timer *time.Timer
	delay time.Duration
	fire  func()
}

// NewDebouncer returns a Debouncer that calls fire after delay has
// elapsed since the most recent Trigger call.
func NewDebouncer(delay time.Duration, fire func()) *Debouncer {
	return &Debouncer{delay: delay, fire: fire}
}

// Trigger resets the quiet-period timer. If no further Trigger call
// arrives within delay, fire runs exactly once.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.fire)
}

// Cancel stops any pending fire, if one is scheduled.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
