package search

import (
	"sync"
	"time"
)

// debouncer coalesces rapid keystrokes into a single callback invocation.
// Each Trigger replaces any pending timer; only the value that survives the
// quiet window reaches fire.
type debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	fire  func(string)
}

func newDebouncer(delay time.Duration, fire func(string)) *debouncer {
	return &debouncer{delay: delay, fire: fire}
}

// Trigger schedules fire(value) after the quiet window, cancelling any
// previously pending invocation.
func (d *debouncer) Trigger(value string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.fire(value)
	})
}

// Cancel drops any pending invocation. Callers tearing down the owning
// context must invoke this so no stale scan fires afterwards.
func (d *debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
