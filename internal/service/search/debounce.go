package search

import (
	"sync"
	"time"
)

// debouncer runs only the last function handed to it within a quiet period.
type debouncer struct {
	wait time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	stopped bool
}

func newDebouncer(wait time.Duration) *debouncer {
	return &debouncer{wait: wait}
}

// call (re)arms the timer with fn, cancelling a pending earlier call.
func (d *debouncer) call(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.wait, fn)
}

// stop cancels the pending call and makes later calls no-ops.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
