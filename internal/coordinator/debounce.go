package coordinator

import (
	"sync"
	"time"
)

// debouncer coalesces refresh triggers: the first Trigger arms a timer
// for the cooldown, triggers while armed are absorbed, and fn runs once
// when the timer fires. fn is never called synchronously from Trigger.
type debouncer struct {
	cooldown time.Duration
	fn       func()

	mu    sync.Mutex
	timer *time.Timer
	armed bool
}

func newDebouncer(cooldown time.Duration, fn func()) *debouncer {
	return &debouncer{cooldown: cooldown, fn: fn}
}

// Trigger requests one run of fn. Returns true when this trigger armed
// the timer, false when an earlier trigger already had one pending.
func (d *debouncer) Trigger() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.armed {
		return false
	}
	d.armed = true
	d.timer = time.AfterFunc(d.cooldown, func() {
		d.mu.Lock()
		d.armed = false
		d.mu.Unlock()
		d.fn()
	})
	return true
}

// Stop cancels any pending run.
func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.armed = false
}
