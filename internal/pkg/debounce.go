package pkg

import (
	"sync"
	"time"
)

// Debouncer collapses bursts of triggers into a single callback invocation.
// Every Trigger resets the timer; only the callback of the last trigger
// before the window elapses runs. The callback fires on a timer goroutine.
//
// One Debouncer backs one trigger source (a scroll sentinel, a query input);
// sharing an instance across sources would collapse unrelated triggers.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a Debouncer with the given delay. A non-positive
// delay makes Trigger invoke its callback synchronously, which keeps tests
// deterministic.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn after the debounce delay, cancelling any previously
// scheduled callback that has not fired yet.
func (d *Debouncer) Trigger(fn func()) {
	if d.delay <= 0 {
		fn()
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending callback. It does not wait for a callback that
// has already started running.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
