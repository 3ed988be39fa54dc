package prefs

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of writes to one logical slot into a
// single deferred execution. A new Schedule supersedes the pending one;
// an Immediate cancels it first so a stale write can never land after a
// fresh one.
type Debouncer struct {
	interval time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending func()
}

// NewDebouncer returns a debouncer with the given quiet interval.
func NewDebouncer(interval time.Duration) *Debouncer {
	if interval <= 0 {
		interval = time.Second
	}
	return &Debouncer{interval: interval}
}

// Schedule queues write to run after the interval, replacing any
// not-yet-run write.
func (d *Debouncer) Schedule(write func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = write
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	write := d.pending
	d.pending = nil
	d.timer = nil
	d.mu.Unlock()

	if write != nil {
		write()
	}
}

// Immediate cancels any pending write and runs this one now.
func (d *Debouncer) Immediate(write func()) {
	d.cancel()
	write()
}

// Flush runs the pending write now, if any.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	write := d.pending
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()

	if write != nil {
		write()
	}
}

// Stop cancels any pending write without running it.
func (d *Debouncer) Stop() {
	d.cancel()
}

func (d *Debouncer) cancel() {
	d.mu.Lock()
	d.pending = nil
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
}
