package persist

import (
	"sync"
	"time"
)

// Debouncer coalesces bursts of Schedule calls into a single invocation of
// fn on the trailing edge: fn runs once delay has elapsed without another
// Schedule. The zero value is not usable; construct with NewDebouncer.
type Debouncer struct {
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *time.Timer
	seq     uint64
	pending bool
}

// NewDebouncer returns a debouncer that invokes fn after delay of quiet.
func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Schedule arms the timer, restarting it if an invocation is already pending.
func (d *Debouncer) Schedule() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.seq++
	d.pending = true
	seq := d.seq
	d.timer = time.AfterFunc(d.delay, func() { d.fire(seq) })
	d.mu.Unlock()
}

// fire runs fn if this timer generation is still the pending one. A stale
// generation means Schedule, Cancel, or Flush superseded it after the timer
// had already been queued to run.
func (d *Debouncer) fire(seq uint64) {
	d.mu.Lock()
	if !d.pending || seq != d.seq {
		d.mu.Unlock()
		return
	}
	d.pending = false
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}

// Cancel drops any pending invocation without running it.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
}

// Flush runs a pending invocation immediately and disarms the timer.
// With nothing pending it is a no-op.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return
	}
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.fn()
}

// Pending reports whether an invocation is armed.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}
