// Package persist coalesces rapid edits into a single delayed write.
package persist

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// DefaultDelay is the quiet period before a batched write goes out.
const DefaultDelay = 1000 * time.Millisecond

// Debouncer holds at most one pending value. Every Schedule replaces the value
// and restarts the timer; when the timer fires the last value is written once
// on the timer's goroutine. Values must be immutable snapshots.
type Debouncer[T any] struct {
	clock clock.Clock
	delay time.Duration
	write func(T)

	mu      sync.Mutex
	timer   *clock.Timer
	value   T
	pending bool
	gen     uint64
	stopped bool
}

// NewDebouncer returns a debouncer calling write after delay of inactivity.
func NewDebouncer[T any](clk clock.Clock, delay time.Duration, write func(T)) *Debouncer[T] {
	if clk == nil {
		clk = clock.New()
	}
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Debouncer[T]{clock: clk, delay: delay, write: write}
}

// Schedule replaces any pending value and restarts the quiet period.
func (d *Debouncer[T]) Schedule(v T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.value = v
	d.pending = true
	d.timer = d.clock.AfterFunc(d.delay, func() { d.fire(gen) })
}

// Pending reports whether a write is waiting for its quiet period.
func (d *Debouncer[T]) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Flush writes the pending value now, on the caller's goroutine.
func (d *Debouncer[T]) Flush() bool {
	v, ok := d.take(0, false)
	if ok {
		d.write(v)
	}
	return ok
}

// Stop drops any pending value and ignores later calls to Schedule. It
// reports whether a write was dropped.
func (d *Debouncer[T]) Stop() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	dropped := d.pending
	d.clearLocked()
	return dropped
}

func (d *Debouncer[T]) fire(gen uint64) {
	v, ok := d.take(gen, true)
	if ok {
		d.write(v)
	}
}

func (d *Debouncer[T]) take(gen uint64, checkGen bool) (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	var zero T
	if !d.pending || (checkGen && gen != d.gen) {
		return zero, false
	}
	v := d.value
	d.clearLocked()
	return v, true
}

func (d *Debouncer[T]) clearLocked() {
	var zero T
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.value = zero
	d.pending = false
	d.gen++
}
