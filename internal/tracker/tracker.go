// Package tracker keeps the "time spent working" readout for an order. The
// only durable state is a checkpoint pair (accumulated seconds + the epoch
// second it was saved at); everything else is reconstructed from wall clock on
// resume and advanced by a local 1-second tick while running.
package tracker

import (
	"fmt"
	"sync"
	"time"
)

// ComputeDisplaySeconds reconciles a checkpoint with wall clock. Stopped
// trackers show the accumulated value as-is. Running trackers add the seconds
// elapsed since the checkpoint, clamped so clock skew can never make the
// readout go backwards.
func ComputeDisplaySeconds(accumulated, checkpoint, now int64, running bool) int64 {
	if !running {
		return accumulated
	}
	delta := now - checkpoint
	if delta < 0 {
		delta = 0
	}
	return accumulated + delta
}

// Format renders total seconds as "{d}d {h}h {m}m {s}s".
func Format(total int64) string {
	return fmt.Sprintf("%dd %dh %dm %ds",
		total/86400, total%86400/3600, total%3600/60, total%60)
}

// Tracker is the in-process ticking readout. While running it increments by
// exactly one per tick rather than re-deriving from wall clock, so the display
// never jitters; the wall-clock reconciliation happens once, on Start.
type Tracker struct {
	mu      sync.Mutex
	display int64
	running bool
	stop    chan struct{}
	onTick  func(seconds int64)
}

// New returns a stopped tracker. onTick, if non-nil, is invoked after every
// 1-second increment with the new display value; it runs on the tick goroutine
// and must not block.
func New(onTick func(seconds int64)) *Tracker {
	return &Tracker{onTick: onTick}
}

// Start resumes ticking from a checkpoint. The display is reconciled against
// now once, then advances by one per second. Starting an already running
// tracker is a no-op.
func (t *Tracker) Start(accumulated, checkpoint, now int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		return
	}
	t.display = ComputeDisplaySeconds(accumulated, checkpoint, now, true)
	t.running = true
	t.stop = make(chan struct{})
	go t.tick(t.stop)
}

func (t *Tracker) tick(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			t.mu.Lock()
			if !t.running {
				t.mu.Unlock()
				return
			}
			t.display++
			v := t.display
			cb := t.onTick
			t.mu.Unlock()
			if cb != nil {
				cb(v)
			}
		}
	}
}

// Stop cancels the tick and returns the checkpoint pair to persist:
// (current display seconds, now). Stopping a stopped tracker just returns the
// current pair again, unchanged.
func (t *Tracker) Stop(now int64) (accumulated, checkpoint int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		t.running = false
		close(t.stop)
		t.stop = nil
	}
	return t.display, now
}

// Seed sets the display for a stopped tracker, used when attaching to an
// order whose timer is not running.
func (t *Tracker) Seed(accumulated int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.running {
		t.display = accumulated
	}
}

// DisplaySeconds returns the current readout.
func (t *Tracker) DisplaySeconds() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.display
}

// Running reports whether the tick is active.
func (t *Tracker) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

// Close tears the tick down; the tracker keeps its last display value.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.running {
		t.running = false
		close(t.stop)
		t.stop = nil
	}
}
