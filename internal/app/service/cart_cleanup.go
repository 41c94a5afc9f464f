package service

import (
	"sync"
	"time"
)

// cleanupRegistry tracks one cancellable deferred-deletion timer per cart
// line. Scheduling twice for the same line replaces the previous timer;
// cancelling a line that has no timer is a no-op, so deletion and timer
// firing can race without error (the end state is "deleted" either way).
// Timers are in-process only; the cron retention sweep is the backstop for
// timers lost across restarts.
type cleanupRegistry struct {
	mu     sync.Mutex
	timers map[uint]*time.Timer
}

func newCleanupRegistry() *cleanupRegistry {
	return &cleanupRegistry{
		timers: make(map[uint]*time.Timer),
	}
}

// schedule arms (or re-arms) the deletion timer for a cart line
func (r *cleanupRegistry) schedule(cartItemID uint, after time.Duration, fn func()) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if timer, ok := r.timers[cartItemID]; ok {
		timer.Stop()
	}
	r.timers[cartItemID] = time.AfterFunc(after, func() {
		r.cancel(cartItemID)
		fn()
	})
}

// cancel disarms the timer for a cart line, if any
func (r *cleanupRegistry) cancel(cartItemID uint) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if timer, ok := r.timers[cartItemID]; ok {
		timer.Stop()
		delete(r.timers, cartItemID)
	}
}

// stop disarms every pending timer (shutdown path)
func (r *cleanupRegistry) stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, timer := range r.timers {
		timer.Stop()
		delete(r.timers, id)
	}
}
