package assistant

import (
	"sync"
	"time"
)

// deduper is the process-local duplicate suppressor for platform event
// retries. It is best-effort: entries expire after a window, and separate
// process instances do not share it. Correctness against duplicates comes
// from the log's status transitions, not from this set.
type deduper struct {
	mu     sync.Mutex
	window time.Duration
	now    func() time.Time
	seen   map[string]time.Time
}

func newDeduper(window time.Duration, now func() time.Time) *deduper {
	return &deduper{
		window: window,
		now:    now,
		seen:   map[string]time.Time{},
	}
}

// Seen records id and reports whether it was already present within the
// window. Expired entries are pruned on each call; the set stays small at
// single-user event rates.
func (d *deduper) Seen(id string) bool {
	if id == "" {
		return false
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.now()
	for k, t := range d.seen {
		if now.Sub(t) > d.window {
			delete(d.seen, k)
		}
	}
	if _, ok := d.seen[id]; ok {
		return true
	}
	d.seen[id] = now
	return false
}
