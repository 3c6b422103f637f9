// Package stream keeps a live calibration window over an incoming score
// stream, so that a conformal threshold can be recomputed as labeled outcomes
// arrive. The window is bounded in size and optionally in age.
package stream

import (
	"sync"
	"time"

	"github.com/danibene/puncc/calibrate"
)

// entry is one scored outcome in the window.
type entry struct {
	score float64
	at    time.Time
}

// Window is a bounded calibration score collection with FIFO eviction and
// optional age-based expiry. It is safe for concurrent producers and readers.
type Window struct {
	mu       sync.RWMutex
	capacity int
	maxAge   time.Duration
	entries  []entry
	now      func() time.Time
}

// NewWindow creates a window keeping up to capacity scores.
// A non-positive capacity defaults to 1000 scores.
// A positive maxAge additionally expires scores older than that.
func NewWindow(capacity int, maxAge time.Duration) *Window {
	if capacity <= 0 {
		capacity = 1000
	}
	return &Window{
		capacity: capacity,
		maxAge:   maxAge,
		entries:  make([]entry, 0, capacity),
		now:      time.Now,
	}
}

// Push adds a score, evicting the oldest entry when over capacity and
// dropping entries beyond the age limit.
func (w *Window) Push(score float64) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.entries = append(w.entries, entry{score: score, at: w.now()})
	if len(w.entries) > w.capacity {
		w.entries = w.entries[1:]
	}
	w.prune()
}

// prune drops expired entries. Callers must hold the write lock.
func (w *Window) prune() {
	if w.maxAge <= 0 {
		return
	}
	cutoff := w.now().Add(-w.maxAge)
	kept := w.entries[:0]
	for _, e := range w.entries {
		if e.at.After(cutoff) {
			kept = append(kept, e)
		}
	}
	w.entries = kept
}

// Len returns the number of live scores.
func (w *Window) Len() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return len(w.live())
}

// Scores returns a copy of the live scores in arrival order.
func (w *Window) Scores() []float64 {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.scores()
}

// Threshold computes the conformal threshold over the live window.
// It carries the same degenerate semantics as calibrate.Quantile : an empty
// window or an out-of-range alpha is a configuration error, a window too
// small for the requested alpha yields a flagged +Inf threshold.
func (w *Window) Threshold(alpha float64) (calibrate.Threshold, error) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return calibrate.Quantile(w.scores(), alpha)
}

// Stats summarizes the live scores.
func (w *Window) Stats() *Stats {
	w.mu.RLock()
	defer w.mu.RUnlock()

	stats := NewStats()
	for _, e := range w.live() {
		stats.Push(e.score)
	}
	return stats
}

// live filters expired entries without mutating the window, so that read
// paths stay consistent between pushes. Callers must hold a lock.
func (w *Window) live() []entry {
	if w.maxAge <= 0 {
		return w.entries
	}
	cutoff := w.now().Add(-w.maxAge)
	live := make([]entry, 0, len(w.entries))
	for _, e := range w.entries {
		if e.at.After(cutoff) {
			live = append(live, e)
		}
	}
	return live
}

func (w *Window) scores() []float64 {
	live := w.live()
	scores := make([]float64, len(live))
	for i, e := range live {
		scores[i] = e.score
	}
	return scores
}
