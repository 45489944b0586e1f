package feed

import (
	"slices"
	"sort"
	"time"
)

// Stamped is a value ordered by its timestamp.
type Stamped interface {
	At() time.Time
}

// History is a bounded, time-ascending buffer of readings. On overflow the
// oldest entry is evicted. It is not safe for concurrent use; the owning feed
// serializes access.
type History[T Stamped] struct {
	items    []T
	capacity int
}

// NewHistory returns an empty history holding at most capacity entries.
func NewHistory[T Stamped](capacity int) *History[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &History[T]{
		items:    make([]T, 0, capacity),
		capacity: capacity,
	}
}

// Append adds v as the newest entry.
func (h *History[T]) Append(v T) {
	h.items = append(h.items, v)
	h.evict()
}

// Insert places v in timestamp order. It returns false and leaves the history
// unchanged when an entry with the same timestamp already exists, or when v is
// older than everything in a full buffer and would be evicted straight away.
func (h *History[T]) Insert(v T) bool {
	ts := v.At()
	i := sort.Search(len(h.items), func(i int) bool {
		return !h.items[i].At().Before(ts)
	})
	if i < len(h.items) && h.items[i].At().Equal(ts) {
		return false
	}
	if i == 0 && len(h.items) == h.capacity {
		return false
	}
	h.items = slices.Insert(h.items, i, v)
	h.evict()
	return true
}

// Contains reports whether an entry with timestamp ts exists.
func (h *History[T]) Contains(ts time.Time) bool {
	i := sort.Search(len(h.items), func(i int) bool {
		return !h.items[i].At().Before(ts)
	})
	return i < len(h.items) && h.items[i].At().Equal(ts)
}

// Latest returns the newest entry.
func (h *History[T]) Latest() (T, bool) {
	if len(h.items) == 0 {
		var zero T
		return zero, false
	}
	return h.items[len(h.items)-1], true
}

// Snapshot returns a copy of the entries, oldest first. Never nil.
func (h *History[T]) Snapshot() []T {
	out := make([]T, len(h.items))
	copy(out, h.items)
	return out
}

func (h *History[T]) Len() int { return len(h.items) }

func (h *History[T]) Cap() int { return h.capacity }

// Reset drops every entry.
func (h *History[T]) Reset() {
	clear(h.items)
	h.items = h.items[:0]
}

func (h *History[T]) evict() {
	over := len(h.items) - h.capacity
	if over <= 0 {
		return
	}
	n := copy(h.items, h.items[over:])
	clear(h.items[n:])
	h.items = h.items[:n]
}
