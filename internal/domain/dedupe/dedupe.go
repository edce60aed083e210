// Package dedupe defines the interface for admission ID idempotency tracking.
package dedupe

import (
	"context"
	"sync"
	"sync/atomic"
)

// Deduper records seen admission IDs so a duplicate request can be refused
// before it reaches the store.
type Deduper interface {
	// SeenAndRecord atomically checks if id was seen and records it if not.
	// Returns true if id was already seen, false if it was newly recorded.
	// This is the ONLY method for deduplication - thread-safe and atomic.
	SeenAndRecord(ctx context.Context, id int64) bool

	// Unrecord removes an ID from the seen list, allowing it to be retried.
	// This should only be used when an ID was marked as seen but the
	// prediction failed to be persisted.
	Unrecord(ctx context.Context, id int64)

	Size() int64
}

// inMemoryDeduper implements Deduper with a map guarded by a mutex.
// For bounded mode (maxSize > 0): a FIFO ring evicts the oldest ID when full.
// For unbounded mode (maxSize <= 0): plain map, no eviction, no size limit.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[int64]struct{}
	ring    []int64 // insertion order, bounded mode only
	next    int     // ring write cursor
	filled  bool    // ring has wrapped at least once
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a new in-memory deduper with configuration options.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: 50000, // default max size
	}

	for _, opt := range opts {
		opt(d)
	}

	d.seen = make(map[int64]struct{})
	if d.maxSize > 0 {
		d.ring = make([]int64, d.maxSize)
	}

	return d
}

// SeenAndRecord atomically checks if id was seen and records it if not.
// Returns true if id was already seen, false if it was newly recorded.
func (d *inMemoryDeduper) SeenAndRecord(ctx context.Context, id int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		return true
	}

	if d.maxSize > 0 {
		// Evict the oldest slot once the ring has wrapped.
		if d.filled {
			old := d.ring[d.next]
			if _, exists := d.seen[old]; exists {
				delete(d.seen, old)
				d.size.Add(-1)
			}
		}
		d.ring[d.next] = id
		d.next++
		if d.next == d.maxSize {
			d.next = 0
			d.filled = true
		}
	}

	d.seen[id] = struct{}{}
	d.size.Add(1)
	return false
}

// Unrecord removes an ID from the seen list, allowing it to be retried.
// In bounded mode the ring slot is left in place; eviction tolerates slots
// whose ID is no longer in the map.
func (d *inMemoryDeduper) Unrecord(ctx context.Context, id int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, exists := d.seen[id]; exists {
		delete(d.seen, id)
		d.size.Add(-1)
	}
}

// Size returns the current number of tracked IDs.
func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
