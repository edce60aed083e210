package audit

import (
	"context"
	"sync"

	"github.com/okian/readmit/pkg/metrics"
)

// Default queue configuration constants.
const (
	defaultQueueCapacity = 10000
)

// Queue provides non-blocking enqueue and channel-based dequeue semantics
// for audit entries.
type Queue interface {
	// Enqueue adds an entry to the queue.
	// Returns false if the queue is full and the entry was dropped.
	Enqueue(ctx context.Context, e Entry) bool

	// Dequeue returns a channel that will receive entries as they become
	// available. The channel is closed when the queue is closed.
	Dequeue(ctx context.Context) <-chan Entry

	// Len returns the current number of queued entries.
	Len(ctx context.Context) int

	// Close gracefully shuts down the queue.
	// After closing, no new entries can be enqueued and the dequeue channel
	// will be closed.
	Close() error

	// IsClosed returns true if the queue has been closed.
	IsClosed() bool
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	entries  chan Entry
	capacity int
	mu       sync.RWMutex
	closed   bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...QueueOption) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultQueueCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.entries = make(chan Entry, q.capacity)

	metrics.UpdateAuditQueueCapacity(q.capacity)
	metrics.UpdateAuditQueueSize(0)

	return q
}

// Enqueue adds an entry to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, e Entry) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordAuditDropped()
		return false
	}

	select {
	case q.entries <- e:
		metrics.UpdateAuditQueueSize(len(q.entries))
		return true
	case <-ctx.Done():
		metrics.RecordAuditDropped()
		return false
	default:
		metrics.RecordAuditDropped()
		return false // queue is full
	}
}

// Dequeue returns a channel that will receive entries as they become available.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Entry {
	out := make(chan Entry)
	go func() {
		defer close(out)
		for entry := range q.entries {
			select {
			case out <- entry:
				metrics.UpdateAuditQueueSize(len(q.entries))
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued entries.
func (q *InMemoryQueue) Len(ctx context.Context) int {
	size := len(q.entries)
	metrics.UpdateAuditQueueSize(size)
	return size
}

// Close gracefully shuts down the queue.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil // already closed
	}

	close(q.entries)
	q.closed = true

	return nil
}

// IsClosed returns true if the queue has been closed.
func (q *InMemoryQueue) IsClosed() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.closed
}
