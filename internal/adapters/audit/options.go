package audit

// QueueOption applies a configuration option to the InMemoryQueue.
type QueueOption func(*InMemoryQueue)

// WithCapacity sets the queue capacity. Entries enqueued beyond it are
// dropped.
func WithCapacity(capacity int) QueueOption {
	return func(q *InMemoryQueue) {
		if capacity > 0 {
			q.capacity = capacity
		}
	}
}

// RecorderOption applies a configuration option to the Recorder.
type RecorderOption func(*Recorder)

// WithWorkers sets the number of drain workers.
func WithWorkers(n int) RecorderOption {
	return func(r *Recorder) {
		if n > 0 {
			r.workerCount = n
		}
	}
}
