package audit

import (
	"context"
	"fmt"
	"time"

	"github.com/okian/readmit/pkg/logger"
	"github.com/okian/readmit/pkg/metrics"
)

// Default recorder configuration constants.
const (
	defaultWorkerCount      = 2
	recorderShutdownTimeout = 10 * time.Second
)

// Recorder drains the audit queue into a sink with a small worker pool.
type Recorder struct {
	queue Queue
	sink  Sink

	workerCount int

	// Shutdown control
	shutdown chan struct{}
	done     []chan struct{}

	logger logger.Logger
}

// NewRecorder creates a recorder with configuration options.
func NewRecorder(queue Queue, sink Sink, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		queue:       queue,
		sink:        sink,
		workerCount: defaultWorkerCount,
		shutdown:    make(chan struct{}),
		logger:      logger.Get().Named("audit"),
	}

	for _, opt := range opts {
		opt(r)
	}

	r.done = make([]chan struct{}, r.workerCount)
	for i := range r.done {
		r.done[i] = make(chan struct{})
	}

	return r
}

// Record enqueues one entry. Dropped entries are logged at debug level so a
// saturated trail never slows the request path down.
func (r *Recorder) Record(ctx context.Context, e Entry) {
	if !r.queue.Enqueue(ctx, e) {
		r.logger.Debug(ctx, "audit entry dropped",
			logger.Int64("admission_id", e.AdmissionID),
			logger.String("action", e.Action),
		)
	}
}

// Start launches the drain workers. They run until the queue closes, the
// recorder shuts down, or ctx is cancelled.
func (r *Recorder) Start(ctx context.Context) {
	for i := 0; i < r.workerCount; i++ {
		go r.run(ctx, i)
	}
}

func (r *Recorder) run(ctx context.Context, id int) {
	defer close(r.done[id])

	entryChan := r.queue.Dequeue(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-r.shutdown:
			return
		case entry, ok := <-entryChan:
			if !ok {
				return
			}
			if err := r.sink.Write(ctx, entry); err != nil {
				metrics.RecordAuditWriteError()
				r.logger.Error(ctx, "audit write failed",
					logger.Int64("admission_id", entry.AdmissionID),
					logger.Error(err),
				)
				continue
			}
			metrics.RecordAuditWritten()
		}
	}
}

// Shutdown closes the queue, waits for the workers to drain, and closes the
// sink.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if err := r.queue.Close(); err != nil {
		r.logger.Error(ctx, "error closing audit queue", logger.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, recorderShutdownTimeout)
	defer cancel()

	for i, done := range r.done {
		select {
		case <-done:
		case <-shutdownCtx.Done():
			r.logger.Warn(ctx, "audit worker shutdown timed out", logger.Int("worker_id", i))
		}
	}

	close(r.shutdown)

	if err := r.sink.Close(); err != nil {
		return fmt.Errorf("failed to close audit sink: %w", err)
	}
	return nil
}
