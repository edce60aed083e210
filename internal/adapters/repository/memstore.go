package repository

import (
	"context"
	"sync"
	"time"

	"github.com/okian/readmit/internal/domain/model"
	"github.com/okian/readmit/pkg/metrics"
)

// MemStore is an in-memory Store implementation keyed by admission ID.
// It is the dev-mode default; production deployments use SQLiteStore.
type MemStore struct {
	mu      sync.RWMutex
	records map[int64]model.PredictionRecord

	metricsUpdateInterval time.Duration
	stopChan              chan struct{}
	stopOnce              sync.Once
	wg                    sync.WaitGroup
}

// NewMemStore creates an in-memory store and starts its background metrics
// updater. The updater stops when ctx is cancelled or Close is called.
func NewMemStore(ctx context.Context, opts ...Option) *MemStore {
	s := &MemStore{
		records:               make(map[int64]model.PredictionRecord),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.startMetricsUpdater(ctx)

	return s
}

// Save persists a new prediction record.
func (s *MemStore) Save(ctx context.Context, rec model.PredictionRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.AdmissionID]; exists {
		return ErrDuplicateID
	}
	s.records[rec.AdmissionID] = rec
	return nil
}

// GetByID returns the record for an admission ID.
func (s *MemStore) GetByID(ctx context.Context, id int64) (model.PredictionRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[id]
	if !exists {
		return model.PredictionRecord{}, ErrNotFound
	}
	return rec, nil
}

// SetLabel records the ground-truth label for an admission.
func (s *MemStore) SetLabel(ctx context.Context, id int64, label bool) (model.PredictionRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, exists := s.records[id]
	if !exists {
		return model.PredictionRecord{}, ErrNotFound
	}
	rec.Label = &label
	rec.UpdatedAt = time.Now().UTC()
	s.records[id] = rec
	return rec, nil
}

// Count returns the number of stored records.
func (s *MemStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Close stops the background metrics updater.
func (s *MemStore) Close() error {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.wg.Wait()
	return nil
}

// startMetricsUpdater starts a background goroutine that publishes the
// record count at the configured interval.
func (s *MemStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateRecordsTotal(s.Count(ctx))
			}
		}
	}()
}
