// Package service provides the core business service that implements
// the dependencies required by the HTTP API.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/okian/readmit/internal/adapters/audit"
	"github.com/okian/readmit/internal/adapters/repository"
	"github.com/okian/readmit/internal/config"
	"github.com/okian/readmit/internal/domain/dedupe"
	"github.com/okian/readmit/internal/domain/field"
	"github.com/okian/readmit/internal/domain/model"
	"github.com/okian/readmit/internal/domain/scoring"
	"github.com/okian/readmit/internal/domain/validate"
	"github.com/okian/readmit/pkg/logger"
	"github.com/okian/readmit/pkg/metrics"
)

// PredictResult is the outcome of scoring one admission.
type PredictResult struct {
	AdmissionID int64
	Label       string // "Yes" or "No"
	Proba       float64
	Warning     string
}

// UpdateResult is the outcome of recording a ground-truth label.
type UpdateResult struct {
	AdmissionID    int64
	ActualLabel    string // "Yes" or "No"
	PredictedLabel string
}

// Service implements the API dependencies for the readmission system.
type Service struct {
	mu sync.RWMutex

	// Core components
	store         repository.Store
	deduper       dedupe.Deduper
	pipeline      scoring.Pipeline
	predictOrch   *validate.Orchestrator
	updateOrch    *validate.Orchestrator
	auditQueue    *audit.InMemoryQueue
	auditRecorder *audit.Recorder
	auditSink     audit.Sink

	// Configuration
	dbPath         string
	auditDBPath    string
	modelPath      string
	modelKind      string
	threshold      float64
	dedupeSize     int
	auditQueueSize int
	auditWorkers   int

	// State
	started bool

	// Logging
	logger logger.Logger
}

// Option applies a configuration option to the Service.
type Option func(*Service)

// WithDBPath sets the prediction database path. Empty selects the in-memory
// store.
func WithDBPath(path string) Option {
	return func(s *Service) {
		s.dbPath = path
	}
}

// WithAuditDBPath sets the audit trail database path. Empty routes the trail
// to the structured log.
func WithAuditDBPath(path string) Option {
	return func(s *Service) {
		s.auditDBPath = path
	}
}

// WithModelPath sets the scoring artifact path.
func WithModelPath(path string) Option {
	return func(s *Service) {
		s.modelPath = path
	}
}

// WithModelKind selects the scoring backend.
func WithModelKind(kind string) Option {
	return func(s *Service) {
		if kind != "" {
			s.modelKind = kind
		}
	}
}

// WithThreshold overrides the decision threshold.
func WithThreshold(threshold float64) Option {
	return func(s *Service) {
		if threshold > 0 && threshold < 1 {
			s.threshold = threshold
		}
	}
}

// WithDedupeSize sets the size of the duplicate admission ID cache.
func WithDedupeSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.dedupeSize = size
		}
	}
}

// WithAuditQueueSize bounds the audit queue.
func WithAuditQueueSize(size int) Option {
	return func(s *Service) {
		if size > 0 {
			s.auditQueueSize = size
		}
	}
}

// WithAuditWorkers sets the number of audit drain workers.
func WithAuditWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.auditWorkers = n
		}
	}
}

// WithLogger sets a custom logger for the service.
func WithLogger(l logger.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithPipeline injects a pre-built scoring pipeline, bypassing artifact
// loading. Used by tests.
func WithPipeline(p scoring.Pipeline) Option {
	return func(s *Service) {
		s.pipeline = p
	}
}

// WithStore injects a pre-built record store. Used by tests.
func WithStore(store repository.Store) Option {
	return func(s *Service) {
		s.store = store
	}
}

// WithAuditSink injects a pre-built audit sink, bypassing path-based sink
// selection. Used by tests.
func WithAuditSink(sink audit.Sink) Option {
	return func(s *Service) {
		s.auditSink = sink
	}
}

// New constructs a new Service with default configuration.
func New(opts ...Option) *Service {
	s := &Service{
		modelKind:      config.ModelKindCoefficients,
		dedupeSize:     500_000,
		auditQueueSize: 10_000,
		auditWorkers:   2,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Start initializes and starts the service components.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}

	if s.logger == nil {
		s.logger = logger.Get().Named("service")
	}

	s.logger.Info(ctx, "starting readmission service...")

	if s.store == nil {
		if s.dbPath != "" {
			store, err := repository.NewSQLiteStore(s.dbPath)
			if err != nil {
				return fmt.Errorf("failed to open prediction store: %w", err)
			}
			s.store = store
			s.logger.Info(ctx, "using sqlite store", logger.String("path", s.dbPath))
		} else {
			s.store = repository.NewMemStore(ctx)
			s.logger.Info(ctx, "using in-memory store")
		}
	}

	s.deduper = dedupe.NewInMemoryDeduper(
		dedupe.WithMaxSize(s.dedupeSize),
	)

	if s.pipeline == nil {
		pipeline, err := s.buildPipeline()
		if err != nil {
			return err
		}
		s.pipeline = pipeline
	}

	s.predictOrch = validate.New(field.Predict())
	s.updateOrch = validate.New(field.Update())

	if s.auditSink == nil {
		sink, err := s.buildAuditSink()
		if err != nil {
			return err
		}
		s.auditSink = sink
	}
	s.auditQueue = audit.NewInMemoryQueue(audit.WithCapacity(s.auditQueueSize))
	s.auditRecorder = audit.NewRecorder(s.auditQueue, s.auditSink, audit.WithWorkers(s.auditWorkers))
	s.auditRecorder.Start(ctx)

	s.started = true
	s.logger.Info(ctx, "readmission service started",
		logger.String("model_kind", s.modelKind),
		logger.Int("dedupe_size", s.dedupeSize),
		logger.Int("audit_queue_size", s.auditQueueSize),
	)

	return nil
}

func (s *Service) buildPipeline() (scoring.Pipeline, error) {
	switch s.modelKind {
	case config.ModelKindONNX:
		pipeline, err := scoring.NewONNX(s.modelPath, scoring.FeatureColumns(), s.threshold)
		if err != nil {
			return nil, fmt.Errorf("failed to load onnx model: %w", err)
		}
		return pipeline, nil
	default:
		artifact := scoring.DefaultArtifact()
		if s.modelPath != "" {
			loaded, err := scoring.LoadArtifact(s.modelPath)
			if err != nil {
				return nil, fmt.Errorf("failed to load model artifact: %w", err)
			}
			artifact = loaded
		}
		var opts []scoring.Option
		if s.threshold > 0 {
			opts = append(opts, scoring.WithThreshold(s.threshold))
		}
		pipeline, err := scoring.New(artifact, opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to build scoring pipeline: %w", err)
		}
		return pipeline, nil
	}
}

func (s *Service) buildAuditSink() (audit.Sink, error) {
	if s.auditDBPath == "" {
		return audit.NewLoggerSink(), nil
	}
	sink, err := audit.NewSQLiteSink(s.auditDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit sink: %w", err)
	}
	return sink, nil
}

// Stop gracefully shuts down the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}

	ctx := context.Background()
	s.logger.Info(ctx, "stopping readmission service...")

	if s.auditRecorder != nil {
		if err := s.auditRecorder.Shutdown(ctx); err != nil {
			s.logger.Error(ctx, "audit shutdown failed", logger.Error(err))
		}
		// Shutdown closed the sink; a later Start must build a fresh one.
		s.auditSink = nil
	}

	if s.store != nil {
		_ = s.store.Close()
	}

	if closer, ok := s.pipeline.(interface{ Close() error }); ok {
		_ = closer.Close()
	}

	s.started = false
	s.logger.Info(ctx, "readmission service stopped")
}

// Predict validates, scores, and persists one admission observation.
// The returned error is one of: *validate.FieldError (rejected input),
// *DuplicateError (admission already scored), or an internal failure.
func (s *Service) Predict(ctx context.Context, obs model.Observation) (PredictResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return PredictResult{}, ErrNotStarted
	}

	validateStart := time.Now()
	verdict := s.predictOrch.Run(obs)
	metrics.RecordValidationLatency(float64(time.Since(validateStart).Microseconds()) / 1000.0)

	if verdict.Status == validate.Rejected {
		metrics.RecordValidationFailure(verdict.Err.Field, verdict.Err.Reason())
		id, _ := obs.AdmissionID()
		s.audit(ctx, id, audit.ActionPredict, audit.OutcomeRejected, verdict.Err.Error(),
			obs, map[string]any{"error": verdict.Err.Error()})
		return PredictResult{}, verdict.Err
	}
	if verdict.Status == validate.AcceptedWithWarning {
		metrics.RecordValidationWarning()
	}

	normalized := verdict.Observation
	id, ok := normalized.AdmissionID()
	if !ok {
		// admission_id is an identifier field: the orchestrator rejects a
		// missing, null, or empty value before the verdict can be accepted.
		return PredictResult{}, fmt.Errorf("accepted observation missing admission_id")
	}

	if s.deduper.SeenAndRecord(ctx, id) {
		metrics.RecordDuplicateRequest()
		dup := &DuplicateError{AdmissionID: id}
		s.audit(ctx, id, audit.ActionPredict, audit.OutcomeDuplicate, "",
			normalized, map[string]any{"error": dup.Error()})
		return PredictResult{}, dup
	}

	scoreStart := time.Now()
	proba, err := s.pipeline.PredictProba(ctx, normalized)
	metrics.RecordScoringLatency(float64(time.Since(scoreStart).Microseconds()) / 1000.0)
	if err != nil {
		s.deduper.Unrecord(ctx, id)
		metrics.RecordErrorByComponent("scoring", "inference_error")
		s.logger.Error(ctx, "scoring failed",
			logger.Int64("admission_id", id),
			logger.Error(err),
		)
		return PredictResult{}, fmt.Errorf("scoring failed: %w", err)
	}
	predicted := proba >= s.decisionThreshold()

	raw, err := json.Marshal(normalized)
	if err != nil {
		s.deduper.Unrecord(ctx, id)
		return PredictResult{}, fmt.Errorf("failed to serialize observation: %w", err)
	}

	now := time.Now().UTC()
	rec := model.PredictionRecord{
		AdmissionID: id,
		Observation: string(raw),
		Predicted:   predicted,
		Proba:       proba,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Save(ctx, rec); err != nil {
		if errors.Is(err, repository.ErrDuplicateID) {
			// The store is the durable authority; a fresh deduper after a
			// restart may miss IDs the database still knows.
			metrics.RecordDuplicateRequest()
			dup := &DuplicateError{AdmissionID: id}
			s.audit(ctx, id, audit.ActionPredict, audit.OutcomeDuplicate, "",
				normalized, map[string]any{"error": dup.Error()})
			return PredictResult{}, dup
		}
		s.deduper.Unrecord(ctx, id)
		metrics.RecordErrorByComponent("store", "write_error")
		s.logger.Error(ctx, "failed to persist prediction",
			logger.Int64("admission_id", id),
			logger.Error(err),
		)
		return PredictResult{}, fmt.Errorf("failed to persist prediction: %w", err)
	}

	label := model.LabelString(predicted)
	metrics.RecordPrediction(label, proba)

	outcome := audit.OutcomeAccepted
	if verdict.Warning != "" {
		outcome = audit.OutcomeWarning
	}
	response := map[string]any{"readmitted": label}
	if verdict.Warning != "" {
		response["warning"] = verdict.Warning
	}
	s.audit(ctx, id, audit.ActionPredict, outcome, verdict.Warning, normalized, response)

	return PredictResult{
		AdmissionID: id,
		Label:       label,
		Proba:       proba,
		Warning:     verdict.Warning,
	}, nil
}

// Update validates and records a ground-truth readmission label.
// The returned error is one of: *validate.FieldError (rejected input),
// *NotFoundError (admission never scored), or an internal failure.
func (s *Service) Update(ctx context.Context, obs model.Observation) (UpdateResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.started {
		return UpdateResult{}, ErrNotStarted
	}

	verdict := s.updateOrch.Run(obs)
	if verdict.Status == validate.Rejected {
		metrics.RecordValidationFailure(verdict.Err.Field, verdict.Err.Reason())
		id, _ := obs.AdmissionID()
		s.audit(ctx, id, audit.ActionUpdate, audit.OutcomeRejected, verdict.Err.Error(),
			obs, map[string]any{"error": verdict.Err.Error()})
		return UpdateResult{}, verdict.Err
	}

	normalized := verdict.Observation
	id, ok := normalized.AdmissionID()
	if !ok {
		// admission_id is an identifier field; see Predict.
		return UpdateResult{}, fmt.Errorf("accepted update missing admission_id")
	}
	label := normalized["readmitted"] == "yes"

	rec, err := s.store.SetLabel(ctx, id, label)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			metrics.RecordUpdateNotFound()
			notFound := &NotFoundError{AdmissionID: id}
			s.audit(ctx, id, audit.ActionUpdate, audit.OutcomeNotFound, "",
				normalized, map[string]any{"error": notFound.Error()})
			return UpdateResult{}, notFound
		}
		metrics.RecordErrorByComponent("store", "write_error")
		return UpdateResult{}, fmt.Errorf("failed to record label: %w", err)
	}

	actual := model.LabelString(label)
	predicted := model.LabelString(rec.Predicted)
	metrics.RecordLabelUpdated()
	s.audit(ctx, id, audit.ActionUpdate, audit.OutcomeUpdated, "", normalized, map[string]any{
		"admission_id":         id,
		"actual_readmitted":    actual,
		"predicted_readmitted": predicted,
	})

	return UpdateResult{
		AdmissionID:    id,
		ActualLabel:    actual,
		PredictedLabel: predicted,
	}, nil
}

func (s *Service) decisionThreshold() float64 {
	if t, ok := s.pipeline.(interface{ Threshold() float64 }); ok {
		return t.Threshold()
	}
	if s.threshold > 0 {
		return s.threshold
	}
	return 0.5
}

// audit records one request/response pair on the trail. The observation is
// serialized as received (possibly part-normalized when validation stopped
// midway); marshal failures drop the payload, never the entry.
func (s *Service) audit(ctx context.Context, admissionID int64, action, outcome, detail string, obs model.Observation, response any) {
	if s.auditRecorder == nil {
		return
	}

	opts := make([]audit.EntryOption, 0, 2)
	if obs != nil {
		if raw, err := json.Marshal(obs); err == nil {
			opts = append(opts, audit.WithRequest(raw))
		}
	}
	if response != nil {
		if raw, err := json.Marshal(response); err == nil {
			opts = append(opts, audit.WithResponse(raw))
		}
	}

	s.auditRecorder.Record(ctx, audit.NewEntry(admissionID, action, outcome, detail, opts...))
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":     s.started,
		"model_kind":  s.modelKind,
		"dedupe_size": s.dedupeSize,
	}

	if s.started {
		ctx := context.Background()
		total := s.store.Count(ctx)
		stats["total_records"] = total
		stats["audit_queue_length"] = s.auditQueue.Len(ctx)
		stats["tracked_ids"] = s.deduper.Size()

		metrics.UpdateRecordsTotal(total)
	}

	return stats
}
