// Package scoring defines the contract for turning a normalized observation
// into a readmission probability. The model itself is an opaque, pre-trained
// artifact; this package only loads it and runs inference.
package scoring

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/okian/readmit/internal/domain/model"
)

// Default scoring configuration constants.
const (
	defaultThreshold = 0.5
)

// Pipeline scores one normalized observation. Implementations must be safe
// for concurrent use.
type Pipeline interface {
	// PredictProba returns the readmission probability in [0, 1], honoring
	// ctx for cancellation.
	PredictProba(ctx context.Context, obs model.Observation) (float64, error)

	// Predict returns the binary readmission label derived from
	// PredictProba and the decision threshold.
	Predict(ctx context.Context, obs model.Observation) (bool, error)
}

// Artifact is the on-disk shape of a trained coefficient model: one weight
// per feature column, an intercept, and the decision threshold. The feature
// list fixes the encoding order.
type Artifact struct {
	Features     []string  `json:"features"`
	Coefficients []float64 `json:"coefficients"`
	Intercept    float64   `json:"intercept"`
	Threshold    float64   `json:"threshold"`
}

// LoadArtifact reads and validates a coefficient artifact from disk.
func LoadArtifact(path string) (Artifact, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Artifact{}, fmt.Errorf("scoring: failed to read artifact: %w", err)
	}
	var a Artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return Artifact{}, fmt.Errorf("scoring: failed to parse artifact: %w", err)
	}
	if err := a.validate(); err != nil {
		return Artifact{}, err
	}
	return a, nil
}

func (a Artifact) validate() error {
	if len(a.Features) == 0 {
		return fmt.Errorf("scoring: artifact declares no features")
	}
	if len(a.Coefficients) != len(a.Features) {
		return fmt.Errorf("scoring: artifact has %d coefficients for %d features",
			len(a.Coefficients), len(a.Features))
	}
	if a.Threshold < 0 || a.Threshold > 1 {
		return fmt.Errorf("scoring: artifact threshold %v outside [0, 1]", a.Threshold)
	}
	return nil
}

// DefaultArtifact returns a small built-in model over the admission feature
// columns, used when no artifact path is configured (dev mode).
func DefaultArtifact() Artifact {
	features := FeatureColumns()
	coefficients := make([]float64, len(features))
	weights := map[string]float64{
		"time_in_hospital":  0.09,
		"number_inpatient":  0.25,
		"number_emergency":  0.18,
		"number_diagnoses":  0.07,
		"num_medications":   0.02,
		"insulin":           0.15,
		"diabetesMed":       0.12,
		"age":               0.008,
		"hemoglobin_level":  -0.02,
		"blood_transfusion": 0.20,
	}
	for i, name := range features {
		coefficients[i] = weights[name]
	}
	return Artifact{
		Features:     features,
		Coefficients: coefficients,
		Intercept:    -1.6,
		Threshold:    defaultThreshold,
	}
}

// Option applies a configuration option to the CoefficientPipeline.
type Option func(*CoefficientPipeline)

// WithThreshold overrides the artifact's decision threshold.
func WithThreshold(threshold float64) Option {
	return func(p *CoefficientPipeline) {
		if threshold > 0 && threshold < 1 {
			p.threshold = threshold
		}
	}
}

// CoefficientPipeline implements Pipeline with a logistic model over the
// encoded feature vector. It is immutable after construction.
type CoefficientPipeline struct {
	artifact  Artifact
	threshold float64
}

// New creates a pipeline from a validated artifact.
func New(artifact Artifact, opts ...Option) (*CoefficientPipeline, error) {
	if err := artifact.validate(); err != nil {
		return nil, err
	}
	p := &CoefficientPipeline{
		artifact:  artifact,
		threshold: artifact.Threshold,
	}
	if p.threshold == 0 {
		p.threshold = defaultThreshold
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// PredictProba computes the logistic probability for one observation.
func (p *CoefficientPipeline) PredictProba(ctx context.Context, obs model.Observation) (float64, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("scoring cancelled: %w", ctx.Err())
	default:
	}

	vector, err := Encode(obs, p.artifact.Features)
	if err != nil {
		return 0, err
	}

	z := p.artifact.Intercept
	for i, c := range p.artifact.Coefficients {
		z += c * float64(vector[i])
	}
	return sigmoid(z), nil
}

// Predict applies the decision threshold to PredictProba.
func (p *CoefficientPipeline) Predict(ctx context.Context, obs model.Observation) (bool, error) {
	proba, err := p.PredictProba(ctx, obs)
	if err != nil {
		return false, err
	}
	return proba >= p.threshold, nil
}

// Threshold returns the active decision threshold.
func (p *CoefficientPipeline) Threshold() float64 {
	return p.threshold
}

func sigmoid(z float64) float64 {
	return 1 / (1 + math.Exp(-z))
}
