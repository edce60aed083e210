// Package validate implements the request validation and normalization
// engine: column-set checking, type coercion, and value-domain validation,
// run in a fixed order over one observation at a time.
//
// The pipeline is synchronous and side-effect-free apart from rewriting the
// observation's values in place to their canonical forms. It holds no
// external resources, so an abandoned validation needs no cleanup.
package validate

import (
	"github.com/okian/readmit/internal/domain/field"
	"github.com/okian/readmit/internal/domain/model"
)

// Status is the terminal state of one validation run.
type Status int

const (
	// Accepted means every check passed and the observation is normalized.
	Accepted Status = iota
	// AcceptedWithWarning means scoring may proceed but unrecognized extra
	// columns were present.
	AcceptedWithWarning
	// Rejected means a hard failure stopped the pipeline; Err names the
	// first offending field.
	Rejected
)

// Verdict is the single structured result of running the full pipeline over
// one observation. Exactly one variant holds: Accepted and
// AcceptedWithWarning carry the normalized observation, Rejected carries the
// first field error.
type Verdict struct {
	Status      Status
	Observation model.Observation // normalized; nil when rejected
	Warning     string            // set only for AcceptedWithWarning
	Err         *FieldError       // set only for Rejected
}

// Orchestrator runs the validation pipeline against one registry. It is
// immutable after construction and safe for concurrent use.
type Orchestrator struct {
	registry *field.Registry
}

// New creates an orchestrator bound to a registry.
func New(registry *field.Registry) *Orchestrator {
	return &Orchestrator{registry: registry}
}

// Run validates and normalizes one observation.
//
// Order is fixed: the column-set check first, then per-field coercion and
// domain validation in registry declaration order. The first hard failure
// short-circuits; errors are never aggregated across fields. An
// unrecognized-columns warning is recorded at the column check and carried
// to the eventual success verdict, but a missing-columns failure always
// takes precedence over it.
func (o *Orchestrator) Run(obs model.Observation) Verdict {
	cols := CheckColumns(obs, o.registry)
	if len(cols.Missing) > 0 {
		return Verdict{Status: Rejected, Err: cols.MissingError()}
	}

	var warning string
	if len(cols.Unrecognized) > 0 {
		warning = cols.WarningText()
	}

	for _, spec := range o.registry.Specs() {
		raw, present := obs[spec.Name]
		if !present {
			// Only optional fields can reach here; absence is not an error.
			continue
		}
		if isAbsent(raw) {
			if spec.Identifier {
				// Identifier fields key the stored record; a null or empty
				// value has no missing-at-encoding fallback.
				return Verdict{Status: Rejected, Err: absentValueError(spec.Name)}
			}
			// A present field without a value passes as-is; the feature
			// encoder treats it as missing.
			continue
		}

		coerced, err := Coerce(spec, raw)
		if err != nil {
			return Verdict{Status: Rejected, Err: err}
		}
		if err := ValidateDomain(spec, coerced); err != nil {
			return Verdict{Status: Rejected, Err: err}
		}
		obs[spec.Name] = coerced
	}

	if warning != "" {
		return Verdict{Status: AcceptedWithWarning, Observation: obs, Warning: warning}
	}
	return Verdict{Status: Accepted, Observation: obs}
}
