// Package model contains domain models passed between layers.
package model

// Observation is one inbound JSON payload describing a hospital admission
// candidate for prediction. Values arrive loosely typed (json.Number, string,
// bool, nil) and are rewritten in place to their canonical forms by the
// validation pipeline. Unrecognized keys survive validation untouched; they
// only ever trigger a warning.
type Observation map[string]any

// AdmissionID returns the admission identifier if present in canonical form.
func (o Observation) AdmissionID() (int64, bool) {
	v, ok := o["admission_id"].(int64)
	return v, ok
}

// Clone returns a shallow copy of the observation. Useful for callers that
// need to keep the raw values after the pipeline has normalized in place.
func (o Observation) Clone() Observation {
	c := make(Observation, len(o))
	for k, v := range o {
		c[k] = v
	}
	return c
}
