// Package audit records an asynchronous trail of prediction and label
// update outcomes. Entries flow through a bounded in-memory queue into a
// sink; when the queue is full, entries are dropped rather than blocking
// the request path.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Actions recorded in the trail.
const (
	ActionPredict = "predict"
	ActionUpdate  = "update"
)

// Outcomes recorded in the trail.
const (
	OutcomeAccepted  = "accepted"
	OutcomeWarning   = "accepted_with_warning"
	OutcomeRejected  = "rejected"
	OutcomeDuplicate = "duplicate"
	OutcomeUpdated   = "updated"
	OutcomeNotFound  = "not_found"
)

// Entry is one audit trail record. Request and Response carry the JSON
// payloads of the originating call so the trail can reconstruct what was
// asked and what was answered.
type Entry struct {
	ID          string    `json:"id"`
	AdmissionID int64     `json:"admission_id"`
	Action      string    `json:"action"`
	Outcome     string    `json:"outcome"`
	Detail      string    `json:"detail,omitempty"`
	Request     string    `json:"request,omitempty"`
	Response    string    `json:"response,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// EntryOption attaches optional payloads to a new entry.
type EntryOption func(*Entry)

// WithRequest attaches the inbound request payload.
func WithRequest(payload []byte) EntryOption {
	return func(e *Entry) {
		e.Request = string(payload)
	}
}

// WithResponse attaches the outbound response payload.
func WithResponse(payload []byte) EntryOption {
	return func(e *Entry) {
		e.Response = string(payload)
	}
}

// NewEntry builds an entry with a fresh ID and timestamp.
func NewEntry(admissionID int64, action, outcome, detail string, opts ...EntryOption) Entry {
	e := Entry{
		ID:          uuid.NewString(),
		AdmissionID: admissionID,
		Action:      action,
		Outcome:     outcome,
		Detail:      detail,
		CreatedAt:   time.Now().UTC(),
	}
	for _, opt := range opts {
		opt(&e)
	}
	return e
}

// Sink receives drained audit entries.
type Sink interface {
	// Write persists a single entry.
	Write(ctx context.Context, e Entry) error

	// Close releases sink resources.
	Close() error
}
