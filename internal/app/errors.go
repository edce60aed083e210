package service

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrNotStarted is returned when an operation is invoked before Start.
var ErrNotStarted = errors.New("service not started")

// NotFoundError reports an update for an admission that was never scored.
type NotFoundError struct {
	AdmissionID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("Observation ID: %q does not exist", strconv.FormatInt(e.AdmissionID, 10))
}

// DuplicateError reports a second prediction for an already-scored admission.
type DuplicateError struct {
	AdmissionID int64
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("Observation ID: %q already exists", strconv.FormatInt(e.AdmissionID, 10))
}
