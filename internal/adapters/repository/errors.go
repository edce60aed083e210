package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrNotFound    = errors.New("admission not found")
	ErrDuplicateID = errors.New("duplicate admission id")
)
