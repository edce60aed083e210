// Package repository defines the prediction record store interface and errors.
package repository

import (
	"context"

	"github.com/okian/readmit/internal/domain/model"
)

// Store provides read/write access to prediction records.
type Store interface {
	// Save persists a new prediction record. Returns ErrDuplicateID if the
	// admission ID is already stored.
	Save(ctx context.Context, rec model.PredictionRecord) error

	// GetByID returns the record for an admission ID.
	// Returns ErrNotFound if the ID is unknown.
	GetByID(ctx context.Context, id int64) (model.PredictionRecord, error)

	// SetLabel records the ground-truth readmission label for an admission
	// and returns the updated record. The label may be overwritten by a
	// later update. Returns ErrNotFound if the ID is unknown.
	SetLabel(ctx context.Context, id int64, label bool) (model.PredictionRecord, error)

	// Count returns the number of stored records.
	Count(ctx context.Context) int

	// Close releases store resources.
	Close() error
}
