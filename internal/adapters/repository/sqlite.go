package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/okian/readmit/internal/domain/model"
	"github.com/okian/readmit/pkg/metrics"
)

// SQLiteStore implements Store on a single SQLite database file. The
// admission ID is the primary key, so the uniqueness guarantee survives
// restarts, unlike the in-process deduper.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at path and ensures the
// schema exists. The database runs in WAL mode.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite serializes writers anyway; one connection avoids SQLITE_BUSY
	// churn under concurrent handlers.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS predictions (
		admission_id INTEGER PRIMARY KEY,
		observation  TEXT    NOT NULL,
		predicted    INTEGER NOT NULL,
		proba        REAL    NOT NULL,
		label        INTEGER,
		created_at   DATETIME NOT NULL,
		updated_at   DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Save persists a new prediction record.
func (s *SQLiteStore) Save(ctx context.Context, rec model.PredictionRecord) error {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO predictions
		   (admission_id, observation, predicted, proba, label, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.AdmissionID,
		rec.Observation,
		boolToInt(rec.Predicted),
		rec.Proba,
		nullableLabel(rec.Label),
		rec.CreatedAt.UTC(),
		rec.UpdatedAt.UTC(),
	)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
			return ErrDuplicateID
		}
		metrics.RecordStoreError()
		return fmt.Errorf("failed to insert prediction: %w", err)
	}
	return nil
}

// GetByID returns the record for an admission ID.
func (s *SQLiteStore) GetByID(ctx context.Context, id int64) (model.PredictionRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreReadLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	row := s.db.QueryRowContext(ctx,
		`SELECT admission_id, observation, predicted, proba, label, created_at, updated_at
		   FROM predictions WHERE admission_id = ?`, id)
	return scanRecord(row)
}

// SetLabel records the ground-truth label for an admission.
func (s *SQLiteStore) SetLabel(ctx context.Context, id int64, label bool) (model.PredictionRecord, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreWriteLatency(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	res, err := s.db.ExecContext(ctx,
		`UPDATE predictions SET label = ?, updated_at = ? WHERE admission_id = ?`,
		boolToInt(label), time.Now().UTC(), id)
	if err != nil {
		metrics.RecordStoreError()
		return model.PredictionRecord{}, fmt.Errorf("failed to update label: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		metrics.RecordStoreError()
		return model.PredictionRecord{}, fmt.Errorf("failed to read update result: %w", err)
	}
	if affected == 0 {
		return model.PredictionRecord{}, ErrNotFound
	}
	return s.GetByID(ctx, id)
}

// Count returns the number of stored records.
func (s *SQLiteStore) Count(ctx context.Context) int {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM predictions`).Scan(&n); err != nil {
		metrics.RecordStoreError()
		return 0
	}
	return n
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanRecord(row *sql.Row) (model.PredictionRecord, error) {
	var (
		rec       model.PredictionRecord
		predicted int
		label     sql.NullInt64
	)
	err := row.Scan(
		&rec.AdmissionID,
		&rec.Observation,
		&predicted,
		&rec.Proba,
		&label,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return model.PredictionRecord{}, ErrNotFound
	}
	if err != nil {
		metrics.RecordStoreError()
		return model.PredictionRecord{}, fmt.Errorf("failed to scan prediction: %w", err)
	}
	rec.Predicted = predicted != 0
	if label.Valid {
		v := label.Int64 != 0
		rec.Label = &v
	}
	return rec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableLabel(label *bool) any {
	if label == nil {
		return nil
	}
	return boolToInt(*label)
}
