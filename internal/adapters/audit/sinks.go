package audit

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"github.com/okian/readmit/pkg/logger"
)

// LoggerSink writes entries to the structured log. Dev-mode default.
type LoggerSink struct {
	logger logger.Logger
}

// NewLoggerSink creates a sink that logs each entry at info level.
func NewLoggerSink() *LoggerSink {
	return &LoggerSink{logger: logger.Get().Named("audit-trail")}
}

// Write logs one entry.
func (s *LoggerSink) Write(ctx context.Context, e Entry) error {
	s.logger.Info(ctx, "audit",
		logger.String("entry_id", e.ID),
		logger.Int64("admission_id", e.AdmissionID),
		logger.String("action", e.Action),
		logger.String("outcome", e.Outcome),
		logger.String("detail", e.Detail),
		logger.String("request", e.Request),
		logger.String("response", e.Response),
	)
	return nil
}

// Close is a no-op for the logger sink.
func (s *LoggerSink) Close() error {
	return nil
}

// SQLiteSink appends entries to an audit_log table in its own database
// file, kept separate from the prediction store so trail writes never
// contend with request-path writes.
type SQLiteSink struct {
	db *sql.DB
}

// NewSQLiteSink opens (or creates) the audit database at path.
func NewSQLiteSink(path string) (*SQLiteSink, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create audit directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}
	db.SetMaxOpenConns(1)

	schema := `
	CREATE TABLE IF NOT EXISTS audit_log (
		id           TEXT PRIMARY KEY,
		admission_id INTEGER NOT NULL,
		action       TEXT NOT NULL,
		outcome      TEXT NOT NULL,
		detail       TEXT NOT NULL DEFAULT '',
		request      TEXT NOT NULL DEFAULT '',
		response     TEXT NOT NULL DEFAULT '',
		created_at   DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_admission ON audit_log(admission_id);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize audit schema: %w", err)
	}

	return &SQLiteSink{db: db}, nil
}

// Write appends one entry.
func (s *SQLiteSink) Write(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, admission_id, action, outcome, detail, request, response, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AdmissionID, e.Action, e.Outcome, e.Detail, e.Request, e.Response, e.CreatedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}
	return nil
}

// CountByAction returns how many entries exist for an action, for tests and
// operational spot checks.
func (s *SQLiteSink) CountByAction(ctx context.Context, action string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE action = ?`, action).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return n, nil
}

// CountByOutcome returns how many entries exist for an action/outcome pair,
// for tests and operational spot checks.
func (s *SQLiteSink) CountByOutcome(ctx context.Context, action, outcome string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM audit_log WHERE action = ? AND outcome = ?`, action, outcome).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit entries: %w", err)
	}
	return n, nil
}

// Close closes the underlying database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}
