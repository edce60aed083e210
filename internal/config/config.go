// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Layer file and environment overrides on top via Load.
// - External errors must be wrapped via this package's error helpers.
package config

// Model kinds accepted by ModelKind.
const (
	ModelKindCoefficients = "coefficients"
	ModelKindONNX         = "onnx"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":5000".
	Addr string `koanf:"addr"`

	// DBPath locates the prediction SQLite database. Empty selects the
	// in-memory store.
	DBPath string `koanf:"db_path"`

	// AuditDBPath locates the audit trail SQLite database. Empty routes the
	// trail to the structured log.
	AuditDBPath string `koanf:"audit_db_path"`

	// ModelPath locates the scoring artifact. Empty selects the built-in
	// coefficient model.
	ModelPath string `koanf:"model_path"`

	// ModelKind selects the scoring backend: coefficients or onnx.
	ModelKind string `koanf:"model_kind"`

	// Threshold overrides the artifact decision threshold when in (0, 1).
	Threshold float64 `koanf:"threshold"`

	// DedupeSize sets the size of the duplicate admission ID cache.
	DedupeSize int `koanf:"dedupe_size"`

	// AuditQueueSize bounds the in-memory audit queue.
	AuditQueueSize int `koanf:"audit_queue_size"`

	// AuditWorkers sets the number of audit drain workers.
	AuditWorkers int `koanf:"audit_workers"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:       "info",
		Addr:           ":5000",
		DBPath:         "",
		AuditDBPath:    "",
		ModelPath:      "",
		ModelKind:      ModelKindCoefficients,
		Threshold:      0,
		DedupeSize:     500_000,
		AuditQueueSize: 10_000,
		AuditWorkers:   2,
	}
}
