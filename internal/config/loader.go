package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):.
//  1. defaults (New())
//  2. file (YAML) if READMIT_CONFIG is set
//  3. env (prefix READMIT_)
func Load(ctx context.Context) (*Config, error) {
	// Start with defaults
	base := New()

	k := koanf.New(".")

	// Load from file if provided
	if path := os.Getenv("READMIT_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Environment variables: READMIT_ADDR, READMIT_DB_PATH, ...
	// Map env keys like READMIT_DB_PATH -> db_path (flat keys)
	// Preserve underscores to match koanf tags on the struct.
	envProvider := env.Provider("READMIT_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "readmit_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	// Unmarshal into a copy
	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	if c.ModelKind != ModelKindCoefficients && c.ModelKind != ModelKindONNX {
		return fmt.Errorf("%w: unknown model kind %q", ErrInvalidConfig, c.ModelKind)
	}
	if c.ModelKind == ModelKindONNX && c.ModelPath == "" {
		return fmt.Errorf("%w: onnx model kind requires model_path", ErrInvalidConfig)
	}
	if c.Threshold != 0 && (c.Threshold < 0 || c.Threshold >= 1) {
		return fmt.Errorf("%w: threshold %v outside (0, 1)", ErrInvalidConfig, c.Threshold)
	}
	if c.AuditQueueSize <= 0 {
		return fmt.Errorf("%w: audit queue size must be positive", ErrInvalidConfig)
	}
	if c.AuditWorkers <= 0 {
		return fmt.Errorf("%w: audit workers must be positive", ErrInvalidConfig)
	}
	return nil
}
