// Package testsupport provides shared helpers for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"studioq/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.Archive.SweepInterval = 0

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}

// WithBackend overrides the store backend on the test config.
func WithBackend(backend string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Store.Backend = backend
	}
}

// WithSweep enables the archive sweep with the given interval and retention.
func WithSweep(intervalSeconds, retentionDays int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Archive.SweepInterval = intervalSeconds
		cfg.Archive.RetentionDays = retentionDays
	}
}
