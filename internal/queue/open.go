package queue

import (
	"fmt"

	"studioq/internal/config"
)

// Open builds the active-job Repository selected by the configuration.
func Open(cfg *config.Config) (Repository, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}
	switch cfg.Store.Backend {
	case config.BackendSQLite:
		return OpenSQLiteStore(cfg.ActiveStorePath())
	default:
		return NewJSONStore(cfg.ActiveStorePath()), nil
	}
}
