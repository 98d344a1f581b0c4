package database

import (
	"fmt"

	"conia-sync/internal/conia"
	"conia-sync/internal/config"
)

// NewStoreFromConfig creates a Store based on the database config type.
func NewStoreFromConfig(cfg config.DatabaseConfig, clock conia.Clock, logger conia.Logger) (*Store, error) {
	switch cfg.Type {
	case "sqlite":
		if cfg.Path == "" {
			return nil, fmt.Errorf("path required for sqlite database")
		}
		return NewStore(cfg.Path, clock, logger)
	case "memory":
		return NewStore(":memory:", clock, logger)
	default:
		return nil, fmt.Errorf("unknown database type: %s", cfg.Type)
	}
}
