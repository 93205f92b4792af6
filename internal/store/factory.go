package store

import (
	"fmt"
	"path/filepath"

	"dose-go/internal/config"
	"dose-go/internal/dose"
)

// NewStoreFromConfig creates a Store implementation based on the store config type.
func NewStoreFromConfig(cfg config.StoreConfig) (dose.Store, error) {
	switch cfg.Type {
	case "memory":
		return NewMemoryStore(), nil
	case "filesystem":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("filesystem store requires dir to be set")
		}
		return NewFileSystemStore(cfg.Dir)
	case "sqlite":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("sqlite store requires dir to be set")
		}
		if err := ensureDir(cfg.Dir); err != nil {
			return nil, err
		}
		return NewSQLiteStore(filepath.Join(cfg.Dir, "dose.db"))
	case "s3":
		return NewS3Store(cfg)
	default:
		return nil, fmt.Errorf("unknown store type: %s", cfg.Type)
	}
}
