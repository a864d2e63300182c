package journal

import (
	"fmt"
	"log/slog"

	"mercator-hq/chaos/pkg/config"
)

// Open creates the storage backend named by cfg.Backend.
func Open(cfg config.JournalConfig, logger *slog.Logger) (Storage, error) {
	switch cfg.Backend {
	case "", "memory":
		return NewMemoryStorage(), nil
	case "sqlite":
		return NewSQLiteStorage(SQLiteConfig{
			Path:        cfg.SQLite.Path,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		}, logger)
	default:
		return nil, fmt.Errorf("unknown journal backend %q", cfg.Backend)
	}
}
