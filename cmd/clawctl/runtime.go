package main

import (
	"fmt"

	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/config"
	"github.com/Ethical-AI-Syndicate/clawforge-sub002/pkg/store"
)

// openAuditStore opens the configured backend: sqlite (default) or
// postgres when cfg.DBDriver == "postgres", in which case cfg.DBPath
// is read as a lib/pq connection string instead of a filesystem path,
// per §6's environment-variable table.
func openAuditStore(cfg *config.Config) (store.AuditStore, error) {
	switch cfg.DBDriver {
	case "postgres":
		s, err := store.OpenPostgresStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open postgres audit store: %w", err)
		}
		return s, nil
	case "sqlite", "":
		s, err := store.OpenSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite audit store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown db driver %q", cfg.DBDriver)
	}
}
