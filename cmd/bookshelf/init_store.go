package main

import (
	"fmt"
	"log/slog"

	"bookshelf/internal/adapter/storage"
	"bookshelf/internal/domain"
	"bookshelf/internal/infra/config"
)

// initStore opens the configured backend wrapped in a tracing decorator.
// The returned closer releases backend resources.
func initStore(cfg config.StorageConfig, log *slog.Logger) (domain.BookStore, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case "file", "":
		fs := storage.NewFileStore(cfg.Dir)
		log.Info("storage opened", "backend", fs.Name(), "dir", fs.Dir())
		return storage.NewTracedStore(fs), noop, nil
	case "sqlite":
		s, err := storage.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		log.Info("storage opened", "backend", s.Name(), "path", cfg.SQLitePath)
		return storage.NewTracedStore(s), s.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
