// Package sqlite registers the "sqlite" storage kind on modernc.org/sqlite.
// It serves local dry runs against a copy of the response table, and the
// end-to-end tests.
package sqlite

import (
	"context"
	"strings"

	_ "modernc.org/sqlite"

	"tableconverter/internal/errors"
	"tableconverter/internal/storage"
	"tableconverter/internal/storage/sqlrepo"
)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return Open(ctx, cfg)
	})
}

// Open opens the database named by cfg.DSN, or by cfg.Database when no DSN
// is set. SQLite has a single writer, so the pool defaults to one
// connection; that also keeps ":memory:" databases to one instance.
func Open(ctx context.Context, cfg storage.Config) (*sqlrepo.Repository, error) {
	dsn := cfg.DSN
	if strings.TrimSpace(dsn) == "" {
		dsn = cfg.Database
	}
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.Configurationf("sqlite: storage.dsn or storage.database is required")
	}
	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 {
		maxOpen = 1
	}
	return sqlrepo.Open(ctx, sqlrepo.SQLite, dsn, maxOpen)
}
