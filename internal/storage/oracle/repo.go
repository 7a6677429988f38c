// Package oracle registers the "oracle" storage kind on sijms/go-ora.
package oracle

import (
	"context"

	go_ora "github.com/sijms/go-ora/v2"

	"tableconverter/internal/errors"
	"tableconverter/internal/storage"
	"tableconverter/internal/storage/sqlrepo"
)

const defaultPort = 1521

// newRepository is a test hook that points to sqlrepo.Open by default.
var newRepository = sqlrepo.Open

func init() {
	storage.Register("oracle", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		dsn, err := DSN(cfg)
		if err != nil {
			return nil, err
		}
		return newRepository(ctx, sqlrepo.Oracle, dsn, cfg.MaxOpenConns)
	})
}

// DSN returns cfg.DSN, or an oracle:// URL for service cfg.Database on
// cfg.Host built with go-ora.
func DSN(cfg storage.Config) (string, error) {
	if cfg.DSN != "" {
		return cfg.DSN, nil
	}
	if cfg.Host == "" || cfg.Database == "" {
		return "", errors.Configurationf("oracle: storage.host and storage.database (service) are required without storage.dsn")
	}
	port := cfg.Port
	if port == 0 {
		port = defaultPort
	}
	return go_ora.BuildUrl(cfg.Host, port, cfg.Database, cfg.User, cfg.Password, cfg.Params), nil
}
