// Package mssql registers the "mssql" storage kind on microsoft/go-mssqldb.
package mssql

import (
	"context"
	"net"
	"net/url"
	"strconv"

	_ "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"tableconverter/internal/errors"
	"tableconverter/internal/storage"
	"tableconverter/internal/storage/sqlrepo"
)

const defaultPort = 1433

// newRepository is a test hook that points to sqlrepo.Open by default.
var newRepository = sqlrepo.Open

func init() {
	storage.Register("mssql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		dsn, err := DSN(cfg)
		if err != nil {
			return nil, err
		}
		return newRepository(ctx, sqlrepo.MSSQL, dsn, cfg.MaxOpenConns)
	})
}

// DSN returns cfg.DSN, or a sqlserver:// URL built from the components. The
// result is validated with msdsn so mistakes fail before dialing.
func DSN(cfg storage.Config) (string, error) {
	dsn := cfg.DSN
	if dsn == "" {
		if cfg.Host == "" {
			return "", errors.Configurationf("mssql: storage.host or storage.dsn is required")
		}
		port := cfg.Port
		if port == 0 {
			port = defaultPort
		}
		q := url.Values{}
		if cfg.Database != "" {
			q.Set("database", cfg.Database)
		}
		for k, v := range cfg.Params {
			q.Set(k, v)
		}
		u := url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(cfg.User, cfg.Password),
			Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(port)),
			RawQuery: q.Encode(),
		}
		dsn = u.String()
	}
	if _, err := msdsn.Parse(dsn); err != nil {
		return "", errors.WrapConfiguration(err, "mssql: dsn")
	}
	return dsn, nil
}
