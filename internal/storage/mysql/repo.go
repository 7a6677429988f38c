// Package mysql registers the "mysql" storage kind, the usual destination:
// LimeSurvey response tables live in MySQL or MariaDB.
package mysql

import (
	"context"
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"tableconverter/internal/errors"
	"tableconverter/internal/storage"
	"tableconverter/internal/storage/sqlrepo"
)

const defaultPort = 3306

// newRepository is a test hook that points to sqlrepo.Open by default.
var newRepository = sqlrepo.Open

func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		dsn, err := DSN(cfg)
		if err != nil {
			return nil, err
		}
		return newRepository(ctx, sqlrepo.MySQL, dsn, cfg.MaxOpenConns)
	})
}

// DSN returns the driver DSN for cfg. An explicit cfg.DSN is used as the
// base; otherwise one is built from host, port, user, password and
// database. cfg.Params are added as connection parameters and cfg.SQLMode,
// when set, becomes the session sql_mode.
func DSN(cfg storage.Config) (string, error) {
	var mc *mysql.Config
	if cfg.DSN != "" {
		parsed, err := mysql.ParseDSN(cfg.DSN)
		if err != nil {
			return "", errors.WrapConfiguration(err, "mysql: parse dsn")
		}
		mc = parsed
	} else {
		if cfg.Host == "" {
			return "", errors.Configurationf("mysql: storage.host or storage.dsn is required")
		}
		port := cfg.Port
		if port == 0 {
			port = defaultPort
		}
		mc = mysql.NewConfig()
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(port))
		mc.User = cfg.User
		mc.Passwd = cfg.Password
		mc.DBName = cfg.Database
	}

	if mc.Params == nil {
		mc.Params = map[string]string{}
	}
	for k, v := range cfg.Params {
		mc.Params[k] = v
	}
	if cfg.SQLMode != "" {
		// Unknown DSN parameters are sent as SET statements, so the value
		// must be a quoted SQL string.
		mc.Params["sql_mode"] = "'" + cfg.SQLMode + "'"
	}
	return mc.FormatDSN(), nil
}
