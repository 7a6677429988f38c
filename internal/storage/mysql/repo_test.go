package mysql

import (
	"context"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableconverter/internal/errors"
	"tableconverter/internal/storage"
	"tableconverter/internal/storage/sqlrepo"
)

func TestDSNFromComponents(t *testing.T) {
	dsn, err := DSN(storage.Config{
		Host:     "db.internal",
		User:     "lime",
		Password: "s3cret",
		Database: "limesurvey",
		SQLMode:  "NO_ENGINE_SUBSTITUTION",
		Params:   map[string]string{"timeout": "5s"},
	})
	require.NoError(t, err)

	mc, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "tcp", mc.Net)
	assert.Equal(t, "db.internal:3306", mc.Addr)
	assert.Equal(t, "lime", mc.User)
	assert.Equal(t, "s3cret", mc.Passwd)
	assert.Equal(t, "limesurvey", mc.DBName)
	assert.Equal(t, "'NO_ENGINE_SUBSTITUTION'", mc.Params["sql_mode"])
}

func TestDSNFromExplicitDSN(t *testing.T) {
	dsn, err := DSN(storage.Config{
		DSN:     "lime:pw@tcp(127.0.0.1:3307)/survey?autocommit=1",
		SQLMode: "ANSI_QUOTES",
	})
	require.NoError(t, err)

	mc, err := mysql.ParseDSN(dsn)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:3307", mc.Addr)
	assert.Equal(t, "survey", mc.DBName)
	assert.Equal(t, "1", mc.Params["autocommit"])
	assert.Equal(t, "'ANSI_QUOTES'", mc.Params["sql_mode"])
}

func TestDSNErrors(t *testing.T) {
	_, err := DSN(storage.Config{})
	assert.True(t, errors.Is(err, errors.ErrConfiguration))

	_, err = DSN(storage.Config{DSN: "not a dsn"})
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

// storage.New routes "mysql" through the registered factory. The hook keeps
// the test off the network.
func TestFactoryRegistration(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var gotDSN string
	var gotDialect sqlrepo.Dialect
	newRepository = func(_ context.Context, d sqlrepo.Dialect, dsn string, _ int) (*sqlrepo.Repository, error) {
		gotDialect, gotDSN = d, dsn
		return sqlrepo.New(nil, d), nil
	}

	repo, err := storage.New(context.Background(), storage.Config{Kind: "mysql", Host: "localhost", Database: "lime"})
	require.NoError(t, err)
	require.NotNil(t, repo)
	assert.Equal(t, "mysql", gotDialect.Name)
	assert.Contains(t, gotDSN, "tcp(localhost:3306)/lime")
}
