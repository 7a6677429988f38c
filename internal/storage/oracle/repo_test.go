package oracle

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableconverter/internal/errors"
	"tableconverter/internal/storage"
	"tableconverter/internal/storage/sqlrepo"
)

func TestDSN(t *testing.T) {
	dsn, err := DSN(storage.Config{Host: "ora01", Database: "LIME", User: "lime", Password: "pw"})
	require.NoError(t, err)
	assert.Contains(t, dsn, "oracle://")
	assert.Contains(t, dsn, "ora01:1521")
	assert.Contains(t, dsn, "/LIME")

	dsn, err = DSN(storage.Config{DSN: "oracle://u:p@h:1522/S"})
	require.NoError(t, err)
	assert.Equal(t, "oracle://u:p@h:1522/S", dsn)

	_, err = DSN(storage.Config{Host: "ora01"})
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}

func TestFactoryRegistration(t *testing.T) {
	orig := newRepository
	defer func() { newRepository = orig }()

	var got sqlrepo.Dialect
	newRepository = func(_ context.Context, d sqlrepo.Dialect, _ string, _ int) (*sqlrepo.Repository, error) {
		got = d
		return sqlrepo.New(nil, d), nil
	}

	_, err := storage.New(context.Background(), storage.Config{Kind: "oracle", DSN: "oracle://u:p@h:1521/S"})
	require.NoError(t, err)
	assert.Equal(t, "oracle", got.Name)
}
