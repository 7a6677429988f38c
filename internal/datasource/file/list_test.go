package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableconverter/internal/errors"
)

func writeList(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "exports.txt")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestReadList(t *testing.T) {
	t.Parallel()

	path := writeList(t, `
# April exports
exports/reportTable4.csv
   # indented comment
https://surveys.example.org/export?survey=585415

   exports/reportTable5.xlsx
`)

	got, err := ReadList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"exports/reportTable4.csv",
		"https://surveys.example.org/export?survey=585415",
		"exports/reportTable5.xlsx",
	}, got)
}

func TestReadListEmpty(t *testing.T) {
	t.Parallel()

	got, err := ReadList(writeList(t, ""))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestReadListMissing(t *testing.T) {
	t.Parallel()

	_, err := ReadList(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}
