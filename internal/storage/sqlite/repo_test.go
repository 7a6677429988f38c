package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableconverter/internal/errors"
	"tableconverter/internal/storage"
)

func openTemp(t *testing.T) storage.Repository {
	t.Helper()
	repo, err := storage.New(context.Background(), storage.Config{
		Kind:     "sqlite",
		Database: filepath.Join(t.TempDir(), "lime.db"),
	})
	require.NoError(t, err)
	t.Cleanup(repo.Close)
	return repo
}

func TestRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(ctx, storage.Config{Database: filepath.Join(t.TempDir(), "lime.db")})
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.Exec(ctx, `CREATE TABLE survey_1 (startdate TEXT, status TEXT, note TEXT)`))
	require.NoError(t, repo.Insert(ctx, "survey_1",
		[]string{"startdate", "status", "note"},
		[]string{"2018-04-01 10:00:00", "Completed", ""}))

	ok, err := repo.Exists(ctx, "survey_1", "startdate", "2018-04-01 10:00:00")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Exists(ctx, "survey_1", "startdate", "2018-04-02 10:00:00")
	require.NoError(t, err)
	assert.False(t, ok)

	var nulls int
	require.NoError(t, repo.DB().QueryRowContext(ctx,
		`SELECT COUNT(*) FROM survey_1 WHERE note IS NULL`).Scan(&nulls))
	assert.Equal(t, 1, nulls, "empty value is stored as NULL")
}

func TestAnswerCodesIgnoresLanguageCase(t *testing.T) {
	ctx := context.Background()
	repo, err := Open(ctx, storage.Config{DSN: filepath.Join(t.TempDir(), "lime.db")})
	require.NoError(t, err)
	defer repo.Close()

	require.NoError(t, repo.Exec(ctx, `CREATE TABLE lime_answers (qid INTEGER, code TEXT, answer TEXT, language TEXT)`))
	require.NoError(t, repo.Exec(ctx, `INSERT INTO lime_answers VALUES
		(118, 'A1', 'Very Satisfied', 'EN'),
		(118, 'A2', 'Satisfied', 'en'),
		(118, 'B1', 'Sehr zufrieden', 'de'),
		(2293, 'R1', 'North', 'en')`))

	got, err := repo.AnswerCodes(ctx, "lime_answers", 118, "en")
	require.NoError(t, err)
	assert.ElementsMatch(t, []storage.AnswerCode{
		{Answer: "Very Satisfied", Code: "A1"},
		{Answer: "Satisfied", Code: "A2"},
	}, got)
}

func TestInsertIntoMissingTable(t *testing.T) {
	repo := openTemp(t)
	err := repo.Insert(context.Background(), "nope", []string{"a"}, []string{"x"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrSink))
}

func TestOpenRequiresLocation(t *testing.T) {
	_, err := Open(context.Background(), storage.Config{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
}
