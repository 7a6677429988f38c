package transform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableconverter/internal/errors"
)

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2018-04-01 10:00:00", "2018-04-01 10:00:00"},
		{"2018-04-01", "2018-04-01 00:00:00"},
		{"2018-04-01T10:00:00", "2018-04-01 10:00:00"},
		{"2018-04-01T10:00:00Z", "2018-04-01 10:00:00"},
		{"2018-04-01T12:00:00+02:00", "2018-04-01 10:00:00"},
		{"4/1/2018 10:00", "2018-04-01 10:00:00"},
		{"4/1/2018 3:04 PM", "2018-04-01 15:04:00"},
		{"01-04-2018", "2018-04-01 00:00:00"},
		{"01.04.2018 10:00", "2018-04-01 10:00:00"},
		{"Apr 1, 2018", "2018-04-01 00:00:00"},
		{"1 April 2018", "2018-04-01 00:00:00"},
		{"  2018-04-01 10:00:00 ", "2018-04-01 10:00:00"},
		{"", ""},
		{"   ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeDate(tt.in, time.UTC)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalizeDateIdempotent(t *testing.T) {
	for _, in := range []string{"4/1/2018 10:00", "2018-04-01T12:00:00+02:00", "Apr 1, 2018"} {
		once, err := NormalizeDate(in, time.UTC)
		require.NoError(t, err)
		twice, err := NormalizeDate(once, time.UTC)
		require.NoError(t, err)
		assert.Equal(t, once, twice, in)
	}
}

func TestNormalizeDateUnrecognized(t *testing.T) {
	_, err := NormalizeDate("not a date", time.UTC)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrData))
	assert.Contains(t, err.Error(), `"not a date"`)
}
