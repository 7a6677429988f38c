package csv

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableconverter/internal/errors"
)

func TestReaderParse(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		opts        Options
		wantHeaders []string
		wantRows    [][]string
	}{
		{
			name:        "plain export",
			input:       "startdate,status\r\n2018-04-01 10:00:00,Complete\r\n",
			wantHeaders: []string{"startdate", "status"},
			wantRows:    [][]string{{"2018-04-01 10:00:00", "Complete"}},
		},
		{
			name:        "bom is stripped from first header",
			input:       "\uFEFFstartdate,status\n2018-04-01,Complete\n",
			wantHeaders: []string{"startdate", "status"},
			wantRows:    [][]string{{"2018-04-01", "Complete"}},
		},
		{
			name:        "repeated header line removed",
			input:       "startdate,status\r\nstartdate,status\r\n2018-04-01,Complete\r\n",
			wantHeaders: []string{"startdate", "status"},
			wantRows:    [][]string{{"2018-04-01", "Complete"}},
		},
		{
			name:        "trailing blank cells removed",
			input:       "startdate,status\n2018-04-01,Complete\n,\n",
			wantHeaders: []string{"startdate", "status"},
			wantRows:    [][]string{{"2018-04-01", "Complete"}},
		},
		{
			name:        "ragged rows",
			input:       "a,b,c\n1,2,3,4\n5\n",
			wantHeaders: []string{"a", "b", "c"},
			wantRows:    [][]string{{"1", "2", "3", "4"}, {"5"}},
		},
		{
			name:        "semicolon delimiter",
			input:       "a;b\n1;2\n",
			opts:        Options{Comma: ';'},
			wantHeaders: []string{"a", "b"},
			wantRows:    [][]string{{"1", "2"}},
		},
		{
			name:        "windows-1252 decoded",
			input:       "region,answer\nNord,Tr\xe8s satisfait\n",
			opts:        Options{Encoding: "windows-1252"},
			wantHeaders: []string{"region", "answer"},
			wantRows:    [][]string{{"Nord", "Très satisfait"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewReader(tt.opts, nil).Parse(context.Background(), strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.wantHeaders, got.Headers)
			assert.Equal(t, tt.wantRows, got.Rows)
		})
	}
}

func TestReaderParseFailures(t *testing.T) {
	t.Run("empty source", func(t *testing.T) {
		_, err := NewReader(Options{}, nil).Parse(context.Background(), strings.NewReader(""))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrData))
	})

	t.Run("empty first header", func(t *testing.T) {
		_, err := NewReader(Options{}, nil).Parse(context.Background(), strings.NewReader(",status\n1,2\n"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrData))
	})

	t.Run("unknown encoding", func(t *testing.T) {
		_, err := NewReader(Options{Encoding: "ebcdic"}, nil).Parse(context.Background(), strings.NewReader("a\n"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrConfiguration))
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := NewReader(Options{}, nil).Parse(ctx, strings.NewReader("a\n1\n"))
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestStripHeaderBOM(t *testing.T) {
	assert.Empty(t, StripHeaderBOM(nil))
	assert.Equal(t, []string{"a", "b"}, StripHeaderBOM([]string{"\uFEFFa", "b"}))
	assert.Equal(t, []string{"a"}, StripHeaderBOM([]string{"a"}))
}
