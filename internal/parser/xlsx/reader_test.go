package xlsx

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"tableconverter/internal/errors"
)

// workbook builds an in-memory workbook whose first sheet holds rows.
func workbook(t *testing.T, sheet string, rows [][]string) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		vals := make([]interface{}, len(row))
		for j, v := range row {
			vals[j] = v
		}
		require.NoError(t, f.SetSheetRow(sheet, cell, &vals))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf
}

func TestReaderParseFirstSheet(t *testing.T) {
	buf := workbook(t, "Sheet1", [][]string{
		{"startdate", "status"},
		{"startdate", "status"},
		{"2018-04-01 10:00:00", "Complete"},
	})

	got, err := NewReader(Options{}, nil).Parse(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"startdate", "status"}, got.Headers)
	assert.Equal(t, [][]string{{"2018-04-01 10:00:00", "Complete"}}, got.Rows)
}

func TestReaderParseNamedSheet(t *testing.T) {
	buf := workbook(t, "Responses", [][]string{
		{"region"},
		{"North Region"},
	})

	got, err := NewReader(Options{Sheet: "Responses"}, nil).Parse(context.Background(), buf)
	require.NoError(t, err)
	assert.Equal(t, []string{"region"}, got.Headers)
	assert.Equal(t, [][]string{{"North Region"}}, got.Rows)
}

func TestReaderParseRejectsGarbage(t *testing.T) {
	_, err := NewReader(Options{}, nil).Parse(context.Background(), bytes.NewBufferString("not a workbook"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrData))
}

func TestReaderParseEmptySheet(t *testing.T) {
	buf := workbook(t, "Sheet1", nil)

	_, err := NewReader(Options{}, nil).Parse(context.Background(), buf)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrData))
}
