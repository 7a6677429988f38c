// Package parser turns raw export bytes into a header list plus data rows.
//
// Format-specific readers live in subpackages (csv, xlsx). Every reader hands
// its result to Clean, which applies the export quirks shared by all formats:
// a header line repeated as the first data row and a trailing blank row.
package parser

import (
	"context"
	"io"

	"go.uber.org/zap"

	"tableconverter/internal/errors"
	"tableconverter/internal/logger"
)

// Table is a parsed export. Rows are positionally aligned to Headers but may
// be shorter or longer than it; consumers treat missing cells as empty.
type Table struct {
	Headers []string
	Rows    [][]string
}

// Parser reads a whole table from r.
type Parser interface {
	Parse(ctx context.Context, r io.Reader) (*Table, error)
}

// FromRecords splits raw records into a Table, treating the first record as
// the header row. It fails with a data error when there are no records.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, errors.Dataf("source is empty")
	}
	return &Table{Headers: records[0], Rows: records[1:]}, nil
}

// Clean validates the header row and removes the two export artifacts:
//
//   - a first data row identical to the header row,
//   - a last data row whose cells are all empty.
//
// Only the first data row and only the last data row are examined. Clean
// fails with a data error when the header row is missing or its first cell
// is empty.
func Clean(t *Table, log *zap.SugaredLogger) (*Table, error) {
	log = logger.OrNop(log)
	if t == nil {
		return nil, errors.Dataf("source is empty")
	}
	if len(t.Headers) == 0 || t.Headers[0] == "" {
		return nil, errors.WithHint(
			errors.Dataf("no usable header row"),
			"the first line of the export must hold the column names")
	}

	rows := t.Rows
	if len(rows) > 0 && sameCells(rows[0], t.Headers) {
		log.Infow("first data row repeats the header row, removing it")
		rows = rows[1:]
	}
	if n := len(rows); n > 0 && allEmpty(rows[n-1]) {
		log.Infow("last data row is empty, removing it", logger.FieldLine, n)
		rows = rows[:n-1]
	}

	return &Table{Headers: t.Headers, Rows: rows}, nil
}

func sameCells(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func allEmpty(row []string) bool {
	for _, c := range row {
		if c != "" {
			return false
		}
	}
	return true
}
