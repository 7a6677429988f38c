// Package xlsx reads survey exports saved as Excel workbooks.
//
// One worksheet is read: the one named in Options.Sheet, or the first sheet
// of the workbook. The first row is the header row.
package xlsx

import (
	"context"
	"io"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"tableconverter/internal/errors"
	"tableconverter/internal/logger"
	"tableconverter/internal/parser"
)

// Options selects the worksheet to read.
type Options struct {
	Sheet string
}

// Reader implements parser.Parser for XLSX workbooks.
type Reader struct {
	opts Options
	log  *zap.SugaredLogger
}

// NewReader returns an XLSX reader. A nil logger discards log output.
func NewReader(opts Options, log *zap.SugaredLogger) *Reader {
	return &Reader{opts: opts, log: logger.OrNop(log)}
}

var _ parser.Parser = (*Reader)(nil)

// Parse loads the workbook from r and converts the selected sheet.
func (p *Reader) Parse(ctx context.Context, r io.Reader) (*parser.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.WrapData(err, "open workbook")
	}
	defer f.Close()

	sheet := p.opts.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, errors.Dataf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.WrapData(err, "read sheet %q", sheet)
	}

	tbl, err := parser.FromRecords(rows)
	if err != nil {
		return nil, err
	}
	p.log.Debugw("xlsx parsed", "sheet", sheet, logger.FieldCount, len(tbl.Rows))

	return parser.Clean(tbl, p.log)
}
