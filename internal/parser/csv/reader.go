// Package csv reads CSV survey exports into a parser.Table.
//
// The reader is tolerant: quotes are parsed lazily and rows may have any
// number of fields. Exports produced by older Windows tooling can be decoded
// from a legacy character set before parsing (see Options.Encoding).
package csv

import (
	"context"
	"encoding/csv"
	"io"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"tableconverter/internal/errors"
	"tableconverter/internal/logger"
	"tableconverter/internal/parser"
)

// Options tunes the CSV reader. The zero value reads comma-separated UTF-8.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune
	// Encoding names the source character set: "", "utf-8", "utf-16",
	// "windows-1252" or "iso-8859-1".
	Encoding string
}

// Reader implements parser.Parser for CSV input.
type Reader struct {
	opts Options
	log  *zap.SugaredLogger
}

// NewReader returns a CSV reader. A nil logger discards log output.
func NewReader(opts Options, log *zap.SugaredLogger) *Reader {
	return &Reader{opts: opts, log: logger.OrNop(log)}
}

var _ parser.Parser = (*Reader)(nil)

// Parse reads all of r, then hands the records to parser.Clean.
func (p *Reader) Parse(ctx context.Context, r io.Reader) (*parser.Table, error) {
	dec, err := decoderFor(p.opts.Encoding)
	if err != nil {
		return nil, err
	}
	if dec != nil {
		r = transform.NewReader(r, dec.NewDecoder())
	}

	cr := csv.NewReader(r)
	if p.opts.Comma != 0 {
		cr.Comma = p.opts.Comma
	}
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	var records [][]string
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WrapData(err, "csv read")
		}
		records = append(records, rec)
	}

	tbl, err := parser.FromRecords(records)
	if err != nil {
		return nil, err
	}
	tbl.Headers = StripHeaderBOM(tbl.Headers)
	p.log.Debugw("csv parsed", logger.FieldCount, len(tbl.Rows), "headers", len(tbl.Headers))

	return parser.Clean(tbl, p.log)
}

// decoderFor maps an encoding name to an x/text encoding. It returns nil for
// UTF-8, which needs no decoding.
func decoderFor(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return nil, nil
	case "utf-16", "utf16":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1, nil
	default:
		return nil, errors.Configurationf("unsupported source encoding %q", name)
	}
}
