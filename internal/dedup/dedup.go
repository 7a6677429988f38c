// Package dedup decides whether an export row was already imported.
//
// A row's key is the cell of the uniqueness column (conventionally the
// response start date) in canonical timestamp form. The destination is asked
// whether its matching column already holds that key. Keys inserted during
// the current run are also remembered, so a file that repeats a response is
// caught even when nothing is written (dry runs).
package dedup

import (
	"context"
	"strings"
	"time"

	"github.com/zeebo/xxh3"
	"go.uber.org/zap"

	"tableconverter/internal/errors"
	"tableconverter/internal/logger"
	"tableconverter/internal/mapping"
	"tableconverter/internal/transform"
)

// Checker answers existence queries. storage.Repository satisfies it.
type Checker interface {
	Exists(ctx context.Context, table, column, value string) (bool, error)
}

// Options configures a Detector.
type Options struct {
	// Field is the logical uniqueness column. Default "startdate".
	Field string
	// Table is the destination table queried.
	Table string
	// Disabled turns the detector off; every row is then new.
	Disabled bool
	// Location is used to normalize date keys. Default time.Local.
	Location *time.Location
}

// Detector reports duplicates for one run. It is not safe for concurrent use.
type Detector struct {
	opts   Options
	check  Checker
	index  mapping.HeaderIndex
	column string
	seen   map[uint64]struct{}
	log    *zap.SugaredLogger
}

// New builds a Detector for plan. Unless disabled, the uniqueness field must
// be a logical column with both an input and an output header; anything else
// is a configuration error.
func New(plan *mapping.Plan, check Checker, opts Options, log *zap.SugaredLogger) (*Detector, error) {
	if opts.Field == "" {
		opts.Field = "startdate"
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	d := &Detector{
		opts:  opts,
		check: check,
		index: plan.Index,
		seen:  make(map[uint64]struct{}),
		log:   logger.OrNop(log).With(logger.FieldComponent, "dedup"),
	}
	if opts.Disabled {
		return d, nil
	}

	rule, ok := plan.Spec.Column(opts.Field)
	if !ok {
		return nil, errors.WithHint(
			errors.Configurationf("uniqueness field %q is not a column of the mapping", opts.Field),
			"set uniqueness_field to a mapped column or enable prevent_skipping")
	}
	if rule.InputHeader == "" || rule.OutputHeader == "" {
		return nil, errors.Configurationf("uniqueness field %q needs both input_header and output_header", opts.Field)
	}
	if check == nil {
		return nil, errors.Configurationf("uniqueness field %q: no destination to check against", opts.Field)
	}
	d.column = rule.OutputHeader
	return d, nil
}

// Key returns the uniqueness key of row: the field's cell as a canonical
// timestamp. A cell that is not a date is used trimmed, as is.
func (d *Detector) Key(row []string) string {
	raw := d.index.Cell(row, d.opts.Field)
	key, err := transform.NormalizeDate(raw, d.opts.Location)
	if err != nil {
		return strings.TrimSpace(raw)
	}
	return key
}

// IsDuplicate reports whether row's key is already at the destination or
// was remembered earlier in this run. A disabled detector and an empty key
// always report false.
//
// A failing query is logged and reported as not a duplicate: the row is
// then inserted, which at worst repeats a record.
func (d *Detector) IsDuplicate(ctx context.Context, row []string) bool {
	if d.opts.Disabled {
		return false
	}
	key := d.Key(row)
	if key == "" {
		return false
	}
	if _, ok := d.seen[xxh3.HashString(key)]; ok {
		return true
	}

	found, err := d.check.Exists(ctx, d.opts.Table, d.column, key)
	if err != nil {
		d.log.Warnw("duplicate check failed, treating row as new",
			logger.FieldKey, key,
			logger.FieldColumn, d.column,
			logger.FieldError, err)
		return false
	}
	return found
}

// Remember records that a row with key was written in this run.
func (d *Detector) Remember(key string) {
	if d.opts.Disabled || key == "" {
		return
	}
	d.seen[xxh3.HashString(key)] = struct{}{}
}

// Enabled reports whether the detector checks rows at all.
func (d *Detector) Enabled() bool { return !d.opts.Disabled }
