// Package convert turns export rows into destination rows according to a
// resolved mapping plan.
//
// A per-column plan is compiled once by New so the row loop does no name
// lookups: every column carries its row position, its constant and its
// transform, if any.
package convert

import (
	"context"
	"strings"

	"tableconverter/internal/errors"
	"tableconverter/internal/mapping"
	"tableconverter/internal/transform"
)

type concatPlan struct {
	positions []int
	sep       string
}

type columnPlan struct {
	name    string
	pos     int // -1 when the column has no input header
	content *string
	fn      transform.Func
	emit    bool
}

// Converter builds output rows for one plan. The plan is read-only; the
// transforms it calls may keep run state.
type Converter struct {
	plan    *mapping.Plan
	concats []concatPlan
	cols    []columnPlan
}

// New compiles plan against fns. Function names were checked by
// mapping.Resolve; a name fns does not know is still reported as a
// configuration error.
func New(plan *mapping.Plan, fns *transform.Registry) (*Converter, error) {
	c := &Converter{plan: plan}

	for _, r := range plan.Spec.Concats {
		cp := concatPlan{sep: r.Separator, positions: make([]int, len(r.InputColumns))}
		for i, name := range r.InputColumns {
			p, ok := plan.Index[name]
			if !ok {
				return nil, errors.Configurationf("%s: column %q has no input_header", mapping.ConcatKey, name)
			}
			cp.positions[i] = p
		}
		c.concats = append(c.concats, cp)
	}

	for _, r := range plan.Spec.Columns {
		cp := columnPlan{name: r.Name, pos: -1, emit: r.Emitted()}
		if p, ok := plan.Index[r.Name]; ok {
			cp.pos = p
		}
		if r.Content != nil {
			s := string(*r.Content)
			cp.content = &s
		}
		if r.Function != "" {
			t, err := fns.Lookup(r.Function)
			if err != nil {
				return nil, errors.WrapConfiguration(err, "column %q", r.Name)
			}
			cp.fn = t.Apply
		}
		c.cols = append(c.cols, cp)
	}
	return c, nil
}

// Headers returns the destination column list the output rows align with.
func (c *Converter) Headers() []string { return c.plan.Headers }

// Convert builds the output row for row, the export line at line (1-based,
// header excluded). Concatenations come first, in declaration order, then
// each emitted column in mapping order.
//
// Transform errors are returned wrapped with the line and column. A row
// whose length differs from Headers is a *errors.ConversionError.
func (c *Converter) Convert(ctx context.Context, line int, row []string) ([]string, error) {
	out := make([]string, 0, len(c.plan.Headers))

	for _, cp := range c.concats {
		parts := make([]string, len(cp.positions))
		for i, p := range cp.positions {
			parts[i] = cell(row, p)
		}
		out = append(out, strings.Join(parts, cp.sep))
	}

	for _, cp := range c.cols {
		v := cell(row, cp.pos)
		if cp.content != nil {
			v = *cp.content
		}
		if cp.fn != nil {
			var err error
			v, err = cp.fn(ctx, transform.Input{Cell: v, Row: row, Index: c.plan.Index, Column: cp.name})
			if err != nil {
				return nil, errors.Wrapf(err, "line %d: column %q", line, cp.name)
			}
		}
		if cp.emit {
			out = append(out, v)
		}
	}

	if len(out) != len(c.plan.Headers) {
		return nil, &errors.ConversionError{Line: line, Output: out, Headers: c.plan.Headers}
	}
	return out, nil
}

func cell(row []string, pos int) string {
	if pos < 0 || pos >= len(row) {
		return ""
	}
	return row[pos]
}
