package mapping

import (
	"strings"

	"tableconverter/internal/errors"
)

// HeaderIndex maps a logical column name to its position in an export row.
// Only logical columns with an input header are present.
type HeaderIndex map[string]int

// Cell returns the cell of row feeding the logical column name. Columns that
// are not indexed, and rows too short to hold the position, read as "".
func (h HeaderIndex) Cell(row []string, name string) string {
	i, ok := h[name]
	if !ok || i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

// Functions tells Resolve which transform names exist and which logical
// columns each of them reads.
type Functions interface {
	Requirements(name string) ([]string, error)
}

// Plan is a Spec resolved against one export's headers. It is read-only once
// built.
type Plan struct {
	Spec *Spec

	// Index locates every logical column that has an input header.
	Index HeaderIndex

	// Headers is the destination column list: concatenation outputs in
	// declaration order, then emitted columns in mapping order.
	Headers []string
}

// Validate checks the mapping on its own, without an export:
//
//   - no input header is mapped by two logical columns,
//   - no output header is declared twice,
//   - every function name is known to fns,
//   - every concatenation rule names an output header and input columns.
//
// All findings are configuration errors.
func (s *Spec) Validate(fns Functions) error {
	inputs := make(map[string]string, len(s.Columns))
	outputs := make(map[string]struct{}, len(s.Columns)+len(s.Concats))

	addOutput := func(h string) error {
		if _, dup := outputs[h]; dup {
			return errors.Configurationf("output header %q is declared more than once", h)
		}
		outputs[h] = struct{}{}
		return nil
	}

	for i, c := range s.Concats {
		if c.OutputHeader == "" {
			return errors.Configurationf("%s[%d]: output_header is required", ConcatKey, i)
		}
		if len(c.InputColumns) == 0 {
			return errors.Configurationf("%s[%d]: input_columns must not be empty", ConcatKey, i)
		}
		if err := addOutput(c.OutputHeader); err != nil {
			return err
		}
	}

	for _, c := range s.Columns {
		if c.InputHeader != "" {
			if other, dup := inputs[c.InputHeader]; dup {
				return errors.Configurationf("input header %q is mapped by both %q and %q", c.InputHeader, other, c.Name)
			}
			inputs[c.InputHeader] = c.Name
		}
		if c.Emitted() {
			if err := addOutput(c.OutputHeader); err != nil {
				return err
			}
		}
		if c.Function != "" && fns != nil {
			if _, err := fns.Requirements(c.Function); err != nil {
				return errors.WrapConfiguration(err, "column %q", c.Name)
			}
		}
	}
	return nil
}

// Resolve validates spec and binds it to the export headers. Header
// matching is exact and case-sensitive; the first matching position wins.
//
// A header the mapping references but the export lacks is a data error. Every
// other failure is a configuration error, including a transform or
// concatenation that reads a logical column without an input header.
func Resolve(spec *Spec, headers []string, fns Functions) (*Plan, error) {
	if err := spec.Validate(fns); err != nil {
		return nil, err
	}

	pos := make(map[string]int, len(headers))
	for i, h := range headers {
		if _, seen := pos[h]; !seen {
			pos[h] = i
		}
	}

	plan := &Plan{Spec: spec, Index: make(HeaderIndex, len(spec.Columns))}
	for _, c := range spec.Columns {
		if c.InputHeader == "" {
			continue
		}
		i, ok := pos[c.InputHeader]
		if !ok {
			return nil, errors.WithHintf(
				errors.Dataf("input header %q (column %q) is not in the export", c.InputHeader, c.Name),
				"export headers: %s", strings.Join(headers, ", "))
		}
		plan.Index[c.Name] = i
	}

	for i, c := range spec.Concats {
		for _, name := range c.InputColumns {
			if _, ok := plan.Index[name]; !ok {
				return nil, errors.Configurationf("%s[%d]: column %q has no input_header", ConcatKey, i, name)
			}
		}
		plan.Headers = append(plan.Headers, c.OutputHeader)
	}

	for _, c := range spec.Columns {
		if c.Function != "" && fns != nil {
			reqs, err := fns.Requirements(c.Function)
			if err != nil {
				return nil, errors.WrapConfiguration(err, "column %q", c.Name)
			}
			for _, r := range reqs {
				if _, ok := plan.Index[r]; !ok {
					return nil, errors.Configurationf("column %q: function %s reads column %q, which has no input_header",
						c.Name, c.Function, r)
				}
			}
		}
		if c.Emitted() {
			plan.Headers = append(plan.Headers, c.OutputHeader)
		}
	}

	return plan, nil
}
