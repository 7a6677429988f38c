// Package transform holds the named cell transforms a mapping file can
// reference through its "function" field.
//
// A Registry maps names to transforms. Names are validated when the mapping
// is resolved, so an unknown name fails the run before any row is read.
// NewBuiltins returns a registry preloaded with the standard transforms;
// callers may Register more.
package transform

import (
	"context"
	"sort"
	"strings"

	"tableconverter/internal/errors"
	"tableconverter/internal/mapping"
)

// Input is what a transform sees for one cell.
type Input struct {
	// Cell is the value before the transform: the column's content literal
	// or its raw cell.
	Cell string
	// Row is the full export row.
	Row []string
	// Index locates logical columns in Row.
	Index mapping.HeaderIndex
	// Column is the logical column being produced.
	Column string
}

// Get returns the cell of the logical column name in the row.
func (in Input) Get(name string) string { return in.Index.Cell(in.Row, name) }

// Func computes a cell value. An empty result is a legitimate value and is
// kept in the output row.
type Func func(ctx context.Context, in Input) (string, error)

// Transform is a named Func plus the logical columns it reads from the row.
// Reads must be mapped to an input header; Optional columns may be absent
// and then read as "".
type Transform struct {
	Name     string
	Reads    []string
	Optional []string
	Apply    Func
}

// Registry is a set of transforms addressed by name.
type Registry struct {
	byName map[string]Transform
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Transform)}
}

// Register adds t. Names must be unique.
func (r *Registry) Register(t Transform) error {
	if t.Name == "" {
		return errors.New("transform: name must not be empty")
	}
	if t.Apply == nil {
		return errors.Newf("transform %s: Apply must not be nil", t.Name)
	}
	if _, dup := r.byName[t.Name]; dup {
		return errors.Newf("transform %s: already registered", t.Name)
	}
	r.byName[t.Name] = t
	return nil
}

// MustRegister is Register for package-level setup; it panics on error.
func (r *Registry) MustRegister(t Transform) {
	if err := r.Register(t); err != nil {
		panic(err)
	}
}

// Lookup returns the transform called name, or a configuration error.
func (r *Registry) Lookup(name string) (Transform, error) {
	t, ok := r.byName[name]
	if !ok {
		return Transform{}, errors.WithHintf(
			errors.Configurationf("unknown function %q", name),
			"registered functions: %s", strings.Join(r.Names(), ", "))
	}
	return t, nil
}

// Requirements implements mapping.Functions. Only Reads are reported.
func (r *Registry) Requirements(name string) ([]string, error) {
	t, err := r.Lookup(name)
	if err != nil {
		return nil, err
	}
	return t.Reads, nil
}

// Names lists registered names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.byName))
	for n := range r.byName {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

var _ mapping.Functions = (*Registry)(nil)
