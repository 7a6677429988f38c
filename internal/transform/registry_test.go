package transform

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableconverter/internal/errors"
)

func echo(_ context.Context, in Input) (string, error) { return in.Cell, nil }

func TestRegistryRegister(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register(Transform{Name: "echo", Apply: echo}))

	assert.Error(t, r.Register(Transform{Name: "", Apply: echo}), "empty name")
	assert.Error(t, r.Register(Transform{Name: "nil"}), "nil apply")
	assert.Error(t, r.Register(Transform{Name: "echo", Apply: echo}), "duplicate")

	assert.Panics(t, func() { r.MustRegister(Transform{Name: "echo", Apply: echo}) })
}

func TestRegistryLookup(t *testing.T) {
	r := NewRegistry()
	r.MustRegister(Transform{Name: "b", Apply: echo, Reads: []string{"status"}})
	r.MustRegister(Transform{Name: "a", Apply: echo})

	got, err := r.Lookup("b")
	require.NoError(t, err)
	assert.Equal(t, "b", got.Name)

	reqs, err := r.Requirements("b")
	require.NoError(t, err)
	assert.Equal(t, []string{"status"}, reqs)

	_, err = r.Lookup("missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfiguration))
	assert.Contains(t, err.Error(), `unknown function "missing"`)
	assert.Contains(t, errors.FlattenHints(err), "a, b")

	assert.Equal(t, []string{"a", "b"}, r.Names())
}

func TestInputGet(t *testing.T) {
	in := Input{
		Row:   []string{"x", "Complete"},
		Index: map[string]int{"status": 1, "far": 9},
	}
	assert.Equal(t, "Complete", in.Get("status"))
	assert.Equal(t, "", in.Get("far"))
	assert.Equal(t, "", in.Get("unknown"))
}
