package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"tableconverter/internal/errors"
	"tableconverter/internal/mapping"
)

type fakeChecker struct {
	existing map[string]bool
	err      error
	calls    []string
}

func (f *fakeChecker) Exists(_ context.Context, table, column, value string) (bool, error) {
	f.calls = append(f.calls, table+"."+column+"="+value)
	if f.err != nil {
		return false, f.err
	}
	return f.existing[value], nil
}

func testPlan() *mapping.Plan {
	return &mapping.Plan{
		Spec: &mapping.Spec{Columns: []mapping.ColumnRule{
			{Name: "startdate", InputHeader: "Start", OutputHeader: "startdate"},
			{Name: "status", InputHeader: "Status"},
		}},
		Index:   mapping.HeaderIndex{"startdate": 0, "status": 1},
		Headers: []string{"startdate"},
	}
}

func TestIsDuplicate(t *testing.T) {
	chk := &fakeChecker{existing: map[string]bool{"2018-04-01 10:00:00": true}}
	d, err := New(testPlan(), chk, Options{Table: "survey_1", Location: time.UTC}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	assert.True(t, d.IsDuplicate(ctx, []string{"4/1/2018 10:00", "Complete"}))
	assert.False(t, d.IsDuplicate(ctx, []string{"2018-04-02 10:00:00", "Complete"}))
	assert.Equal(t, []string{
		"survey_1.startdate=2018-04-01 10:00:00",
		"survey_1.startdate=2018-04-02 10:00:00",
	}, chk.calls)
}

func TestIsDuplicateEmptyKey(t *testing.T) {
	chk := &fakeChecker{}
	d, err := New(testPlan(), chk, Options{Table: "t"}, nil)
	require.NoError(t, err)

	assert.False(t, d.IsDuplicate(context.Background(), []string{"", "Complete"}))
	assert.False(t, d.IsDuplicate(context.Background(), nil))
	assert.Empty(t, chk.calls)
}

func TestIsDuplicateRemembered(t *testing.T) {
	chk := &fakeChecker{}
	d, err := New(testPlan(), chk, Options{Table: "t", Location: time.UTC}, nil)
	require.NoError(t, err)
	ctx := context.Background()

	row := []string{"2018-04-01 10:00:00", "Complete"}
	require.False(t, d.IsDuplicate(ctx, row))
	d.Remember(d.Key(row))

	assert.True(t, d.IsDuplicate(ctx, []string{"4/1/2018 10:00:00", "Partial"}))
	assert.Len(t, chk.calls, 1, "remembered key needs no query")
}

func TestIsDuplicateQueryFailureFailsOpen(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	chk := &fakeChecker{err: errors.New("deadlock")}
	d, err := New(testPlan(), chk, Options{Table: "t"}, zap.New(core).Sugar())
	require.NoError(t, err)

	assert.False(t, d.IsDuplicate(context.Background(), []string{"2018-04-01 10:00:00"}))
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "duplicate check failed, treating row as new", entry.Message)
	assert.Equal(t, "2018-04-01 10:00:00", entry.ContextMap()["key"])
}

func TestDisabled(t *testing.T) {
	plan := &mapping.Plan{Spec: &mapping.Spec{}, Index: mapping.HeaderIndex{}}
	d, err := New(plan, nil, Options{Disabled: true}, nil)
	require.NoError(t, err)

	assert.False(t, d.Enabled())
	d.Remember("2018-04-01 10:00:00")
	assert.False(t, d.IsDuplicate(context.Background(), []string{"2018-04-01 10:00:00"}))
}

func TestKeyNotADate(t *testing.T) {
	plan := testPlan()
	d, err := New(plan, &fakeChecker{}, Options{Table: "t"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "R_123", d.Key([]string{" R_123 "}))
}

func TestNewRejectsUnusableField(t *testing.T) {
	tests := []struct {
		name  string
		field string
		check Checker
	}{
		{"not mapped", "submitdate", &fakeChecker{}},
		{"no output header", "status", &fakeChecker{}},
		{"no checker", "startdate", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(testPlan(), tt.check, Options{Field: tt.field, Table: "t"}, nil)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrConfiguration))
		})
	}
}
