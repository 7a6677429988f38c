package transform

import (
	"context"
	"time"
)

// Names of the builtin transforms as written in mapping files.
const (
	FuncConvertDate      = "convert_date_to_sql"
	FuncDatestamp        = "datestamp"
	FuncLastPage         = "lastpage"
	FuncSubmitDate       = "submitdate"
	FuncOverrideStatus   = "override_status"
	FuncSatisfactionCode = "getSatisfactionCode"
	FuncRegionCode       = "regionToLSCode"
)

// Options tunes the builtins. Zero fields take the defaults noted.
type Options struct {
	// Logical column names the builtins read.
	StatusColumn       string // "status"
	SatisfactionColumn string // "OverallSatisfaction"
	DatestampColumn    string // "datestamp"
	StartdateColumn    string // "startdate"

	// CompleteStatus is the status value of a finished response ("Complete").
	CompleteStatus string
	// CompletedLabel replaces the status once the last question was
	// answered ("Completed").
	CompletedLabel string
	// LastPage is the page recorded for finished responses ("13").
	LastPage string

	// Location is the zone dates are written in. Default time.Local.
	Location *time.Location
	// Now is the clock. Default time.Now.
	Now func() time.Time
}

// WithDefaults fills zero fields.
func (o Options) WithDefaults() Options {
	def := func(s *string, v string) {
		if *s == "" {
			*s = v
		}
	}
	def(&o.StatusColumn, "status")
	def(&o.SatisfactionColumn, "OverallSatisfaction")
	def(&o.DatestampColumn, "datestamp")
	def(&o.StartdateColumn, "startdate")
	def(&o.CompleteStatus, "Complete")
	def(&o.CompletedLabel, "Completed")
	def(&o.LastPage, "13")
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// NewBuiltins returns a registry holding the builtin transforms. The two
// code lookups use lk.
func NewBuiltins(opts Options, lk *Lookups) *Registry {
	o := opts.WithDefaults()
	r := NewRegistry()

	now := func() string { return o.Now().In(o.Location).Format(SQLDateLayout) }
	completed := func(in Input) bool { return in.Get(o.StatusColumn) == o.CompleteStatus }

	r.MustRegister(Transform{
		Name: FuncConvertDate,
		Apply: func(_ context.Context, in Input) (string, error) {
			return NormalizeDate(in.Cell, o.Location)
		},
	})

	r.MustRegister(Transform{
		Name: FuncDatestamp,
		Apply: func(context.Context, Input) (string, error) {
			return now(), nil
		},
	})

	r.MustRegister(Transform{
		Name:  FuncLastPage,
		Reads: []string{o.StatusColumn},
		Apply: func(_ context.Context, in Input) (string, error) {
			if completed(in) {
				return o.LastPage, nil
			}
			return "", nil
		},
	})

	r.MustRegister(Transform{
		Name:     FuncSubmitDate,
		Reads:    []string{o.StatusColumn, o.StartdateColumn},
		Optional: []string{o.DatestampColumn},
		Apply: func(_ context.Context, in Input) (string, error) {
			if !completed(in) {
				return now(), nil
			}
			if ds := in.Get(o.DatestampColumn); ds != "" {
				return NormalizeDate(ds, o.Location)
			}
			return NormalizeDate(in.Get(o.StartdateColumn), o.Location)
		},
	})

	r.MustRegister(Transform{
		Name:  FuncOverrideStatus,
		Reads: []string{o.SatisfactionColumn},
		Apply: func(_ context.Context, in Input) (string, error) {
			if in.Get(o.SatisfactionColumn) != "" {
				return o.CompletedLabel, nil
			}
			return in.Cell, nil
		},
	})

	r.MustRegister(Transform{
		Name: FuncSatisfactionCode,
		Apply: func(ctx context.Context, in Input) (string, error) {
			return lk.Satisfaction(ctx, in.Cell)
		},
	})

	r.MustRegister(Transform{
		Name: FuncRegionCode,
		Apply: func(ctx context.Context, in Input) (string, error) {
			code, _, err := lk.Region(ctx, in.Cell)
			return code, err
		},
	})

	return r
}
