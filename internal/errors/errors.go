// Package errors provides error handling for tableconverter.
//
// It re-exports github.com/cockroachdb/errors so every package wraps errors
// the same way (stack traces, hints, details) and adds the four error kinds a
// conversion run can fail with:
//
//   - ErrConfiguration: the mapping file or run configuration is invalid.
//   - ErrData: the source data does not match what the mapping expects.
//   - ErrConversion: an output row does not line up with the output headers.
//   - ErrSink: the destination rejected a write or a required query failed.
//
// Kinds are attached with Mark and tested with Is:
//
//	err := errors.Configurationf("duplicate output header %q", h)
//	if errors.Is(err, errors.ErrConfiguration) { ... }
package errors

import (
	"fmt"
	"strings"

	crdb "github.com/cockroachdb/errors"
)

// Core error creation and wrapping
var (
	New          = crdb.New
	Newf         = crdb.Newf
	Wrap         = crdb.Wrap
	Wrapf        = crdb.Wrapf
	WithStack    = crdb.WithStack
	WithMessage  = crdb.WithMessage
	WithMessagef = crdb.WithMessagef
	Mark         = crdb.Mark
)

// User-facing messages and details
var (
	WithHint      = crdb.WithHint
	WithHintf     = crdb.WithHintf
	WithDetail    = crdb.WithDetail
	WithDetailf   = crdb.WithDetailf
	GetAllHints   = crdb.GetAllHints
	FlattenHints  = crdb.FlattenHints
	GetAllDetails = crdb.GetAllDetails
)

// Error inspection
var (
	Is        = crdb.Is
	IsAny     = crdb.IsAny
	As        = crdb.As
	Unwrap    = crdb.Unwrap
	UnwrapAll = crdb.UnwrapAll
)

// Error kinds. Use these with Is().
var (
	ErrConfiguration = New("configuration error")
	ErrData          = New("data error")
	ErrConversion    = New("conversion error")
	ErrSink          = New("sink error")
)

// Configurationf creates an error marked as ErrConfiguration.
func Configurationf(format string, args ...interface{}) error {
	return Mark(crdb.NewWithDepthf(1, format, args...), ErrConfiguration)
}

// Dataf creates an error marked as ErrData.
func Dataf(format string, args ...interface{}) error {
	return Mark(crdb.NewWithDepthf(1, format, args...), ErrData)
}

// Sinkf creates an error marked as ErrSink.
func Sinkf(format string, args ...interface{}) error {
	return Mark(crdb.NewWithDepthf(1, format, args...), ErrSink)
}

// WrapConfiguration wraps err with a message and marks it as ErrConfiguration.
func WrapConfiguration(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Mark(crdb.WrapWithDepthf(1, err, format, args...), ErrConfiguration)
}

// WrapData wraps err with a message and marks it as ErrData.
func WrapData(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Mark(crdb.WrapWithDepthf(1, err, format, args...), ErrData)
}

// WrapSink wraps err with a message and marks it as ErrSink.
func WrapSink(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return Mark(crdb.WrapWithDepthf(1, err, format, args...), ErrSink)
}

// ConversionError reports an output row whose length differs from the output
// header list. It carries both sequences so the mismatch can be diagnosed.
type ConversionError struct {
	Line    int
	Output  []string
	Headers []string
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("line %d: output has %d values but %d headers (values=[%s] headers=[%s])",
		e.Line, len(e.Output), len(e.Headers),
		strings.Join(e.Output, ", "), strings.Join(e.Headers, ", "))
}

// Is lets errors.Is(err, ErrConversion) match a *ConversionError.
func (e *ConversionError) Is(target error) bool {
	return target == ErrConversion
}

// Kind names the error kind of err for logs and exit messages. It returns
// "internal" when err carries none of the known kinds.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case Is(err, ErrConfiguration):
		return "configuration"
	case Is(err, ErrData):
		return "data"
	case Is(err, ErrConversion):
		return "conversion"
	case Is(err, ErrSink):
		return "sink"
	default:
		return "internal"
	}
}
