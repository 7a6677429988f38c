// Package datasource opens the raw bytes of a survey export.
//
// Implementations live in subpackages: file for local paths and httpds for
// exports downloaded over HTTP(S).
package datasource

import (
	"context"
	"io"
)

// Source yields the export as a stream. The caller closes it.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
