// Package file reads exports from the local filesystem.
package file

import (
	"context"
	"io"
	"os"

	"tableconverter/internal/datasource"
	"tableconverter/internal/errors"
)

// Local opens one export file from disk.
type Local struct{ path string }

// NewLocal returns a Local source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

var _ datasource.Source = (*Local)(nil)

// Open returns the file for reading. A canceled context short-circuits
// before the filesystem is touched. Filesystem errors are marked as data
// errors and still match os.ErrNotExist and friends.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, errors.WrapData(err, "open %s", l.path)
	}
	return f, nil
}

// Path reports the file the source reads.
func (l *Local) Path() string { return l.path }
