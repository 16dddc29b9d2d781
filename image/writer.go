package image

import (
	"context"
	"fmt"
	"os"

	"github.com/hupe1980/owlite/internal/fs"
	"github.com/hupe1980/owlite/resource"
)

type writeOptions struct {
	fs   fs.FileSystem
	rc   *resource.Controller
	perm os.FileMode
}

// WriteOption configures Write.
type WriteOption func(*writeOptions)

// WithFileSystem writes through fsys instead of the local file system.
func WithFileSystem(fsys fs.FileSystem) WriteOption {
	return func(o *writeOptions) { o.fs = fsys }
}

// WithResourceController reserves the write buffer against rc's memory budget
// and throttles the write with its I/O limit.
func WithResourceController(rc *resource.Controller) WriteOption {
	return func(o *writeOptions) { o.rc = rc }
}

// WithPerm sets the file mode of the created image.
func WithPerm(perm os.FileMode) WriteOption {
	return func(o *writeOptions) { o.perm = perm }
}

// Write serializes g to path and returns the layout that was written.
func Write(ctx context.Context, g Graph, path string, opts ...WriteOption) (Layout, error) {
	o := writeOptions{fs: fs.Default, perm: 0o644}
	for _, opt := range opts {
		opt(&o)
	}

	b, err := NewBuilder(g)
	if err != nil {
		return Layout{}, err
	}
	l := b.Layout()

	size := int64(l.Size)
	if err := o.rc.ReserveMemory(size); err != nil {
		return l, fmt.Errorf("%w: %d byte buffer: %w", ErrOutOfMemory, size, err)
	}
	defer o.rc.ReleaseMemory(size)

	buf, err := b.Build()
	if err != nil {
		return l, err
	}

	if err := o.rc.AcquireIO(ctx, len(buf)); err != nil {
		return l, err
	}
	if err := fs.WriteFileAtomic(o.fs, path, buf, o.perm); err != nil {
		return l, fmt.Errorf("%w: write %s: %w", ErrIO, path, err)
	}
	return l, nil
}

// Encode serializes g into memory.
func Encode(g Graph) ([]byte, error) {
	b, err := NewBuilder(g)
	if err != nil {
		return nil, err
	}
	return b.Build()
}
