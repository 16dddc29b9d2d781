package blobstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations return an error that satisfies errors.Is(err, ErrNotFound).
var ErrNotFound = os.ErrNotExist

// BlobStore stores immutable named blobs.
type BlobStore interface {
	// Open opens a blob for reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Put writes a blob atomically, replacing any previous content.
	Put(ctx context.Context, name string, data []byte) error
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the names with the given prefix in ascending order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a blob.
type Blob interface {
	ReadAt(ctx context.Context, p []byte, off int64) (int, error)
	Close() error
	// Size returns the size of the blob in bytes.
	Size() int64
}

// Mappable is implemented by blobs whose content is already in memory.
type Mappable interface {
	// Bytes returns the content without copying. The slice is valid until
	// the Blob is closed.
	Bytes() ([]byte, error)
}

// ReadAll returns the content of blob, without copying when it is Mappable.
func ReadAll(ctx context.Context, blob Blob) ([]byte, error) {
	if m, ok := blob.(Mappable); ok {
		return m.Bytes()
	}
	data := make([]byte, blob.Size())
	if len(data) == 0 {
		return data, nil
	}
	n, err := blob.ReadAt(ctx, data, 0)
	if err != nil && !(errors.Is(err, io.EOF) && n == len(data)) {
		return nil, err
	}
	if n != len(data) {
		return nil, fmt.Errorf("short read: %d of %d bytes", n, len(data))
	}
	return data, nil
}

// Get opens name, reads it fully into a private buffer and closes it.
func Get(ctx context.Context, store BlobStore, name string) ([]byte, error) {
	blob, err := store.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = blob.Close() }()

	data, err := ReadAll(ctx, blob)
	if err != nil {
		return nil, err
	}
	if _, ok := blob.(Mappable); ok {
		data = append([]byte(nil), data...)
	}
	return data, nil
}

// NewReader returns an io.Reader over the whole blob that passes ctx to every
// ReadAt.
func NewReader(ctx context.Context, blob Blob) io.Reader {
	return &blobReader{ctx: ctx, blob: blob, limit: blob.Size()}
}

type blobReader struct {
	ctx   context.Context
	blob  Blob
	off   int64
	limit int64
}

func (r *blobReader) Read(p []byte) (int, error) {
	if r.off >= r.limit {
		return 0, io.EOF
	}
	if remaining := r.limit - r.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}
	n, err := r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if errors.Is(err, io.EOF) && r.off >= r.limit {
		err = nil
	}
	return n, err
}
