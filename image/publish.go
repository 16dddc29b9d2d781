package image

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/owlite/blobstore"
	"github.com/hupe1980/owlite/internal/fs"
	"github.com/hupe1980/owlite/resource"
)

type publishOptions struct {
	compression Compression
	rc          *resource.Controller
	fs          fs.FileSystem
}

// PublishOption configures Publish, Fetch and FetchTo.
type PublishOption func(*publishOptions)

// WithCompression sets the codec of the published blob. Default: zstd.
func WithCompression(c Compression) PublishOption {
	return func(o *publishOptions) { o.compression = c }
}

// WithPublishResourceController throttles transfers with rc's I/O limit.
func WithPublishResourceController(rc *resource.Controller) PublishOption {
	return func(o *publishOptions) { o.rc = rc }
}

// WithPublishFileSystem sets the file system FetchTo writes through.
func WithPublishFileSystem(fsys fs.FileSystem) PublishOption {
	return func(o *publishOptions) { o.fs = fsys }
}

func applyPublish(opts []PublishOption) publishOptions {
	o := publishOptions{compression: CompressionZSTD, fs: fs.Default}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Publish validates the image at path, packs it and stores it as name.
// It returns the size of the stored blob.
func Publish(ctx context.Context, bs blobstore.BlobStore, name, path string, opts ...PublishOption) (int64, error) {
	v, err := Open(path)
	if err != nil {
		return 0, err
	}
	defer func() { _ = v.Close() }()

	return PublishView(ctx, bs, name, v, opts...)
}

// PublishView packs an already opened image and stores it as name.
func PublishView(ctx context.Context, bs blobstore.BlobStore, name string, v *View, opts ...PublishOption) (int64, error) {
	o := applyPublish(opts)

	var buf bytes.Buffer
	w := resource.NewRateLimitedWriter(ctx, &buf, o.rc)
	n, err := Pack(w, v.Bytes(), o.compression)
	if err != nil {
		return 0, fmt.Errorf("pack %s: %w", name, err)
	}
	if err := bs.Put(ctx, name, buf.Bytes()); err != nil {
		return 0, fmt.Errorf("%w: put %s: %w", ErrIO, name, err)
	}
	return n, nil
}

// Fetch downloads name and opens it as an in-memory View.
func Fetch(ctx context.Context, bs blobstore.BlobStore, name string, opts ...PublishOption) (*View, error) {
	data, err := fetch(ctx, bs, name, applyPublish(opts))
	if err != nil {
		return nil, err
	}
	return OpenBytes(data)
}

// FetchTo downloads name, writes the unpacked image to path and maps it.
func FetchTo(ctx context.Context, bs blobstore.BlobStore, name, path string, opts ...PublishOption) (*View, error) {
	o := applyPublish(opts)
	data, err := fetch(ctx, bs, name, o)
	if err != nil {
		return nil, err
	}
	// Validate before touching the file system.
	if _, err := OpenBytes(data); err != nil {
		return nil, err
	}
	if err := fs.WriteFileAtomic(o.fs, path, data, 0o644); err != nil {
		return nil, fmt.Errorf("%w: write %s: %w", ErrIO, path, err)
	}
	return Open(path, WithVerifyChecksum(false))
}

func fetch(ctx context.Context, bs blobstore.BlobStore, name string, o publishOptions) ([]byte, error) {
	blob, err := bs.Open(ctx, name)
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s: %w", ErrIO, name, os.ErrNotExist)
		}
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, name, err)
	}
	defer func() { _ = blob.Close() }()

	packed := make([]byte, blob.Size())
	r := resource.NewRateLimitedReader(ctx, blobstore.NewReader(ctx, blob), o.rc)
	if _, err := io.ReadFull(r, packed); err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrIO, name, err)
	}
	data, err := Unpack(packed)
	if err != nil {
		return nil, formatErr(err, "unpack %s", name)
	}
	return data, nil
}
