package minio

import (
	"context"
	"io"
	"testing"

	"github.com/hupe1980/owlite/blobstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrimRoot(t *testing.T) {
	assert.Equal(t, "a.owlz", trimRoot("graphs/a.owlz", "graphs/"))
	assert.Equal(t, "a.owlz", trimRoot("graphs/a.owlz", "graphs"))
	assert.Equal(t, "x/a.owlz", trimRoot("x/a.owlz", ""))
}

// TestMinioStore_Integration requires a running MinIO instance.
func TestMinioStore_Integration(t *testing.T) {
	store, err := New(Config{
		Endpoint:  "localhost:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
		Bucket:    "test-owlite",
		Prefix:    "test-prefix/",
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx := context.Background()
	if _, err := store.client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}
	require.NoError(t, store.EnsureBucket(ctx))

	data := []byte("hello minio world")
	require.NoError(t, store.Put(ctx, "test.owlz", data))

	blob, err := store.Open(ctx, "test.owlz")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, 5)
	n, err := blob.ReadAt(ctx, buf, 12)
	assert.Equal(t, 5, n)
	assert.NoError(t, err)
	assert.Equal(t, "world", string(buf))

	n, err = blob.ReadAt(ctx, buf, 15)
	assert.Equal(t, 2, n)
	assert.ErrorIs(t, err, io.EOF)

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Contains(t, names, "test.owlz")

	require.NoError(t, store.Delete(ctx, "test.owlz"))
	_, err = store.Open(ctx, "test.owlz")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
