package blobstore

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testStore(t *testing.T, store BlobStore) {
	ctx := context.Background()

	_, err := store.Open(ctx, "missing")
	require.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, store.Put(ctx, "graphs/a.owlz", []byte("alpha")))
	require.NoError(t, store.Put(ctx, "graphs/b.owlz", []byte("beta")))
	require.NoError(t, store.Put(ctx, "other", []byte("x")))

	names, err := store.List(ctx, "graphs/")
	require.NoError(t, err)
	assert.Equal(t, []string{"graphs/a.owlz", "graphs/b.owlz"}, names)

	blob, err := store.Open(ctx, "graphs/b.owlz")
	require.NoError(t, err)
	assert.Equal(t, int64(4), blob.Size())

	buf := make([]byte, 3)
	n, err := blob.ReadAt(ctx, buf, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "eta", string(buf))

	n, err = blob.ReadAt(ctx, buf, 2)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 2, n)
	require.NoError(t, blob.Close())

	data, err := Get(ctx, store, "graphs/a.owlz")
	require.NoError(t, err)
	assert.Equal(t, "alpha", string(data))

	require.NoError(t, store.Put(ctx, "graphs/a.owlz", []byte("replaced")))
	data, err = Get(ctx, store, "graphs/a.owlz")
	require.NoError(t, err)
	assert.Equal(t, "replaced", string(data))

	require.NoError(t, store.Delete(ctx, "graphs/a.owlz"))
	require.NoError(t, store.Delete(ctx, "graphs/a.owlz"))
	_, err = store.Open(ctx, "graphs/a.owlz")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestLocalStore(t *testing.T) {
	testStore(t, NewLocalStore(t.TempDir()))
}

func TestLocalStore_ListMissingRoot(t *testing.T) {
	store := NewLocalStore(t.TempDir() + "/nope")
	names, err := store.List(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestMemoryStore_PutCopies(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	data := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", data))
	data[0] = 'X'

	got, err := Get(ctx, store, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestNewReader(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Put(ctx, "k", []byte("hello world")))

	blob, err := store.Open(ctx, "k")
	require.NoError(t, err)
	defer func() { _ = blob.Close() }()

	got, err := io.ReadAll(NewReader(ctx, blob))
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(got))

	buf := make([]byte, 4)
	r := NewReader(ctx, blob)
	n, err := r.Read(buf)
	require.NoError(t, err)
	assert.Equal(t, "hell", string(buf[:n]))
}
