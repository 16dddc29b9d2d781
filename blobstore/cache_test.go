package blobstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/owlite/resource"
)

func TestCachingStore(t *testing.T) {
	testStore(t, NewCachingStore(NewMemoryStore(), 1<<10, nil))
}

func TestCachingStore_HitsAndEviction(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	require.NoError(t, inner.Put(ctx, "a", make([]byte, 6)))
	require.NoError(t, inner.Put(ctx, "b", make([]byte, 6)))

	c := NewCachingStore(inner, 10, nil)

	_, err := Get(ctx, c, "a")
	require.NoError(t, err)
	_, err = Get(ctx, c, "a")
	require.NoError(t, err)

	hits, misses := c.Stats()
	assert.Equal(t, int64(1), hits)
	assert.Equal(t, int64(1), misses)
	assert.Equal(t, int64(6), c.Size())

	// b does not fit next to a, so a is evicted.
	_, err = Get(ctx, c, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(6), c.Size())

	_, err = Get(ctx, c, "a")
	require.NoError(t, err)
	_, misses = c.Stats()
	assert.Equal(t, int64(3), misses)
}

func TestCachingStore_PutInvalidates(t *testing.T) {
	ctx := context.Background()
	c := NewCachingStore(NewMemoryStore(), 1<<10, nil)

	require.NoError(t, c.Put(ctx, "k", []byte("old")))
	got, err := Get(ctx, c, "k")
	require.NoError(t, err)
	assert.Equal(t, "old", string(got))

	require.NoError(t, c.Put(ctx, "k", []byte("new")))
	got, err = Get(ctx, c, "k")
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))
}

func TestCachingStore_Oversized(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	require.NoError(t, inner.Put(ctx, "big", make([]byte, 64)))

	c := NewCachingStore(inner, 16, nil)
	got, err := Get(ctx, c, "big")
	require.NoError(t, err)
	assert.Len(t, got, 64)
	assert.Zero(t, c.Size())
}

func TestCachingStore_MemoryBudget(t *testing.T) {
	ctx := context.Background()
	inner := NewMemoryStore()
	require.NoError(t, inner.Put(ctx, "a", make([]byte, 8)))
	require.NoError(t, inner.Put(ctx, "b", make([]byte, 8)))

	rc := resource.NewController(resource.Config{MemoryLimitBytes: 12})
	c := NewCachingStore(inner, 1<<10, rc)

	_, err := Get(ctx, c, "a")
	require.NoError(t, err)
	assert.Equal(t, int64(8), rc.MemoryUsage())

	// The controller refuses b; it is still served.
	got, err := Get(ctx, c, "b")
	require.NoError(t, err)
	assert.Len(t, got, 8)
	assert.Equal(t, int64(8), c.Size())

	require.NoError(t, c.Delete(ctx, "a"))
	assert.Zero(t, rc.MemoryUsage())
}
