package arena

import (
	"bytes"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type budget struct {
	limit, used int64
}

func (b *budget) ReserveMemory(n int64) error {
	if b.used+n > b.limit {
		return errors.New("budget exhausted")
	}
	b.used += n
	return nil
}

func (b *budget) ReleaseMemory(n int64) { b.used -= n }

func TestArena_Copy(t *testing.T) {
	a := New(1024)
	defer a.Free()

	src := []byte("ex:alice")
	got, err := a.Copy(src)
	require.NoError(t, err)
	assert.Equal(t, src, got)

	// The copy must not alias the input.
	src[0] = 'X'
	assert.Equal(t, "ex:alice", string(got))

	empty, err := a.Copy(nil)
	require.NoError(t, err)
	assert.Nil(t, empty)

	s, err := a.CopyString("ex:bob")
	require.NoError(t, err)
	assert.Equal(t, "ex:bob", string(s))

	stats := a.Stats()
	assert.Equal(t, 1, stats.Chunks)
	assert.Equal(t, int64(14), stats.BytesUsed)
	assert.Equal(t, int64(2), stats.TotalAllocs)
}

func TestArena_CopiesAreCapped(t *testing.T) {
	a := New(1024)
	defer a.Free()

	first, err := a.CopyString("abc")
	require.NoError(t, err)
	second, err := a.CopyString("def")
	require.NoError(t, err)

	// Appending to one copy must not overwrite its neighbour.
	_ = append(first, 'Z')
	assert.Equal(t, "def", string(second))
}

func TestArena_ManyChunks(t *testing.T) {
	a := New(64)
	defer a.Free()

	var all [][]byte
	for i := 0; i < 100; i++ {
		b, err := a.CopyString(fmt.Sprintf("node-%03d", i))
		require.NoError(t, err)
		all = append(all, b)
	}
	for i, b := range all {
		assert.Equal(t, fmt.Sprintf("node-%03d", i), string(b))
	}
	assert.Greater(t, a.Stats().Chunks, 1)
}

func TestArena_Oversized(t *testing.T) {
	a := New(64)
	defer a.Free()

	small, err := a.CopyString("small")
	require.NoError(t, err)

	big := bytes.Repeat([]byte("x"), 500)
	got, err := a.Copy(big)
	require.NoError(t, err)
	assert.Equal(t, big, got)

	// Small strings keep filling the regular chunk.
	next, err := a.CopyString("next")
	require.NoError(t, err)
	assert.Equal(t, "small", string(small))
	assert.Equal(t, "next", string(next))
	assert.Equal(t, 2, a.Stats().Chunks)
}

func TestArena_MemoryReserver(t *testing.T) {
	b := &budget{limit: 128}
	a := New(128, WithMemoryReserver(b))

	_, err := a.Copy(bytes.Repeat([]byte("a"), 100))
	require.NoError(t, err)
	assert.Equal(t, int64(128), b.used)

	_, err = a.Copy(bytes.Repeat([]byte("b"), 100))
	assert.ErrorIs(t, err, ErrAllocationFailed)

	require.NoError(t, a.Free())
	assert.Zero(t, b.used)
}

func TestArena_Free(t *testing.T) {
	a := New(0)
	_, err := a.CopyString("x")
	require.NoError(t, err)

	require.NoError(t, a.Free())
	require.NoError(t, a.Free())

	_, err = a.CopyString("y")
	assert.ErrorIs(t, err, ErrFreed)
	assert.Contains(t, a.String(), "chunks: 0")
}
