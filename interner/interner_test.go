package interner

import (
	"errors"
	"fmt"
	"testing"

	"github.com/hupe1980/owlite/internal/hash"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIntern_RoundTrip(t *testing.T) {
	in := New()
	defer in.Close()

	alice, err := in.InternString("alice")
	require.NoError(t, err)
	bob, err := in.InternString("bob")
	require.NoError(t, err)
	assert.NotEqual(t, alice, bob)

	id, ok := in.Lookup([]byte("alice"))
	require.True(t, ok)
	assert.Equal(t, alice, id)

	text, ok := in.Text(bob)
	require.True(t, ok)
	assert.Equal(t, "bob", string(text))
	assert.Equal(t, "bob", in.String(bob))

	h, ok := in.Hash(alice)
	require.True(t, ok)
	assert.Equal(t, hash.FNV1a([]byte("alice")), h)

	assert.Equal(t, 2, in.Len())
}

func TestIntern_Refcount(t *testing.T) {
	in := New()
	defer in.Close()

	id1, err := in.InternString("knows")
	require.NoError(t, err)
	id2, err := in.InternString("knows")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Equal(t, uint32(2), in.Refcount(id1))
	assert.Equal(t, 1, in.Len())

	// Lookup does not change the refcount.
	_, _ = in.LookupString("knows")
	assert.Equal(t, uint32(2), in.Refcount(id1))
}

func TestIntern_CopiesInput(t *testing.T) {
	in := New()
	defer in.Close()

	buf := []byte("mutable")
	id, err := in.Intern(buf)
	require.NoError(t, err)
	buf[0] = 'X'

	assert.Equal(t, "mutable", in.String(id))
	_, ok := in.Lookup([]byte("Xutable"))
	assert.False(t, ok)
}

func TestIntern_EmptyInput(t *testing.T) {
	in := New()
	defer in.Close()

	_, err := in.Intern(nil)
	assert.ErrorIs(t, err, ErrEmptyInput)
	_, err = in.InternString("")
	assert.ErrorIs(t, err, ErrEmptyInput)

	_, ok := in.Lookup(nil)
	assert.False(t, ok)
}

func TestRelease_SlotReuse(t *testing.T) {
	in := New()
	defer in.Close()

	a, err := in.InternString("a")
	require.NoError(t, err)
	_, err = in.InternString("b")
	require.NoError(t, err)

	in.Release(a)
	assert.Equal(t, uint32(0), in.Refcount(a))
	_, ok := in.LookupString("a")
	assert.False(t, ok)
	_, ok = in.Text(a)
	assert.False(t, ok)
	assert.Equal(t, 1, in.Len())

	// The freed slot is reused by the next new string.
	c, err := in.InternString("c")
	require.NoError(t, err)
	assert.Equal(t, a, c)

	// Re-interning released text still round-trips.
	a2, err := in.InternString("a")
	require.NoError(t, err)
	got, ok := in.LookupString("a")
	require.True(t, ok)
	assert.Equal(t, a2, got)
	assert.Equal(t, "a", in.String(a2))
	assert.Equal(t, "c", in.String(c))
}

func TestRelease_Tolerant(t *testing.T) {
	in := New()
	defer in.Close()

	id, err := in.InternString("x")
	require.NoError(t, err)

	in.Release(id)
	in.Release(id) // double release
	in.Release(12345)

	assert.Zero(t, in.Len())
	assert.Zero(t, in.Refcount(id))
}

func TestRelease_ChainUnlink(t *testing.T) {
	// A tiny table keeps chains long.
	in := New(WithCapacity(1))
	defer in.Close()

	ids := make([]uint32, 0, 3)
	for _, s := range []string{"one", "two", "three"} {
		id, err := in.InternString(s)
		require.NoError(t, err)
		ids = append(ids, id)
	}

	in.Release(ids[1]) // middle of the chain
	for i, s := range []string{"one", "two", "three"} {
		id, ok := in.LookupString(s)
		if i == 1 {
			assert.False(t, ok)
			continue
		}
		require.True(t, ok, s)
		assert.Equal(t, ids[i], id)
	}
}

func TestRehash(t *testing.T) {
	in := New(WithCapacity(4))
	defer in.Close()

	const n = 1000
	ids := make(map[string]uint32, n)
	for i := 0; i < n; i++ {
		s := fmt.Sprintf("node-%d", i)
		id, err := in.InternString(s)
		require.NoError(t, err)
		ids[s] = id
	}

	assert.Equal(t, n, in.Len())
	assert.GreaterOrEqual(t, float64(in.Capacity())*MaxLoadFactor, float64(n))

	for s, want := range ids {
		got, ok := in.LookupString(s)
		require.True(t, ok, s)
		assert.Equal(t, want, got)
		assert.Equal(t, s, in.String(got))
	}
}

func TestFixedCapacity(t *testing.T) {
	in := New(WithFixedCapacity(4)) // room for 3 entries at 0.75
	defer in.Close()

	for _, s := range []string{"a", "b", "c"} {
		_, err := in.InternString(s)
		require.NoError(t, err)
	}

	_, err := in.InternString("d")
	require.ErrorIs(t, err, ErrTableFull)
	assert.Equal(t, 4, in.Capacity())
	assert.Equal(t, 3, in.Len())

	// Existing strings still intern.
	_, err = in.InternString("a")
	require.NoError(t, err)

	// Releasing makes room again.
	id, _ := in.LookupString("b")
	in.Release(id)
	_, err = in.InternString("d")
	require.NoError(t, err)
}

func TestMaxEntries(t *testing.T) {
	in := New(WithMaxEntries(2))
	defer in.Close()

	_, err := in.InternString("a")
	require.NoError(t, err)
	_, err = in.InternString("b")
	require.NoError(t, err)
	_, err = in.InternString("c")
	assert.ErrorIs(t, err, ErrTableFull)
}

type refuseAll struct{}

func (refuseAll) ReserveMemory(int64) error { return errors.New("no memory") }
func (refuseAll) ReleaseMemory(int64)       {}

func TestIntern_OutOfMemory(t *testing.T) {
	in := New(WithMemoryReserver(refuseAll{}))
	defer in.Close()

	_, err := in.InternString("x")
	require.ErrorIs(t, err, ErrOutOfMemory)
	assert.Zero(t, in.Len())
	_, ok := in.LookupString("x")
	assert.False(t, ok)
}

func TestForEach(t *testing.T) {
	in := New()
	defer in.Close()

	for _, s := range []string{"x", "y", "z"} {
		_, err := in.InternString(s)
		require.NoError(t, err)
	}
	y, _ := in.LookupString("y")
	in.Release(y)

	var got []string
	in.ForEach(func(_ uint32, text []byte) bool {
		got = append(got, string(text))
		return true
	})
	assert.Equal(t, []string{"x", "z"}, got)
	assert.Equal(t, uint32(3), in.MaxID())
}

func TestClose(t *testing.T) {
	in := New()
	id, err := in.InternString("gone")
	require.NoError(t, err)

	require.NoError(t, in.Close())
	require.NoError(t, in.Close())

	_, err = in.InternString("x")
	assert.ErrorIs(t, err, ErrClosed)
	_, ok := in.Text(id)
	assert.False(t, ok)
}
