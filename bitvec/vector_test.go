package bitvec

import (
	"errors"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// tailClean reports whether no bit at position >= Len is set.
func tailClean(v *Vector) bool {
	if v.size%WordBits == 0 || len(v.words) == 0 {
		return true
	}
	last := v.words[len(v.words)-1]
	return last>>(v.size%WordBits) == 0
}

func TestNew(t *testing.T) {
	for _, size := range []uint64{0, 1, 63, 64, 65, 1000} {
		v := New(size)
		assert.Equal(t, size, v.Len())
		assert.Len(t, v.Words(), int((size+63)/64))
		assert.Zero(t, v.Popcount())
	}
}

func TestSetGet(t *testing.T) {
	v := New(100)
	v.Set(0, true)
	v.Set(63, true)
	v.Set(64, true)
	v.Set(99, true)

	assert.True(t, v.Get(0))
	assert.True(t, v.Get(63))
	assert.True(t, v.Get(64))
	assert.True(t, v.Get(99))
	assert.False(t, v.Get(1))
	assert.Equal(t, 4, v.Popcount())

	v.Set(63, false)
	assert.False(t, v.Get(63))
	assert.Equal(t, 3, v.Popcount())
}

func TestSetOutOfRange(t *testing.T) {
	v := New(70)
	v.Set(70, true)
	v.Set(127, true)
	v.Set(1<<40, true)

	assert.Zero(t, v.Popcount())
	assert.False(t, v.Get(70))
	assert.False(t, v.Get(1<<40))
	assert.True(t, tailClean(v))
}

func TestTestAndSet(t *testing.T) {
	v := New(10)
	assert.False(t, v.TestAndSet(3))
	assert.True(t, v.TestAndSet(3))
	assert.False(t, v.TestAndSet(10))
	assert.Equal(t, 1, v.Popcount())
}

func TestAlgebra(t *testing.T) {
	a := New(130)
	b := New(130)
	for _, p := range []uint64{1, 5, 64, 129} {
		a.Set(p, true)
	}
	for _, p := range []uint64{5, 64, 100} {
		b.Set(p, true)
	}

	and, err := And(a, b)
	require.NoError(t, err)
	assert.Equal(t, []uint64{5, 64}, and.Ones())

	or, err := Or(a, b)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 5, 64, 100, 129}, or.Ones())

	xor, err := Xor(a, b)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 100, 129}, xor.Ones())

	diff, err := AndNot(a, b)
	require.NoError(t, err)
	assert.Equal(t, []uint64{1, 129}, diff.Ones())

	n, err := AndPopcount(a, b)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	// Bounds: |A∧B| ≤ min(|A|,|B|), |A∨B| ≥ max(|A|,|B|).
	assert.LessOrEqual(t, and.Popcount(), min(a.Popcount(), b.Popcount()))
	assert.GreaterOrEqual(t, or.Popcount(), max(a.Popcount(), b.Popcount()))

	for _, r := range []*Vector{and, or, xor, diff} {
		assert.True(t, tailClean(r))
		assert.Equal(t, uint64(130), r.Len())
	}
}

func TestXorSelfIsZero(t *testing.T) {
	a := New(200)
	for i := uint64(0); i < 200; i += 7 {
		a.Set(i, true)
	}
	x, err := Xor(a, a)
	require.NoError(t, err)
	assert.Zero(t, x.Popcount())
	assert.True(t, x.IsEmpty())
}

func TestSizeMismatch(t *testing.T) {
	a, b := New(10), New(11)

	for _, op := range []func(a, b *Vector) (*Vector, error){And, Or, Xor, AndNot} {
		_, err := op(a, b)
		require.ErrorIs(t, err, ErrSizeMismatch)

		var sm *SizeMismatchError
		require.True(t, errors.As(err, &sm))
		assert.Equal(t, uint64(10), sm.Left)
		assert.Equal(t, uint64(11), sm.Right)
	}

	_, err := a.OrInPlace(b)
	assert.ErrorIs(t, err, ErrSizeMismatch)
	_, err = a.Contains(b)
	assert.ErrorIs(t, err, ErrSizeMismatch)
	_, err = AndPopcount(a, b)
	assert.ErrorIs(t, err, ErrSizeMismatch)
}

func TestMatchesMask(t *testing.T) {
	v := New(64)
	v.Set(0, true)
	v.Set(2, true)
	v.Set(5, true)

	assert.True(t, v.MatchesMask(0b101))
	assert.True(t, v.MatchesMask(0b100101))
	assert.False(t, v.MatchesMask(0b11))
	assert.True(t, v.MatchesMask(0))

	empty := New(0)
	assert.True(t, empty.MatchesMask(0))
	assert.False(t, empty.MatchesMask(1))
}

func TestContains(t *testing.T) {
	v := New(300)
	req := New(300)
	for _, p := range []uint64{3, 150, 299} {
		v.Set(p, true)
	}
	req.Set(150, true)
	req.Set(299, true)

	ok, err := v.Contains(req)
	require.NoError(t, err)
	assert.True(t, ok)

	req.Set(4, true)
	ok, err = v.Contains(req)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOrInPlace(t *testing.T) {
	a := New(100)
	b := New(100)
	b.Set(42, true)

	changed, err := a.OrInPlace(b)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, a.Get(42))

	changed, err = a.OrInPlace(b)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestGrow(t *testing.T) {
	v := New(10)
	v.Set(9, true)
	require.NoError(t, v.Grow(200))
	assert.Equal(t, uint64(200), v.Len())
	assert.True(t, v.Get(9))
	assert.Equal(t, 1, v.Popcount())

	v.Set(150, true)
	assert.True(t, v.Get(150))

	require.NoError(t, v.Grow(5))
	assert.Equal(t, uint64(200), v.Len())
	assert.True(t, tailClean(v))
}

func TestGrowReusedCapacityIsZero(t *testing.T) {
	v := New(128)
	v.words = v.words[:1:2]
	v.words[0] = 1
	v.size = 64
	// Simulate a stale word in spare capacity.
	v.words[:2][1] = ^uint64(0)

	require.NoError(t, v.Grow(128))
	assert.Equal(t, 1, v.Popcount())
}

func TestIteration(t *testing.T) {
	v := New(300)
	want := []uint64{0, 63, 64, 128, 255, 299}
	for _, p := range want {
		v.Set(p, true)
	}
	assert.Equal(t, want, v.Ones())

	var got []uint64
	for p := range v.All() {
		got = append(got, p)
	}
	assert.Equal(t, want, got)

	var first []uint64
	v.ForEach(func(pos uint64) bool {
		first = append(first, pos)
		return len(first) < 2
	})
	assert.Equal(t, []uint64{0, 63}, first)

	p, ok := v.NextSet(65)
	require.True(t, ok)
	assert.Equal(t, uint64(128), p)
	p, ok = v.NextSet(64)
	require.True(t, ok)
	assert.Equal(t, uint64(64), p)
	_, ok = v.NextSet(300)
	assert.False(t, ok)
	_, ok = New(10).NextSet(0)
	assert.False(t, ok)
}

func TestCloneEqualClear(t *testing.T) {
	v := New(90)
	v.Set(7, true)
	c := v.Clone()
	assert.True(t, v.Equal(c))

	c.Set(8, true)
	assert.False(t, v.Equal(c))
	assert.False(t, v.Get(8))
	assert.False(t, v.Equal(New(91)))

	c.Clear()
	assert.True(t, c.IsEmpty())
	assert.Equal(t, uint64(90), c.Len())
}

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

func TestNewBudgeted(t *testing.T) {
	b := &budget{limit: 64}

	v, err := NewBudgeted(256, b) // 4 words
	require.NoError(t, err)
	assert.Equal(t, int64(32), b.used)

	_, err = NewBudgeted(512, b) // 8 words
	require.ErrorIs(t, err, ErrOutOfMemory)

	err = v.Grow(1024)
	require.ErrorIs(t, err, ErrOutOfMemory)
	assert.Equal(t, uint64(256), v.Len())

	v.Release()
	assert.Zero(t, b.used)
}

func TestPopcountMatchesReference(t *testing.T) {
	v := New(1000)
	for i := uint64(0); i < 1000; i += 3 {
		v.Set(i, true)
	}
	ref := 0
	for _, w := range v.Words() {
		ref += bits.OnesCount64(w)
	}
	assert.Equal(t, ref, v.Popcount())
	assert.Equal(t, 334, v.Popcount())
}
