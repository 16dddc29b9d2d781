package bitvec

import (
	"errors"
	"fmt"
	"iter"
	"math/bits"
)

// WordBits is the number of bits per backing word.
const WordBits = 64

var (
	// ErrSizeMismatch is returned by binary operations on vectors of different size.
	ErrSizeMismatch = errors.New("bitvec: size mismatch")
	// ErrOutOfMemory is returned when a budgeted allocation is refused.
	ErrOutOfMemory = errors.New("bitvec: out of memory")
)

// SizeMismatchError reports the sizes of mismatched operands.
type SizeMismatchError struct {
	Op          string
	Left, Right uint64
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("bitvec: %s of size %d and %d", e.Op, e.Left, e.Right)
}

func (e *SizeMismatchError) Unwrap() error { return ErrSizeMismatch }

// MemoryReserver accounts backing storage. *resource.Controller implements it.
type MemoryReserver interface {
	ReserveMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

// Vector is a bit vector with a fixed logical size.
type Vector struct {
	words    []uint64
	size     uint64
	reserver MemoryReserver
}

func wordsFor(size uint64) int {
	return int((size + WordBits - 1) / WordBits)
}

// New allocates a zeroed vector of size bits.
func New(size uint64) *Vector {
	return &Vector{
		words: make([]uint64, wordsFor(size)),
		size:  size,
	}
}

// NewBudgeted allocates a vector whose storage, including later growth, is
// reserved against r. It fails with ErrOutOfMemory when r refuses.
func NewBudgeted(size uint64, r MemoryReserver) (*Vector, error) {
	if r != nil {
		if err := r.ReserveMemory(int64(wordsFor(size)) * 8); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
		}
	}
	v := New(size)
	v.reserver = r
	return v, nil
}

// Len returns the logical size in bits.
func (v *Vector) Len() uint64 {
	return v.size
}

// Words exposes the backing words. Callers must not modify them.
func (v *Vector) Words() []uint64 {
	return v.words
}

// Set sets (value=true) or clears the bit at pos. Positions >= Len are ignored.
func (v *Vector) Set(pos uint64, value bool) {
	if pos >= v.size {
		return
	}
	mask := uint64(1) << (pos % WordBits)
	if value {
		v.words[pos/WordBits] |= mask
	} else {
		v.words[pos/WordBits] &^= mask
	}
}

// TestAndSet sets the bit at pos and reports whether it was already set.
// Positions >= Len report false and change nothing.
func (v *Vector) TestAndSet(pos uint64) bool {
	if pos >= v.size {
		return false
	}
	w := &v.words[pos/WordBits]
	mask := uint64(1) << (pos % WordBits)
	if *w&mask != 0 {
		return true
	}
	*w |= mask
	return false
}

// Get reports whether the bit at pos is set. Positions >= Len report false.
func (v *Vector) Get(pos uint64) bool {
	if pos >= v.size {
		return false
	}
	return v.words[pos/WordBits]&(uint64(1)<<(pos%WordBits)) != 0
}

// Grow extends the logical size to at least size. New bits are zero; a
// smaller size is a no-op.
func (v *Vector) Grow(size uint64) error {
	if size <= v.size {
		return nil
	}
	need := wordsFor(size)
	if need > len(v.words) {
		if need > cap(v.words) {
			newCap := max(need, 2*cap(v.words))
			if v.reserver != nil {
				if err := v.reserver.ReserveMemory(int64(newCap-cap(v.words)) * 8); err != nil {
					return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
				}
			}
			words := make([]uint64, need, newCap)
			copy(words, v.words)
			v.words = words
		} else {
			// Reused capacity may hold stale bits from a previous Clear/shrink.
			old := len(v.words)
			v.words = v.words[:need]
			clear(v.words[old:])
		}
	}
	v.size = size
	return nil
}

// Release returns the budget reservation of a NewBudgeted vector. The vector
// must not be used afterwards.
func (v *Vector) Release() {
	if v.reserver != nil {
		v.reserver.ReleaseMemory(int64(cap(v.words)) * 8)
		v.reserver = nil
	}
	v.words = nil
	v.size = 0
}

// Clear zeroes every bit.
func (v *Vector) Clear() {
	clear(v.words)
}

// Clone returns an unbudgeted deep copy.
func (v *Vector) Clone() *Vector {
	c := &Vector{words: make([]uint64, len(v.words)), size: v.size}
	copy(c.words, v.words)
	return c
}

// Popcount returns the number of set bits.
func (v *Vector) Popcount() int {
	n := 0
	for _, w := range v.words {
		n += bits.OnesCount64(w)
	}
	return n
}

// IsEmpty reports whether no bit is set.
func (v *Vector) IsEmpty() bool {
	for _, w := range v.words {
		if w != 0 {
			return false
		}
	}
	return true
}

// Equal reports whether v and o have the same size and bits.
func (v *Vector) Equal(o *Vector) bool {
	if v.size != o.size {
		return false
	}
	for i, w := range v.words {
		if o.words[i] != w {
			return false
		}
	}
	return true
}

// MatchesMask reports whether every bit of mask is set in the first word.
// It is the fast path for constraint sets that fit one machine word; use
// Contains for larger ones.
func (v *Vector) MatchesMask(mask uint64) bool {
	if len(v.words) == 0 {
		return mask == 0
	}
	return v.words[0]&mask == mask
}

// Contains reports whether every bit set in required is also set in v.
func (v *Vector) Contains(required *Vector) (bool, error) {
	both, err := And(v, required)
	if err != nil {
		return false, err
	}
	return both.Popcount() == required.Popcount(), nil
}

// NextSet returns the first set position >= from.
func (v *Vector) NextSet(from uint64) (uint64, bool) {
	if from >= v.size {
		return 0, false
	}
	i := int(from / WordBits)
	w := v.words[i] &^ ((uint64(1) << (from % WordBits)) - 1)
	for {
		if w != 0 {
			return uint64(i)*WordBits + uint64(bits.TrailingZeros64(w)), true
		}
		i++
		if i >= len(v.words) {
			return 0, false
		}
		w = v.words[i]
	}
}

// ForEach calls fn for every set position in ascending order until fn
// returns false.
func (v *Vector) ForEach(fn func(pos uint64) bool) {
	for i, w := range v.words {
		for w != 0 {
			pos := uint64(i)*WordBits + uint64(bits.TrailingZeros64(w))
			if !fn(pos) {
				return
			}
			w &= w - 1
		}
	}
}

// All iterates set positions in ascending order.
func (v *Vector) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		v.ForEach(yield)
	}
}

// Ones returns the set positions in ascending order.
func (v *Vector) Ones() []uint64 {
	out := make([]uint64, 0, v.Popcount())
	v.ForEach(func(pos uint64) bool {
		out = append(out, pos)
		return true
	})
	return out
}

func (v *Vector) String() string {
	return fmt.Sprintf("bitvec.Vector{size: %d, ones: %d}", v.size, v.Popcount())
}
