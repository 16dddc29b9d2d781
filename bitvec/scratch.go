package bitvec

// Scratch is a growable visited set with O(k) reset, where k is the number of
// bits set since the last reset. Closure work lists reuse one per worker.
type Scratch struct {
	bits  []uint64
	dirty []uint64
}

// NewScratch creates a Scratch sized for capacity positions. It grows on demand.
func NewScratch(capacity int) *Scratch {
	return &Scratch{
		bits:  make([]uint64, (capacity+WordBits-1)/WordBits),
		dirty: make([]uint64, 0, 64),
	}
}

// TestAndSet marks pos and reports whether it was already marked.
func (s *Scratch) TestAndSet(pos uint64) bool {
	i := int(pos / WordBits)
	if i >= len(s.bits) {
		s.grow(i + 1)
	}
	mask := uint64(1) << (pos % WordBits)
	if s.bits[i]&mask != 0 {
		return true
	}
	s.bits[i] |= mask
	s.dirty = append(s.dirty, pos)
	return false
}

// Test reports whether pos is marked.
func (s *Scratch) Test(pos uint64) bool {
	i := int(pos / WordBits)
	if i >= len(s.bits) {
		return false
	}
	return s.bits[i]&(uint64(1)<<(pos%WordBits)) != 0
}

// Len returns the number of marked positions.
func (s *Scratch) Len() int {
	return len(s.dirty)
}

// Reset clears every marked position.
func (s *Scratch) Reset() {
	for _, pos := range s.dirty {
		s.bits[pos/WordBits] &^= uint64(1) << (pos % WordBits)
	}
	s.dirty = s.dirty[:0]
}

func (s *Scratch) grow(n int) {
	bits := make([]uint64, max(n, 2*len(s.bits)))
	copy(bits, s.bits)
	s.bits = bits
}
