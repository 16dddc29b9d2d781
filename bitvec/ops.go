package bitvec

import "math/bits"

func combine(op string, a, b *Vector, f func(x, y uint64) uint64) (*Vector, error) {
	if a.size != b.size {
		return nil, &SizeMismatchError{Op: op, Left: a.size, Right: b.size}
	}
	out := New(a.size)
	for i := range out.words {
		out.words[i] = f(a.words[i], b.words[i])
	}
	return out, nil
}

// And returns a new vector with the bits set in both a and b.
func And(a, b *Vector) (*Vector, error) {
	return combine("and", a, b, func(x, y uint64) uint64 { return x & y })
}

// Or returns a new vector with the bits set in a or b.
func Or(a, b *Vector) (*Vector, error) {
	return combine("or", a, b, func(x, y uint64) uint64 { return x | y })
}

// Xor returns a new vector with the bits set in exactly one of a and b.
func Xor(a, b *Vector) (*Vector, error) {
	return combine("xor", a, b, func(x, y uint64) uint64 { return x ^ y })
}

// AndNot returns a new vector with the bits set in a but not in b.
func AndNot(a, b *Vector) (*Vector, error) {
	return combine("andnot", a, b, func(x, y uint64) uint64 { return x &^ y })
}

// OrInPlace sets in v every bit set in o and reports whether v changed.
// The closure loop uses the change flag to detect its fixed point.
func (v *Vector) OrInPlace(o *Vector) (bool, error) {
	if v.size != o.size {
		return false, &SizeMismatchError{Op: "or", Left: v.size, Right: o.size}
	}
	changed := false
	for i, w := range o.words {
		if merged := v.words[i] | w; merged != v.words[i] {
			v.words[i] = merged
			changed = true
		}
	}
	return changed, nil
}

// AndPopcount returns popcount(a AND b) without allocating.
func AndPopcount(a, b *Vector) (int, error) {
	if a.size != b.size {
		return 0, &SizeMismatchError{Op: "and", Left: a.size, Right: b.size}
	}
	n := 0
	for i, w := range a.words {
		n += bits.OnesCount64(w & b.words[i])
	}
	return n, nil
}
