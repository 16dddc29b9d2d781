// Package bitvec implements fixed-width bit vectors, the substrate of the
// triple store's predicate indexes and of closure computation.
//
// A Vector has a logical size N and ceil(N/64) uint64 words. Bits at positions
// >= N are always zero. Every mutating operation preserves this, so And, Or,
// Xor and Popcount work word-wise without masking the final word.
//
// Out-of-range positions are not errors: Set ignores them and Get reports
// false. Binary operations require equal sizes and return ErrSizeMismatch
// otherwise.
//
//	a := bitvec.New(100)
//	a.Set(3, true)
//	b := bitvec.New(100)
//	b.Set(3, true)
//	b.Set(70, true)
//	both, _ := bitvec.And(a, b) // {3}
//
// Vectors are not safe for concurrent mutation.
package bitvec
