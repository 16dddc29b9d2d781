// Package conv provides checked integer conversions.
//
// Graph images store counts and offsets as fixed-width unsigned integers while the
// in-memory code works with int. Every narrowing that is not provably safe goes
// through this package so that a corrupt header or an oversized graph fails with
// ErrOverflow instead of wrapping silently.
package conv
