// Package interner maps byte strings to stable uint32 ids with reference
// counting.
//
// Strings are hashed with FNV-1a into an open-chained table. Text is copied
// into an append-only arena and stays there until Close, so Release is O(chain)
// and never fragments memory. Released slots go to a free list and are reused
// by later interns.
//
// The table rehashes into twice as many buckets when the load factor exceeds
// MaxLoadFactor. ErrTableFull is only returned when growth is disabled with
// WithFixedCapacity or the WithMaxEntries limit is reached.
//
// An Interner is not safe for concurrent mutation.
package interner
