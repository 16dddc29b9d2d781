// Package store holds a triple log and the bit-vector indexes derived from it.
//
// For every predicate p the store keeps subjectsWith[p], a bit vector over
// subject ids, and for every (p, s) pair objectsOf[p][s], a bit vector over
// object ids. Ask is a single bit test on objectsOf[p][s]. Ids may be sparse
// and arrive in any order; vectors grow as larger ids appear.
//
// The log is append-only. Retract is the only deletion path and rebuilds every
// index from the surviving log.
//
// A Store is not safe for concurrent use while a writer is active.
package store
