// Package owlite provides an embedded triple store with bit-vector indexes,
// OWL-Lite style materialization and a zero-copy binary image format.
//
// # Quick Start
//
//	g, _ := owlite.New()
//	defer g.Close()
//
//	_, _ = g.AddStrings("alice", "knows", "bob")
//	_ = g.DeclareAxiom(reason.KindSymmetric, "knows", "")
//
//	report, _ := g.Materialize(ctx)
//	g.AskStrings("bob", "knows", "alice") // true
//
// # Components
//
// The Graph type wires together packages that are usable on their own:
//
//   - interner maps strings to dense uint32 ids with reference counting.
//   - store keeps the triple log and per-predicate bit-vector indexes.
//   - bitvec implements the fixed-size bit vectors behind those indexes.
//   - reason applies transitive, symmetric, functional, domain and range axioms.
//   - image writes a graph to a single-file image and maps it back read-only.
//
// Images can be shipped through any blobstore.BlobStore (local, S3, MinIO)
// with image.Publish and image.Fetch.
//
// # Axioms
//
// Axioms run in declaration order, once per Materialize call. An axiom whose
// input is produced by a later axiom does not see that output until the next
// call; Saturate repeats passes until nothing changes.
//
// Transitive closure stops at a fixed point or after MaxIterations unions,
// whichever comes first. When the cap binds the report lists the property in
// CapReached and the closure is an under-approximation.
//
// Functional properties keep the first object in triple-log order and retract
// the rest. Every conflict is returned in Report.Violations; Report.Err wraps
// them with ErrCardinalityViolation.
//
// # Resource Limits
//
// A resource.Controller passed with WithResourceController bounds the memory
// of the interner arena, the bit-vector indexes and image buffers, and rate
// limits image I/O. Exceeding the budget fails the operation with
// ErrOutOfMemory and leaves the graph unchanged.
//
// # Concurrency
//
// A Graph is not safe for concurrent mutation. Concurrent readers are safe
// while no writer is active.
package owlite
