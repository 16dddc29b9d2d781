package reason

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrCardinalityViolation marks functional-property conflicts.
	ErrCardinalityViolation = errors.New("reason: cardinality violation")
	// ErrInvalidAxiom is returned for axioms with an unknown kind.
	ErrInvalidAxiom = errors.New("reason: invalid axiom")
)

// Violation is a subject with more than one object under a functional property.
type Violation struct {
	Property    uint32
	Subject     uint32
	Kept        uint32   // first object in log order
	Conflicting []uint32 // remaining objects, ascending
	Retracted   bool
}

func (v *Violation) Error() string {
	return fmt.Sprintf("functional property %d: subject %d has %d objects (kept %d)",
		v.Property, v.Subject, len(v.Conflicting)+1, v.Kept)
}

func (v *Violation) Unwrap() error { return ErrCardinalityViolation }

// Report summarizes a materialization pass.
type Report struct {
	Added      int // inferred triples inserted
	Retracted  int // triples removed by functional conflict resolution
	Violations []*Violation

	// Iterations is the number of closure iterations per transitive property.
	Iterations map[uint32]int
	// CapReached holds transitive properties whose closure stopped at
	// MaxIterations before reaching a fixed point.
	CapReached map[uint32]bool

	// Rounds is the number of passes run by Saturate; 1 for Materialize.
	Rounds int
	// Saturated is set by Saturate when the last round changed nothing.
	Saturated bool

	Duration time.Duration
}

func newReport() *Report {
	return &Report{
		Iterations: make(map[uint32]int),
		CapReached: make(map[uint32]bool),
		Rounds:     1,
	}
}

// Err returns the violations joined into one error wrapping
// ErrCardinalityViolation, or nil when there are none.
func (r *Report) Err() error {
	if r == nil || len(r.Violations) == 0 {
		return nil
	}
	errs := make([]error, len(r.Violations))
	for i, v := range r.Violations {
		errs[i] = v
	}
	return errors.Join(errs...)
}

func (r *Report) merge(o *Report) {
	r.Added += o.Added
	r.Retracted += o.Retracted
	r.Violations = append(r.Violations, o.Violations...)
	for p, n := range o.Iterations {
		r.Iterations[p] += n
	}
	for p, hit := range o.CapReached {
		r.CapReached[p] = r.CapReached[p] || hit
	}
}
