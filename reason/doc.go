// Package reason materializes OWL-Lite property axioms over a store.Store.
//
// Supported axioms are transitive, symmetric and functional properties plus
// rdfs domain and range. Axioms run once each in declaration order; triples
// inferred by one axiom are visible to later ones in the same pass but do not
// re-trigger earlier ones. Saturate repeats passes until nothing changes.
//
// Transitive closure runs to a fixed point or Config.MaxIterations, whichever
// comes first. When the cap binds the result is an under-approximation and
// Report.CapReached records the property.
//
// Functional conflicts keep the object asserted first in log order. Under
// PolicyKeepFirst the other objects are retracted; under PolicyReportOnly they
// stay. Either way every conflict is returned in Report.Violations and
// Report.Err, which wraps ErrCardinalityViolation. Conflicts are warnings and
// never abort a pass.
package reason
