package reason

import "fmt"

// Kind is the type of an axiom.
type Kind uint8

const (
	KindTransitive Kind = iota + 1
	KindSymmetric
	KindFunctional
	KindDomain
	KindRange
)

func (k Kind) String() string {
	switch k {
	case KindTransitive:
		return "transitive"
	case KindSymmetric:
		return "symmetric"
	case KindFunctional:
		return "functional"
	case KindDomain:
		return "domain"
	case KindRange:
		return "range"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// ParseKind parses the String form of a Kind.
func ParseKind(s string) (Kind, error) {
	for k := KindTransitive; k <= KindRange; k++ {
		if k.String() == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown kind %q", ErrInvalidAxiom, s)
}

// Axiom declares a property characteristic. Class is only used by domain and
// range axioms.
type Axiom struct {
	Kind     Kind
	Property uint32
	Class    uint32
}

// Transitive declares p transitive.
func Transitive(p uint32) Axiom { return Axiom{Kind: KindTransitive, Property: p} }

// Symmetric declares p symmetric.
func Symmetric(p uint32) Axiom { return Axiom{Kind: KindSymmetric, Property: p} }

// Functional declares that p has at most one object per subject.
func Functional(p uint32) Axiom { return Axiom{Kind: KindFunctional, Property: p} }

// Domain declares that every subject of p is of type class.
func Domain(p, class uint32) Axiom { return Axiom{Kind: KindDomain, Property: p, Class: class} }

// Range declares that every object of p is of type class.
func Range(p, class uint32) Axiom { return Axiom{Kind: KindRange, Property: p, Class: class} }

// Validate reports ErrInvalidAxiom for an unknown kind.
func (a Axiom) Validate() error {
	if a.Kind < KindTransitive || a.Kind > KindRange {
		return fmt.Errorf("%w: %v", ErrInvalidAxiom, a.Kind)
	}
	return nil
}

func (a Axiom) String() string {
	switch a.Kind {
	case KindDomain, KindRange:
		return fmt.Sprintf("%s(%d, %d)", a.Kind, a.Property, a.Class)
	default:
		return fmt.Sprintf("%s(%d)", a.Kind, a.Property)
	}
}
