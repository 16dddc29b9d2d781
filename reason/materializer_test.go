package reason

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/owlite/resource"
	"github.com/hupe1980/owlite/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	a, b, c, d   = 1, 2, 3, 4
	knows        = 10
	ancestor     = 11
	hasMother    = 12
	rdfType      = 13
	person       = 14
	organization = 15
	worksFor     = 16
)

func newStore(t *testing.T, triples ...store.Triple) *store.Store {
	t.Helper()
	st := store.New()
	for _, tr := range triples {
		_, err := st.Add(tr.Subject, tr.Predicate, tr.Object)
		require.NoError(t, err)
	}
	return st
}

func TestSymmetric(t *testing.T) {
	st := newStore(t, store.Triple{Subject: a, Predicate: knows, Object: b})

	rep, err := New(Config{}).Materialize(context.Background(), st, []Axiom{Symmetric(knows)})
	require.NoError(t, err)

	assert.True(t, st.Ask(b, knows, a))
	assert.True(t, st.Ask(a, knows, b))
	assert.Equal(t, 1, rep.Added)
	assert.Equal(t, 1, st.InferredLen())

	// A second pass adds nothing.
	rep, err = New(Config{}).Materialize(context.Background(), st, []Axiom{Symmetric(knows)})
	require.NoError(t, err)
	assert.Zero(t, rep.Added)
}

func chain(t *testing.T) *store.Store {
	return newStore(t,
		store.Triple{Subject: a, Predicate: ancestor, Object: b},
		store.Triple{Subject: b, Predicate: ancestor, Object: c},
		store.Triple{Subject: c, Predicate: ancestor, Object: d},
	)
}

func TestTransitive_FixedPoint(t *testing.T) {
	st := chain(t)

	rep, err := New(Config{MaxIterations: 3}).Materialize(context.Background(), st, []Axiom{Transitive(ancestor)})
	require.NoError(t, err)

	assert.True(t, st.Ask(a, ancestor, c))
	assert.True(t, st.Ask(a, ancestor, d))
	assert.True(t, st.Ask(b, ancestor, d))
	assert.False(t, st.Ask(d, ancestor, a))
	assert.Equal(t, 3, rep.Added)
	assert.False(t, rep.CapReached[ancestor])
	assert.Equal(t, 6, st.Len())
}

func TestTransitive_CapBinds(t *testing.T) {
	st := chain(t)

	rep, err := New(Config{MaxIterations: 1}).Materialize(context.Background(), st, []Axiom{Transitive(ancestor)})
	require.NoError(t, err)

	// One iteration is an under-approximation: a reaches c but not d.
	assert.True(t, st.Ask(a, ancestor, c))
	assert.False(t, st.Ask(a, ancestor, d))
	assert.True(t, rep.CapReached[ancestor])
	assert.Equal(t, 1, rep.Iterations[ancestor])
}

func TestTransitive_Cycle(t *testing.T) {
	st := newStore(t,
		store.Triple{Subject: a, Predicate: ancestor, Object: b},
		store.Triple{Subject: b, Predicate: ancestor, Object: a},
	)

	rep, err := New(Config{}).Materialize(context.Background(), st, []Axiom{Transitive(ancestor)})
	require.NoError(t, err)

	assert.True(t, st.Ask(a, ancestor, a))
	assert.True(t, st.Ask(b, ancestor, b))
	assert.False(t, rep.CapReached[ancestor])
}

func TestTransitive_ParallelProperties(t *testing.T) {
	st := chain(t)
	for _, tr := range []store.Triple{{Subject: a, Predicate: knows, Object: b}, {Subject: b, Predicate: knows, Object: c}} {
		_, err := st.Add(tr.Subject, tr.Predicate, tr.Object)
		require.NoError(t, err)
	}

	m := New(Config{Workers: 4})
	rep, err := m.Materialize(context.Background(), st, []Axiom{Transitive(ancestor), Transitive(knows), Transitive(ancestor)})
	require.NoError(t, err)

	assert.True(t, st.Ask(a, ancestor, d))
	assert.True(t, st.Ask(a, knows, c))
	assert.False(t, st.Ask(a, knows, d))
	assert.Equal(t, 4, rep.Added)
}

func TestFunctional_KeepFirst(t *testing.T) {
	st := newStore(t,
		store.Triple{Subject: a, Predicate: hasMother, Object: c},
		store.Triple{Subject: a, Predicate: hasMother, Object: b},
		store.Triple{Subject: b, Predicate: hasMother, Object: d},
	)

	rep, err := New(Config{}).Materialize(context.Background(), st, []Axiom{Functional(hasMother)})
	require.NoError(t, err)

	require.Len(t, rep.Violations, 1)
	v := rep.Violations[0]
	assert.Equal(t, uint32(a), v.Subject)
	assert.Equal(t, uint32(c), v.Kept)
	assert.Equal(t, []uint32{b}, v.Conflicting)
	assert.True(t, v.Retracted)
	assert.Equal(t, 1, rep.Retracted)

	assert.True(t, st.Ask(a, hasMother, c))
	assert.False(t, st.Ask(a, hasMother, b))
	assert.True(t, st.Ask(b, hasMother, d))

	err = rep.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCardinalityViolation)
	var target *Violation
	require.True(t, errors.As(err, &target))
	assert.Equal(t, uint32(hasMother), target.Property)
}

func TestFunctional_ReportOnly(t *testing.T) {
	st := newStore(t,
		store.Triple{Subject: a, Predicate: hasMother, Object: b},
		store.Triple{Subject: a, Predicate: hasMother, Object: c},
	)

	rep, err := New(Config{Policy: PolicyReportOnly}).Materialize(context.Background(), st, []Axiom{Functional(hasMother)})
	require.NoError(t, err)

	require.Len(t, rep.Violations, 1)
	assert.False(t, rep.Violations[0].Retracted)
	assert.Zero(t, rep.Retracted)
	assert.True(t, st.Ask(a, hasMother, b))
	assert.True(t, st.Ask(a, hasMother, c))
}

func TestFunctional_NoConflict(t *testing.T) {
	st := newStore(t, store.Triple{Subject: a, Predicate: hasMother, Object: b})

	rep, err := New(Config{}).Materialize(context.Background(), st, []Axiom{Functional(hasMother)})
	require.NoError(t, err)
	assert.Empty(t, rep.Violations)
	assert.NoError(t, rep.Err())
}

func TestDomainRange(t *testing.T) {
	st := newStore(t,
		store.Triple{Subject: a, Predicate: worksFor, Object: c},
		store.Triple{Subject: b, Predicate: worksFor, Object: c},
		store.Triple{Subject: a, Predicate: rdfType, Object: person},
	)

	m := New(Config{TypeID: rdfType})
	rep, err := m.Materialize(context.Background(), st, []Axiom{
		Domain(worksFor, person),
		Range(worksFor, organization),
	})
	require.NoError(t, err)

	assert.True(t, st.Ask(a, rdfType, person))
	assert.True(t, st.Ask(b, rdfType, person))
	assert.True(t, st.Ask(c, rdfType, organization))
	assert.False(t, st.Ask(c, rdfType, person))
	assert.Equal(t, 2, rep.Added, "existing type assertion is skipped")
}

func TestDeclarationOrder(t *testing.T) {
	// Symmetric before transitive feeds the closure in the same pass.
	st := newStore(t,
		store.Triple{Subject: a, Predicate: knows, Object: b},
		store.Triple{Subject: c, Predicate: knows, Object: b},
	)

	_, err := New(Config{}).Materialize(context.Background(), st, []Axiom{Symmetric(knows), Transitive(knows)})
	require.NoError(t, err)
	assert.True(t, st.Ask(a, knows, c))
}

func TestNoRetrigger(t *testing.T) {
	st := newStore(t,
		store.Triple{Subject: a, Predicate: knows, Object: b},
		store.Triple{Subject: c, Predicate: knows, Object: b},
	)
	axioms := []Axiom{Transitive(knows), Symmetric(knows)}

	_, err := New(Config{}).Materialize(context.Background(), st, axioms)
	require.NoError(t, err)
	assert.False(t, st.Ask(a, knows, c), "transitive is not re-run after symmetric")

	rep, err := New(Config{}).Saturate(context.Background(), st, axioms, 10)
	require.NoError(t, err)
	assert.True(t, st.Ask(a, knows, c))
	assert.True(t, rep.Saturated)
	assert.GreaterOrEqual(t, rep.Rounds, 2)
}

func TestInvalidAxiom(t *testing.T) {
	st := newStore(t)
	_, err := New(Config{}).Materialize(context.Background(), st, []Axiom{{Kind: 99}})
	assert.ErrorIs(t, err, ErrInvalidAxiom)

	_, err = ParseKind("reflexive")
	assert.ErrorIs(t, err, ErrInvalidAxiom)

	k, err := ParseKind("functional")
	require.NoError(t, err)
	assert.Equal(t, KindFunctional, k)
}

func TestCancelled(t *testing.T) {
	st := chain(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(Config{}).Materialize(ctx, st, []Axiom{Transitive(ancestor)})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, st.Ask(a, ancestor, c))
}

func TestDefaults(t *testing.T) {
	cfg := New(Config{}).Config()
	assert.Equal(t, DefaultMaxIterations, cfg.MaxIterations)
	assert.Equal(t, 1, cfg.Workers)
	assert.Equal(t, PolicyKeepFirst, cfg.Policy)
}

func TestTransitive_WorkerSlots(t *testing.T) {
	st := newStore(t,
		store.Triple{Subject: a, Predicate: ancestor, Object: b},
		store.Triple{Subject: b, Predicate: ancestor, Object: c},
		store.Triple{Subject: a, Predicate: knows, Object: b},
		store.Triple{Subject: b, Predicate: knows, Object: d},
	)
	rc := resource.NewController(resource.Config{MaxWorkers: 1})

	m := New(Config{Workers: 4, Resources: rc})
	rep, err := m.Materialize(context.Background(), st, []Axiom{Transitive(ancestor), Transitive(knows)})
	require.NoError(t, err)
	assert.Equal(t, 2, rep.Added)
	assert.True(t, st.Ask(a, ancestor, c))
	assert.True(t, st.Ask(a, knows, d))

	// Every slot was handed back.
	require.NoError(t, rc.AcquireWorker(context.Background()))
	rc.ReleaseWorker()

	require.NoError(t, rc.AcquireWorker(context.Background()))
	defer rc.ReleaseWorker()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = m.Materialize(ctx, st, []Axiom{Transitive(ancestor)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransitive_Diamond(t *testing.T) {
	// e is reached through two paths of different length.
	const e = 5
	st := newStore(t,
		store.Triple{Subject: a, Predicate: ancestor, Object: b},
		store.Triple{Subject: b, Predicate: ancestor, Object: c},
		store.Triple{Subject: c, Predicate: ancestor, Object: d},
		store.Triple{Subject: d, Predicate: ancestor, Object: e},
		store.Triple{Subject: a, Predicate: ancestor, Object: d},
	)

	rep, err := New(Config{}).Materialize(context.Background(), st, []Axiom{Transitive(ancestor)})
	require.NoError(t, err)
	assert.False(t, rep.CapReached[ancestor])
	for _, want := range [][2]uint32{{a, c}, {a, e}, {b, d}, {b, e}, {c, e}} {
		assert.True(t, st.Ask(want[0], ancestor, want[1]), "%v", want)
	}
	assert.Equal(t, 10, st.Count(ancestor))
}
