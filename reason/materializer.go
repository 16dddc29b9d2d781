package reason

import (
	"context"
	"time"

	"github.com/hupe1980/owlite/bitvec"
	"github.com/hupe1980/owlite/resource"
	"github.com/hupe1980/owlite/store"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxIterations bounds transitive closure when Config leaves it zero.
const DefaultMaxIterations = 32

// Policy selects how functional-property conflicts are resolved.
type Policy int

const (
	// PolicyKeepFirst retracts every object but the first in log order.
	PolicyKeepFirst Policy = iota
	// PolicyReportOnly records conflicts and leaves the data unchanged.
	PolicyReportOnly
)

// Config configures a Materializer.
type Config struct {
	// MaxIterations bounds each transitive closure. Zero selects DefaultMaxIterations.
	MaxIterations int
	// TypeID is the predicate of the type assertions made by domain and range axioms.
	TypeID uint32
	// Policy resolves functional conflicts.
	Policy Policy
	// Workers bounds concurrent closure computation. Zero or one runs serially.
	Workers int
	// Resources, when set, additionally gates every closure worker on a
	// worker slot of the shared controller.
	Resources *resource.Controller
}

// Materializer applies axioms to a store.
type Materializer struct {
	cfg Config
}

// New creates a Materializer.
func New(cfg Config) *Materializer {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Materializer{cfg: cfg}
}

// Config returns the effective configuration.
func (m *Materializer) Config() Config {
	return m.cfg
}

// Materialize runs one pass of axioms over st in declaration order.
//
// The returned error is non-nil only for invalid axioms, cancellation or a
// store failure; the report is returned alongside it with the work done so far.
// Functional conflicts are reported through Report.Err.
func (m *Materializer) Materialize(ctx context.Context, st *store.Store, axioms []Axiom) (*Report, error) {
	start := time.Now()
	rep := newReport()
	defer func() { rep.Duration = time.Since(start) }()

	for _, a := range axioms {
		if err := a.Validate(); err != nil {
			return rep, err
		}
	}

	for i := 0; i < len(axioms); {
		if err := ctx.Err(); err != nil {
			return rep, err
		}

		// Consecutive transitive axioms read disjoint properties and are
		// computed together.
		if axioms[i].Kind == KindTransitive {
			j := i
			for j < len(axioms) && axioms[j].Kind == KindTransitive {
				j++
			}
			if err := m.transitiveBatch(ctx, st, axioms[i:j], rep); err != nil {
				return rep, err
			}
			i = j
			continue
		}

		var err error
		switch a := axioms[i]; a.Kind {
		case KindSymmetric:
			err = m.symmetric(st, a.Property, rep)
		case KindFunctional:
			err = m.functional(st, a.Property, rep)
		case KindDomain:
			err = m.domain(st, a, rep)
		case KindRange:
			err = m.rangeOf(st, a, rep)
		}
		if err != nil {
			return rep, err
		}
		i++
	}
	return rep, nil
}

// Saturate repeats Materialize until a pass neither adds nor retracts a
// triple, or maxRounds passes have run. maxRounds <= 0 means one pass.
func (m *Materializer) Saturate(ctx context.Context, st *store.Store, axioms []Axiom, maxRounds int) (*Report, error) {
	start := time.Now()
	total := newReport()
	total.Rounds = 0
	defer func() { total.Duration = time.Since(start) }()

	for round := 0; round < max(maxRounds, 1); round++ {
		rep, err := m.Materialize(ctx, st, axioms)
		total.merge(rep)
		total.Rounds++
		if err != nil {
			return total, err
		}
		if rep.Added == 0 && rep.Retracted == 0 {
			total.Saturated = true
			break
		}
	}
	return total, nil
}

type closure struct {
	property   uint32
	reach      map[uint32]*bitvec.Vector
	subjects   []uint32
	iterations int
	capped     bool
}

func (m *Materializer) transitiveBatch(ctx context.Context, st *store.Store, axioms []Axiom, rep *Report) error {
	seen := make(map[uint32]bool, len(axioms))
	closures := make([]*closure, 0, len(axioms))
	for _, a := range axioms {
		if !seen[a.Property] {
			seen[a.Property] = true
			closures = append(closures, &closure{property: a.Property})
		}
	}

	// Read-only phase: the store is not mutated until every closure is done.
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.cfg.Workers)
	for _, c := range closures {
		g.Go(func() error {
			if err := m.cfg.Resources.AcquireWorker(gctx); err != nil {
				return err
			}
			defer m.cfg.Resources.ReleaseWorker()
			return m.computeClosure(gctx, st, c)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, c := range closures {
		rep.Iterations[c.property] += c.iterations
		if c.capped {
			rep.CapReached[c.property] = true
		}
		for _, s := range c.subjects {
			var err error
			c.reach[s].ForEach(func(o uint64) bool {
				if st.Ask(s, c.property, uint32(o)) {
					return true
				}
				var added bool
				added, err = st.AddInferred(s, c.property, uint32(o))
				if added {
					rep.Added++
				}
				return err == nil
			})
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// computeClosure seeds reach[s] with the direct edges of s and unions in the
// reach of every reachable node until nothing changes or the cap binds.
//
// After the first iteration a subject only re-reads the reach of nodes that
// grew since it last read them: prev holds the nodes that grew in the previous
// iteration, cur those that grew so far in this one. A subject that grew
// itself re-reads its whole frontier.
func (m *Materializer) computeClosure(ctx context.Context, st *store.Store, c *closure) error {
	c.subjects = st.SubjectsOf(c.property)
	c.reach = make(map[uint32]*bitvec.Vector, len(c.subjects))
	for _, s := range c.subjects {
		c.reach[s] = st.ObjectVector(c.property, s)
	}

	universe := int(st.Universe())
	prev, cur := bitvec.NewScratch(universe), bitvec.NewScratch(universe)
	frontier := make([]uint64, 0, 64)
	for c.iterations < m.cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return err
		}
		first := c.iterations == 0
		c.iterations++

		for _, s := range c.subjects {
			r := c.reach[s]
			all := first || prev.Test(uint64(s))
			grewS := false
			frontier = append(frontier[:0], r.Ones()...)
			for _, o := range frontier {
				next, ok := c.reach[uint32(o)]
				if !ok {
					continue
				}
				if !all && !prev.Test(o) && !cur.Test(o) {
					continue
				}
				grew, err := r.OrInPlace(next)
				if err != nil {
					return err
				}
				grewS = grewS || grew
			}
			if grewS {
				cur.TestAndSet(uint64(s))
			}
		}
		if cur.Len() == 0 {
			return nil
		}
		prev, cur = cur, prev
		cur.Reset()
	}
	c.capped = true
	return nil
}

func (m *Materializer) symmetric(st *store.Store, p uint32, rep *Report) error {
	type edge struct{ s, o uint32 }
	var missing []edge
	for _, s := range st.SubjectsOf(p) {
		for _, o := range st.Objects(p, s) {
			if !st.Ask(o, p, s) {
				missing = append(missing, edge{s, o})
			}
		}
	}
	for _, e := range missing {
		added, err := st.AddInferred(e.o, p, e.s)
		if err != nil {
			return err
		}
		if added {
			rep.Added++
		}
	}
	return nil
}

func (m *Materializer) functional(st *store.Store, p uint32, rep *Report) error {
	first := make(map[uint32]uint32)
	st.ForEach(func(t store.Triple, _ bool) bool {
		if t.Predicate == p {
			if _, ok := first[t.Subject]; !ok {
				first[t.Subject] = t.Object
			}
		}
		return true
	})

	var violations []*Violation
	conflicting := make(map[uint32]uint32)
	for _, s := range st.SubjectsOf(p) {
		objs := st.Objects(p, s)
		if len(objs) < 2 {
			continue
		}
		v := &Violation{
			Property:  p,
			Subject:   s,
			Kept:      first[s],
			Retracted: m.cfg.Policy == PolicyKeepFirst,
		}
		for _, o := range objs {
			if o != v.Kept {
				v.Conflicting = append(v.Conflicting, o)
			}
		}
		violations = append(violations, v)
		conflicting[s] = v.Kept
	}
	rep.Violations = append(rep.Violations, violations...)

	if m.cfg.Policy != PolicyKeepFirst || len(violations) == 0 {
		return nil
	}
	n, err := st.Retract(func(t store.Triple) bool {
		if t.Predicate != p {
			return false
		}
		kept, ok := conflicting[t.Subject]
		return ok && t.Object != kept
	})
	rep.Retracted += n
	return err
}

func (m *Materializer) domain(st *store.Store, a Axiom, rep *Report) error {
	for _, s := range st.SubjectsOf(a.Property) {
		if err := m.assertType(st, s, a.Class, rep); err != nil {
			return err
		}
	}
	return nil
}

func (m *Materializer) rangeOf(st *store.Store, a Axiom, rep *Report) error {
	objects := bitvec.New(st.Universe())
	for _, s := range st.SubjectsOf(a.Property) {
		if _, err := objects.OrInPlace(st.ObjectVector(a.Property, s)); err != nil {
			return err
		}
	}
	var err error
	objects.ForEach(func(o uint64) bool {
		err = m.assertType(st, uint32(o), a.Class, rep)
		return err == nil
	})
	return err
}

func (m *Materializer) assertType(st *store.Store, node, class uint32, rep *Report) error {
	if st.Ask(node, m.cfg.TypeID, class) {
		return nil
	}
	added, err := st.AddInferred(node, m.cfg.TypeID, class)
	if added {
		rep.Added++
	}
	return err
}
