package store

import (
	"errors"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/owlite/bitvec"
)

// ErrOutOfMemory is returned when the memory budget refuses index growth.
var ErrOutOfMemory = errors.New("store: out of memory")

// Triple is a (subject, predicate, object) fact.
type Triple struct {
	Subject   uint32
	Predicate uint32
	Object    uint32
}

func (t Triple) String() string {
	return fmt.Sprintf("(%d %d %d)", t.Subject, t.Predicate, t.Object)
}

type entry struct {
	Triple
	inferred bool
}

type predicateIndex struct {
	subjects *bitvec.Vector            // subjectsWith[p]
	objects  map[uint32]*bitvec.Vector // objectsOf[p][s]
	objSet   *roaring.Bitmap           // every object under p
	count    int
}

// Store is an in-memory triple store.
type Store struct {
	log      []entry
	preds    map[uint32]*predicateIndex
	nodes    *roaring.Bitmap
	universe uint64 // one past the largest id seen in any position
	inferred int
	reserver bitvec.MemoryReserver
}

// Option configures a Store.
type Option func(*Store)

// WithMemoryReserver accounts bit-vector storage against r.
func WithMemoryReserver(r bitvec.MemoryReserver) Option {
	return func(s *Store) {
		s.reserver = r
	}
}

// New creates an empty Store.
func New(opts ...Option) *Store {
	s := &Store{
		preds: make(map[uint32]*predicateIndex),
		nodes: roaring.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Add inserts (sub, pred, obj). It reports false without touching the log when
// the triple is already present.
func (s *Store) Add(sub, pred, obj uint32) (bool, error) {
	return s.insert(Triple{sub, pred, obj}, false)
}

// AddInferred is Add for triples derived by materialization. They are flagged
// as inferred in the log and in written images.
func (s *Store) AddInferred(sub, pred, obj uint32) (bool, error) {
	return s.insert(Triple{sub, pred, obj}, true)
}

func (s *Store) insert(t Triple, inferred bool) (bool, error) {
	if s.Ask(t.Subject, t.Predicate, t.Object) {
		return false, nil
	}
	if err := s.index(t); err != nil {
		return false, err
	}
	s.log = append(s.log, entry{Triple: t, inferred: inferred})
	if inferred {
		s.inferred++
	}
	return true, nil
}

// index sets the bits for t, allocating or growing vectors first so a refused
// reservation leaves the indexes unchanged.
func (s *Store) index(t Triple) error {
	pi := s.preds[t.Predicate]
	newPred := pi == nil
	if newPred {
		pi = &predicateIndex{objects: make(map[uint32]*bitvec.Vector), objSet: roaring.New()}
	}

	if pi.subjects == nil {
		v, err := bitvec.NewBudgeted(uint64(t.Subject)+1, s.reserver)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
		}
		pi.subjects = v
	} else if err := pi.subjects.Grow(uint64(t.Subject) + 1); err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}

	objs := pi.objects[t.Subject]
	if objs == nil {
		v, err := bitvec.NewBudgeted(uint64(t.Object)+1, s.reserver)
		if err != nil {
			if newPred {
				pi.subjects.Release()
			}
			return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
		}
		objs = v
		pi.objects[t.Subject] = objs
	} else if err := objs.Grow(uint64(t.Object) + 1); err != nil {
		return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}

	if newPred {
		s.preds[t.Predicate] = pi
	}
	pi.subjects.Set(uint64(t.Subject), true)
	objs.Set(uint64(t.Object), true)
	pi.objSet.Add(t.Object)
	pi.count++

	s.nodes.Add(t.Subject)
	s.nodes.Add(t.Predicate)
	s.nodes.Add(t.Object)
	s.universe = max(s.universe, uint64(t.Subject)+1, uint64(t.Predicate)+1, uint64(t.Object)+1)
	return nil
}

// Ask reports whether (sub, pred, obj) is present.
func (s *Store) Ask(sub, pred, obj uint32) bool {
	pi := s.preds[pred]
	if pi == nil {
		return false
	}
	objs := pi.objects[sub]
	if objs == nil {
		return false
	}
	return objs.Get(uint64(obj))
}

// Universe returns one past the largest id used in any position. Vectors
// returned by ObjectVector and SubjectVector have this size.
func (s *Store) Universe() uint64 {
	return s.universe
}

// ObjectVector returns a copy of objectsOf[pred][sub] sized to Universe. It is
// empty, never nil, when sub has no edge under pred.
func (s *Store) ObjectVector(pred, sub uint32) *bitvec.Vector {
	if pi := s.preds[pred]; pi != nil {
		if objs := pi.objects[sub]; objs != nil {
			return widen(objs, s.universe)
		}
	}
	return bitvec.New(s.universe)
}

// SubjectVector returns a copy of subjectsWith[pred] sized to Universe.
func (s *Store) SubjectVector(pred uint32) *bitvec.Vector {
	if pi := s.preds[pred]; pi != nil {
		return widen(pi.subjects, s.universe)
	}
	return bitvec.New(s.universe)
}

func widen(v *bitvec.Vector, size uint64) *bitvec.Vector {
	c := v.Clone()
	_ = c.Grow(size) // unbudgeted clone, cannot fail
	return c
}

// Objects returns the objects of sub under pred in ascending order.
func (s *Store) Objects(pred, sub uint32) []uint32 {
	pi := s.preds[pred]
	if pi == nil {
		return nil
	}
	objs := pi.objects[sub]
	if objs == nil {
		return nil
	}
	return toIDs(objs)
}

// Subjects returns every subject with a (pred, obj) edge in ascending order.
func (s *Store) Subjects(pred, obj uint32) []uint32 {
	pi := s.preds[pred]
	if pi == nil || !pi.objSet.Contains(obj) {
		return nil
	}
	var out []uint32
	pi.subjects.ForEach(func(sub uint64) bool {
		if pi.objects[uint32(sub)].Get(uint64(obj)) {
			out = append(out, uint32(sub))
		}
		return true
	})
	return out
}

// SubjectsOf returns every subject having at least one edge under pred.
func (s *Store) SubjectsOf(pred uint32) []uint32 {
	pi := s.preds[pred]
	if pi == nil {
		return nil
	}
	return toIDs(pi.subjects)
}

func toIDs(v *bitvec.Vector) []uint32 {
	out := make([]uint32, 0, v.Popcount())
	v.ForEach(func(pos uint64) bool {
		out = append(out, uint32(pos))
		return true
	})
	return out
}

// Predicates returns every predicate id with at least one triple, ascending.
func (s *Store) Predicates() []uint32 {
	out := make([]uint32, 0, len(s.preds))
	for p := range s.preds {
		out = append(out, p)
	}
	slices.Sort(out)
	return out
}

// Count returns the number of triples under pred.
func (s *Store) Count(pred uint32) int {
	if pi := s.preds[pred]; pi != nil {
		return pi.count
	}
	return 0
}

// Len returns the number of triples.
func (s *Store) Len() int {
	return len(s.log)
}

// InferredLen returns the number of triples added with AddInferred.
func (s *Store) InferredLen() int {
	return s.inferred
}

// Triples returns a snapshot of the log in insertion order.
func (s *Store) Triples() []Triple {
	out := make([]Triple, len(s.log))
	for i, e := range s.log {
		out[i] = e.Triple
	}
	return out
}

// ForEach calls fn for each triple in insertion order until fn returns false.
// The store must not be mutated during iteration.
func (s *Store) ForEach(fn func(t Triple, inferred bool) bool) {
	for _, e := range s.log {
		if !fn(e.Triple, e.inferred) {
			return
		}
	}
}

// Nodes returns a copy of the set of ids used in any position.
func (s *Store) Nodes() *roaring.Bitmap {
	return s.nodes.Clone()
}

// Retract removes every triple matching drop, rebuilds all indexes from the
// surviving log and returns the number removed.
//
// The new indexes are built next to the old ones and swapped in at the end,
// so a refused reservation returns the error with the store unchanged.
func (s *Store) Retract(drop func(Triple) bool) (int, error) {
	removed := 0
	for _, e := range s.log {
		if drop(e.Triple) {
			removed++
		}
	}
	if removed == 0 {
		return 0, nil
	}

	next := &Store{
		log:      make([]entry, 0, len(s.log)-removed),
		preds:    make(map[uint32]*predicateIndex),
		nodes:    roaring.New(),
		reserver: s.reserver,
	}
	for _, e := range s.log {
		if drop(e.Triple) {
			continue
		}
		if _, err := next.insert(e.Triple, e.inferred); err != nil {
			next.releaseIndexes()
			return 0, err
		}
	}

	s.releaseIndexes()
	*s = *next
	return removed, nil
}

// Close releases budgeted index memory. The Store is empty afterwards.
func (s *Store) Close() {
	s.releaseIndexes()
	s.log = nil
	s.inferred = 0
}

func (s *Store) releaseIndexes() {
	for _, pi := range s.preds {
		pi.subjects.Release()
		for _, v := range pi.objects {
			v.Release()
		}
	}
	s.preds = make(map[uint32]*predicateIndex)
	s.nodes = roaring.New()
	s.universe = 0
}
