package testutil

import (
	"math"
	"math/rand"
	"slices"
	"sync"

	"github.com/hupe1980/owlite/store"
)

// RNG wraps a seeded random source. It is safe for concurrent use.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates an RNG with the given seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset rewinds the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a value in [0, n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Uint32n returns a value in [0, n).
func (r *RNG) Uint32n(n uint32) uint32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return uint32(r.rand.Int63n(int64(n)))
}

// Zipf returns a value in [0, n) with P(k) proportional to 1/(k+1)^s.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}
	var norm float64
	for i := 1; i <= n; i++ {
		norm += 1 / math.Pow(float64(i), s)
	}
	u := r.rand.Float64() * norm
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}
	return n - 1
}

// Chain returns the edges 0→1→...→n-1 under predicate p, with node ids
// offset by base.
func Chain(base uint32, n int, p uint32) []store.Triple {
	if n < 2 {
		return nil
	}
	out := make([]store.Triple, 0, n-1)
	for i := range uint32(n - 1) {
		out = append(out, store.Triple{Subject: base + i, Predicate: p, Object: base + i + 1})
	}
	return out
}

// Cycle is Chain plus the closing edge n-1→0.
func Cycle(base uint32, n int, p uint32) []store.Triple {
	out := Chain(base, n, p)
	if n >= 2 {
		out = append(out, store.Triple{Subject: base + uint32(n-1), Predicate: p, Object: base})
	}
	return out
}

// RandomTriples returns count distinct triples over node ids [0, nodes) and
// predicate ids [nodes, nodes+predicates). Self loops are excluded. count is
// clamped to the number of possible triples.
func (r *RNG) RandomTriples(nodes, predicates, count int) []store.Triple {
	return r.generate(nodes, predicates, count, func() uint32 {
		return uint32(r.rand.Intn(nodes))
	})
}

// HubTriples is RandomTriples with Zipf-distributed subjects, so a few hubs
// carry most edges.
func (r *RNG) HubTriples(nodes, predicates, count int, s float64) []store.Triple {
	return r.generate(nodes, predicates, count, func() uint32 {
		return uint32(r.zipfLocked(nodes, s))
	})
}

func (r *RNG) generate(nodes, predicates, count int, subject func() uint32) []store.Triple {
	if nodes < 2 || predicates < 1 {
		return nil
	}
	count = min(count, nodes*(nodes-1)*predicates)

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[store.Triple]struct{}, count)
	out := make([]store.Triple, 0, count)
	for len(out) < count {
		t := store.Triple{
			Subject:   subject(),
			Predicate: uint32(nodes + r.rand.Intn(predicates)),
			Object:    uint32(r.rand.Intn(nodes)),
		}
		if t.Subject == t.Object {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

// Load adds triples to st in order.
func Load(st *store.Store, triples []store.Triple) error {
	for _, t := range triples {
		if _, err := st.Add(t.Subject, t.Predicate, t.Object); err != nil {
			return err
		}
	}
	return nil
}

// Reach is a brute-force reachability relation.
type Reach map[uint32]map[uint32]struct{}

// Has reports whether o is reachable from s.
func (r Reach) Has(s, o uint32) bool {
	_, ok := r[s][o]
	return ok
}

// Pairs returns the number of reachable (s, o) pairs.
func (r Reach) Pairs() int {
	n := 0
	for _, objs := range r {
		n += len(objs)
	}
	return n
}

// Closure computes the full transitive closure of predicate p by BFS from
// every subject. It is the ground truth for bounded closure results.
func Closure(triples []store.Triple, p uint32) Reach {
	adj := make(map[uint32][]uint32)
	for _, t := range triples {
		if t.Predicate == p {
			adj[t.Subject] = append(adj[t.Subject], t.Object)
		}
	}

	reach := make(Reach, len(adj))
	for s := range adj {
		seen := make(map[uint32]struct{})
		queue := slices.Clone(adj[s])
		for len(queue) > 0 {
			n := queue[0]
			queue = queue[1:]
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			queue = append(queue, adj[n]...)
		}
		reach[s] = seen
	}
	return reach
}
