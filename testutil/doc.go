// Package testutil provides deterministic graph fixtures for tests.
//
// This package is intended for use in tests and benchmarks only.
//
// # Random Graphs
//
//	rng := testutil.NewRNG(seed)
//	triples := rng.RandomTriples(100, 3, 500)   // uniform endpoints
//	skewed := rng.HubTriples(1000, 1, 5000, 1.2) // Zipf-distributed subjects
//
// # Ground Truth
//
//	reach := testutil.Closure(triples, p)
//	ok := reach.Has(a, d)
package testutil
