// Package arena provides the append-only byte arena behind interned strings.
//
// Text is copied into large chunks of off-heap memory obtained from
// mmap.MapAnon. Individual allocations are never freed; Free releases every
// chunk at once. This trades memory that only shrinks at teardown for
// allocation without fragmentation and no GC scan work for string bytes.
//
// # Safety
//
// Slices returned by Copy alias arena memory and become invalid after Free.
// The arena is not safe for concurrent use.
package arena
