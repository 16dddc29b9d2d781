package interner

import (
	"errors"
	"fmt"
	"math"

	"github.com/hupe1980/owlite/internal/arena"
	"github.com/hupe1980/owlite/internal/hash"
)

var (
	// ErrEmptyInput is returned when interning an empty string.
	ErrEmptyInput = errors.New("interner: empty input")
	// ErrTableFull is returned when the table may not grow any further.
	ErrTableFull = errors.New("interner: table full")
	// ErrOutOfMemory is returned when the text arena cannot allocate.
	ErrOutOfMemory = errors.New("interner: out of memory")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("interner: closed")
)

// MemoryReserver accounts arena memory. *resource.Controller implements it.
type MemoryReserver = arena.MemoryReserver

const noSlot = int32(-1)

type slot struct {
	text     []byte // arena-owned
	hash     uint32
	refcount uint32
	next     int32 // next slot in the bucket chain, or noSlot
}

// Interner is a reference-counted string table.
type Interner struct {
	opts options

	buckets []int32 // head slot per bucket, or noSlot
	slots   []slot  // indexed by id
	free    []uint32
	count   int

	arena  *arena.Arena
	closed bool
}

// New creates an Interner.
func New(optFns ...Option) *Interner {
	opts := options{capacity: DefaultCapacity}
	for _, fn := range optFns {
		fn(&opts)
	}

	var arenaOpts []arena.Option
	if opts.reserver != nil {
		arenaOpts = append(arenaOpts, arena.WithMemoryReserver(opts.reserver))
	}

	return &Interner{
		opts:    opts,
		buckets: newBuckets(opts.capacity),
		arena:   arena.New(opts.chunkSize, arenaOpts...),
	}
}

func newBuckets(n int) []int32 {
	b := make([]int32, n)
	for i := range b {
		b[i] = noSlot
	}
	return b
}

// Intern returns the id of b, adding it with refcount 1 if absent and
// incrementing the refcount otherwise.
func (in *Interner) Intern(b []byte) (uint32, error) {
	if in.closed {
		return 0, ErrClosed
	}
	if len(b) == 0 {
		return 0, ErrEmptyInput
	}

	h := hash.FNV1a(b)
	if id, ok := in.find(h, b); ok {
		in.slots[id].refcount++
		return id, nil
	}

	if err := in.ensureRoom(); err != nil {
		return 0, err
	}

	text, err := in.arena.Copy(b)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}

	var id uint32
	if n := len(in.free); n > 0 {
		id = in.free[n-1]
		in.free = in.free[:n-1]
	} else {
		if len(in.slots) >= math.MaxInt32 {
			return 0, ErrTableFull
		}
		id = uint32(len(in.slots))
		in.slots = append(in.slots, slot{})
	}

	bucket := h % uint32(len(in.buckets))
	in.slots[id] = slot{
		text:     text,
		hash:     h,
		refcount: 1,
		next:     in.buckets[bucket],
	}
	in.buckets[bucket] = int32(id)
	in.count++
	return id, nil
}

// InternString is Intern for a string.
func (in *Interner) InternString(s string) (uint32, error) {
	return in.Intern([]byte(s))
}

// Lookup returns the id of b without changing any refcount.
func (in *Interner) Lookup(b []byte) (uint32, bool) {
	if in.closed || len(b) == 0 {
		return 0, false
	}
	return in.find(hash.FNV1a(b), b)
}

// LookupString is Lookup for a string.
func (in *Interner) LookupString(s string) (uint32, bool) {
	if in.closed || len(s) == 0 {
		return 0, false
	}
	h := hash.FNV1aString(s)
	for i := in.buckets[h%uint32(len(in.buckets))]; i != noSlot; i = in.slots[i].next {
		if sl := &in.slots[i]; sl.hash == h && string(sl.text) == s {
			return uint32(i), true
		}
	}
	return 0, false
}

func (in *Interner) find(h uint32, b []byte) (uint32, bool) {
	for i := in.buckets[h%uint32(len(in.buckets))]; i != noSlot; i = in.slots[i].next {
		if sl := &in.slots[i]; sl.hash == h && string(sl.text) == string(b) {
			return uint32(i), true
		}
	}
	return 0, false
}

// Release decrements the refcount of id. At zero the id is unlinked and its
// slot becomes reusable. Unknown or already released ids are ignored.
func (in *Interner) Release(id uint32) {
	if in.closed || int(id) >= len(in.slots) || in.slots[id].refcount == 0 {
		return
	}
	sl := &in.slots[id]
	sl.refcount--
	if sl.refcount > 0 {
		return
	}

	bucket := sl.hash % uint32(len(in.buckets))
	prev := noSlot
	for i := in.buckets[bucket]; i != noSlot; i = in.slots[i].next {
		if uint32(i) == id {
			if prev == noSlot {
				in.buckets[bucket] = sl.next
			} else {
				in.slots[prev].next = sl.next
			}
			break
		}
		prev = i
	}

	*sl = slot{next: noSlot}
	in.free = append(in.free, id)
	in.count--
}

// Text returns the bytes of a live id. The slice is owned by the interner and
// stays valid until Close.
func (in *Interner) Text(id uint32) ([]byte, bool) {
	if in.closed || int(id) >= len(in.slots) || in.slots[id].refcount == 0 {
		return nil, false
	}
	return in.slots[id].text, true
}

// String returns the text of a live id, or "" when unknown.
func (in *Interner) String(id uint32) string {
	b, _ := in.Text(id)
	return string(b)
}

// Hash returns the cached FNV-1a hash of a live id.
func (in *Interner) Hash(id uint32) (uint32, bool) {
	if in.closed || int(id) >= len(in.slots) || in.slots[id].refcount == 0 {
		return 0, false
	}
	return in.slots[id].hash, true
}

// Refcount returns the reference count of id, 0 when not live.
func (in *Interner) Refcount(id uint32) uint32 {
	if int(id) >= len(in.slots) {
		return 0
	}
	return in.slots[id].refcount
}

// Len returns the number of live strings.
func (in *Interner) Len() int {
	return in.count
}

// Capacity returns the current bucket count.
func (in *Interner) Capacity() int {
	return len(in.buckets)
}

// MaxID returns one past the largest id ever assigned.
func (in *Interner) MaxID() uint32 {
	return uint32(len(in.slots))
}

// ForEach calls fn for each live id in ascending order until fn returns false.
func (in *Interner) ForEach(fn func(id uint32, text []byte) bool) {
	for i := range in.slots {
		if in.slots[i].refcount == 0 {
			continue
		}
		if !fn(uint32(i), in.slots[i].text) {
			return
		}
	}
}

// Stats returns arena usage.
func (in *Interner) Stats() arena.Stats {
	return in.arena.Stats()
}

// Close frees the arena. Text slices obtained earlier become invalid.
func (in *Interner) Close() error {
	if in.closed {
		return nil
	}
	in.closed = true
	in.slots = nil
	in.free = nil
	in.count = 0
	return in.arena.Free()
}

// ensureRoom makes space for one more entry, rehashing when allowed.
func (in *Interner) ensureRoom() error {
	if in.opts.maxEntries > 0 && in.count >= in.opts.maxEntries {
		return fmt.Errorf("%w: %d entries", ErrTableFull, in.count)
	}
	if float64(in.count+1) <= MaxLoadFactor*float64(len(in.buckets)) {
		return nil
	}
	if in.opts.fixed {
		return fmt.Errorf("%w: %d entries in %d buckets", ErrTableFull, in.count, len(in.buckets))
	}
	in.rehash(2 * len(in.buckets))
	return nil
}

func (in *Interner) rehash(n int) {
	buckets := newBuckets(n)
	for i := range in.slots {
		sl := &in.slots[i]
		if sl.refcount == 0 {
			continue
		}
		b := sl.hash % uint32(n)
		sl.next = buckets[b]
		buckets[b] = int32(i)
	}
	in.buckets = buckets
}
