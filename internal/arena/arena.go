package arena

import (
	"errors"
	"fmt"

	"github.com/hupe1980/owlite/internal/mmap"
)

var (
	// ErrAllocationFailed is returned when a chunk cannot be obtained.
	ErrAllocationFailed = errors.New("arena: allocation failed")
	// ErrFreed is returned when a freed arena is used.
	ErrFreed = errors.New("arena: freed")
)

// DefaultChunkSize is the size of a regular chunk (256 KiB).
const DefaultChunkSize = 256 * 1024

// MemoryReserver is consulted before each chunk is mapped.
// *resource.Controller implements it.
type MemoryReserver interface {
	ReserveMemory(bytes int64) error
	ReleaseMemory(bytes int64)
}

// Stats describes arena memory usage.
type Stats struct {
	Chunks        int   // live chunks
	BytesReserved int64 // mapped bytes
	BytesUsed     int64 // bytes handed out by Copy
	TotalAllocs   int64 // cumulative Copy calls
}

type chunk struct {
	mapping *mmap.Mapping
	data    []byte
	used    int
}

// Arena is an append-only byte arena.
type Arena struct {
	chunkSize int
	chunks    []*chunk
	reserver  MemoryReserver
	stats     Stats
	freed     bool
}

// Option configures an Arena.
type Option func(*Arena)

// WithMemoryReserver accounts every chunk against r.
func WithMemoryReserver(r MemoryReserver) Option {
	return func(a *Arena) {
		a.reserver = r
	}
}

// New creates an arena. chunkSize <= 0 selects DefaultChunkSize.
// No memory is mapped until the first Copy.
func New(chunkSize int, opts ...Option) *Arena {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	a := &Arena{chunkSize: chunkSize}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Copy copies b into the arena and returns the arena-owned copy.
// A zero-length b returns nil.
func (a *Arena) Copy(b []byte) ([]byte, error) {
	if a.freed {
		return nil, ErrFreed
	}
	if len(b) == 0 {
		return nil, nil
	}

	c := a.current()
	if c == nil || len(c.data)-c.used < len(b) {
		var err error
		if c, err = a.grow(len(b)); err != nil {
			return nil, err
		}
	}

	start := c.used
	c.used += len(b)
	dst := c.data[start:c.used:c.used]
	copy(dst, b)

	a.stats.BytesUsed += int64(len(b))
	a.stats.TotalAllocs++
	return dst, nil
}

// CopyString is Copy for a string.
func (a *Arena) CopyString(s string) ([]byte, error) {
	if a.freed {
		return nil, ErrFreed
	}
	if len(s) == 0 {
		return nil, nil
	}
	return a.Copy([]byte(s))
}

func (a *Arena) current() *chunk {
	if len(a.chunks) == 0 {
		return nil
	}
	return a.chunks[len(a.chunks)-1]
}

// grow maps a new chunk large enough for need bytes. Oversized requests get a
// dedicated chunk; the partially used current chunk is kept.
func (a *Arena) grow(need int) (*chunk, error) {
	size := max(a.chunkSize, need)

	if a.reserver != nil {
		if err := a.reserver.ReserveMemory(int64(size)); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrAllocationFailed, err)
		}
	}

	m, err := mmap.MapAnon(size)
	if err != nil {
		if a.reserver != nil {
			a.reserver.ReleaseMemory(int64(size))
		}
		return nil, fmt.Errorf("%w: map %d bytes: %w", ErrAllocationFailed, size, err)
	}

	c := &chunk{mapping: m, data: m.Bytes()}
	if need > a.chunkSize && len(a.chunks) > 0 {
		// Keep the regular chunk last so small strings continue filling it.
		last := a.chunks[len(a.chunks)-1]
		a.chunks[len(a.chunks)-1] = c
		a.chunks = append(a.chunks, last)
	} else {
		a.chunks = append(a.chunks, c)
	}

	a.stats.Chunks++
	a.stats.BytesReserved += int64(size)
	return c, nil
}

// Stats returns current usage.
func (a *Arena) Stats() Stats {
	return a.stats
}

// Free unmaps every chunk. Slices returned by Copy are invalid afterwards and
// the arena cannot be reused.
func (a *Arena) Free() error {
	if a.freed {
		return nil
	}
	a.freed = true

	var errs []error
	for _, c := range a.chunks {
		errs = append(errs, c.mapping.Close())
	}
	if a.reserver != nil {
		a.reserver.ReleaseMemory(a.stats.BytesReserved)
	}
	a.chunks = nil
	a.stats = Stats{}
	return errors.Join(errs...)
}

func (a *Arena) String() string {
	return fmt.Sprintf("Arena{chunks: %d, reserved: %d B, used: %d B, allocs: %d}",
		a.stats.Chunks, a.stats.BytesReserved, a.stats.BytesUsed, a.stats.TotalAllocs)
}
