package interner

const (
	// DefaultCapacity is the initial bucket count.
	DefaultCapacity = 1024
	// MaxLoadFactor is the live-entries-per-bucket ratio that triggers a rehash.
	MaxLoadFactor = 0.75
)

type options struct {
	capacity   int
	fixed      bool
	maxEntries int
	chunkSize  int
	reserver   MemoryReserver
}

// Option configures an Interner.
type Option func(*options)

// WithCapacity sets the initial bucket count.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// WithFixedCapacity disables rehashing. Interning fails with ErrTableFull
// once the load factor would exceed MaxLoadFactor for n buckets.
func WithFixedCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
		o.fixed = true
	}
}

// WithMaxEntries caps the number of live strings.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// WithArenaChunkSize sets the arena chunk size for interned text.
func WithArenaChunkSize(n int) Option {
	return func(o *options) {
		o.chunkSize = n
	}
}

// WithMemoryReserver accounts arena chunks against r.
func WithMemoryReserver(r MemoryReserver) Option {
	return func(o *options) {
		o.reserver = r
	}
}
