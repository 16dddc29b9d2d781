package owlite

import (
	"log/slog"

	"github.com/hupe1980/owlite/interner"
	"github.com/hupe1980/owlite/reason"
	"github.com/hupe1980/owlite/resource"
)

// DefaultTypeName is the predicate interned for domain and range assertions.
const DefaultTypeName = "rdf:type"

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	rc               *resource.Controller

	internerCapacity int
	internerFixed    bool
	maxEntries       int

	maxIterations int
	policy        reason.Policy
	workers       int
	typeName      string
}

// Option configures a Graph.
type Option func(*options)

// WithMetricsCollector configures a metrics collector. Pass nil to disable
// metrics collection.
//
// Example:
//
//	metrics := &owlite.BasicMetricsCollector{}
//	g, _ := owlite.New(owlite.WithMetricsCollector(metrics))
//	// ... use g ...
//	stats := metrics.GetStats()
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging. Pass nil to disable logging.
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel is WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResourceController bounds memory and I/O. The interner arena, the
// bit-vector indexes and image buffers are reserved against rc.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.rc = rc
	}
}

// WithInternerCapacity sets the initial number of interner buckets.
// The table still grows when its load factor exceeds interner.MaxLoadFactor.
func WithInternerCapacity(n int) Option {
	return func(o *options) {
		o.internerCapacity = n
	}
}

// WithFixedInternerCapacity disables interner growth. Interning fails with
// ErrTableFull once the load factor would be exceeded.
func WithFixedInternerCapacity(n int) Option {
	return func(o *options) {
		o.internerCapacity = n
		o.internerFixed = true
	}
}

// WithMaxEntries caps the number of live interned strings.
func WithMaxEntries(n int) Option {
	return func(o *options) {
		o.maxEntries = n
	}
}

// WithMaxIterations bounds each transitive closure. Default: reason.DefaultMaxIterations.
func WithMaxIterations(n int) Option {
	return func(o *options) {
		o.maxIterations = n
	}
}

// WithFunctionalPolicy selects how functional-property conflicts are resolved.
// Default: reason.PolicyKeepFirst.
func WithFunctionalPolicy(p reason.Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithWorkers bounds how many transitive closures are computed concurrently.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithTypeName sets the predicate used by domain and range axioms.
// Default: DefaultTypeName.
func WithTypeName(name string) Option {
	return func(o *options) {
		o.typeName = name
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		internerCapacity: interner.DefaultCapacity,
		maxIterations:    reason.DefaultMaxIterations,
		policy:           reason.PolicyKeepFirst,
		workers:          1,
		typeName:         DefaultTypeName,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
