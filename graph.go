package owlite

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/hupe1980/owlite/blobstore"
	"github.com/hupe1980/owlite/image"
	"github.com/hupe1980/owlite/interner"
	"github.com/hupe1980/owlite/reason"
	"github.com/hupe1980/owlite/resource"
	"github.com/hupe1980/owlite/store"
)

// Graph is an interned triple graph with declared axioms.
//
// A Graph owns its interner and store. It is not safe for concurrent
// mutation; concurrent readers are safe while no writer is active.
type Graph struct {
	strings  *interner.Interner
	triples  *store.Store
	reasoner *reason.Materializer
	axioms   []reason.Axiom
	typeID   uint32

	rc      *resource.Controller
	metrics MetricsCollector
	logger  *Logger
	closed  bool
}

// New creates an empty Graph.
func New(optFns ...Option) (*Graph, error) {
	o := applyOptions(optFns)

	internOpts := []interner.Option{interner.WithCapacity(o.internerCapacity)}
	if o.internerFixed {
		internOpts = []interner.Option{interner.WithFixedCapacity(o.internerCapacity)}
	}
	if o.maxEntries > 0 {
		internOpts = append(internOpts, interner.WithMaxEntries(o.maxEntries))
	}
	var storeOpts []store.Option
	if o.rc != nil {
		internOpts = append(internOpts, interner.WithMemoryReserver(o.rc))
		storeOpts = append(storeOpts, store.WithMemoryReserver(o.rc))
	}

	g := &Graph{
		strings: interner.New(internOpts...),
		triples: store.New(storeOpts...),
		rc:      o.rc,
		metrics: o.metricsCollector,
		logger:  o.logger,
	}

	typeID, err := g.strings.InternString(o.typeName)
	if err != nil {
		_ = g.strings.Close()
		return nil, translateError(err)
	}
	g.typeID = typeID

	g.reasoner = reason.New(reason.Config{
		MaxIterations: o.maxIterations,
		TypeID:        typeID,
		Policy:        o.policy,
		Workers:       o.workers,
		Resources:     o.rc,
	})
	return g, nil
}

// Intern returns the id of b, adding it when absent. Each call takes a
// reference.
func (g *Graph) Intern(b []byte) (uint32, error) {
	if g.closed {
		return 0, ErrClosed
	}
	id, err := g.strings.Intern(b)
	return id, translateError(err)
}

// InternString is Intern for a string.
func (g *Graph) InternString(s string) (uint32, error) {
	if g.closed {
		return 0, ErrClosed
	}
	id, err := g.strings.InternString(s)
	return id, translateError(err)
}

// Lookup returns the id of s without interning it.
func (g *Graph) Lookup(s string) (uint32, bool) {
	if g.closed {
		return 0, false
	}
	return g.strings.LookupString(s)
}

// Text returns the string behind id.
func (g *Graph) Text(id uint32) (string, bool) {
	if g.closed {
		return "", false
	}
	b, ok := g.strings.Text(id)
	return string(b), ok
}

// Add asserts the triple (s, p, o). It reports false for duplicates.
func (g *Graph) Add(s, p, o uint32) (bool, error) {
	if g.closed {
		return false, ErrClosed
	}
	added, err := g.triples.Add(s, p, o)
	err = translateError(err)
	g.metrics.RecordAdd(added, err)
	return added, err
}

// AddStrings interns the three names and asserts the triple. On failure the
// references taken on the names are released again.
func (g *Graph) AddStrings(s, p, o string) (bool, error) {
	var ids [3]uint32
	for i, name := range [3]string{s, p, o} {
		id, err := g.InternString(name)
		if err != nil {
			g.release(ids[:i])
			return false, err
		}
		ids[i] = id
	}
	added, err := g.Add(ids[0], ids[1], ids[2])
	if err != nil {
		g.release(ids[:])
	}
	return added, err
}

func (g *Graph) release(ids []uint32) {
	for _, id := range ids {
		g.strings.Release(id)
	}
}

// Resolve returns the id of name, or an *ErrUnknownName when it was never
// interned.
func (g *Graph) Resolve(name string) (uint32, error) {
	if g.closed {
		return 0, ErrClosed
	}
	id, ok := g.strings.LookupString(name)
	if !ok {
		return 0, &ErrUnknownName{Name: name}
	}
	return id, nil
}

// Ask reports whether (s, p, o) holds, asserted or inferred.
func (g *Graph) Ask(s, p, o uint32) bool {
	if g.closed {
		return false
	}
	hit := g.triples.Ask(s, p, o)
	g.metrics.RecordAsk(hit)
	return hit
}

// AskStrings is Ask by name. Names that were never interned do not match.
func (g *Graph) AskStrings(s, p, o string) bool {
	var ids [3]uint32
	for i, name := range [3]string{s, p, o} {
		id, err := g.Resolve(name)
		if err != nil {
			g.metrics.RecordAsk(false)
			return false
		}
		ids[i] = id
	}
	return g.Ask(ids[0], ids[1], ids[2])
}

// ObjectNames returns the names of the objects of (s, p, ?) in ascending id
// order. Unknown names fail with *ErrUnknownName.
func (g *Graph) ObjectNames(s, p string) ([]string, error) {
	sid, err := g.Resolve(s)
	if err != nil {
		return nil, err
	}
	pid, err := g.Resolve(p)
	if err != nil {
		return nil, err
	}
	ids := g.triples.Objects(pid, sid)
	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if name, ok := g.Text(id); ok {
			names = append(names, name)
		}
	}
	return names, nil
}

// Objects returns the objects of (s, p, ?) in ascending id order.
func (g *Graph) Objects(s, p uint32) []uint32 {
	if g.closed {
		return nil
	}
	return g.triples.Objects(p, s)
}

// Subjects returns the subjects of (?, p, o) in ascending id order.
func (g *Graph) Subjects(p, o uint32) []uint32 {
	if g.closed {
		return nil
	}
	return g.triples.Subjects(p, o)
}

// Declare appends axioms. They run in declaration order.
func (g *Graph) Declare(axioms ...reason.Axiom) error {
	if g.closed {
		return ErrClosed
	}
	for _, a := range axioms {
		if err := a.Validate(); err != nil {
			return translateError(err)
		}
	}
	g.axioms = append(g.axioms, axioms...)
	return nil
}

// DeclareAxiom interns property (and class for domain and range axioms) and
// declares the axiom.
func (g *Graph) DeclareAxiom(kind reason.Kind, property, class string) error {
	p, err := g.InternString(property)
	if err != nil {
		return err
	}
	a := reason.Axiom{Kind: kind, Property: p}
	if kind == reason.KindDomain || kind == reason.KindRange {
		if class == "" {
			return fmt.Errorf("%w: %s axiom on %q needs a class", ErrInvalidArgument, kind, property)
		}
		if a.Class, err = g.InternString(class); err != nil {
			return err
		}
	}
	return g.Declare(a)
}

// Axioms returns the declared axioms.
func (g *Graph) Axioms() []reason.Axiom {
	return slices.Clone(g.axioms)
}

// TypeID returns the id of the type predicate used by domain and range axioms.
func (g *Graph) TypeID() uint32 {
	return g.typeID
}

// Materialize runs every declared axiom once.
//
// Functional conflicts do not fail the call; they are returned in the report
// and through Report.Err.
func (g *Graph) Materialize(ctx context.Context) (*reason.Report, error) {
	return g.run(ctx, func() (*reason.Report, error) {
		return g.reasoner.Materialize(ctx, g.triples, g.axioms)
	})
}

// Saturate repeats Materialize until a pass changes nothing or maxRounds
// passes have run.
func (g *Graph) Saturate(ctx context.Context, maxRounds int) (*reason.Report, error) {
	return g.run(ctx, func() (*reason.Report, error) {
		return g.reasoner.Saturate(ctx, g.triples, g.axioms, maxRounds)
	})
}

func (g *Graph) run(ctx context.Context, pass func() (*reason.Report, error)) (*reason.Report, error) {
	if g.closed {
		return nil, ErrClosed
	}

	start := time.Now()
	rep, err := pass()
	err = translateError(err)

	if rep != nil {
		for _, v := range rep.Violations {
			name, _ := g.strings.Text(v.Property)
			g.logger.WithProperty(string(name)).LogViolation(ctx, v)
		}
		g.metrics.RecordMaterialize(rep.Added, rep.Retracted, len(rep.Violations), time.Since(start), err)
	} else {
		g.metrics.RecordMaterialize(0, 0, 0, time.Since(start), err)
	}
	g.logger.LogMaterialize(ctx, len(g.axioms), rep, err)
	return rep, err
}

// Len returns the number of triples, asserted and inferred.
func (g *Graph) Len() int {
	if g.closed {
		return 0
	}
	return g.triples.Len()
}

// InferredLen returns the number of inferred triples.
func (g *Graph) InferredLen() int {
	if g.closed {
		return 0
	}
	return g.triples.InferredLen()
}

// ForEach calls fn for every triple in insertion order until fn returns false.
func (g *Graph) ForEach(fn func(t store.Triple, inferred bool) bool) {
	if g.closed {
		return
	}
	g.triples.ForEach(fn)
}

// Store returns the underlying triple store.
func (g *Graph) Store() *store.Store {
	return g.triples
}

// Strings returns the underlying interner.
func (g *Graph) Strings() *interner.Interner {
	return g.strings
}

// Save writes the graph to an image at path.
func (g *Graph) Save(ctx context.Context, path string, opts ...image.WriteOption) (image.Layout, error) {
	if g.closed {
		return image.Layout{}, ErrClosed
	}

	start := time.Now()
	opts = append([]image.WriteOption{image.WithResourceController(g.rc)}, opts...)
	layout, err := image.Write(ctx, image.Source(g.triples, g.strings), path, opts...)
	err = translateError(err)

	g.metrics.RecordWrite(layout.Size, time.Since(start), err)
	g.logger.LogWrite(ctx, path, layout.Size, layout.TripleCount, err)
	return layout, err
}

// Publish encodes the graph and stores it packed in bs under name.
func (g *Graph) Publish(ctx context.Context, bs blobstore.BlobStore, name string, opts ...image.PublishOption) (int64, error) {
	if g.closed {
		return 0, ErrClosed
	}

	data, err := image.Encode(image.Source(g.triples, g.strings))
	if err != nil {
		return 0, translateError(err)
	}
	v, err := image.OpenBytes(data, image.WithVerifyChecksum(false))
	if err != nil {
		return 0, translateError(err)
	}

	opts = append([]image.PublishOption{image.WithPublishResourceController(g.rc)}, opts...)
	n, err := image.PublishView(ctx, bs, name, v, opts...)
	return n, translateError(err)
}

// Close releases the interner arena and the index memory.
func (g *Graph) Close() error {
	if g.closed {
		return nil
	}
	g.closed = true
	g.triples.Close()
	return translateError(g.strings.Close())
}

// OpenImage maps the image at path read-only and logs the outcome to logger.
// A nil logger discards the log.
func OpenImage(ctx context.Context, logger *Logger, path string, opts ...image.OpenOption) (*image.View, error) {
	v, err := image.Open(path, opts...)
	err = translateError(err)
	logOpen(ctx, logger.orNoop().WithPath(path), v, err)
	return v, err
}

// FetchImage downloads a published image into memory and logs the outcome to
// logger. A nil logger discards the log.
func FetchImage(ctx context.Context, logger *Logger, bs blobstore.BlobStore, name string, opts ...image.PublishOption) (*image.View, error) {
	v, err := image.Fetch(ctx, bs, name, opts...)
	err = translateError(err)
	logOpen(ctx, logger.orNoop().WithPath(name), v, err)
	return v, err
}

func logOpen(ctx context.Context, l *Logger, v *image.View, err error) {
	if err != nil {
		l.LogOpen(ctx, 0, 0, err)
		return
	}
	l.LogOpen(ctx, v.TripleCount(), v.NodeCount(), nil)
}
