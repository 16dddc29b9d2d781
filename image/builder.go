package image

import (
	"encoding/binary"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/owlite/internal/conv"
	"github.com/hupe1980/owlite/internal/hash"
	"github.com/hupe1980/owlite/interner"
	"github.com/hupe1980/owlite/store"
)

// Graph is the read side of a graph that can be written as an image.
type Graph interface {
	// Len returns the number of triples.
	Len() int
	// ForEach visits every triple in insertion order.
	ForEach(fn func(t store.Triple, inferred bool) bool)
	// Nodes returns every id used in any triple position.
	Nodes() *roaring.Bitmap
	// Text returns the interned text of id.
	Text(id uint32) ([]byte, bool)
}

// Source adapts a store and the interner that named its ids to a Graph.
// strings may be nil when ids were assigned by the caller.
func Source(st *store.Store, strings *interner.Interner) Graph {
	return &source{st: st, strings: strings}
}

type source struct {
	st      *store.Store
	strings *interner.Interner
}

func (s *source) Len() int                                            { return s.st.Len() }
func (s *source) ForEach(fn func(t store.Triple, inferred bool) bool) { s.st.ForEach(fn) }
func (s *source) Nodes() *roaring.Bitmap                              { return s.st.Nodes() }

func (s *source) Text(id uint32) ([]byte, bool) {
	if s.strings == nil {
		return nil, false
	}
	return s.strings.Text(id)
}

// Layout holds the section offsets of an image. It is computed once by
// NewBuilder and never changes.
type Layout struct {
	TripleCount   uint32
	NodeCount     uint32
	TriplesOffset uint64
	NodesOffset   uint64
	IndexOffset   uint64
	StringsOffset uint64
	StringsSize   uint64
	Size          uint64
}

// IndexEntries returns the number of id index entries.
func (l Layout) IndexEntries() uint64 {
	return 2 * uint64(l.NodeCount)
}

// Builder serializes one graph snapshot.
type Builder struct {
	g      Graph
	nodes  *roaring.Bitmap
	layout Layout
}

// NewBuilder computes the layout of g. It fails with ErrInvalidArgument for a
// nil or empty graph.
func NewBuilder(g Graph) (*Builder, error) {
	if g == nil {
		return nil, fmt.Errorf("%w: nil graph", ErrInvalidArgument)
	}
	if g.Len() == 0 {
		return nil, fmt.Errorf("%w: empty graph", ErrInvalidArgument)
	}

	nodes := g.Nodes()
	tripleCount, err := conv.ToUint32(g.Len())
	if err != nil {
		return nil, fmt.Errorf("%w: triple count: %w", ErrInvalidArgument, err)
	}
	nodeCount, err := conv.ToUint32(nodes.GetCardinality())
	if err != nil {
		return nil, fmt.Errorf("%w: node count: %w", ErrInvalidArgument, err)
	}

	var poolSize uint64
	it := nodes.Iterator()
	for it.HasNext() {
		if text, ok := g.Text(it.Next()); ok {
			poolSize += uint64(len(text))
		}
	}
	if _, err := conv.ToUint32(poolSize); err != nil {
		return nil, fmt.Errorf("%w: string pool: %w", ErrInvalidArgument, err)
	}

	l := Layout{
		TripleCount:   tripleCount,
		NodeCount:     nodeCount,
		TriplesOffset: HeaderSize,
		StringsSize:   poolSize,
	}
	l.NodesOffset = l.TriplesOffset + uint64(tripleCount)*TripleRecordSize
	l.IndexOffset = l.NodesOffset + uint64(nodeCount)*NodeRecordSize
	l.StringsOffset = l.IndexOffset + l.IndexEntries()*IndexEntrySize
	l.Size = l.StringsOffset + poolSize

	return &Builder{g: g, nodes: nodes, layout: l}, nil
}

// Layout returns the fixed layout.
func (b *Builder) Layout() Layout {
	return b.layout
}

// Build allocates one buffer of Layout().Size bytes and fills it. The graph
// must not change between NewBuilder and Build.
func (b *Builder) Build() ([]byte, error) {
	l := b.layout
	buf := make([]byte, l.Size)

	h := Header{
		Magic:         Magic,
		Version:       Version,
		TripleCount:   l.TripleCount,
		NodeCount:     l.NodeCount,
		TriplesOffset: l.TriplesOffset,
		NodesOffset:   l.NodesOffset,
		StringsOffset: l.StringsOffset,
		IndexOffset:   l.IndexOffset,
	}

	predicates := roaring.New()
	var written uint32
	var overflow bool
	b.g.ForEach(func(t store.Triple, inferred bool) bool {
		if written == l.TripleCount {
			overflow = true
			return false
		}
		rec := TripleRecord{Subject: t.Subject, Predicate: t.Predicate, Object: t.Object}
		if inferred {
			rec.Flags |= FlagInferred
			h.Flags |= HeaderFlagHasInferred
		}
		off := l.TriplesOffset + uint64(written)*TripleRecordSize
		rec.encode(buf[off : off+TripleRecordSize])
		predicates.Add(t.Predicate)
		written++
		return true
	})
	if overflow || written != l.TripleCount {
		return nil, fmt.Errorf("%w: graph changed during build", ErrInvalidArgument)
	}

	index := buf[l.IndexOffset:l.StringsOffset]
	for i := range l.IndexEntries() {
		binary.LittleEndian.PutUint32(index[i*IndexEntrySize:], Absent)
	}

	pool := buf[l.StringsOffset:]
	var poolOff uint32
	var i uint32
	it := b.nodes.Iterator()
	for it.HasNext() {
		id := it.Next()
		rec := NodeRecord{ID: id, Type: NodeTypeResource, StringOffset: poolOff}
		if predicates.Contains(id) {
			rec.Type = NodeTypeProperty
		}
		if text, ok := b.g.Text(id); ok {
			if uint64(poolOff)+uint64(len(text)) > uint64(len(pool)) {
				return nil, fmt.Errorf("%w: graph changed during build", ErrInvalidArgument)
			}
			copy(pool[poolOff:], text)
			rec.StringLength = uint32(len(text))
			poolOff += rec.StringLength
		} else {
			rec.Flags |= NodeFlagNoText
		}

		off := l.NodesOffset + uint64(i)*NodeRecordSize
		rec.encode(buf[off : off+NodeRecordSize])
		if uint64(id) < l.IndexEntries() {
			binary.LittleEndian.PutUint32(index[uint64(id)*IndexEntrySize:], i)
		}
		i++
	}

	h.Checksum = hash.CRC32C(buf[HeaderSize:])
	h.Encode(buf[:HeaderSize])
	return buf, nil
}
