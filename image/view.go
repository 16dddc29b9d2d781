package image

import (
	"encoding/binary"
	"fmt"
	"iter"
	"sort"

	"github.com/hupe1980/owlite/internal/hash"
	"github.com/hupe1980/owlite/internal/mmap"
)

type openOptions struct {
	verifyChecksum bool
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

// WithVerifyChecksum toggles checksum verification on open. It is on by
// default; disabling it makes Open O(1) in the image size.
func WithVerifyChecksum(verify bool) OpenOption {
	return func(o *openOptions) { o.verifyChecksum = verify }
}

// View is a read-only view over an image. All accessors are bounds-checked
// and return slices into the mapping; nothing is copied.
type View struct {
	header  Header
	mapping *mmap.Mapping // nil for in-memory views
	data    []byte

	triples []byte
	nodes   []byte
	index   []byte
	pool    []byte
}

// Open maps the image at path read-only and validates it.
func Open(path string, opts ...OpenOption) (*View, error) {
	m, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
	}
	_ = m.Advise(mmap.AccessSequential)
	v, err := newView(m.Bytes(), opts)
	if err != nil {
		_ = m.Close()
		return nil, err
	}
	_ = m.Advise(mmap.AccessRandom)
	v.mapping = m
	return v, nil
}

// OpenBytes validates an image held in memory. data must not be modified
// while the View is in use.
func OpenBytes(data []byte, opts ...OpenOption) (*View, error) {
	return newView(data, opts)
}

func newView(data []byte, optFns []OpenOption) (*View, error) {
	o := openOptions{verifyChecksum: true}
	for _, fn := range optFns {
		fn(&o)
	}

	h, err := DecodeHeader(data)
	if err != nil {
		return nil, err
	}

	v := &View{header: *h, data: data}
	if v.triples, err = section(data, "triples", h.TriplesOffset, uint64(h.TripleCount)*TripleRecordSize); err != nil {
		return nil, err
	}
	if v.nodes, err = section(data, "nodes", h.NodesOffset, uint64(h.NodeCount)*NodeRecordSize); err != nil {
		return nil, err
	}
	if v.index, err = section(data, "index", h.IndexOffset, 2*uint64(h.NodeCount)*IndexEntrySize); err != nil {
		return nil, err
	}
	if h.StringsOffset < HeaderSize || h.StringsOffset > uint64(len(data)) {
		return nil, formatErr(nil, "strings offset %d outside file of %d bytes", h.StringsOffset, len(data))
	}
	v.pool = data[h.StringsOffset:]

	if o.verifyChecksum {
		if sum := hash.CRC32C(data[HeaderSize:]); sum != h.Checksum {
			return nil, formatErr(ErrChecksum, "expected %#08x, got %#08x", h.Checksum, sum)
		}
	}
	return v, nil
}

func section(data []byte, name string, off, size uint64) ([]byte, error) {
	n := uint64(len(data))
	if off < HeaderSize || off > n || size > n-off {
		return nil, formatErr(nil, "%s section [%d, +%d) outside file of %d bytes", name, off, size, n)
	}
	return data[off : off+size], nil
}

// Header returns the decoded header.
func (v *View) Header() Header {
	return v.header
}

// TripleCount returns the number of triple records.
func (v *View) TripleCount() int {
	return int(v.header.TripleCount)
}

// NodeCount returns the number of node records.
func (v *View) NodeCount() int {
	return int(v.header.NodeCount)
}

// Triple returns the i-th triple record.
func (v *View) Triple(i int) (TripleRecord, bool) {
	if i < 0 || i >= v.TripleCount() {
		return TripleRecord{}, false
	}
	off := i * TripleRecordSize
	return decodeTriple(v.triples[off : off+TripleRecordSize]), true
}

// Triples iterates every triple record in file order.
func (v *View) Triples() iter.Seq2[int, TripleRecord] {
	return func(yield func(int, TripleRecord) bool) {
		for i := range v.TripleCount() {
			off := i * TripleRecordSize
			if !yield(i, decodeTriple(v.triples[off:off+TripleRecordSize])) {
				return
			}
		}
	}
}

// Node returns the i-th node record.
func (v *View) Node(i int) (NodeRecord, bool) {
	if i < 0 || i >= v.NodeCount() {
		return NodeRecord{}, false
	}
	off := i * NodeRecordSize
	return decodeNode(v.nodes[off : off+NodeRecordSize]), true
}

// NodeString returns the text of the i-th node as a slice into the image.
// It reports false for out-of-range indexes, nodes without text and string
// references that fall outside the pool.
func (v *View) NodeString(i int) ([]byte, bool) {
	n, ok := v.Node(i)
	if !ok || n.Flags&NodeFlagNoText != 0 {
		return nil, false
	}
	end := uint64(n.StringOffset) + uint64(n.StringLength)
	if end > uint64(len(v.pool)) {
		return nil, false
	}
	return v.pool[n.StringOffset:end:end], true
}

// FindNodeByID returns the node index of id through the id index. Ids at
// or beyond 2*NodeCount are outside the index and reported as not found.
func (v *View) FindNodeByID(id uint32) (int, bool) {
	if uint64(id) >= 2*uint64(v.header.NodeCount) {
		return 0, false
	}
	idx := binary.LittleEndian.Uint32(v.index[uint64(id)*IndexEntrySize:])
	if idx == Absent || idx >= v.header.NodeCount {
		return 0, false
	}
	return int(idx), true
}

// SearchNodeByID resolves any id, including sparse ids outside the id
// index, by binary search over the id-sorted node records.
func (v *View) SearchNodeByID(id uint32) (int, bool) {
	if i, ok := v.FindNodeByID(id); ok {
		return i, true
	}
	n := v.NodeCount()
	i := sort.Search(n, func(i int) bool {
		return binary.LittleEndian.Uint32(v.nodes[i*NodeRecordSize:]) >= id
	})
	if i < n && binary.LittleEndian.Uint32(v.nodes[i*NodeRecordSize:]) == id {
		return i, true
	}
	return 0, false
}

// Text returns the text of node id.
func (v *View) Text(id uint32) ([]byte, bool) {
	i, ok := v.SearchNodeByID(id)
	if !ok {
		return nil, false
	}
	return v.NodeString(i)
}

// Bytes returns the whole image.
func (v *View) Bytes() []byte {
	return v.data
}

// Close unmaps the image. In-memory views have nothing to release.
func (v *View) Close() error {
	v.triples, v.nodes, v.index, v.pool, v.data = nil, nil, nil, nil, nil
	v.header = Header{}
	if v.mapping == nil {
		return nil
	}
	m := v.mapping
	v.mapping = nil
	return m.Close()
}
