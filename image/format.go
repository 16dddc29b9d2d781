package image

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	Magic   = 0x4F574C49 // "OWLI"
	Version = 1

	HeaderSize       = 64
	TripleRecordSize = 24
	NodeRecordSize   = 16
	IndexEntrySize   = 4

	// Absent marks an unused id index entry.
	Absent = 0xFFFFFFFF
)

// Header flags.
const (
	// HeaderFlagHasInferred is set when at least one triple is inferred.
	HeaderFlagHasInferred uint16 = 1 << 0
)

// Triple flags.
const (
	// FlagInferred marks triples added by materialization.
	FlagInferred uint32 = 1 << 0
)

// Node types.
const (
	NodeTypeResource uint16 = 1 // appears only as subject or object
	NodeTypeProperty uint16 = 2 // appears as a predicate
)

// Node flags.
const (
	// NodeFlagNoText marks ids that were never interned.
	NodeFlagNoText uint16 = 1 << 0
)

var (
	// ErrFormat is the class of all malformed-image errors.
	ErrFormat = errors.New("image: invalid format")
	// ErrInvalidMagic is returned for files that are not images.
	ErrInvalidMagic = errors.New("invalid magic number")
	// ErrInvalidVersion is returned for unsupported format versions.
	ErrInvalidVersion = errors.New("unsupported version")
	// ErrChecksum is returned when the body does not match the header checksum.
	ErrChecksum = errors.New("checksum mismatch")
	// ErrInvalidArgument is returned for nil or empty graphs.
	ErrInvalidArgument = errors.New("image: invalid argument")
	// ErrIO wraps file system failures.
	ErrIO = errors.New("image: i/o error")
	// ErrOutOfMemory is returned when the write buffer cannot be reserved.
	ErrOutOfMemory = errors.New("image: out of memory")
)

// FormatError describes a malformed image.
type FormatError struct {
	Reason string
	Err    error // optional cause, e.g. ErrInvalidMagic
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("image: %s: %v", e.Reason, e.Err)
	}
	return "image: " + e.Reason
}

// Unwrap reports both ErrFormat and the specific cause.
func (e *FormatError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrFormat, e.Err}
	}
	return []error{ErrFormat}
}

func formatErr(err error, format string, args ...any) error {
	return &FormatError{Reason: fmt.Sprintf(format, args...), Err: err}
}

// Header is the fixed 64-byte file header.
type Header struct {
	Magic         uint32
	Version       uint16
	Flags         uint16
	TripleCount   uint32
	NodeCount     uint32
	TriplesOffset uint64
	NodesOffset   uint64
	StringsOffset uint64
	IndexOffset   uint64
	Checksum      uint32
	_             [12]byte
}

// Encode writes h into buf[:HeaderSize].
func (h *Header) Encode(buf []byte) {
	_ = buf[HeaderSize-1]
	binary.LittleEndian.PutUint32(buf[0:], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:], h.Version)
	binary.LittleEndian.PutUint16(buf[6:], h.Flags)
	binary.LittleEndian.PutUint32(buf[8:], h.TripleCount)
	binary.LittleEndian.PutUint32(buf[12:], h.NodeCount)
	binary.LittleEndian.PutUint64(buf[16:], h.TriplesOffset)
	binary.LittleEndian.PutUint64(buf[24:], h.NodesOffset)
	binary.LittleEndian.PutUint64(buf[32:], h.StringsOffset)
	binary.LittleEndian.PutUint64(buf[40:], h.IndexOffset)
	binary.LittleEndian.PutUint32(buf[48:], h.Checksum)
	clear(buf[52:HeaderSize])
}

// DecodeHeader parses and checks magic and version.
func DecodeHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, formatErr(nil, "file too small for header: %d bytes", len(buf))
	}
	h := &Header{}
	h.Magic = binary.LittleEndian.Uint32(buf[0:])
	if h.Magic != Magic {
		return nil, formatErr(ErrInvalidMagic, "magic %#08x", h.Magic)
	}
	h.Version = binary.LittleEndian.Uint16(buf[4:])
	if h.Version != Version {
		return nil, formatErr(ErrInvalidVersion, "version %d", h.Version)
	}
	h.Flags = binary.LittleEndian.Uint16(buf[6:])
	h.TripleCount = binary.LittleEndian.Uint32(buf[8:])
	h.NodeCount = binary.LittleEndian.Uint32(buf[12:])
	h.TriplesOffset = binary.LittleEndian.Uint64(buf[16:])
	h.NodesOffset = binary.LittleEndian.Uint64(buf[24:])
	h.StringsOffset = binary.LittleEndian.Uint64(buf[32:])
	h.IndexOffset = binary.LittleEndian.Uint64(buf[40:])
	h.Checksum = binary.LittleEndian.Uint32(buf[48:])
	return h, nil
}

// TripleRecord is a 24-byte triple entry.
type TripleRecord struct {
	Subject    uint32
	Predicate  uint32
	Object     uint32
	Graph      uint32 // 0 = default graph
	Flags      uint32
	DataOffset uint32
}

// Inferred reports whether FlagInferred is set.
func (r TripleRecord) Inferred() bool {
	return r.Flags&FlagInferred != 0
}

func (r *TripleRecord) encode(buf []byte) {
	_ = buf[TripleRecordSize-1]
	binary.LittleEndian.PutUint32(buf[0:], r.Subject)
	binary.LittleEndian.PutUint32(buf[4:], r.Predicate)
	binary.LittleEndian.PutUint32(buf[8:], r.Object)
	binary.LittleEndian.PutUint32(buf[12:], r.Graph)
	binary.LittleEndian.PutUint32(buf[16:], r.Flags)
	binary.LittleEndian.PutUint32(buf[20:], r.DataOffset)
}

func decodeTriple(buf []byte) TripleRecord {
	_ = buf[TripleRecordSize-1]
	return TripleRecord{
		Subject:    binary.LittleEndian.Uint32(buf[0:]),
		Predicate:  binary.LittleEndian.Uint32(buf[4:]),
		Object:     binary.LittleEndian.Uint32(buf[8:]),
		Graph:      binary.LittleEndian.Uint32(buf[12:]),
		Flags:      binary.LittleEndian.Uint32(buf[16:]),
		DataOffset: binary.LittleEndian.Uint32(buf[20:]),
	}
}

// NodeRecord is a 16-byte node entry. StringOffset is relative to the string pool.
type NodeRecord struct {
	ID           uint32
	Type         uint16
	Flags        uint16
	StringOffset uint32
	StringLength uint32
}

func (r *NodeRecord) encode(buf []byte) {
	_ = buf[NodeRecordSize-1]
	binary.LittleEndian.PutUint32(buf[0:], r.ID)
	binary.LittleEndian.PutUint16(buf[4:], r.Type)
	binary.LittleEndian.PutUint16(buf[6:], r.Flags)
	binary.LittleEndian.PutUint32(buf[8:], r.StringOffset)
	binary.LittleEndian.PutUint32(buf[12:], r.StringLength)
}

func decodeNode(buf []byte) NodeRecord {
	_ = buf[NodeRecordSize-1]
	return NodeRecord{
		ID:           binary.LittleEndian.Uint32(buf[0:]),
		Type:         binary.LittleEndian.Uint16(buf[4:]),
		Flags:        binary.LittleEndian.Uint16(buf[6:]),
		StringOffset: binary.LittleEndian.Uint32(buf[8:]),
		StringLength: binary.LittleEndian.Uint32(buf[12:]),
	}
}
