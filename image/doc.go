// Package image writes a graph to a single-file binary image and reads it back
// through a zero-copy, memory-mapped View.
//
// # File layout
//
// All integers are little-endian.
//
//	+----------------------+ 0
//	| header (64 bytes)    |
//	+----------------------+ TriplesOffset
//	| triple records       | TripleCount * 24
//	+----------------------+ NodesOffset
//	| node records         | NodeCount * 16, ascending by id
//	+----------------------+ IndexOffset
//	| id index             | 2*NodeCount uint32, 0xFFFFFFFF = absent
//	+----------------------+ StringsOffset
//	| string pool          |
//	+----------------------+
//
// The header checksum is CRC32C over every byte after the header.
//
// A Builder fixes every offset before any byte is written; Write then fills
// one buffer and issues exactly one write to a temp file that is renamed into
// place, so a crash leaves either no image or a complete one.
//
// Pack and Unpack frame an image in LZ4 or Zstandard blocks for transport;
// Publish and Fetch move packed images through a blobstore.BlobStore.
package image
