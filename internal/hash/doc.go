// Package hash provides the two non-cryptographic hashes owlite depends on.
//
// # FNV-1a
//
// The string interner keys its bucket table with 32-bit FNV-1a. It is chosen for
// speed on short identifiers, not for collision resistance; collisions are resolved
// by the bucket chain comparing the full bytes.
//
//	h := hash.FNV1a([]byte("ex:alice"))
//
// # CRC32-Castagnoli (CRC32C)
//
// Graph images carry a CRC32C over every byte after the header. Go's crc32 package
// uses SSE4.2 / ARM CRC instructions when available.
//
//	sum := hash.CRC32C(body)
//
// Neither hash is suitable for tamper detection.
package hash
