// Package mmap maps graph image files into memory for zero-copy reads.
//
//	m, err := mmap.Open("graph.owli")
//	if err != nil { ... }
//	defer m.Close()
//	data := m.Bytes() // aliases the file, valid until Close
//
// MapAnon returns read-write anonymous memory outside the Go heap; the string
// arena uses it so interned text does not add GC scan work.
//
// On Unix this is mmap(2)/madvise(2); on Windows CreateFileMapping/MapViewOfFile
// and VirtualAlloc, with Advise a no-op.
package mmap
