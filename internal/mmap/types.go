package mmap

import "errors"

// AccessPattern is a hint to the kernel about upcoming reads.
type AccessPattern int

const (
	// AccessDefault gives no advice.
	AccessDefault AccessPattern = iota
	// AccessSequential expects a front-to-back scan (checksum verification).
	AccessSequential
	// AccessRandom expects point lookups (FindNodeByID, Triple(i)).
	AccessRandom
	// AccessWillNeed asks for read-ahead.
	AccessWillNeed
)

var (
	// ErrClosed is returned when a closed mapping is used.
	ErrClosed = errors.New("mmap: mapping is closed")
	// ErrInvalidSize is returned for negative or unmappable sizes.
	ErrInvalidSize = errors.New("mmap: invalid size")
)
