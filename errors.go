package owlite

import (
	"errors"
	"fmt"
	"os"

	"github.com/hupe1980/owlite/bitvec"
	"github.com/hupe1980/owlite/image"
	"github.com/hupe1980/owlite/interner"
	"github.com/hupe1980/owlite/reason"
	"github.com/hupe1980/owlite/resource"
	"github.com/hupe1980/owlite/store"
)

var (
	// ErrOutOfMemory is returned when an allocation or a memory reservation fails.
	ErrOutOfMemory = errors.New("out of memory")

	// ErrInvalidArgument is returned for malformed input such as empty strings,
	// mismatched vector sizes, unknown axioms or empty graphs.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrTableFull is returned when the interner cannot take another entry.
	ErrTableFull = errors.New("table full")

	// ErrFormat is returned when an image fails validation.
	ErrFormat = errors.New("invalid image format")

	// ErrIO wraps file system and blob store failures.
	ErrIO = errors.New("i/o error")

	// ErrNotFound is returned when a named node or image does not exist.
	ErrNotFound = errors.New("not found")

	// ErrCardinalityViolation marks functional-property conflicts. It is a
	// warning: materialization completes and the report carries the details.
	ErrCardinalityViolation = reason.ErrCardinalityViolation

	// ErrClosed is returned when using a closed Graph.
	ErrClosed = errors.New("graph closed")
)

// ErrUnknownName is returned when a string passed by name was never interned.
//
// It wraps ErrNotFound.
type ErrUnknownName struct {
	Name string
}

func (e *ErrUnknownName) Error() string {
	return fmt.Sprintf("unknown name %q", e.Name)
}

func (e *ErrUnknownName) Unwrap() error { return ErrNotFound }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Memory.
	if errors.Is(err, interner.ErrOutOfMemory) ||
		errors.Is(err, store.ErrOutOfMemory) ||
		errors.Is(err, bitvec.ErrOutOfMemory) ||
		errors.Is(err, image.ErrOutOfMemory) ||
		errors.Is(err, resource.ErrMemoryLimitExceeded) {
		return fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}

	if errors.Is(err, interner.ErrTableFull) {
		return fmt.Errorf("%w: %w", ErrTableFull, err)
	}

	// Image validation.
	if errors.Is(err, image.ErrFormat) {
		return fmt.Errorf("%w: %w", ErrFormat, err)
	}

	// Missing files and blobs are I/O errors that also match ErrNotFound.
	if errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %w: %w", ErrIO, ErrNotFound, err)
	}
	if errors.Is(err, image.ErrIO) {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}

	// Argument normalization.
	if errors.Is(err, interner.ErrEmptyInput) ||
		errors.Is(err, bitvec.ErrSizeMismatch) ||
		errors.Is(err, reason.ErrInvalidAxiom) ||
		errors.Is(err, image.ErrInvalidArgument) {
		return fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	if errors.Is(err, interner.ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}

	return err
}
