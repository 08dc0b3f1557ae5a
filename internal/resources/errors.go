package resources

import (
	"errors"
	"fmt"
)

var (
	// ErrBadMagic is returned when the input does not start with the container magic.
	ErrBadMagic = errors.New("bad container magic")

	// ErrTruncated is returned when an offset or size points past the end of the input.
	ErrTruncated = errors.New("truncated container")

	// ErrCorrupt is returned when the index tables contradict each other.
	ErrCorrupt = errors.New("inconsistent container index")

	// ErrNotFound is returned when a requested entry is not among the extracted tables.
	ErrNotFound = errors.New("entry not found")
)

// FormatError describes a malformed container.
type FormatError struct {
	Offset uint64
	Detail string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("resources: %s at offset %d: %v", e.Detail, e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
