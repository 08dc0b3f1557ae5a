package blang

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncated is returned when a field extends past the end of the input.
	ErrTruncated = errors.New("truncated table")

	// ErrNegativeLength is returned when a count or length prefix is negative.
	ErrNegativeLength = errors.New("negative length")
)

// FormatError describes malformed table bytes.
type FormatError struct {
	Offset int
	Field  string
	Err    error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("blang: %s at offset %d: %v", e.Field, e.Offset, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }
