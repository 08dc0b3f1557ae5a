package binreader

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrShortRead is returned when a read or seek runs past the end of the buffer.
var ErrShortRead = errors.New("read past end of buffer")

// Reader is a seekable cursor over an in-memory byte slice.
// All reads are bounds-checked; a failed read leaves the position unchanged.
type Reader struct {
	buf []byte
	pos int
}

// New creates a Reader positioned at offset 0.
func New(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Pos returns the current absolute offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the size of the underlying buffer.
func (r *Reader) Len() int { return len(r.buf) }

// Seek moves to an absolute offset. Seeking to exactly Len() is allowed.
func (r *Reader) Seek(offset uint64) error {
	if offset > uint64(len(r.buf)) {
		return fmt.Errorf("seek to %d of %d: %w", offset, len(r.buf), ErrShortRead)
	}
	r.pos = int(offset)
	return nil
}

// Skip advances the cursor by n bytes.
func (r *Reader) Skip(n int) error {
	if n < 0 || n > len(r.buf)-r.pos {
		return fmt.Errorf("skip %d at %d: %w", n, r.pos, ErrShortRead)
	}
	r.pos += n
	return nil
}

// Bytes returns the next n bytes. The result aliases the underlying buffer.
func (r *Reader) Bytes(n int) ([]byte, error) {
	if n < 0 || n > len(r.buf)-r.pos {
		return nil, fmt.Errorf("read %d bytes at %d: %w", n, r.pos, ErrShortRead)
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

// Peek returns up to n bytes without advancing. It returns fewer bytes near
// the end of the buffer, never an error.
func (r *Reader) Peek(n int) []byte {
	end := r.pos + n
	if end > len(r.buf) {
		end = len(r.buf)
	}
	return r.buf[r.pos:end]
}

// Uint32LE reads a little-endian uint32.
func (r *Reader) Uint32LE() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Uint32BE reads a big-endian uint32.
func (r *Reader) Uint32BE() (uint32, error) {
	b, err := r.Bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b), nil
}

// Int32LE reads a little-endian int32.
func (r *Reader) Int32LE() (int32, error) {
	v, err := r.Uint32LE()
	return int32(v), err
}

// Int32BE reads a big-endian int32.
func (r *Reader) Int32BE() (int32, error) {
	v, err := r.Uint32BE()
	return int32(v), err
}

// Uint64LE reads a little-endian uint64.
func (r *Reader) Uint64LE() (uint64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// Int64BE reads a big-endian int64.
func (r *Reader) Int64BE() (int64, error) {
	b, err := r.Bytes(8)
	if err != nil {
		return 0, err
	}
	return int64(binary.BigEndian.Uint64(b)), nil
}

// CString reads a NUL-terminated string and consumes the terminator.
func (r *Reader) CString() (string, error) {
	for i := r.pos; i < len(r.buf); i++ {
		if r.buf[i] == 0 {
			s := string(r.buf[r.pos:i])
			r.pos = i + 1
			return s, nil
		}
	}
	return "", fmt.Errorf("unterminated string at %d: %w", r.pos, ErrShortRead)
}
