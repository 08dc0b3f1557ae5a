package blang

import (
	"encoding/binary"
	"errors"
	"strings"

	"blang-tool/internal/binreader"
	"blang-tool/internal/textutil"
)

// strPrefix is the conventional prefix of identifiers written by the newer
// pipeline. Both layout probes look for it.
const strPrefix = "#str_"

// newLayoutProbeOffset is where the first identifier starts when the table
// has no 8-byte header: count(4) + hash(4) + identifier length(4).
const newLayoutProbeOffset = 12

// Parse decodes a BLANG table. Truncated input, a negative entry count or a
// negative length prefix yield a *FormatError.
func Parse(data []byte) (*StringTable, error) {
	r := binreader.New(data)
	t := &StringTable{}

	if !hasStrPrefix(data, newLayoutProbeOffset) {
		header, err := r.Int64BE()
		if err != nil {
			return nil, truncated("header", r.Pos())
		}
		t.HeaderField = header
		t.LegacyHeader = true
	}

	countPos := r.Pos()
	count, err := r.Int32BE()
	if err != nil {
		return nil, truncated("entry count", countPos)
	}
	if count < 0 {
		return nil, &FormatError{Offset: countPos, Field: "entry count", Err: ErrNegativeLength}
	}

	start := r.Pos()
	t.HasTrailingField = !entryGapIsBare(r)
	if err := r.Seek(uint64(start)); err != nil {
		return nil, truncated("entries", start)
	}

	// Every entry takes at least 12 bytes; do not trust count for capacity.
	t.Entries = make([]*StringEntry, 0, min(int(count), (len(data)-start)/12))

	for i := 0; i < int(count); i++ {
		hashPos := r.Pos()
		hash, err := r.Uint32BE()
		if err != nil {
			return nil, truncated("hash", hashPos)
		}

		identifier, err := readString(r, "identifier")
		if err != nil {
			return nil, err
		}

		text, err := readString(r, "text")
		if err != nil {
			return nil, err
		}

		var trailing string
		if t.HasTrailingField {
			if trailing, err = readString(r, "trailing"); err != nil {
				return nil, err
			}
		}

		t.Entries = append(t.Entries, NewEntry(hash, identifier, text, trailing))
	}

	return t, nil
}

// entryGapIsBare reports whether exactly 8 bytes (next hash and next identifier
// length) separate the first entry's text from the second entry's identifier,
// judged by the second identifier carrying strPrefix. It moves the cursor.
func entryGapIsBare(r *binreader.Reader) bool {
	if err := r.Skip(4); err != nil {
		return false
	}
	for i := 0; i < 2; i++ {
		n, err := r.Int32LE()
		if err != nil || n < 0 {
			return false
		}
		if err := r.Skip(int(n)); err != nil {
			return false
		}
	}
	if err := r.Skip(8); err != nil {
		return false
	}
	return strings.ToLower(string(r.Peek(len(strPrefix)))) == strPrefix
}

func hasStrPrefix(data []byte, offset int) bool {
	if offset+len(strPrefix) > len(data) {
		return false
	}
	return strings.ToLower(string(data[offset:offset+len(strPrefix)])) == strPrefix
}

func readString(r *binreader.Reader, field string) (string, error) {
	pos := r.Pos()
	n, err := r.Int32LE()
	if err != nil {
		return "", truncated(field+" length", pos)
	}
	if n < 0 {
		return "", &FormatError{Offset: pos, Field: field + " length", Err: ErrNegativeLength}
	}
	b, err := r.Bytes(int(n))
	if err != nil {
		return "", truncated(field, r.Pos())
	}
	return string(b), nil
}

func truncated(field string, offset int) error {
	return &FormatError{Offset: offset, Field: field, Err: ErrTruncated}
}

// IsFormatError reports whether err came from malformed table bytes.
func IsFormatError(err error) bool {
	var fe *FormatError
	return errors.As(err, &fe)
}

// Write encodes the table in the legacy layout with a trailing slot on every
// entry, whatever layout it was loaded with. Entries with a blank identifier
// are omitted and the entry count reflects that. The table is not modified.
//
// For each entry the hash is recomputed from the identifier and stored
// big-endian, carriage returns are stripped from the text, and blank text or
// trailing values are written as empty strings.
func Write(t *StringTable) []byte {
	entries := make([]*StringEntry, 0, len(t.Entries))
	for _, e := range t.Entries {
		if !textutil.IsBlank(e.identifier) {
			entries = append(entries, e)
		}
	}

	out := make([]byte, 0, 12+len(entries)*32)
	out = binary.BigEndian.AppendUint64(out, uint64(t.HeaderField))
	out = binary.BigEndian.AppendUint32(out, uint32(len(entries)))

	for _, e := range entries {
		out = binary.BigEndian.AppendUint32(out, Hash(e.identifier))
		out = appendString(out, e.identifier)
		out = appendString(out, normalizeText(e.text))
		if textutil.IsBlank(e.Trailing) {
			out = appendString(out, "")
		} else {
			out = appendString(out, e.Trailing)
		}
	}

	return out
}

func normalizeText(text string) string {
	if textutil.IsBlank(text) {
		return ""
	}
	return strings.ReplaceAll(text, "\r", "")
}

func appendString(out []byte, s string) []byte {
	out = binary.LittleEndian.AppendUint32(out, uint32(len(s)))
	return append(out, s...)
}
