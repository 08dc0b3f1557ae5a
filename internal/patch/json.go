package patch

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tailscale/hujson"
)

// ErrMissingStrings is returned for documents without a "strings" array.
var ErrMissingStrings = errors.New(`missing "strings" array`)

// FormatError wraps an unreadable patch document.
type FormatError struct {
	Err error
}

func (e *FormatError) Error() string { return "patch: invalid json: " + e.Err.Error() }

func (e *FormatError) Unwrap() error { return e.Err }

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Decode parses a patch document. Comments and trailing commas are accepted.
// Property names match case-insensitively.
func Decode(data []byte) (Patch, error) {
	data = bytes.TrimPrefix(data, utf8BOM)

	std, err := hujson.Standardize(data)
	if err != nil {
		return Patch{}, &FormatError{Err: err}
	}

	var doc struct {
		Strings *[]Entry `json:"strings"`
	}
	if err := json.Unmarshal(std, &doc); err != nil {
		return Patch{}, &FormatError{Err: err}
	}
	if doc.Strings == nil {
		return Patch{}, &FormatError{Err: ErrMissingStrings}
	}

	return Patch{Strings: *doc.Strings}, nil
}

// Encode renders p as indented JSON without HTML escaping.
func Encode(p Patch) ([]byte, error) {
	if p.Strings == nil {
		p.Strings = []Entry{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if err := enc.Encode(p); err != nil {
		return nil, fmt.Errorf("encode patch: %w", err)
	}
	return buf.Bytes(), nil
}
