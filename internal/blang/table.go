package blang

import "fmt"

// Layout names the on-disk shape of a table.
type Layout int

const (
	LegacyWithTrailing Layout = iota
	LegacyNoTrailing
	NewWithTrailing
	NewNoTrailing
)

func (l Layout) String() string {
	switch l {
	case LegacyWithTrailing:
		return "legacy+trailing"
	case LegacyNoTrailing:
		return "legacy"
	case NewWithTrailing:
		return "new+trailing"
	case NewNoTrailing:
		return "new"
	default:
		return fmt.Sprintf("Layout(%d)", int(l))
	}
}

// StringEntry is one localized string. The identifier and text captured at
// load time are kept so the entry can tell whether it was edited.
type StringEntry struct {
	// Hash is the fingerprint as read from disk. Write recomputes it.
	Hash uint32
	// Trailing is the optional third string of the entry, passed through untouched.
	Trailing string

	identifier         string
	originalIdentifier string
	text               string
	originalText       string
	inserted           bool
	modified           bool
}

// NewEntry creates an unmodified entry whose original values equal the given ones.
func NewEntry(hash uint32, identifier, text, trailing string) *StringEntry {
	return &StringEntry{
		Hash:               hash,
		Trailing:           trailing,
		identifier:         identifier,
		originalIdentifier: identifier,
		text:               text,
		originalText:       text,
	}
}

func (e *StringEntry) Identifier() string         { return e.identifier }
func (e *StringEntry) OriginalIdentifier() string { return e.originalIdentifier }
func (e *StringEntry) Text() string               { return e.text }
func (e *StringEntry) OriginalText() string       { return e.originalText }
func (e *StringEntry) Modified() bool             { return e.modified }
func (e *StringEntry) Inserted() bool             { return e.inserted }

// SetText replaces the text and recomputes the modified flag.
func (e *StringEntry) SetText(text string) {
	e.text = text
	e.recompute()
}

// SetIdentifier renames the entry and recomputes the modified flag.
func (e *StringEntry) SetIdentifier(identifier string) {
	e.identifier = identifier
	e.recompute()
}

// MarkInserted flags an entry that has no on-disk form to compare against.
// An inserted entry stays modified whatever its later edits.
func (e *StringEntry) MarkInserted() {
	e.inserted = true
	e.modified = true
}

func (e *StringEntry) recompute() {
	e.modified = e.inserted || e.identifier != e.originalIdentifier || e.text != e.originalText
}

// StringTable is a parsed BLANG table. Entry order is the on-disk order.
type StringTable struct {
	// HeaderField is the opaque 8-byte value preceding the entry count.
	// It is zero when the table was loaded without a header.
	HeaderField int64
	// LegacyHeader reports whether the source bytes carried HeaderField.
	LegacyHeader bool
	// HasTrailingField reports whether every entry carried a trailing string.
	HasTrailingField bool
	Entries          []*StringEntry
}

// NewTable returns an empty legacy table holding a single placeholder entry.
func NewTable(placeholder string) *StringTable {
	return &StringTable{
		LegacyHeader:     true,
		HasTrailingField: true,
		Entries:          []*StringEntry{NewEntry(0, placeholder, "", "")},
	}
}

// Layout returns the shape the table was loaded with. Write always emits
// LegacyWithTrailing regardless.
func (t *StringTable) Layout() Layout {
	switch {
	case t.LegacyHeader && t.HasTrailingField:
		return LegacyWithTrailing
	case t.LegacyHeader:
		return LegacyNoTrailing
	case t.HasTrailingField:
		return NewWithTrailing
	default:
		return NewNoTrailing
	}
}

// Find returns the first entry with exactly the given identifier.
func (t *StringTable) Find(identifier string) (*StringEntry, bool) {
	for _, e := range t.Entries {
		if e.identifier == identifier {
			return e, true
		}
	}
	return nil, false
}

// AnyModified reports whether at least one entry is flagged modified.
func (t *StringTable) AnyModified() bool {
	for _, e := range t.Entries {
		if e.modified {
			return true
		}
	}
	return false
}
