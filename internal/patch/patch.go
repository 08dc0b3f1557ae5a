// Package patch reconciles name-keyed text patches with a loaded string table
// and produces patches holding only what was changed.
package patch

import (
	"strings"

	"blang-tool/internal/blang"
)

// Entry is one name/text pair of a patch.
type Entry struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Patch is the exchange document: {"strings": [{"name": ..., "text": ...}]}.
type Patch struct {
	Strings []Entry `json:"strings"`
}

// Apply merges p into table in place. Entries are matched by exact,
// case-sensitive identifier; the first match wins. Unmatched names are
// appended as inserted entries with the patch text as their original text;
// they stay modified when the same patch is applied again. It reports whether
// any entry of the table, patched or not, is modified afterwards.
func Apply(table *blang.StringTable, p Patch) bool {
	for _, pe := range p.Strings {
		if e, ok := table.Find(pe.Name); ok {
			e.SetText(pe.Text)
			continue
		}
		e := blang.NewEntry(0, pe.Name, pe.Text, "")
		e.MarkInserted()
		table.Entries = append(table.Entries, e)
	}
	return table.AnyModified()
}

// Export returns one entry per modified table entry, in table order, with
// CRLF line endings collapsed to LF.
func Export(table *blang.StringTable) Patch {
	out := Patch{Strings: []Entry{}}
	for _, e := range table.Entries {
		if !e.Modified() {
			continue
		}
		out.Strings = append(out.Strings, Entry{
			Name: e.Identifier(),
			Text: strings.ReplaceAll(e.Text(), "\r\n", "\n"),
		})
	}
	return out
}

// FromTable lists every entry of the table, modified or not.
func FromTable(table *blang.StringTable) Patch {
	out := Patch{Strings: make([]Entry, 0, len(table.Entries))}
	for _, e := range table.Entries {
		out.Strings = append(out.Strings, Entry{Name: e.Identifier(), Text: e.Text()})
	}
	return out
}
