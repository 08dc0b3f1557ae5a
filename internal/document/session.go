// Package document holds one open string table together with the editing
// state around it: which language it is, whether it has unsaved changes and
// how new placeholder entries are numbered.
package document

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"blang-tool/internal/blang"
	"blang-tool/internal/decrypt"
	"blang-tool/internal/patch"
	"blang-tool/internal/placeholder"
	"blang-tool/internal/textutil"

	"github.com/rs/zerolog/log"
)

const (
	// NewLanguage is the language of tables created with NewTable.
	NewLanguage = "new"

	placeholderFormat = "#new_string_%d"
)

var (
	ErrNoTable         = errors.New("no table loaded")
	ErrEmptyTable      = errors.New("table has no strings")
	ErrNothingModified = errors.New("no modified strings")
	ErrEntryOutOfRange = errors.New("entry index out of range")
)

var acceptedExtensions = []string{".blang", ".json", ".resources"}

// Session is a single edit session. It is not safe for concurrent use.
type Session struct {
	decrypter decrypt.Decrypter
	table     *blang.StringTable
	language  string
	fresh     bool
	unsaved   bool
	nextIndex int
}

// NewSession creates a session that tries d before parsing loaded bytes.
// A nil d disables decryption.
func NewSession(d decrypt.Decrypter) *Session {
	if d == nil {
		d = decrypt.None{}
	}
	return &Session{decrypter: d}
}

// ParseTable decrypts data with the language's key and parses the result,
// falling back to parsing data as-is when decryption or the parse of the
// decrypted bytes fails.
func ParseTable(ctx context.Context, d decrypt.Decrypter, data []byte, language string) (*blang.StringTable, error) {
	plain, err := d.Decrypt(ctx, data, decrypt.Key(language))
	if err == nil {
		table, parseErr := blang.Parse(plain)
		if parseErr == nil {
			log.Debug().Str("language", language).Msg("Parsed decrypted table")
			return table, nil
		}
		log.Debug().Err(parseErr).Str("language", language).Msg("Decrypted bytes are not a table, trying plaintext")
	} else {
		log.Debug().Err(err).Str("language", language).Msg("Decryption failed, trying plaintext")
	}

	table, err := blang.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s table: %w", language, err)
	}
	return table, nil
}

// LoadTable replaces the current table with the one encoded in data.
// On failure the session is left empty.
func (s *Session) LoadTable(ctx context.Context, data []byte, language string) error {
	s.reset()

	table, err := ParseTable(ctx, s.decrypter, data, language)
	if err != nil {
		return err
	}
	if len(table.Entries) == 0 {
		return fmt.Errorf("load %s table: %w", language, ErrEmptyTable)
	}

	s.table = table
	s.language = language

	log.Info().
		Str("language", language).
		Int("strings", len(table.Entries)).
		Str("layout", table.Layout().String()).
		Msg("Loaded table")
	return nil
}

// NewTable replaces the current table with an empty one holding a single
// placeholder entry.
func (s *Session) NewTable() {
	s.reset()
	s.table = blang.NewTable(s.nextPlaceholder())
	s.language = NewLanguage
	s.fresh = true
}

// AddString appends a placeholder entry and returns it.
func (s *Session) AddString() (*blang.StringEntry, error) {
	if s.table == nil {
		return nil, ErrNoTable
	}
	id := s.nextPlaceholder()
	e := blang.NewEntry(0, id, "", "")
	s.table.Entries = append(s.table.Entries, e)
	return e, nil
}

// SetText edits the text of entry i.
func (s *Session) SetText(i int, text string) error {
	e, err := s.entry(i)
	if err != nil {
		return err
	}
	e.SetText(text)
	s.unsaved = true
	return nil
}

// SetIdentifier renames entry i.
func (s *Session) SetIdentifier(i int, identifier string) error {
	e, err := s.entry(i)
	if err != nil {
		return err
	}
	e.SetIdentifier(identifier)
	s.unsaved = true
	return nil
}

// LoadPatch merges p into the table. When the table is a new file still
// holding only its untouched placeholder, and the patch neither names nor
// changes it, the placeholder is dropped after the merge so the patch alone
// makes up the table. Entries of loaded tables are never dropped.
func (s *Session) LoadPatch(p patch.Patch) error {
	if s.table == nil {
		return ErrNoTable
	}

	var lone *blang.StringEntry
	if s.fresh && len(s.table.Entries) == 1 && !s.table.AnyModified() {
		lone = s.table.Entries[0]
	}

	modified := patch.Apply(s.table, p)

	if lone != nil && !lone.Modified() && !names(p, lone.Identifier()) {
		s.remove(lone)
	}
	s.fresh = false
	if modified {
		s.unsaved = true
	}

	s.lintPlaceholders()

	log.Info().
		Int("patch_strings", len(p.Strings)).
		Int("table_strings", len(s.table.Entries)).
		Bool("modified", modified).
		Msg("Applied patch")
	return nil
}

func names(p patch.Patch, identifier string) bool {
	for _, e := range p.Strings {
		if e.Name == identifier {
			return true
		}
	}
	return false
}

// lintPlaceholders warns about edited strings that lost or gained format
// placeholders compared with their original text.
func (s *Session) lintPlaceholders() {
	for _, e := range s.table.Entries {
		if !e.Modified() || e.Text() == e.OriginalText() {
			continue
		}
		missing, extra := placeholder.Diff(e.OriginalText(), e.Text())
		if len(missing) == 0 && len(extra) == 0 {
			continue
		}
		log.Warn().
			Str("identifier", e.Identifier()).
			Strs("missing", missing).
			Strs("extra", extra).
			Str("text", textutil.Truncate(e.Text(), 40)).
			Msg("Placeholder mismatch")
	}
}

// Save prunes entries with a blank identifier and encodes the table.
func (s *Session) Save() ([]byte, error) {
	if s.table == nil {
		return nil, ErrNoTable
	}

	kept := s.table.Entries[:0]
	for _, e := range s.table.Entries {
		if textutil.IsBlank(e.Identifier()) {
			log.Debug().Str("text", textutil.Truncate(e.Text(), 30)).Msg("Dropping string without identifier")
			continue
		}
		kept = append(kept, e)
	}
	clear(s.table.Entries[len(kept):])
	s.table.Entries = kept

	return blang.Write(s.table), nil
}

// SavePatch exports the modified entries and marks the session saved.
func (s *Session) SavePatch() (patch.Patch, error) {
	if s.table == nil {
		return patch.Patch{}, ErrNoTable
	}
	if !s.table.AnyModified() {
		return patch.Patch{}, ErrNothingModified
	}

	p := patch.Export(s.table)
	s.unsaved = false
	return p, nil
}

// Filter returns the entries whose identifier or text contains substr.
// An empty substr matches everything.
func (s *Session) Filter(substr string) []*blang.StringEntry {
	if s.table == nil {
		return nil
	}
	var out []*blang.StringEntry
	for _, e := range s.table.Entries {
		if strings.Contains(e.Identifier(), substr) || strings.Contains(e.Text(), substr) {
			out = append(out, e)
		}
	}
	return out
}

// Table returns the loaded table or nil.
func (s *Session) Table() *blang.StringTable { return s.table }

// Language returns the language of the loaded table.
func (s *Session) Language() string { return s.language }

// Loaded reports whether a table is open.
func (s *Session) Loaded() bool { return s.table != nil }

// AnyModified reports whether the loaded table has a modified entry.
func (s *Session) AnyModified() bool { return s.table != nil && s.table.AnyModified() }

// Unsaved reports whether edits were made since the last saved patch.
func (s *Session) Unsaved() bool { return s.unsaved }

// Dirty reports whether discarding the session would lose modifications.
func (s *Session) Dirty() bool { return s.unsaved && s.AnyModified() }

// Title names the open document.
func (s *Session) Title() string {
	switch {
	case s.table == nil:
		return "blang-tool"
	case s.language == NewLanguage:
		return "blang-tool - New file"
	default:
		return "blang-tool - " + s.language + ".blang"
	}
}

// Accepts reports whether path has an extension the tool can open.
func Accepts(path string) bool {
	ext := filepath.Ext(path)
	for _, want := range acceptedExtensions {
		if strings.EqualFold(ext, want) {
			return true
		}
	}
	return false
}

func (s *Session) entry(i int) (*blang.StringEntry, error) {
	if s.table == nil {
		return nil, ErrNoTable
	}
	if i < 0 || i >= len(s.table.Entries) {
		return nil, fmt.Errorf("entry %d of %d: %w", i, len(s.table.Entries), ErrEntryOutOfRange)
	}
	return s.table.Entries[i], nil
}

func (s *Session) remove(target *blang.StringEntry) {
	for i, e := range s.table.Entries {
		if e == target {
			s.table.Entries = append(s.table.Entries[:i], s.table.Entries[i+1:]...)
			return
		}
	}
}

func (s *Session) nextPlaceholder() string {
	id := fmt.Sprintf(placeholderFormat, s.nextIndex)
	s.nextIndex++
	return id
}

func (s *Session) reset() {
	s.table = nil
	s.language = ""
	s.fresh = false
	s.unsaved = false
}
