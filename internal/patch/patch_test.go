package patch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blang-tool/internal/blang"
)

func testTable() *blang.StringTable {
	return &blang.StringTable{
		LegacyHeader:     true,
		HasTrailingField: true,
		Entries: []*blang.StringEntry{
			blang.NewEntry(0, "#str_title", "Title", "meta"),
			blang.NewEntry(0, "#str_quit", "Quit", ""),
			blang.NewEntry(0, "#str_hint", "Line one\r\nLine two", ""),
		},
	}
}

func assertFlagsConsistent(t *testing.T, table *blang.StringTable) {
	t.Helper()
	for _, e := range table.Entries {
		want := e.Inserted() || e.Identifier() != e.OriginalIdentifier() || e.Text() != e.OriginalText()
		assert.Equal(t, want, e.Modified(), e.Identifier())
	}
}

func TestApplySingleEntryScenario(t *testing.T) {
	t.Parallel()

	table := &blang.StringTable{Entries: []*blang.StringEntry{
		blang.NewEntry(0, "#str_test", "Hello", ""),
	}}

	modified := Apply(table, Patch{Strings: []Entry{{Name: "#str_test", Text: "World"}}})
	assert.True(t, modified)

	e := table.Entries[0]
	assert.Equal(t, "World", e.Text())
	assert.True(t, e.Modified())

	assert.Equal(t, Patch{Strings: []Entry{{Name: "#str_test", Text: "World"}}}, Export(table))
}

func TestApplyAppendsUnknownNames(t *testing.T) {
	t.Parallel()

	table := testTable()
	modified := Apply(table, Patch{Strings: []Entry{{Name: "#str_new", Text: "Brand new"}}})
	assert.True(t, modified)

	require.Len(t, table.Entries, 4)
	e := table.Entries[3]
	assert.Equal(t, "#str_new", e.Identifier())
	assert.Equal(t, "#str_new", e.OriginalIdentifier())
	assert.Equal(t, "Brand new", e.Text())
	assert.Equal(t, "Brand new", e.OriginalText())
	assert.Equal(t, uint32(0), e.Hash)
	assert.True(t, e.Modified())
}

func TestApplyIsCaseSensitive(t *testing.T) {
	t.Parallel()

	table := testTable()
	Apply(table, Patch{Strings: []Entry{{Name: "#STR_TITLE", Text: "Other"}}})

	assert.Equal(t, "Title", table.Entries[0].Text())
	require.Len(t, table.Entries, 4)
	assert.Equal(t, "#STR_TITLE", table.Entries[3].Identifier())
}

func TestApplyUnchangedTextIsNotModified(t *testing.T) {
	t.Parallel()

	table := testTable()
	modified := Apply(table, Patch{Strings: []Entry{{Name: "#str_quit", Text: "Quit"}}})

	assert.False(t, modified)
	assertFlagsConsistent(t, table)
	assert.Empty(t, Export(table).Strings)
}

func TestApplyRevertClearsFlag(t *testing.T) {
	t.Parallel()

	table := testTable()
	require.True(t, Apply(table, Patch{Strings: []Entry{{Name: "#str_quit", Text: "Leave"}}}))
	assert.False(t, Apply(table, Patch{Strings: []Entry{{Name: "#str_quit", Text: "Quit"}}}))
	assertFlagsConsistent(t, table)
}

func TestApplyCountsExistingModifications(t *testing.T) {
	t.Parallel()

	table := testTable()
	table.Entries[0].SetText("Edited by hand")

	modified := Apply(table, Patch{Strings: []Entry{{Name: "#str_quit", Text: "Quit"}}})
	assert.True(t, modified, "an untouched modified entry still counts")
}

func TestApplyIsIdempotent(t *testing.T) {
	t.Parallel()

	p := Patch{Strings: []Entry{
		{Name: "#str_title", Text: "New title"},
		{Name: "#str_quit", Text: "Quit"},
		{Name: "#str_extra", Text: "Added"},
	}}

	once := testTable()
	Apply(once, p)

	twice := testTable()
	Apply(twice, p)
	Apply(twice, p)

	require.Len(t, twice.Entries, len(once.Entries))
	for i := range once.Entries {
		assert.Equal(t, once.Entries[i].Text(), twice.Entries[i].Text())
		assert.Equal(t, once.Entries[i].Modified(), twice.Entries[i].Modified())
	}
	assertFlagsConsistent(t, twice)
	assert.Equal(t, Export(once), Export(twice))
	assert.Contains(t, Export(twice).Strings, Entry{Name: "#str_extra", Text: "Added"})
}

func TestApplyUsesFirstDuplicate(t *testing.T) {
	t.Parallel()

	table := &blang.StringTable{Entries: []*blang.StringEntry{
		blang.NewEntry(0, "#str_dup", "one", ""),
		blang.NewEntry(0, "#str_dup", "two", ""),
	}}
	Apply(table, Patch{Strings: []Entry{{Name: "#str_dup", Text: "patched"}}})

	assert.Equal(t, "patched", table.Entries[0].Text())
	assert.Equal(t, "two", table.Entries[1].Text())
}

func TestExportCollapsesCRLF(t *testing.T) {
	t.Parallel()

	table := testTable()
	table.Entries[2].SetText("First\r\nSecond\r\nThird")
	table.Entries[0].SetText("Heading")

	got := Export(table)
	assert.Equal(t, []Entry{
		{Name: "#str_title", Text: "Heading"},
		{Name: "#str_hint", Text: "First\nSecond\nThird"},
	}, got.Strings)
}

func TestExportRoundTrip(t *testing.T) {
	t.Parallel()

	edited := testTable()
	Apply(edited, Patch{Strings: []Entry{
		{Name: "#str_quit", Text: "Exit game"},
		{Name: "#str_extra", Text: "Added"},
	}})
	exported := Export(edited)

	fresh := testTable()
	Apply(fresh, exported)

	require.Len(t, fresh.Entries, len(edited.Entries))
	for i := range edited.Entries {
		assert.Equal(t, edited.Entries[i].Text(), fresh.Entries[i].Text())
		assert.Equal(t, edited.Entries[i].Modified(), fresh.Entries[i].Modified())
	}
}

func TestFromTable(t *testing.T) {
	t.Parallel()

	got := FromTable(testTable())
	require.Len(t, got.Strings, 3)
	assert.Equal(t, Entry{Name: "#str_quit", Text: "Quit"}, got.Strings[1])
}
