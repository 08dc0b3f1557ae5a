package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"blang-tool/internal/blang"
	"blang-tool/internal/patch"
	"blang-tool/internal/resources"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTableFile(t *testing.T, dir, name string, pairs ...string) string {
	t.Helper()
	table := &blang.StringTable{LegacyHeader: true, HasTrailingField: true}
	for i := 0; i < len(pairs); i += 2 {
		table.Entries = append(table.Entries, blang.NewEntry(0, pairs[i], pairs[i+1], ""))
	}
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, blang.Write(table), 0o644))
	return path
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func readTable(t *testing.T, path string) *blang.StringTable {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	table, err := blang.Parse(data)
	require.NoError(t, err)
	return table
}

func TestDump(t *testing.T) {
	dir := t.TempDir()
	table := writeTableFile(t, dir, "english.blang", "#str_a", "Alpha", "#str_b", "Beta")

	out, err := run(t, "dump", table)
	require.NoError(t, err)

	p, err := patch.Decode([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, []patch.Entry{{Name: "#str_a", Text: "Alpha"}, {Name: "#str_b", Text: "Beta"}}, p.Strings)
}

func TestDumpFilter(t *testing.T) {
	dir := t.TempDir()
	table := writeTableFile(t, dir, "english.blang", "#str_menu_play", "Play", "#str_menu_quit", "Quit", "#str_hint", "Press play")

	out, err := run(t, "dump", table, "--filter", "lay")
	require.NoError(t, err)

	p, err := patch.Decode([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, []patch.Entry{{Name: "#str_menu_play", Text: "Play"}, {Name: "#str_hint", Text: "Press play"}}, p.Strings)
}

func TestApplyWritesTableAndPatch(t *testing.T) {
	dir := t.TempDir()
	table := writeTableFile(t, dir, "english.blang", "#str_a", "Alpha", "#str_b", "Beta")
	patchPath := writeFile(t, dir, "fix.json", `{
		// lenient input
		"strings": [
			{"name": "#str_a", "text": "Alpha!"},
			{"name": "#str_new", "text": "Fresh"},
		],
	}`)
	outTable := filepath.Join(dir, "out.blang")
	outPatch := filepath.Join(dir, "out.json")

	_, err := run(t, "apply", table, patchPath, "--output", outTable, "--patch-output", outPatch)
	require.NoError(t, err)

	written := readTable(t, outTable)
	require.Len(t, written.Entries, 3)
	assert.Equal(t, "Alpha!", written.Entries[0].Text())
	assert.Equal(t, "#str_new", written.Entries[2].Identifier())

	data, err := os.ReadFile(outPatch)
	require.NoError(t, err)
	exported, err := patch.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []patch.Entry{{Name: "#str_a", Text: "Alpha!"}, {Name: "#str_new", Text: "Fresh"}}, exported.Strings)
}

func TestApplySingleStringTable(t *testing.T) {
	dir := t.TempDir()
	table := writeTableFile(t, dir, "english.blang", "#str_test", "Hello")
	patchPath := writeFile(t, dir, "fix.json", `{"strings": [{"name": "#str_test", "text": "World"}]}`)
	outTable := filepath.Join(dir, "out.blang")
	outPatch := filepath.Join(dir, "out.json")

	_, err := run(t, "apply", table, patchPath, "--output", outTable, "--patch-output", outPatch)
	require.NoError(t, err)

	written := readTable(t, outTable)
	require.Len(t, written.Entries, 1)
	assert.Equal(t, "#str_test", written.Entries[0].Identifier())
	assert.Equal(t, "World", written.Entries[0].Text())
	assert.True(t, written.HasTrailingField)
	assert.True(t, written.LegacyHeader)

	data, err := os.ReadFile(outPatch)
	require.NoError(t, err)
	exported, err := patch.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []patch.Entry{{Name: "#str_test", Text: "World"}}, exported.Strings)
}

func TestApplyRequiresOutput(t *testing.T) {
	dir := t.TempDir()
	table := writeTableFile(t, dir, "english.blang", "#str_a", "A", "#str_b", "B")
	patchPath := writeFile(t, dir, "fix.json", `{"strings": []}`)

	_, err := run(t, "apply", table, patchPath)
	assert.ErrorContains(t, err, "nothing to write")
}

func TestExportNothingModified(t *testing.T) {
	dir := t.TempDir()
	table := writeTableFile(t, dir, "english.blang", "#str_a", "A", "#str_b", "B")
	patchPath := writeFile(t, dir, "same.json", `{"strings": [{"name": "#str_a", "text": "A"}]}`)

	_, err := run(t, "export", table, patchPath)
	assert.Error(t, err)
}

func TestNewBuildsTableFromPatch(t *testing.T) {
	dir := t.TempDir()
	patchPath := writeFile(t, dir, "seed.json", `{"strings": [{"name": "#str_x", "text": "X"}, {"name": "#str_y", "text": "Y"}]}`)
	outTable := filepath.Join(dir, "new.blang")

	_, err := run(t, "new", patchPath, "--output", outTable)
	require.NoError(t, err)

	written := readTable(t, outTable)
	require.Len(t, written.Entries, 2)
	assert.Equal(t, "#str_x", written.Entries[0].Identifier())
	assert.Equal(t, "Y", written.Entries[1].Text())
}

func TestSourceFlagsSplit(t *testing.T) {
	t.Parallel()

	var plain sourceFlags
	path, rest, err := plain.split([]string{"a.blang", "p.json"}, 1)
	require.NoError(t, err)
	assert.Equal(t, "a.blang", path)
	assert.Equal(t, []string{"p.json"}, rest)

	_, _, err = plain.split([]string{"p.json"}, 1)
	assert.Error(t, err)

	boxed := sourceFlags{container: "x.resources"}
	_, _, err = boxed.split([]string{"p.json"}, 1)
	assert.ErrorContains(t, err, "--entry")

	boxed.entry = "/english.blang"
	path, rest, err = boxed.split([]string{"p.json"}, 1)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, []string{"p.json"}, rest)
}

func TestLanguageOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "english", languageOf("strings/english.blang"))
	assert.Equal(t, "french", languageOf("/french.blang"))
	assert.Equal(t, "german", languageOf("german"))
}

func TestExtractTables(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	records := []resources.Record{
		{Name: "/english.blang", Data: []byte("en")},
		{Name: "/sub/french.blang", Data: []byte("fr")},
	}
	require.NoError(t, extractTables(records, dir))

	data, err := os.ReadFile(filepath.Join(dir, "sub", "french.blang"))
	require.NoError(t, err)
	assert.Equal(t, "fr", string(data))

	err = extractTables([]resources.Record{{Name: "/../escape.blang"}}, dir)
	assert.Error(t, err)
}
