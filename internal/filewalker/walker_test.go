package filewalker

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
}

func TestWalkClassifies(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "strings", "english.blang"))
	writeFile(t, filepath.Join(root, "strings", "FRENCH.BLANG"))
	writeFile(t, filepath.Join(root, "patches", "fix.json"))
	writeFile(t, filepath.Join(root, "base", "gameresources.resources"))
	writeFile(t, filepath.Join(root, "readme.txt"))

	entries, err := NewWalker(".blang").Walk(root)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	counts := map[Kind]int{}
	for _, e := range entries {
		counts[e.Kind]++
	}
	assert.Equal(t, 2, counts[KindTable])
	assert.Equal(t, 1, counts[KindPatch])
	assert.Equal(t, 1, counts[KindContainer])
}

func TestWalkFiltersKinds(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.blang"))
	writeFile(t, filepath.Join(root, "b.resources"))

	entries, err := NewWalker(".blang").Walk(root, KindContainer)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, ".resources", entries[0].Ext)
	assert.Equal(t, "container", entries[0].Kind.String())
}

func TestWalkRejectsFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "a.blang")
	writeFile(t, path)

	_, err := NewWalker(".blang").Walk(path)
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	w := NewWalker(".blang")
	k, ok := w.Classify("x/y/Z.Blang")
	assert.True(t, ok)
	assert.Equal(t, KindTable, k)

	_, ok = w.Classify("x.lua")
	assert.False(t, ok)
}
