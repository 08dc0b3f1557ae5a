package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blang-tool/internal/patch"
)

func TestUpsertQuery(t *testing.T) {
	t.Parallel()

	sqlStr, args, err := upsertQuery("english", patch.Entry{Name: "#str_a", Text: "Alpha"})
	require.NoError(t, err)

	assert.Contains(t, sqlStr, "INSERT INTO blang_patches")
	assert.Contains(t, sqlStr, "$1")
	assert.Contains(t, sqlStr, "$3")
	assert.Contains(t, sqlStr, "now()")
	assert.Contains(t, sqlStr, "ON CONFLICT (language, name) DO UPDATE")
	assert.NotContains(t, sqlStr, "?")
	assert.Equal(t, []any{"english", "#str_a", "Alpha"}, args)
}

func TestPullQuery(t *testing.T) {
	t.Parallel()

	sqlStr, args, err := pullQuery("french")
	require.NoError(t, err)

	assert.Equal(t, "SELECT name, text FROM blang_patches WHERE language = $1 ORDER BY name", sqlStr)
	assert.Equal(t, []any{"french"}, args)
}

func TestGetQuery(t *testing.T) {
	t.Parallel()

	sqlStr, args, err := getQuery("french", "#str_a")
	require.NoError(t, err)

	assert.Contains(t, sqlStr, "SELECT text FROM blang_patches WHERE")
	assert.Contains(t, sqlStr, "LIMIT 1")
	assert.ElementsMatch(t, []any{"french", "#str_a"}, args)
}

func TestGetServesFromMemory(t *testing.T) {
	t.Parallel()

	s := NewPatchStore(nil)
	s.memory[key{"english", "#str_a"}] = "Alpha"

	text, ok := s.Get(context.Background(), "english", "#str_a")
	require.True(t, ok)
	assert.Equal(t, "Alpha", text)
}
