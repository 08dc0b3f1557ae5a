package placeholder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFind(t *testing.T) {
	t.Parallel()

	got := Find("^1Press %s to ${action} {0} times (100%%)")
	assert.Equal(t, []string{"^1", "%s", "${action}", "{0}", "%%"}, got)

	assert.Nil(t, Find("no placeholders here"))
}

func TestFindPrefersLongestOverlap(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"%2d"}, Find("%2d"))
}

func TestDiff(t *testing.T) {
	t.Parallel()

	missing, extra := Diff("Kill %d of %s", "Tue %s et %d")
	assert.Empty(t, missing, "reordering is allowed")
	assert.Empty(t, extra)

	missing, extra = Diff("Kill %d of %s", "Tue %d")
	assert.Equal(t, []string{"%s"}, missing)
	assert.Empty(t, extra)

	missing, extra = Diff("{0} {0}", "{0} {1}")
	assert.Equal(t, []string{"{0}"}, missing)
	assert.Equal(t, []string{"{1}"}, extra)
}
