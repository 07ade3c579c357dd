package diff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUnified_Equal(t *testing.T) {
	t.Parallel()
	out, err := Unified("a", "b", "x\ny\n", "x\ny\n", DefaultContext)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUnified_Change(t *testing.T) {
	t.Parallel()
	out, err := Unified("enum.a", "enum.b", "one\ntwo\nthree\n", "one\n2\nthree\n", DefaultContext)
	require.NoError(t, err)
	assert.Contains(t, out, "--- enum.a")
	assert.Contains(t, out, "+++ enum.b")
	assert.Contains(t, out, "-two")
	assert.Contains(t, out, "+2")
	assert.Contains(t, out, " one")
}

func TestJSON(t *testing.T) {
	t.Parallel()
	from := map[string]any{"desc": "first", "n": 1}
	to := map[string]any{"desc": "second", "n": 1}

	out, err := JSON("a", "b", from, to)
	require.NoError(t, err)
	assert.Contains(t, out, `-  "desc": "first",`)
	assert.Contains(t, out, `+  "desc": "second",`)

	added, removed := Stat(out)
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)
}

func TestJSON_SameValue(t *testing.T) {
	t.Parallel()
	out, err := JSON("a", "b", []int{1, 2}, []int{1, 2})
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestJSON_Unencodable(t *testing.T) {
	t.Parallel()
	_, err := JSON("a", "b", make(chan int), 1)
	assert.Error(t, err)
}
