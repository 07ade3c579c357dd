package enum

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapumpkin/casmproj/internal/crystal"
	"github.com/papapumpkin/casmproj/internal/errkind"
)

func TestCommand_NewIDAndAll(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	cmd := NewCommand(p)

	assert.Equal(t, "occ.0", cmd.NewID("occ"))
	require.NoError(t, os.MkdirAll(p.Dir.EnumDir("occ.0"), 0o755))
	require.NoError(t, os.MkdirAll(p.Dir.EnumDir("occ.1"), 0o755))
	assert.Equal(t, "occ.2", cmd.NewID("occ"))

	ids, err := cmd.All()
	require.NoError(t, err)
	assert.Equal(t, []string{"occ.0", "occ.1"}, ids)
}

func TestCommand_GetSetsLast(t *testing.T) {
	t.Parallel()
	cmd := NewCommand(newTestProject(t))
	d, err := cmd.Get("main")
	require.NoError(t, err)
	assert.Same(t, d, cmd.Last)
}

func TestCommand_RemoveMissing(t *testing.T) {
	t.Parallel()
	cmd := NewCommand(newTestProject(t))
	err := cmd.Remove("nope")
	assert.True(t, errkind.Is(err, errkind.NotFound))
	assert.True(t, errkind.Recoverable(err))
}

func TestCommand_CopyAndRemove(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	cmd := NewCommand(p)
	src, err := cmd.Get("src")
	require.NoError(t, err)
	populate(t, src)
	require.NoError(t, src.Commit())

	require.NoError(t, cmd.Copy("src", "dest"))
	dest, err := cmd.Get("dest")
	require.NoError(t, err)
	assert.Equal(t, documentJSON(t, src), documentJSON(t, dest))

	err = cmd.Copy("src", "dest")
	assert.True(t, errkind.Is(err, errkind.AlreadyExists))

	err = cmd.Copy("missing", "other")
	assert.True(t, errkind.Is(err, errkind.NotFound))

	require.NoError(t, cmd.Remove("dest"))
	assert.NoDirExists(t, p.Dir.EnumDir("dest"))

	list, err := cmd.List()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "src", list[0].ID)
	assert.Equal(t, 2, list[0].ConfigurationSet)
}

func TestCommand_MergeCommitsOnce(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	cmd := NewCommand(p)

	a, err := cmd.Get("a")
	require.NoError(t, err)
	sa := scel(t, a, 2)
	a.ConfigurationSet.Add(occ(sa, 0))
	a.ConfigurationSet.Add(occ(sa, 1))
	require.NoError(t, a.Commit())

	b, err := cmd.Get("b")
	require.NoError(t, err)
	sb := scel(t, b, 2)
	b.ConfigurationSet.Add(occ(sb, 1))
	b.ConfigurationSet.Add(occ(sb, 2))
	require.NoError(t, b.Commit())

	require.NoError(t, cmd.Merge("b", "a"))
	merged, err := cmd.Get("a")
	require.NoError(t, err)
	assert.Equal(t, 3, merged.ConfigurationSet.Len())

	// b is unchanged.
	b, err = cmd.Get("b")
	require.NoError(t, err)
	assert.Equal(t, 2, b.ConfigurationSet.Len())
}

func TestCommand_Diff(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	cmd := NewCommand(p)

	a, err := cmd.Get("a")
	require.NoError(t, err)
	populate(t, a)
	require.NoError(t, a.Commit())
	require.NoError(t, cmd.Copy("a", "b"))

	out, err := cmd.Diff("a", "b")
	require.NoError(t, err)
	assert.Empty(t, out)

	b, err := cmd.Get("b")
	require.NoError(t, err)
	b.Meta["desc"] = "changed"
	require.NoError(t, b.Commit())

	out, err = cmd.Diff("a", "b")
	require.NoError(t, err)
	assert.Contains(t, out, "--- enum.a")
	assert.Contains(t, out, "+++ enum.b")
	assert.Contains(t, out, `"changed"`)
}

func TestCommand_SupercellsByVolume(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	cmd := NewCommand(p)

	d, err := cmd.SupercellsByVolume(context.Background(), RunOptions{MinVolume: 1, MaxVolume: 2})
	require.NoError(t, err)
	assert.Equal(t, "supercells_by_volume.0", d.ID())
	assert.Equal(t, 8, d.SupercellSet.Len())
	assert.Len(t, d.SupercellList, 8)
	assert.Same(t, d, cmd.Last)

	again, err := cmd.SupercellsByVolume(context.Background(), RunOptions{ID: d.ID(), MinVolume: 1, MaxVolume: 3})
	require.NoError(t, err)
	assert.Equal(t, 21, again.SupercellSet.Len())
	assert.Len(t, again.SupercellList, 21)

	dry, err := cmd.SupercellsByVolume(context.Background(), RunOptions{ID: "dry", MaxVolume: 2, DryRun: true})
	require.NoError(t, err)
	assert.Equal(t, 8, dry.SupercellSet.Len())
	assert.NoDirExists(t, dry.Dir())
}

func TestCommand_OccBySupercell(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	cmd := NewCommand(p)

	d, err := cmd.OccBySupercell(context.Background(), RunOptions{ID: "occ", MinVolume: 1, MaxVolume: 2, NPerCommit: 7})
	require.NoError(t, err)
	// Volume 1: one supercell, 2 occupations. Volume 2: seven supercells,
	// 4 occupations each.
	assert.Equal(t, 30, d.ConfigurationSet.Len())
	assert.Equal(t, 8, d.SupercellSet.Len())

	reloaded, err := cmd.Get("occ")
	require.NoError(t, err)
	assert.Equal(t, 30, reloaded.ConfigurationSet.Len())
	assert.Contains(t, reloaded.Desc(), "occupations by supercell")

	filtered, err := cmd.OccBySupercell(context.Background(), RunOptions{
		ID:        "filtered",
		MaxVolume: 1,
		Filter:    func(c *crystal.Configuration, _ *Data) bool { return c.Occupation[0] == 1 },
	})
	require.NoError(t, err)
	assert.Equal(t, 1, filtered.ConfigurationSet.Len())
}
