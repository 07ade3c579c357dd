package bset

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapumpkin/casmproj/internal/crystal"
	"github.com/papapumpkin/casmproj/internal/errkind"
	"github.com/papapumpkin/casmproj/internal/telemetry"
)

func TestCommand_ResolveDefault(t *testing.T) {
	t.Parallel()
	p := newTestProject(t, false)
	c := NewCommand(p, nil)

	id, err := c.Resolve("")
	require.NoError(t, err)
	assert.Equal(t, "default", id)

	id, err = c.Resolve("other")
	require.NoError(t, err)
	assert.Equal(t, "other", id)

	p.Settings.ClusterExpansions = nil
	_, err = c.Resolve("")
	assert.True(t, errkind.Is(err, errkind.NotFound))
}

func TestCommand_CopyListRemove(t *testing.T) {
	t.Parallel()
	p := newTestProject(t, true)
	c := NewCommand(p, &fakeEngine{})
	withSpecs(t, p, "default", nil)
	require.NoError(t, c.Update(context.Background(), "default", true, false))

	require.NoError(t, c.Copy("default", "copy"))
	assert.Equal(t, "copy", c.Last.ID())
	assert.FileExists(t, p.Dir.Bspecs("copy"))
	assert.NoFileExists(t, p.Dir.Basis("copy"))

	err := c.Copy("default", "copy")
	assert.True(t, errkind.Is(err, errkind.AlreadyExists))
	err = c.Copy("missing", "x")
	assert.True(t, errkind.Is(err, errkind.NotFound))

	ids, err := c.All()
	require.NoError(t, err)
	assert.Equal(t, []string{"copy", "default"}, ids)

	list, err := c.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "copy", list[0].ID)
	assert.False(t, list[0].HasSource)
	assert.Equal(t, "default", list[1].ID)
	assert.True(t, list[1].HasSource)
	assert.Equal(t, 3, list[1].Generated)
	assert.Equal(t, "pairs", list[1].Desc)

	require.NoError(t, c.Remove("copy"))
	assert.NoDirExists(t, p.Dir.BsetDir("copy"))
	err = c.Remove("copy")
	assert.True(t, errkind.Is(err, errkind.NotFound))
}

func TestCommand_Clean(t *testing.T) {
	t.Parallel()
	p := newTestProject(t, true)
	c := NewCommand(p, &fakeEngine{})
	withSpecs(t, p, "default", nil)
	require.NoError(t, c.Update(context.Background(), "", true, false))

	n, err := c.Clean("")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, "default", c.Last.ID())
}

func TestCommand_UpdateEmitsTelemetry(t *testing.T) {
	t.Parallel()
	p := newTestProject(t, true)
	path := filepath.Join(t.TempDir(), "events.jsonl")
	em, err := telemetry.NewEmitter(path)
	require.NoError(t, err)
	p.Telemetry = em
	withSpecs(t, p, "default", nil)

	c := NewCommand(p, &fakeEngine{})
	require.NoError(t, c.Update(context.Background(), "default", false, false))
	require.NoError(t, em.Close())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	sc := bufio.NewScanner(f)
	require.True(t, sc.Scan())
	var evt telemetry.Event
	require.NoError(t, json.Unmarshal(sc.Bytes(), &evt))
	assert.Equal(t, telemetry.KindBsetUpdate, evt.Kind)
	assert.False(t, sc.Scan())
}

func TestCorrCalculator(t *testing.T) {
	t.Parallel()
	p := newTestProject(t, true)
	eng := &fakeEngine{corr: func(c *crystal.Configuration) []float64 {
		n := 0
		for _, o := range c.Occupation {
			n += o
		}
		return []float64{1, float64(n) / float64(len(c.Occupation))}
	}}
	d := withSpecs(t, p, "default", eng)

	calc, err := NewCorrCalculator(d)
	require.NoError(t, err)
	assert.Equal(t, "default", calc.Bset())

	prim := binaryPrim()
	s1, err := crystal.NewSupercell(prim, crystal.Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	require.NoError(t, err)
	s4, err := crystal.NewSupercell(prim, crystal.Matrix3{{4, 0, 0}, {0, 1, 0}, {0, 0, 1}})
	require.NoError(t, err)
	c1 := crystal.NewConfiguration(s1)
	c4 := crystal.NewConfiguration(s4)
	c4.Occupation[0] = 1

	per, err := calc.PerUnitcell(context.Background(), []*crystal.Configuration{c1, c4})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {1, 0.25}}, per)

	total, err := calc.PerSupercell(context.Background(), []*crystal.Configuration{c1, c4})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {4, 1}}, total)
	assert.Equal(t, []int{0, 2}, eng.req.LinearFunctionIndices)

	empty, err := calc.PerUnitcell(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestCorrCalculator_RequiresSpecs(t *testing.T) {
	t.Parallel()
	p := newTestProject(t, true)
	d, err := Open(p, "default", &fakeEngine{})
	require.NoError(t, err)
	_, err = NewCorrCalculator(d)
	assert.True(t, errkind.Is(err, errkind.NoBasisSpecs))
}
