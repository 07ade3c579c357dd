package sym

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapumpkin/casmproj/internal/composition"
	"github.com/papapumpkin/casmproj/internal/crystal"
	"github.com/papapumpkin/casmproj/internal/engine"
	"github.com/papapumpkin/casmproj/internal/errkind"
	"github.com/papapumpkin/casmproj/internal/project"
	"github.com/papapumpkin/casmproj/internal/ui"
)

var (
	identity = [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	inverse  = [][]float64{{-1, 0, 0}, {0, -1, 0}, {0, 0, -1}}
	c4z      = [][]float64{{0, -1, 0}, {1, 0, 0}, {0, 0, 1}}
	mirrorZ  = [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, -1}}
	s4z      = [][]float64{{0, 1, 0}, {-1, 0, 0}, {0, 0, -1}}
)

func TestOperation_Type(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		op    Operation
		want  string
		angle float64
	}{
		{"identity", Operation{Matrix: identity}, TypeIdentity, 0},
		{"lattice translation", Operation{Matrix: identity, Translation: []float64{1, 0, 0}}, TypeIdentity, 0},
		{"translation", Operation{Matrix: identity, Translation: []float64{0.5, 0.5, 0}}, TypeTranslation, 0},
		{"rotation", Operation{Matrix: c4z}, TypeRotation, 90},
		{"screw", Operation{Matrix: c4z, Translation: []float64{0, 0, 0.25}}, TypeScrew, 90},
		{"inversion", Operation{Matrix: inverse}, TypeInversion, 0},
		{"mirror", Operation{Matrix: mirrorZ}, TypeMirror, 180},
		{"glide", Operation{Matrix: mirrorZ, Translation: []float64{0.5, 0, 0}}, TypeGlide, 180},
		{"rotoinversion", Operation{Matrix: s4z}, TypeRotoinversion, 90},
		{"bad shape", Operation{Matrix: [][]float64{{1}}}, TypeInvalid, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.op.Type())
			assert.InDelta(t, tt.angle, tt.op.Angle(), 1e-9)
		})
	}
}

func testGroup() *Group {
	return &Group{
		Elements: []Operation{{Matrix: identity}, {Matrix: c4z}, {Matrix: inverse}, {Matrix: mirrorZ}},
		Classification: map[string]any{
			"spacegroup_type": map[string]any{"international_short": "P4/m", "number": float64(83)},
		},
	}
}

func TestGroup_Brief(t *testing.T) {
	t.Parallel()
	g := testGroup()
	assert.Equal(t, 4, g.Order())
	assert.Equal(t, "4 operations, space group P4/m (#83) [identity: 1, inversion: 1, mirror: 1, rotation: 1]", g.Brief())

	g.Classification = nil
	assert.Equal(t, "4 operations [identity: 1, inversion: 1, mirror: 1, rotation: 1]", g.Brief())
	assert.Equal(t, "0 operations", (&Group{}).Brief())
}

func TestGroup_Rows(t *testing.T) {
	t.Parallel()
	g := &Group{Elements: []Operation{
		{Matrix: identity},
		{Matrix: c4z, Translation: []float64{0, 0, 0.5}},
	}}
	rows := g.Rows()
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"1", "identity", "", "[1 0 0] [0 1 0] [0 0 1]", ""}, rows[0])
	assert.Equal(t, []string{"2", "screw", "90", "[0 -1 0] [1 0 0] [0 0 1]", "[0 0 0.5]"}, rows[1])
	for _, r := range rows {
		assert.Len(t, r, len(TableHeaders))
	}
}

type symEngine struct {
	groups *engine.SymmetryGroups
}

func (e *symEngine) StandardAxes(context.Context, []string, [][]string, float64) ([]composition.EndMembers, error) {
	return nil, nil
}

func (e *symEngine) Symmetry(context.Context, float64) (*engine.SymmetryGroups, error) {
	return e.groups, nil
}

func (e *symEngine) NeighborListWeightMatrix(context.Context) ([][]int, error) {
	return nil, nil
}

func newTestProject(t *testing.T) *project.Project {
	t.Helper()
	prim := &crystal.Prim{
		Title:          "AB",
		LatticeVectors: [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		CoordinateMode: crystal.Fractional,
		Basis:          []crystal.Site{{Coordinate: []float64{0, 0, 0}, Occupants: []string{"A", "B"}}},
	}
	p, err := project.Init(context.Background(), t.TempDir(), project.InitParams{Prim: prim}, project.Options{})
	require.NoError(t, err)
	return p
}

func TestCommand_WriteAndRead(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	raw, err := json.Marshal(testGroup())
	require.NoError(t, err)
	p.Engine = &symEngine{groups: &engine.SymmetryGroups{
		LatticePointGroup: raw,
		FactorGroup:       raw,
		CrystalPointGroup: raw,
	}}

	c := NewCommand(p)
	require.NoError(t, c.WriteSymmetry(context.Background()))

	for _, read := range []func() (*Group, error){c.LatticePointGroup, c.FactorGroup, c.CrystalPointGroup} {
		g, err := read()
		require.NoError(t, err)
		assert.Equal(t, 4, g.Order())
		sym, num, ok := g.SpacegroupType()
		assert.True(t, ok)
		assert.Equal(t, "P4/m", sym)
		assert.Equal(t, 83, num)
	}
}

func TestCommand_ReadMissing(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	require.NoError(t, os.RemoveAll(p.Dir.SymmetryDir()))
	_, err := NewCommand(p).FactorGroup()
	assert.True(t, errkind.Is(err, errkind.MissingRequiredFile))

	_, err = NewCommand(p).Read("space_group")
	assert.ErrorContains(t, err, "unknown symmetry group")
}

func TestCommand_WriteWithoutEngine(t *testing.T) {
	t.Parallel()
	err := NewCommand(newTestProject(t)).WriteSymmetry(context.Background())
	assert.True(t, errkind.Is(err, errkind.EngineFailure))
}

func TestCommand_Print(t *testing.T) {
	t.Parallel()
	p := newTestProject(t)
	raw, err := json.Marshal(testGroup())
	require.NoError(t, err)
	p.Engine = &symEngine{groups: &engine.SymmetryGroups{FactorGroup: raw}}
	c := NewCommand(p)
	require.NoError(t, c.WriteSymmetry(context.Background()))

	var out bytes.Buffer
	pr := ui.NewWithWriters(&out, &bytes.Buffer{}, ui.ColorNever)
	require.NoError(t, c.Print(pr, FactorGroup, true))
	assert.Contains(t, out.String(), "factor_group")
	assert.Contains(t, out.String(), "space group P4/m (#83)")
	assert.NotContains(t, out.String(), "[0 -1 0]")

	out.Reset()
	require.NoError(t, c.Print(pr, FactorGroup, false))
	assert.Contains(t, out.String(), "rotation")
	assert.Contains(t, out.String(), "[0 -1 0] [1 0 0] [0 0 1]")
}
