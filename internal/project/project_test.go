package project

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapumpkin/casmproj/internal/composition"
	"github.com/papapumpkin/casmproj/internal/crystal"
	"github.com/papapumpkin/casmproj/internal/engine"
	"github.com/papapumpkin/casmproj/internal/errkind"
	"github.com/papapumpkin/casmproj/internal/jsonio"
)

func binaryPrim() *crystal.Prim {
	return &crystal.Prim{
		Title:          "AB",
		LatticeVectors: [][]float64{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		CoordinateMode: crystal.Fractional,
		Basis:          []crystal.Site{{Coordinate: []float64{0, 0, 0}, Occupants: []string{"A", "B"}}},
	}
}

// recordingPrinter captures notes and file reports.
type recordingPrinter struct {
	infos  []string
	writes []string
}

func (r *recordingPrinter) FileWrite(path string)     { r.writes = append(r.writes, path) }
func (r *recordingPrinter) FileOverwrite(path string) { r.writes = append(r.writes, path) }
func (r *recordingPrinter) FileSkip(string)           {}
func (r *recordingPrinter) FileRemove(string)         {}
func (r *recordingPrinter) Info(msg string)           { r.infos = append(r.infos, msg) }

func (r *recordingPrinter) said(substr string) bool {
	for _, m := range r.infos {
		if strings.Contains(m, substr) {
			return true
		}
	}
	return false
}

// fakeEngine answers with fixed symmetry and axes data.
type fakeEngine struct{}

func (fakeEngine) StandardAxes(context.Context, []string, [][]string, float64) ([]composition.EndMembers, error) {
	return []composition.EndMembers{{Origin: []float64{1, 0}, EndMembers: [][]float64{{0, 1}}}}, nil
}

func (fakeEngine) Symmetry(context.Context, float64) (*engine.SymmetryGroups, error) {
	return &engine.SymmetryGroups{
		LatticePointGroup: json.RawMessage(`{"size":48}`),
		FactorGroup:       json.RawMessage(`{"size":48}`),
		CrystalPointGroup: json.RawMessage(`{"size":48}`),
	}, nil
}

func (fakeEngine) NeighborListWeightMatrix(context.Context) ([][]int, error) {
	return [][]int{{2, 1, 1}, {1, 2, 1}, {1, 1, 2}}, nil
}

func TestDefaultSettings(t *testing.T) {
	t.Parallel()
	s, err := DefaultSettings(binaryPrim(), "", nil)
	require.NoError(t, err)
	assert.Equal(t, "AB", s.Name)
	assert.Equal(t, []int{0}, s.NlistSublatIndices)
	require.NoError(t, s.Validate())

	clex, ok := s.DefaultClex()
	require.True(t, ok)
	assert.Equal(t, "default", clex.Bset)

	_, err = DefaultSettings(binaryPrim(), "1bad", nil)
	assert.True(t, errkind.Is(err, errkind.InvalidID))
}

func TestSettingsValidate(t *testing.T) {
	t.Parallel()
	s, err := DefaultSettings(binaryPrim(), "AB", nil)
	require.NoError(t, err)
	clex := s.ClusterExpansions[DefaultClexName]
	clex.Bset = "bad id"
	s.ClusterExpansions[DefaultClexName] = clex
	err = s.Validate()
	require.Error(t, err)
	assert.True(t, errkind.Is(err, errkind.InvalidID))

	s2, _ := DefaultSettings(binaryPrim(), "AB", nil)
	s2.DefaultClexName = "missing"
	assert.Error(t, s2.Validate())
}

func TestDecodeSettings(t *testing.T) {
	t.Parallel()
	s, err := DecodeSettings([]byte(`{
  "name": "ZrO",
  "cluster_expansions": {
    "b_clex": {"name":"b_clex","property":"b","calctype":"default","ref":"default","bset":"b","eci":"default"},
    "a_clex": {"name":"a_clex","property":"a","calctype":"default","ref":"default","bset":"a","eci":"default"}
  }
}`))
	require.NoError(t, err)
	assert.Equal(t, DefaultCrystallographyTol, s.CrystallographyTol)
	assert.Equal(t, DefaultLinAlgTol, s.LinAlgTol)
	assert.Equal(t, "a_clex", s.DefaultClexName, "falls back to the first cluster expansion")

	_, err = s.NeighborList()
	assert.True(t, errkind.Is(err, errkind.MissingPrimNeighborList))
	assert.ErrorIs(t, err, ErrNoNeighborList)
}

func TestValidateID(t *testing.T) {
	t.Parallel()
	for _, id := range []string{"default", "occ.0", "by_volume-2", "_x"} {
		assert.NoError(t, ValidateID("enum", id), id)
	}
	for _, id := range []string{"", ".hidden", "a/b", "with space"} {
		err := ValidateID("enum", id)
		assert.True(t, errkind.Is(err, errkind.InvalidID), id)
	}
}

func TestInit_WithoutEngine(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	root := t.TempDir()
	pr := &recordingPrinter{}

	p, err := Init(ctx, root, InitParams{Prim: binaryPrim()}, Options{Printer: pr, Verbose: true})
	require.NoError(t, err)
	assert.Equal(t, "AB", p.Name())
	assert.True(t, jsonio.Exists(p.Dir.Prim()))
	assert.True(t, jsonio.Exists(p.Dir.ProjectSettings()))
	assert.True(t, jsonio.Exists(p.Dir.ChemicalCompositionAxes()))
	assert.True(t, jsonio.Exists(p.Dir.OccupantCompositionAxes()))
	assert.DirExists(t, p.Dir.BsetDir("default"))
	assert.DirExists(t, p.Dir.RefDir("default", "default"))
	assert.False(t, jsonio.Exists(p.Dir.FactorGroup()))
	assert.True(t, pr.said("DONE"))
	assert.NotEmpty(t, pr.writes)

	_, err = p.NeighborList()
	assert.True(t, errkind.Is(err, errkind.MissingPrimNeighborList))

	_, err = Init(ctx, root, InitParams{Prim: binaryPrim()}, Options{})
	assert.True(t, errkind.Is(err, errkind.AlreadyExists))

	again, err := Init(ctx, root, InitParams{}, Options{Printer: pr})
	require.NoError(t, err)
	assert.Equal(t, p.Root(), again.Root())
	assert.True(t, pr.said("Using existing project"))
}

func TestInit_WithEngine(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	root := t.TempDir()

	p, err := Init(ctx, root, InitParams{Prim: binaryPrim(), Name: "binary"}, Options{Engine: fakeEngine{}})
	require.NoError(t, err)
	assert.Equal(t, "binary", p.Name())
	assert.True(t, jsonio.Exists(p.Dir.LatticePointGroup()))
	assert.True(t, jsonio.Exists(p.Dir.FactorGroup()))
	assert.True(t, jsonio.Exists(p.Dir.CrystalPointGroup()))

	nl, err := p.NeighborList()
	require.NoError(t, err)
	assert.Equal(t, []int{0}, nl.SublatIndices)

	assert.Equal(t, []string{"0"}, p.ChemicalAxes.Enumerated)

	reopened, err := Open(ctx, root, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"0"}, reopened.ChemicalAxes.Keys())
}

func TestInit_PrimFromFile(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	require.NoError(t, jsonio.Dump(binaryPrim(), filepath.Join(root, "prim.json"), jsonio.Options{}))

	p, err := Init(context.Background(), root, InitParams{PrimPath: filepath.Join(root, "prim.json")}, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, p.Prim.NumSublattices())
}

func TestInit_LeftHanded(t *testing.T) {
	t.Parallel()
	prim := binaryPrim()
	prim.LatticeVectors[2] = []float64{0, 0, -1}

	_, err := Init(context.Background(), t.TempDir(), InitParams{Prim: prim}, Options{})
	assert.ErrorIs(t, err, ErrNotRightHanded)

	_, err = Init(context.Background(), t.TempDir(), InitParams{Prim: prim, Force: true}, Options{})
	assert.NoError(t, err)
}

func TestOpen_V1CompositionAxes(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	root := t.TempDir()
	p, err := Init(ctx, root, InitParams{Prim: binaryPrim()}, Options{Engine: fakeEngine{}})
	require.NoError(t, err)

	require.NoError(t, os.Rename(p.Dir.ChemicalCompositionAxes(), p.Dir.CompositionAxes()))
	require.NoError(t, os.Remove(p.Dir.OccupantCompositionAxes()))

	pr := &recordingPrinter{}
	reopened, err := Open(ctx, root, Options{Printer: pr})
	require.NoError(t, err)
	assert.True(t, pr.said("CASM v1 compatibility"))
	assert.Equal(t, []string{"0"}, reopened.OccupantAxes.Keys())
}

func TestOpen_MissingSettings(t *testing.T) {
	t.Parallel()
	_, err := Open(context.Background(), t.TempDir(), Options{})
	assert.True(t, errkind.Is(err, errkind.MissingRequiredFile))
}
