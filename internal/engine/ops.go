package engine

import (
	"context"
	"encoding/json"

	"github.com/papapumpkin/casmproj/internal/composition"
	"github.com/papapumpkin/casmproj/internal/crystal"
)

type axesArgs struct {
	Components  []string   `json:"components"`
	AllowedOccs [][]string `json:"allowed_occs"`
	Tol         float64    `json:"tol"`
}

type axesChoice struct {
	Origin     []float64   `json:"origin"`
	EndMembers [][]float64 `json:"end_members"`
}

// StandardAxes returns the standard composition axes choices.
func (e *Engine) StandardAxes(ctx context.Context, components []string, allowed [][]string, tol float64) ([]composition.EndMembers, error) {
	var choices []axesChoice
	if err := e.Call(ctx, OpStandardAxes, axesArgs{components, allowed, tol}, &choices); err != nil {
		return nil, err
	}
	out := make([]composition.EndMembers, len(choices))
	for i, c := range choices {
		out[i] = composition.EndMembers{Origin: c.Origin, EndMembers: c.EndMembers}
	}
	return out, nil
}

// SymmetryGroups holds the symmetry group documents written to the project
// symmetry directory.
type SymmetryGroups struct {
	LatticePointGroup json.RawMessage `json:"lattice_point_group"`
	FactorGroup       json.RawMessage `json:"factor_group"`
	CrystalPointGroup json.RawMessage `json:"crystal_point_group"`
}

// Symmetry computes the symmetry groups of the project prim.
func (e *Engine) Symmetry(ctx context.Context, tol float64) (*SymmetryGroups, error) {
	var groups SymmetryGroups
	if err := e.Call(ctx, OpSymmetry, map[string]float64{"tol": tol}, &groups); err != nil {
		return nil, err
	}
	return &groups, nil
}

// NeighborListWeightMatrix returns the default lattice weight matrix used
// to order the prim neighbor list.
func (e *Engine) NeighborListWeightMatrix(ctx context.Context) ([][]int, error) {
	var w [][]int
	if err := e.Call(ctx, OpNeighborList, struct{}{}, &w); err != nil {
		return nil, err
	}
	return w, nil
}

// MakeBasisSpecs builds basis set specifications from construction
// parameters.
func (e *Engine) MakeBasisSpecs(ctx context.Context, params map[string]any) (map[string]any, error) {
	var bspecs map[string]any
	if err := e.Call(ctx, OpMakeBasisSpecs, params, &bspecs); err != nil {
		return nil, err
	}
	return bspecs, nil
}

type bsetArgs struct {
	Bset                  string         `json:"bset"`
	Dir                   string         `json:"dir"`
	ProjectName           string         `json:"project_name,omitempty"`
	BasisSpecs            map[string]any `json:"bspecs,omitempty"`
	Version               string         `json:"version,omitempty"`
	LinearFunctionIndices []int          `json:"linear_function_indices,omitempty"`
	NeighborList          any            `json:"prim_neighbor_list,omitempty"`
	MakeEquivalents       bool           `json:"make_equivalents,omitempty"`
}

// BasisRequest describes the basis set an operation works on.
type BasisRequest struct {
	Bset                  string
	Dir                   string
	ProjectName           string
	BasisSpecs            map[string]any
	Version               string
	LinearFunctionIndices []int
	NeighborList          any
}

func (r BasisRequest) args() bsetArgs {
	return bsetArgs{
		Bset:                  r.Bset,
		Dir:                   r.Dir,
		ProjectName:           r.ProjectName,
		BasisSpecs:            r.BasisSpecs,
		Version:               r.Version,
		LinearFunctionIndices: r.LinearFunctionIndices,
		NeighborList:          r.NeighborList,
	}
}

// BuildResult summarizes constructed cluster functions.
type BuildResult struct {
	NumOrbits    int `json:"n_orbits"`
	NumFunctions int `json:"n_functions"`
}

// BuildBasis constructs clusters and cluster functions without writing
// source code.
func (e *Engine) BuildBasis(ctx context.Context, req BasisRequest, makeEquivalents bool) (*BuildResult, error) {
	args := req.args()
	args.MakeEquivalents = makeEquivalents
	var res BuildResult
	if err := e.Call(ctx, OpBuildBasis, args, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// WriteClexulator writes the Clexulator source, basis.json and
// generated_files.json into the basis set directory.
func (e *Engine) WriteClexulator(ctx context.Context, req BasisRequest) error {
	return e.Call(ctx, OpWriteClexulator, req.args(), nil)
}

// Compile compiles the Clexulator source at src.
func (e *Engine) Compile(ctx context.Context, req BasisRequest, src string, local bool) error {
	args := struct {
		bsetArgs
		Source string `json:"source"`
		Local  bool   `json:"local"`
	}{req.args(), src, local}
	return e.Call(ctx, OpCompile, args, nil)
}

type configArg struct {
	SupercellName string `json:"supercell_name"`
	Occ           []int  `json:"occ"`
}

// Correlations evaluates the basis functions of a basis set for each
// configuration, per unit cell.
func (e *Engine) Correlations(ctx context.Context, req BasisRequest, configs []*crystal.Configuration) ([][]float64, error) {
	args := struct {
		bsetArgs
		Configurations []configArg `json:"configurations"`
	}{bsetArgs: req.args()}
	for _, c := range configs {
		args.Configurations = append(args.Configurations, configArg{c.Supercell.Name(), c.Occupation})
	}
	var corr [][]float64
	if err := e.Call(ctx, OpCorrelations, args, &corr); err != nil {
		return nil, err
	}
	return corr, nil
}
