package bset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/papapumpkin/casmproj/internal/crystal"
	"github.com/papapumpkin/casmproj/internal/engine"
	"github.com/papapumpkin/casmproj/internal/errkind"
	"github.com/papapumpkin/casmproj/internal/jsonio"
)

// ErrNoEngine is wrapped when an operation needs the engine and none is
// configured.
var ErrNoEngine = errors.New("no engine configured")

// Engine is the subset of the external engine basis set operations use.
type Engine interface {
	MakeBasisSpecs(ctx context.Context, params map[string]any) (map[string]any, error)
	BuildBasis(ctx context.Context, req engine.BasisRequest, makeEquivalents bool) (*engine.BuildResult, error)
	WriteClexulator(ctx context.Context, req engine.BasisRequest) error
	Compile(ctx context.Context, req engine.BasisRequest, src string, local bool) error
	Correlations(ctx context.Context, req engine.BasisRequest, configs []*crystal.Configuration) ([][]float64, error)
}

// MakeParams are the construction parameters passed to the engine by
// MakeBasisSpecs.
type MakeParams struct {
	Dofs                       []string       `json:"dofs,omitempty"`
	MaxLength                  []float64      `json:"max_length,omitempty"`
	CutoffRadius               []float64      `json:"cutoff_radius,omitempty"`
	Phenomenal                 any            `json:"phenomenal,omitempty"`
	OccSiteBasisFunctionsSpecs any            `json:"occ_site_basis_functions_specs,omitempty"`
	GlobalMaxPolyOrder         *int           `json:"global_max_poly_order,omitempty"`
	OrbitBranchMaxPolyOrder    map[string]int `json:"orbit_branch_max_poly_order,omitempty"`
	Version                    string         `json:"-"`
	LinearFunctionIndices      []int          `json:"-"`
}

func (m MakeParams) toMap() (map[string]any, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Data) requireEngine(op string) (Engine, error) {
	if d.eng == nil {
		return nil, errkind.New(errkind.EngineFailure, op, "", ErrNoEngine)
	}
	return d.eng, nil
}

// MakeBasisSpecs asks the engine to construct specifications from params
// and sets them.
func (d *Data) MakeBasisSpecs(ctx context.Context, params MakeParams) error {
	eng, err := d.requireEngine("bset.make_basis_specs")
	if err != nil {
		return err
	}
	m, err := params.toMap()
	if err != nil {
		return fmt.Errorf("encoding basis set parameters: %w", err)
	}
	specs, err := eng.MakeBasisSpecs(ctx, m)
	if err != nil {
		return err
	}
	d.SetBasisSpecs(specs, params.Version, params.LinearFunctionIndices)
	return nil
}

func (d *Data) request(op string) (engine.BasisRequest, error) {
	nl, err := d.proj.NeighborList()
	if err != nil {
		return engine.BasisRequest{}, err
	}
	if d.Specs == nil {
		return engine.BasisRequest{}, errkind.New(errkind.NoBasisSpecs, op, jsonio.PrintPath(d.proj.Dir.Bspecs(d.id)),
			fmt.Errorf("basis set %q has no specifications", d.id))
	}
	return engine.BasisRequest{
		Bset:                  d.id,
		Dir:                   d.dir,
		ProjectName:           d.proj.Name(),
		BasisSpecs:            d.Specs.Specs,
		Version:               d.Specs.Version,
		LinearFunctionIndices: d.Specs.LinearFunctionIndices,
		NeighborList:          nl,
	}, nil
}

// Build constructs the clusters and cluster functions without writing any
// files.
func (d *Data) Build(ctx context.Context, makeEquivalents bool) (*engine.BuildResult, error) {
	req, err := d.request("bset.build")
	if err != nil {
		return nil, err
	}
	eng, err := d.requireEngine("bset.build")
	if err != nil {
		return nil, err
	}
	return eng.BuildBasis(ctx, req, makeEquivalents)
}

// Update reloads the specifications, writes the Clexulator source unless
// onlyCompile, and compiles it and any local Clexulators unless noCompile.
func (d *Data) Update(ctx context.Context, noCompile, onlyCompile bool) error {
	if _, err := d.proj.NeighborList(); err != nil {
		return err
	}
	if err := d.Load(); err != nil {
		return err
	}
	req, err := d.request("bset.update")
	if err != nil {
		return err
	}
	eng, err := d.requireEngine("bset.update")
	if err != nil {
		return err
	}
	if !onlyCompile {
		if err := eng.WriteClexulator(ctx, req); err != nil {
			return err
		}
	}
	if noCompile {
		return nil
	}
	src, err := d.SrcPath()
	if err != nil {
		return err
	}
	if src == "" {
		return errkind.New(errkind.MissingRequiredFile, "bset.update", jsonio.PrintPath(filepath.Join(d.dir, GeneratedFilesFile)),
			errors.New("no Clexulator source path"))
	}
	if err := eng.Compile(ctx, req, src, false); err != nil {
		return err
	}
	local, err := d.LocalSrcPaths()
	if err != nil {
		return err
	}
	if local != nil {
		return eng.Compile(ctx, req, src, true)
	}
	return nil
}
