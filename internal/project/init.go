package project

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/papapumpkin/casmproj/internal/crystal"
	"github.com/papapumpkin/casmproj/internal/dirs"
	"github.com/papapumpkin/casmproj/internal/errkind"
	"github.com/papapumpkin/casmproj/internal/jsonio"
)

// ErrNotRightHanded indicates a prim whose lattice vectors form a
// left-handed set.
var ErrNotRightHanded = errors.New("input prim is not right-handed")

// InitParams selects the prim and name of a new project.
type InitParams struct {
	Prim     *crystal.Prim // takes precedence over PrimPath
	PrimPath string        // defaults to <root>/prim.json
	Name     string        // defaults to the prim title
	Force    bool          // accept a non-standard prim
}

// Init creates a project at root. If root is already inside a project and
// no prim is given, the existing project is opened instead. Creating a
// project at the root of an existing one fails with AlreadyExists.
func Init(ctx context.Context, root string, params InitParams, opts Options) (*Project, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	say := func(msg string) {
		if opts.Printer != nil {
			opts.Printer.Info(msg)
		}
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("creating project root: %w", err)
	}
	existing, err := dirs.FindProjectRoot(abs)
	if err != nil {
		return nil, err
	}
	if params.Prim == nil && params.PrimPath == "" && existing != "" {
		say(fmt.Sprintf("CASM project already exists at %s", jsonio.PrintPath(existing)))
		say("Using existing project")
		return Open(ctx, existing, opts)
	}
	if existing == abs {
		return nil, errkind.New(errkind.AlreadyExists, "project.init", abs,
			errors.New("CASM project already exists"))
	}
	if existing != "" {
		say(fmt.Sprintf("Note: Creating a sub-project. A project already exists at %s", jsonio.PrintPath(existing)))
	}

	prim := params.Prim
	if prim == nil {
		path := params.PrimPath
		if path == "" {
			path = filepath.Join(abs, "prim.json")
		}
		if prim, err = crystal.LoadPrim(path); err != nil {
			return nil, err
		}
	} else if err := prim.Validate(); err != nil {
		return nil, err
	}
	if prim.Volume() < 0 {
		if !params.Force {
			return nil, fmt.Errorf("%w; to initialize the project anyway, use the force option", ErrNotRightHanded)
		}
		say("--- !! Input prim is not right-handed !! ---")
		say("- Continuing due to usage of 'force' option.")
	}

	var weights [][]int
	if opts.Engine != nil {
		if weights, err = opts.Engine.NeighborListWeightMatrix(ctx); err != nil {
			return nil, err
		}
	}
	settings, err := DefaultSettings(prim, params.Name, weights)
	if err != nil {
		return nil, err
	}

	d := dirs.New(abs)
	say(fmt.Sprintf("Initializing CASM project '%s'", settings.Name))
	say(fmt.Sprintf("Creating CASM project directory tree at: %s", jsonio.PrintPath(abs)))
	if err := os.Mkdir(d.CasmDir(), 0o755); err != nil {
		if os.IsExist(err) {
			return nil, errkind.New(errkind.AlreadyExists, "project.init", d.CasmDir(), err)
		}
		return nil, fmt.Errorf("creating %s: %w", d.CasmDir(), err)
	}

	wopts := jsonio.Options{Quiet: !opts.Verbose}
	if opts.Printer != nil {
		wopts.Reporter = opts.Printer
	}
	if err := jsonio.SafeDump(prim, d.Prim(), wopts); err != nil {
		return nil, err
	}
	if err := jsonio.SafeDump(settings, d.ProjectSettings(), wopts); err != nil {
		return nil, err
	}

	p, err := Open(ctx, abs, opts)
	if err != nil {
		return nil, err
	}

	clex, _ := settings.DefaultClex()
	for _, dir := range []string{
		d.SymmetryDir(),
		d.BsetDir(clex.Bset),
		d.ECIDir(clex.Property, clex.Calctype, clex.Ref, clex.Bset, clex.ECI),
		d.RefDir(clex.Calctype, clex.Ref),
	} {
		if err := ensureDir(dir); err != nil {
			return nil, err
		}
	}
	if err := p.WriteCompositionAxes(); err != nil {
		return nil, err
	}

	if opts.Engine != nil {
		if err := p.WriteSymmetry(ctx); err != nil {
			return nil, err
		}
	} else {
		say("No engine configured: symmetry files not written (run `casmproj sym write` later)")
	}
	say("DONE")
	return p, nil
}

// WriteSymmetry asks the engine for the prim symmetry groups and writes
// them to the symmetry directory.
func (p *Project) WriteSymmetry(ctx context.Context) error {
	if p.Engine == nil {
		return errkind.New(errkind.EngineFailure, "project.write_symmetry", "", errors.New("no engine configured"))
	}
	groups, err := p.Engine.Symmetry(ctx, p.Settings.CrystallographyTol)
	if err != nil {
		return err
	}
	if err := ensureDir(p.Dir.SymmetryDir()); err != nil {
		return err
	}
	files := []struct {
		path string
		data []byte
	}{
		{p.Dir.LatticePointGroup(), groups.LatticePointGroup},
		{p.Dir.FactorGroup(), groups.FactorGroup},
		{p.Dir.CrystalPointGroup(), groups.CrystalPointGroup},
	}
	for _, f := range files {
		if len(f.data) == 0 {
			continue
		}
		var v any
		if err := json.Unmarshal(f.data, &v); err != nil {
			return errkind.New(errkind.EngineFailure, "project.write_symmetry", f.path, err)
		}
		if err := jsonio.SafeDump(v, f.path, p.WriteOptions(true)); err != nil {
			return err
		}
	}
	return nil
}
