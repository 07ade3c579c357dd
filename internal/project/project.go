// Package project opens and initializes project directories: the prim,
// project settings, and the chemical and occupant composition axes.
package project

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/papapumpkin/casmproj/internal/composition"
	"github.com/papapumpkin/casmproj/internal/crystal"
	"github.com/papapumpkin/casmproj/internal/dirs"
	"github.com/papapumpkin/casmproj/internal/engine"
	"github.com/papapumpkin/casmproj/internal/errkind"
	"github.com/papapumpkin/casmproj/internal/jsonio"
	"github.com/papapumpkin/casmproj/internal/telemetry"
)

// Engine is the subset of the external engine a project needs.
type Engine interface {
	composition.AxesGenerator
	Symmetry(ctx context.Context, tol float64) (*engine.SymmetryGroups, error)
	NeighborListWeightMatrix(ctx context.Context) ([][]int, error)
}

// Printer receives file operation reports and informational notes.
type Printer interface {
	jsonio.Reporter
	Info(msg string)
}

// Options configures Open and Init. All fields are optional.
type Options struct {
	Engine    Engine
	Printer   Printer
	Telemetry *telemetry.Emitter
	Verbose   bool
}

// Project is an open project directory.
type Project struct {
	Dir      dirs.Structure
	Prim     *crystal.Prim
	Settings *Settings

	ChemicalAxes *composition.Axes
	OccupantAxes *composition.Axes

	Engine    Engine
	Printer   Printer
	Telemetry *telemetry.Emitter
	Verbose   bool
}

// Root returns the project root directory.
func (p *Project) Root() string { return p.Dir.Root }

// Name returns the project name.
func (p *Project) Name() string { return p.Settings.Name }

// WriteOptions returns jsonio options that report through the project
// printer when verbose.
func (p *Project) WriteOptions(force bool) jsonio.Options {
	opts := jsonio.Options{Force: force, Quiet: !p.Verbose}
	if p.Printer != nil {
		opts.Reporter = p.Printer
	}
	return opts
}

func (p *Project) info(msg string) {
	if p.Printer != nil {
		p.Printer.Info(msg)
	}
}

// FindPath returns the root of the project containing start, or "" if
// start is not inside a project.
func FindPath(start string) (string, error) {
	return dirs.FindProjectRoot(start)
}

// Open reads the project rooted at root. Settings and prim are required.
// Composition axes are read from their files, falling back to the v1
// composition_axes.json, and otherwise computed.
func Open(ctx context.Context, root string, opts Options) (*Project, error) {
	d := dirs.New(root)
	p := &Project{
		Dir:       d,
		Engine:    opts.Engine,
		Printer:   opts.Printer,
		Telemetry: opts.Telemetry,
		Verbose:   opts.Verbose,
	}

	var raw json.RawMessage
	if err := jsonio.ReadRequired(d.ProjectSettings(), &raw); err != nil {
		return nil, err
	}
	settings, err := DecodeSettings(raw)
	if err != nil {
		return nil, errkind.New(errkind.MalformedFile, "project.open", d.ProjectSettings(), err)
	}
	p.Settings = settings

	prim, err := crystal.LoadPrim(d.Prim())
	if err != nil {
		return nil, err
	}
	p.Prim = prim

	if p.ChemicalAxes, err = p.loadAxes(ctx, composition.Chemical, d.ChemicalCompositionAxes()); err != nil {
		return nil, err
	}
	if p.OccupantAxes, err = p.loadAxes(ctx, composition.Occupant, d.OccupantCompositionAxes()); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Project) loadAxes(ctx context.Context, kind composition.Kind, path string) (*composition.Axes, error) {
	var raw json.RawMessage
	found, err := jsonio.ReadOptional(path, &raw)
	if err != nil {
		return nil, err
	}
	if !found {
		found, err = jsonio.ReadOptional(p.Dir.CompositionAxes(), &raw)
		if err != nil {
			return nil, err
		}
		if found {
			p.info(fmt.Sprintf("Note: Using existing composition_axes.json file for %s compositions (CASM v1 compatibility).", kind))
		}
	}
	if found {
		axes, err := composition.DecodeAxes(raw, kind)
		if err != nil {
			return nil, errkind.New(errkind.MalformedFile, "project.open", path, err)
		}
		return axes, nil
	}
	var gen composition.AxesGenerator
	if p.Engine != nil {
		gen = p.Engine
	}
	return composition.InitAxes(ctx, p.Prim, kind, true, gen, p.Settings.CrystallographyTol)
}

// ChemicalCalculator returns a calculator over chemical components using
// the selected chemical composition axes.
func (p *Project) ChemicalCalculator() (*composition.Calculator, error) {
	return p.ChemicalAxes.Calculator()
}

// OccupantCalculator returns a calculator over occupant components using
// the selected occupant composition axes.
func (p *Project) OccupantCalculator() (*composition.Calculator, error) {
	return p.OccupantAxes.Calculator()
}

// WriteCompositionAxes saves both composition axes files.
func (p *Project) WriteCompositionAxes() error {
	if err := jsonio.SafeDump(p.ChemicalAxes, p.Dir.ChemicalCompositionAxes(), p.WriteOptions(true)); err != nil {
		return err
	}
	return jsonio.SafeDump(p.OccupantAxes, p.Dir.OccupantCompositionAxes(), p.WriteOptions(true))
}

// WriteSettings saves project_settings.json.
func (p *Project) WriteSettings() error {
	if err := p.Settings.Validate(); err != nil {
		return err
	}
	return jsonio.SafeDump(p.Settings, p.Dir.ProjectSettings(), p.WriteOptions(true))
}

// NeighborList returns the prim neighbor list parameters from the settings.
func (p *Project) NeighborList() (*NeighborList, error) {
	return p.Settings.NeighborList()
}

// ensureDir creates dir and its parents.
func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", filepath.Base(dir), err)
	}
	return nil
}
