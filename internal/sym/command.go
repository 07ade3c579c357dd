package sym

import (
	"context"
	"fmt"
	"strings"

	"github.com/papapumpkin/casmproj/internal/jsonio"
	"github.com/papapumpkin/casmproj/internal/project"
)

// Group names accepted by Command.Read.
const (
	LatticePointGroup = "lattice_point_group"
	FactorGroup       = "factor_group"
	CrystalPointGroup = "crystal_point_group"
)

// Names lists the groups in display order.
var Names = []string{LatticePointGroup, FactorGroup, CrystalPointGroup}

// Printer renders group descriptions.
type Printer interface {
	Heading(title string)
	Result(s string)
	Table(headers []string, rows [][]string, empty string)
}

// Command reads and prints the symmetry groups of a project.
type Command struct {
	proj *project.Project
}

// NewCommand returns a Command for p.
func NewCommand(p *project.Project) *Command {
	return &Command{proj: p}
}

// WriteSymmetry asks the engine for the symmetry groups and writes them.
func (c *Command) WriteSymmetry(ctx context.Context) error {
	return c.proj.WriteSymmetry(ctx)
}

func (c *Command) path(name string) string {
	switch name {
	case LatticePointGroup:
		return c.proj.Dir.LatticePointGroup()
	case FactorGroup:
		return c.proj.Dir.FactorGroup()
	case CrystalPointGroup:
		return c.proj.Dir.CrystalPointGroup()
	}
	return ""
}

// Read loads the named group. A missing file is a MissingRequiredFile
// error.
func (c *Command) Read(name string) (*Group, error) {
	path := c.path(name)
	if path == "" {
		return nil, fmt.Errorf("unknown symmetry group %q (want one of %s)", name, strings.Join(Names, ", "))
	}
	var g Group
	if err := jsonio.ReadRequired(path, &g); err != nil {
		return nil, err
	}
	return &g, nil
}

// LatticePointGroup reads the lattice point group.
func (c *Command) LatticePointGroup() (*Group, error) { return c.Read(LatticePointGroup) }

// FactorGroup reads the prim factor group.
func (c *Command) FactorGroup() (*Group, error) { return c.Read(FactorGroup) }

// CrystalPointGroup reads the crystal point group.
func (c *Command) CrystalPointGroup() (*Group, error) { return c.Read(CrystalPointGroup) }

// Print writes the named group to p: a one-line summary when brief, the
// summary and an operation table otherwise.
func (c *Command) Print(p Printer, name string, brief bool) error {
	g, err := c.Read(name)
	if err != nil {
		return err
	}
	p.Heading(name)
	p.Result(g.Brief())
	if !brief {
		p.Table(TableHeaders, g.Rows(), "no operations")
	}
	return nil
}
