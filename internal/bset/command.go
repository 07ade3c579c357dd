package bset

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/papapumpkin/casmproj/internal/errkind"
	"github.com/papapumpkin/casmproj/internal/jsonio"
	"github.com/papapumpkin/casmproj/internal/project"
	"github.com/papapumpkin/casmproj/internal/telemetry"
)

// Command operates on the basis sets of a project.
type Command struct {
	proj *project.Project
	eng  Engine

	// Last holds the data of the last operation that produced one.
	Last *Data
}

// NewCommand returns a Command for p. eng may be nil.
func NewCommand(p *project.Project, eng Engine) *Command {
	return &Command{proj: p, eng: eng}
}

// All returns the ids of all basis sets.
func (c *Command) All() ([]string, error) {
	return c.proj.Dir.AllBset()
}

// List returns a summary of every basis set.
func (c *Command) List() ([]Summary, error) {
	ids, err := c.All()
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		d, err := Open(c.proj, id, c.eng)
		if err != nil {
			return nil, err
		}
		s, err := d.Summary()
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Resolve returns id, or the basis set of the default cluster expansion
// when id is empty.
func (c *Command) Resolve(id string) (string, error) {
	if id != "" {
		return id, nil
	}
	clex, ok := c.proj.Settings.DefaultClex()
	if !ok || clex.Bset == "" {
		return "", errkind.New(errkind.NotFound, "bset.resolve", "",
			errors.New("no basis set given and no default cluster expansion"))
	}
	return clex.Bset, nil
}

// Get loads a basis set. An empty id selects the default basis set.
func (c *Command) Get(id string) (*Data, error) {
	id, err := c.Resolve(id)
	if err != nil {
		return nil, err
	}
	d, err := Open(c.proj, id, c.eng)
	if err != nil {
		return nil, err
	}
	c.Last = d
	return d, nil
}

func (c *Command) requireExisting(op, id string) error {
	if err := project.ValidateID("basis set", id); err != nil {
		return err
	}
	dir := c.proj.Dir.BsetDir(id)
	if !jsonio.Exists(dir) {
		return errkind.New(errkind.NotFound, op, jsonio.PrintPath(dir),
			fmt.Errorf("basis set %q does not exist", id))
	}
	return nil
}

// Remove deletes a basis set directory.
func (c *Command) Remove(id string) error {
	if err := c.requireExisting("bset.remove", id); err != nil {
		return err
	}
	dir := c.proj.Dir.BsetDir(id)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing basis set %s: %w", id, err)
	}
	if c.proj.Verbose && c.proj.Printer != nil {
		c.proj.Printer.FileRemove(jsonio.PrintPath(dir))
	}
	return nil
}

// Copy writes the meta and specifications of src to a new basis set dest.
// Generated files are not copied.
func (c *Command) Copy(src, dest string) error {
	if err := c.requireExisting("bset.copy", src); err != nil {
		return err
	}
	if err := project.ValidateID("basis set", dest); err != nil {
		return err
	}
	destDir := c.proj.Dir.BsetDir(dest)
	if jsonio.Exists(destDir) {
		return errkind.New(errkind.AlreadyExists, "bset.copy", jsonio.PrintPath(destDir),
			fmt.Errorf("basis set %q already exists", dest))
	}
	d, err := Open(c.proj, src, c.eng)
	if err != nil {
		return err
	}
	d.id = dest
	d.dir = destDir
	if err := d.Commit(); err != nil {
		return err
	}
	c.Last = d
	return nil
}

// Clean removes the generated files of a basis set.
func (c *Command) Clean(id string) (int, error) {
	d, err := c.Get(id)
	if err != nil {
		return 0, err
	}
	return d.Clean()
}

// Update writes and compiles the Clexulator of a basis set and records a
// telemetry event.
func (c *Command) Update(ctx context.Context, id string, noCompile, onlyCompile bool) error {
	d, err := c.Get(id)
	if err != nil {
		return err
	}
	if err := d.Update(ctx, noCompile, onlyCompile); err != nil {
		return err
	}
	_ = c.proj.Telemetry.Emit(telemetry.Event{
		Kind: telemetry.KindBsetUpdate,
		Data: map[string]any{
			"bset":         d.ID(),
			"no_compile":   noCompile,
			"only_compile": onlyCompile,
		},
	})
	return nil
}
