package enum

import (
	"context"
	"fmt"
	"os"

	"github.com/papapumpkin/casmproj/internal/crystal"
	"github.com/papapumpkin/casmproj/internal/diff"
	"github.com/papapumpkin/casmproj/internal/errkind"
	"github.com/papapumpkin/casmproj/internal/jsonio"
	"github.com/papapumpkin/casmproj/internal/project"
	"github.com/papapumpkin/casmproj/internal/telemetry"
)

// Command operates on the enumerations of a project.
type Command struct {
	proj *project.Project

	// Last holds the data of the last operation that produced one.
	Last *Data
}

// NewCommand returns a Command for p.
func NewCommand(p *project.Project) *Command {
	return &Command{proj: p}
}

// NewID returns "<base>.<i>" for the first i, starting at 0, with no
// enumeration directory.
func (c *Command) NewID(base string) string {
	for i := 0; ; i++ {
		id := fmt.Sprintf("%s.%d", base, i)
		if !jsonio.Exists(c.proj.Dir.EnumDir(id)) {
			return id
		}
	}
}

// All returns the ids of all enumerations.
func (c *Command) All() ([]string, error) {
	return c.proj.Dir.AllEnum()
}

// List returns a summary of every enumeration.
func (c *Command) List() ([]Summary, error) {
	ids, err := c.All()
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(ids))
	for _, id := range ids {
		d, err := Open(c.proj, id)
		if err != nil {
			return nil, err
		}
		out = append(out, d.Summary())
	}
	return out, nil
}

// Get loads an enumeration. A missing directory yields empty data.
func (c *Command) Get(id string) (*Data, error) {
	d, err := Open(c.proj, id)
	if err != nil {
		return nil, err
	}
	c.Last = d
	return d, nil
}

func (c *Command) requireExisting(op, id string) error {
	if err := project.ValidateID("enumeration", id); err != nil {
		return err
	}
	dir := c.proj.Dir.EnumDir(id)
	if !jsonio.Exists(dir) {
		return errkind.New(errkind.NotFound, op, jsonio.PrintPath(dir),
			fmt.Errorf("enumeration %q does not exist", id))
	}
	return nil
}

// Remove deletes an enumeration directory.
func (c *Command) Remove(id string) error {
	if err := c.requireExisting("enum.remove", id); err != nil {
		return err
	}
	dir := c.proj.Dir.EnumDir(id)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("removing enumeration %s: %w", id, err)
	}
	if c.proj.Verbose && c.proj.Printer != nil {
		c.proj.Printer.FileRemove(jsonio.PrintPath(dir))
	}
	return nil
}

// Copy writes the data of src to a new enumeration dest.
func (c *Command) Copy(src, dest string) error {
	if err := c.requireExisting("enum.copy", src); err != nil {
		return err
	}
	if err := project.ValidateID("enumeration", dest); err != nil {
		return err
	}
	destDir := c.proj.Dir.EnumDir(dest)
	if jsonio.Exists(destDir) {
		return errkind.New(errkind.AlreadyExists, "enum.copy", jsonio.PrintPath(destDir),
			fmt.Errorf("enumeration %q already exists", dest))
	}
	d, err := Open(c.proj, src)
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

// Merge adds the contents of src to dest and commits dest once.
func (c *Command) Merge(src, dest string) error {
	if err := c.requireExisting("enum.merge", src); err != nil {
		return err
	}
	srcData, err := Open(c.proj, src)
	if err != nil {
		return err
	}
	destData, err := Open(c.proj, dest)
	if err != nil {
		return err
	}
	before := destData.Summary()
	if err := destData.Merge(srcData); err != nil {
		return err
	}
	if err := destData.Commit(); err != nil {
		return err
	}
	after := destData.Summary()
	_ = c.proj.Telemetry.Emit(telemetry.Event{
		Kind:   telemetry.KindEnumMerge,
		EnumID: dest,
		Data: map[string]any{
			"src":               src,
			"configuration_set": after.ConfigurationSet - before.ConfigurationSet,
			"supercell_set":     after.SupercellSet - before.SupercellSet,
		},
	})
	c.Last = destData
	return nil
}

// Diff returns the unified diff of the files of enumerations a and b.
func (c *Command) Diff(a, b string) (string, error) {
	docs := make([]map[string]any, 2)
	for i, id := range []string{a, b} {
		d, err := Open(c.proj, id)
		if err != nil {
			return "", err
		}
		if docs[i], err = d.Document(); err != nil {
			return "", fmt.Errorf("encoding enumeration %s: %w", id, err)
		}
	}
	return diff.JSON("enum."+a, "enum."+b, docs[0], docs[1])
}

// RunOptions configures the enumeration methods of Command.
type RunOptions struct {
	ID           string // default "<method>.<i>" from NewID
	MinVolume    int
	MaxVolume    int
	Filter       FilterFunc
	NPerCommit   int
	PrintSteps   bool
	PrintCommits bool
	Verbose      bool
	DryRun       bool
}

func (c *Command) open(base string, opts RunOptions) (*Data, error) {
	id := opts.ID
	if id == "" {
		id = c.NewID(base)
	}
	return Open(c.proj, id)
}

func (c *Command) runnerOptions(desc string, opts RunOptions) Options {
	progress, _ := c.proj.Printer.(Progress)
	return Options{
		Desc:         desc,
		Filter:       opts.Filter,
		PrintSteps:   opts.PrintSteps,
		NPerCommit:   opts.NPerCommit,
		PrintCommits: opts.PrintCommits,
		Verbose:      opts.Verbose,
		DryRun:       opts.DryRun,
		Progress:     progress,
		Telemetry:    c.proj.Telemetry,
	}
}

func volumeRange(opts RunOptions) (int, int) {
	lo, hi := opts.MinVolume, opts.MaxVolume
	if lo <= 0 {
		lo = 1
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// SupercellsByVolume adds every supercell with volume in
// [MinVolume, MaxVolume] to the supercell set of an enumeration, and to its
// supercell list, then commits unless DryRun.
func (c *Command) SupercellsByVolume(ctx context.Context, opts RunOptions) (*Data, error) {
	d, err := c.open("supercells_by_volume", opts)
	if err != nil {
		return nil, err
	}
	lo, hi := volumeRange(opts)
	scels, err := crystal.SupercellsByVolume(c.proj.Prim, lo, hi)
	if err != nil {
		return nil, err
	}
	before := d.SupercellSet.Len()
	for _, scel := range scels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h := d.SupercellSet.Add(scel)
		if !crystal.ContainsSupercell(d.SupercellList, h) {
			d.SupercellList = append(d.SupercellList, h)
		}
	}
	d.Meta["desc"] = fmt.Sprintf("supercells by volume, %d to %d", lo, hi)
	if opts.Verbose && c.proj.Printer != nil {
		c.proj.Printer.Info(fmt.Sprintf("%d supercells (%d new)", len(scels), d.SupercellSet.Len()-before))
	}
	if opts.DryRun {
		if opts.Verbose && c.proj.Printer != nil {
			c.proj.Printer.Info("** Dry run: Not committing... **")
		}
	} else if err := d.Commit(); err != nil {
		return nil, err
	}
	c.Last = d
	return d, nil
}

// OccBySupercell enumerates every occupation of every supercell with
// volume in [MinVolume, MaxVolume] through a Runner. The supercells are
// registered in the enumeration's supercell set, so enumerated
// configurations share its handles.
func (c *Command) OccBySupercell(ctx context.Context, opts RunOptions) (*Data, error) {
	d, err := c.open("occ_by_supercell", opts)
	if err != nil {
		return nil, err
	}
	lo, hi := volumeRange(opts)
	found, err := crystal.SupercellsByVolume(c.proj.Prim, lo, hi)
	if err != nil {
		return nil, err
	}
	scels := make([]*crystal.Supercell, len(found))
	for i, scel := range found {
		scels[i] = d.SupercellSet.Add(scel)
	}
	desc := fmt.Sprintf("occupations by supercell, volume %d to %d", lo, hi)
	d.Meta["desc"] = desc

	e := crystal.NewOccupationEnumerator(scels)
	r := NewRunner(d, e, c.runnerOptions(desc, opts))
	if err := r.Run(ctx, nil); err != nil {
		return nil, err
	}
	c.Last = d
	return d, nil
}
