// Package importer adds externally calculated configurations to a project:
// it writes their properties to the training data tree and records the
// configurations in an enumeration.
package importer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/papapumpkin/casmproj/internal/calc"
	"github.com/papapumpkin/casmproj/internal/crystal"
	"github.com/papapumpkin/casmproj/internal/enum"
	"github.com/papapumpkin/casmproj/internal/errkind"
	"github.com/papapumpkin/casmproj/internal/jsonio"
	"github.com/papapumpkin/casmproj/internal/project"
)

// DefaultEnumID is the enumeration imported configurations are added to
// when none is named.
const DefaultEnumID = "imported"

// Configuration identifies a configuration by supercell name and
// occupation.
type Configuration struct {
	SupercellName string `json:"supercell_name"`
	Dof           struct {
		Occ []int `json:"occ"`
	} `json:"dof"`
}

// Record is one configuration with its calculated properties.
type Record struct {
	Configuration Configuration   `json:"configuration"`
	Properties    calc.Properties `json:"properties"`
}

// ReadRecords reads a JSON array of records from path. Paths ending in
// ".gz" are gunzipped.
func ReadRecords(path string) ([]Record, error) {
	var raw json.RawMessage
	if err := jsonio.ReadRequired(path, &raw); err != nil {
		return nil, err
	}
	var recs []Record
	if err := json.Unmarshal(raw, &recs); err != nil {
		return nil, errkind.New(errkind.MalformedFile, "import.read", jsonio.PrintPath(path),
			fmt.Errorf("decoding import records: %w", err))
	}
	return recs, nil
}

// Options configures Import.
type Options struct {
	Calctype  string
	EnumID    string // defaults to DefaultEnumID
	Overwrite bool   // replace existing properties.calc.json files
	DryRun    bool   // validate and count without writing
}

// Result counts what Import did.
type Result struct {
	Imported          int
	Skipped           int
	NewConfigurations int
	Names             []string
}

// Command imports records into a project.
type Command struct {
	proj *project.Project
	calc *calc.Command
}

// NewCommand returns a Command for p.
func NewCommand(p *project.Project) *Command {
	return &Command{proj: p, calc: calc.NewCommand(p)}
}

// Import writes the properties of every record for opts.Calctype and adds
// the configurations to the configuration set and list of the enumeration
// opts.EnumID, committing it once. Records whose properties already exist
// are skipped unless opts.Overwrite.
func (c *Command) Import(ctx context.Context, records []Record, opts Options) (*Result, error) {
	if opts.EnumID == "" {
		opts.EnumID = DefaultEnumID
	}
	if err := project.ValidateID("calctype", opts.Calctype); err != nil {
		return nil, err
	}
	d, err := enum.Open(c.proj, opts.EnumID)
	if err != nil {
		return nil, err
	}
	if !opts.DryRun {
		if err := c.calc.SetupDir(opts.Calctype, "default"); err != nil {
			return nil, err
		}
	}

	res := &Result{}
	for i, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		config, err := resolve(d.SupercellSet, r.Configuration)
		if err != nil {
			return nil, fmt.Errorf("import record %d: %w", i, err)
		}
		rec, inserted := addConfiguration(d, config)
		if inserted {
			res.NewConfigurations++
		}
		name := rec.Name()
		existing, err := c.calc.CalculatedProperties(name, opts.Calctype)
		if err != nil {
			return nil, err
		}
		if existing != nil && !opts.Overwrite {
			res.Skipped++
			continue
		}
		if !opts.DryRun {
			props := r.Properties
			if err := c.calc.WriteProperties(name, opts.Calctype, &props); err != nil {
				return nil, err
			}
		}
		res.Imported++
		res.Names = append(res.Names, name)
	}
	if opts.DryRun {
		return res, nil
	}
	if err := d.Commit(); err != nil {
		return nil, err
	}
	return res, nil
}

// addConfiguration inserts config into the configuration set and appends a
// copy to the configuration list when the list does not already hold it.
// The list never shares a record with the set.
func addConfiguration(d *enum.Data, config *crystal.Configuration) (*crystal.ConfigurationRecord, bool) {
	rec, inserted := d.ConfigurationSet.Add(config)
	if !crystal.ContainsConfiguration(d.ConfigurationList, rec.Configuration) {
		d.ConfigurationList = append(d.ConfigurationList, rec.Configuration.Copy())
	}
	return rec, inserted
}

func resolve(set *crystal.SupercellSet, in Configuration) (*crystal.Configuration, error) {
	scel, err := set.AddByName(in.SupercellName)
	if err != nil {
		return nil, err
	}
	config := &crystal.Configuration{Supercell: scel, Occupation: in.Dof.Occ}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}
