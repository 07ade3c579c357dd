// Package calc manages calculation settings and calculated properties in
// the training data tree, and assembles fitting data from them.
package calc

import (
	"fmt"
	"os"

	"github.com/papapumpkin/casmproj/internal/crystal"
	"github.com/papapumpkin/casmproj/internal/jsonio"
	"github.com/papapumpkin/casmproj/internal/project"
)

// Value is one calculated property value.
type Value struct {
	Value []float64 `json:"value"`
}

// Properties is the content of a properties.calc.json file.
type Properties struct {
	Global map[string]Value `json:"global"`
	Local  map[string]Value `json:"local,omitempty"`
}

// Scalar returns the global property name when it holds exactly one value.
func (p *Properties) Scalar(name string) (float64, bool) {
	v, ok := p.Global[name]
	if !ok || len(v.Value) != 1 {
		return 0, false
	}
	return v.Value[0], true
}

// Command reads and writes training data of a project.
type Command struct {
	proj *project.Project
}

// NewCommand returns a Command for p.
func NewCommand(p *project.Project) *Command {
	return &Command{proj: p}
}

// AllCalctypes returns the names of all calctype settings directories.
func (c *Command) AllCalctypes() ([]string, error) {
	return c.proj.Dir.AllCalctype()
}

// AllRefs returns the reference states of calctype.
func (c *Command) AllRefs(calctype string) ([]string, error) {
	return c.proj.Dir.AllRef(calctype)
}

// SetupDir creates the settings directories of calctype and its reference
// state ref.
func (c *Command) SetupDir(calctype, ref string) error {
	if err := project.ValidateID("calctype", calctype); err != nil {
		return err
	}
	if err := project.ValidateID("ref", ref); err != nil {
		return err
	}
	dir := c.proj.Dir.RefDir(calctype, ref)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating calctype settings: %w", err)
	}
	return nil
}

// CalculatedProperties reads the properties of configname for calctype.
// It returns nil when the configuration has not been calculated.
func (c *Command) CalculatedProperties(configname, calctype string) (*Properties, error) {
	var props Properties
	found, err := jsonio.ReadOptional(c.proj.Dir.CalculatedProperties(configname, calctype), &props)
	if err != nil || !found {
		return nil, err
	}
	return &props, nil
}

// WriteProperties writes the properties of configname for calctype.
func (c *Command) WriteProperties(configname, calctype string, props *Properties) error {
	return jsonio.SafeDump(props, c.proj.Dir.CalculatedProperties(configname, calctype), c.proj.WriteOptions(true))
}

// Record is a configuration with an optional scalar property value.
type Record struct {
	Name          string
	Configuration *crystal.Configuration
	Value         *float64
}

// Records returns a record for every configuration of set, in set order,
// with Value set from the global property of calctype when calculated.
// Uncalculated configurations are included only when includeUncalculated.
func (c *Command) Records(set *crystal.ConfigurationSet, calctype, property string, includeUncalculated bool) ([]Record, error) {
	var out []Record
	for _, rec := range set.All() {
		props, err := c.CalculatedProperties(rec.Name(), calctype)
		if err != nil {
			return nil, err
		}
		r := Record{Name: rec.Name(), Configuration: rec.Configuration}
		if props != nil {
			if v, ok := props.Scalar(property); ok {
				r.Value = &v
			}
		}
		if r.Value == nil && !includeUncalculated {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// Summary describes one calctype for listings.
type Summary struct {
	Calctype string   `json:"calctype"`
	Refs     []string `json:"refs"`
}

// List returns every calctype with its reference states.
func (c *Command) List() ([]Summary, error) {
	calctypes, err := c.AllCalctypes()
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(calctypes))
	for _, ct := range calctypes {
		refs, err := c.AllRefs(ct)
		if err != nil {
			return nil, err
		}
		out = append(out, Summary{Calctype: ct, Refs: refs})
	}
	return out, nil
}
