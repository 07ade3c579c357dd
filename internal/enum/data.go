// Package enum manages enumeration runs: the supercells and configurations
// one run produced, their on-disk directory, and the batched runner that
// feeds enumerated configurations into them.
package enum

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/papapumpkin/casmproj/internal/crystal"
	"github.com/papapumpkin/casmproj/internal/errkind"
	"github.com/papapumpkin/casmproj/internal/jsonio"
	"github.com/papapumpkin/casmproj/internal/project"
)

// Files of an enumeration directory.
const (
	MetaFile       = "meta.json"
	ScelSetFile    = "scel_set.json"
	ScelListFile   = "scel_list.json"
	ConfigSetFile  = "config_set.json"
	ConfigListFile = "config_list.json"
)

// ErrNotLoaded is returned by Merge when the destination has no containers.
var ErrNotLoaded = errors.New("enumeration data is not loaded")

// State is the content of one enumeration directory. An empty container
// corresponds to an absent file.
type State struct {
	Meta              map[string]any
	SupercellSet      *crystal.SupercellSet
	SupercellList     []*crystal.Supercell
	ConfigurationSet  *crystal.ConfigurationSet
	ConfigurationList []*crystal.Configuration
}

// EmptyState returns a State with fresh empty containers bound to prim.
func EmptyState(prim *crystal.Prim) State {
	return State{
		Meta:             map[string]any{},
		SupercellSet:     crystal.NewSupercellSet(prim),
		ConfigurationSet: crystal.NewConfigurationSet(),
	}
}

// Data is one enumeration run and its directory.
type Data struct {
	State

	id   string
	dir  string
	proj *project.Project
}

// Open validates id and loads enumerations/enum.<id>/ of p. A missing
// directory yields empty data.
func Open(p *project.Project, id string) (*Data, error) {
	if err := project.ValidateID("enumeration", id); err != nil {
		return nil, err
	}
	d := &Data{id: id, dir: p.Dir.EnumDir(id), proj: p}
	if err := d.Load(); err != nil {
		return nil, err
	}
	return d, nil
}

// ID returns the enumeration id.
func (d *Data) ID() string { return d.id }

// Dir returns the enumeration directory.
func (d *Data) Dir() string { return d.dir }

// Desc returns meta["desc"] as a string, or "".
func (d *Data) Desc() string {
	if s, ok := d.Meta["desc"].(string); ok {
		return s
	}
	return ""
}

// Load replaces the state with the contents of the enumeration directory.
// The previous containers are not modified, so references to them stay
// valid and unchanged.
func (d *Data) Load() error {
	st, err := ReadState(d.dir, d.proj.Prim)
	if err != nil {
		return err
	}
	d.State = st
	return nil
}

func (d *Data) path(name string) string {
	return filepath.Join(d.dir, name)
}

// ReadState builds a State from the files in dir. Every file is optional;
// a malformed file fails the whole read.
func ReadState(dir string, prim *crystal.Prim) (State, error) {
	st := EmptyState(prim)
	at := func(name string) string { return filepath.Join(dir, name) }

	meta, err := jsonio.ReadMeta(at(MetaFile))
	if err != nil {
		return State{}, err
	}
	st.Meta = meta

	decoders := []struct {
		name   string
		decode func(raw []byte) error
	}{
		{ScelSetFile, func(raw []byte) (err error) {
			st.SupercellSet, err = crystal.DecodeSupercellSet(raw, prim)
			return err
		}},
		{ScelListFile, func(raw []byte) (err error) {
			st.SupercellList, err = crystal.SupercellListFromData(raw, st.SupercellSet)
			return err
		}},
		{ConfigSetFile, func(raw []byte) (err error) {
			st.ConfigurationSet, err = crystal.DecodeConfigurationSet(raw, st.SupercellSet)
			return err
		}},
		{ConfigListFile, func(raw []byte) (err error) {
			st.ConfigurationList, err = crystal.ConfigurationListFromData(raw, st.SupercellSet)
			return err
		}},
	}
	for _, dec := range decoders {
		var raw json.RawMessage
		found, err := jsonio.ReadOptional(at(dec.name), &raw)
		if err != nil {
			return State{}, err
		}
		if !found {
			continue
		}
		if err := dec.decode(raw); err != nil {
			return State{}, errkind.New(errkind.MalformedFile, "enum.load", at(dec.name), err)
		}
	}
	return st, nil
}

func (d *Data) loaded() bool {
	return d.Meta != nil && d.SupercellSet != nil && d.ConfigurationSet != nil
}

// Merge adds the supercells and configurations of src that d does not
// already hold. Merged configurations are copied and rebound to the
// supercell handles of d.
func (d *Data) Merge(src *Data) error {
	if !d.loaded() {
		return fmt.Errorf("merge into %s: %w", d.id, ErrNotLoaded)
	}
	if src.SupercellSet != nil {
		for _, scel := range src.SupercellSet.All() {
			d.SupercellSet.Add(scel)
		}
	}
	for _, scel := range src.SupercellList {
		if !crystal.ContainsSupercell(d.SupercellList, scel) {
			d.SupercellList = append(d.SupercellList, d.SupercellSet.Add(scel))
		}
	}
	if src.ConfigurationSet != nil {
		for _, rec := range src.ConfigurationSet.All() {
			d.ConfigurationSet.Add(d.rebind(rec.Configuration))
		}
	}
	for _, c := range src.ConfigurationList {
		if !crystal.ContainsConfiguration(d.ConfigurationList, c) {
			d.ConfigurationList = append(d.ConfigurationList, d.rebind(c))
		}
	}
	return nil
}

func (d *Data) rebind(c *crystal.Configuration) *crystal.Configuration {
	cp := c.Copy()
	cp.Supercell = d.SupercellSet.Add(c.Supercell)
	return cp
}

// register makes every supercell referenced by the lists and the
// configuration set a member of the supercell set, so a commit reloads to
// the same state.
func (d *Data) register() {
	for i, scel := range d.SupercellList {
		d.SupercellList[i] = d.SupercellSet.Add(scel)
	}
	for _, rec := range d.ConfigurationSet.All() {
		d.SupercellSet.Add(rec.Configuration.Supercell)
	}
	for _, c := range d.ConfigurationList {
		c.Supercell = d.SupercellSet.Add(c.Supercell)
	}
}

// Commit writes each non-empty container to its file and removes the file
// of each empty one. Files are replaced with jsonio.SafeDump. Commit is not
// transactional across files.
func (d *Data) Commit() error {
	if !d.loaded() {
		return fmt.Errorf("commit %s: %w", d.id, ErrNotLoaded)
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("creating enumeration directory: %w", err)
	}
	d.register()
	opts := d.proj.WriteOptions(true)

	pieces := []struct {
		name  string
		empty bool
		value func() (any, error)
	}{
		{MetaFile, len(d.Meta) == 0, func() (any, error) { return d.Meta, nil }},
		{ScelSetFile, d.SupercellSet.Len() == 0, func() (any, error) { return d.SupercellSet, nil }},
		{ScelListFile, len(d.SupercellList) == 0, func() (any, error) {
			raw, err := crystal.SupercellListToData(d.SupercellList)
			return json.RawMessage(raw), err
		}},
		{ConfigSetFile, d.ConfigurationSet.Len() == 0, func() (any, error) { return d.ConfigurationSet, nil }},
		{ConfigListFile, len(d.ConfigurationList) == 0, func() (any, error) {
			raw, err := crystal.ConfigurationListToData(d.ConfigurationList)
			return json.RawMessage(raw), err
		}},
	}
	for _, piece := range pieces {
		path := d.path(piece.name)
		if piece.empty {
			if _, err := jsonio.RemoveIfExists(path, opts); err != nil {
				return err
			}
			continue
		}
		v, err := piece.value()
		if err != nil {
			return fmt.Errorf("encoding %s: %w", piece.name, err)
		}
		if err := jsonio.SafeDump(v, path, opts); err != nil {
			return err
		}
	}
	return nil
}

// Summary holds the container sizes of an enumeration.
type Summary struct {
	ID                string `json:"id"`
	Desc              string `json:"desc,omitempty"`
	SupercellSet      int    `json:"supercell_set"`
	SupercellList     int    `json:"supercell_list"`
	ConfigurationSet  int    `json:"configuration_set"`
	ConfigurationList int    `json:"configuration_list"`
}

// Summary returns the container sizes.
func (d *Data) Summary() Summary {
	s := Summary{ID: d.id, Desc: d.Desc(), SupercellList: len(d.SupercellList), ConfigurationList: len(d.ConfigurationList)}
	if d.SupercellSet != nil {
		s.SupercellSet = d.SupercellSet.Len()
	}
	if d.ConfigurationSet != nil {
		s.ConfigurationSet = d.ConfigurationSet.Len()
	}
	return s
}

// String lists the id, the description, and each non-empty container.
func (d *Data) String() string {
	s := d.Summary()
	var b strings.Builder
	b.WriteString("EnumData:\n")
	fmt.Fprintf(&b, "- id: %s\n", s.ID)
	if desc, ok := d.Meta["desc"]; ok {
		enc, err := json.Marshal(desc)
		if err == nil {
			fmt.Fprintf(&b, "- desc: %s\n", enc)
		}
	}
	if s.SupercellSet > 0 {
		fmt.Fprintf(&b, "- supercell_set: %d supercells\n", s.SupercellSet)
	}
	if s.SupercellList > 0 {
		fmt.Fprintf(&b, "- supercell_list: %d supercells\n", s.SupercellList)
	}
	if s.ConfigurationSet > 0 {
		fmt.Fprintf(&b, "- configuration_set: %d configurations\n", s.ConfigurationSet)
	}
	if s.ConfigurationList > 0 {
		fmt.Fprintf(&b, "- configuration_list: %d configurations\n", s.ConfigurationList)
	}
	return strings.TrimSpace(b.String())
}

// Document returns the state as the JSON values of each file, keyed by file
// name. Empty containers are omitted, matching the directory contents.
func (d *Data) Document() (map[string]any, error) {
	doc := map[string]any{}
	if len(d.Meta) > 0 {
		doc[MetaFile] = d.Meta
	}
	if d.SupercellSet != nil && d.SupercellSet.Len() > 0 {
		doc[ScelSetFile] = d.SupercellSet
	}
	if len(d.SupercellList) > 0 {
		raw, err := crystal.SupercellListToData(d.SupercellList)
		if err != nil {
			return nil, err
		}
		doc[ScelListFile] = json.RawMessage(raw)
	}
	if d.ConfigurationSet != nil && d.ConfigurationSet.Len() > 0 {
		doc[ConfigSetFile] = d.ConfigurationSet
	}
	if len(d.ConfigurationList) > 0 {
		raw, err := crystal.ConfigurationListToData(d.ConfigurationList)
		if err != nil {
			return nil, err
		}
		doc[ConfigListFile] = json.RawMessage(raw)
	}
	return doc, nil
}
