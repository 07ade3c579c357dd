// Package bset manages cluster expansion basis sets: their specifications,
// the files the engine generates from them, and correlation evaluation.
package bset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/papapumpkin/casmproj/internal/errkind"
	"github.com/papapumpkin/casmproj/internal/jsonio"
	"github.com/papapumpkin/casmproj/internal/project"
)

// NoEquivalent selects the basis set directory itself in Variables.
const NoEquivalent = -1

// Files of a basis set directory.
const (
	MetaFile            = "meta.json"
	EquivalentsInfoFile = "equivalents_info.json"
	GeneratedFilesFile  = "generated_files.json"
	VariablesFile       = "variables.json"
)

// GeneratedFiles lists the files the engine wrote for a basis set, relative
// to the basis set directory.
type GeneratedFiles struct {
	All          []string `json:"all"`
	SrcPath      string   `json:"src_path,omitempty"`
	LocalSrcPath []string `json:"local_src_path,omitempty"`
}

// Data is one basis set and its directory.
type Data struct {
	Meta  map[string]any
	Specs *Specs // nil when bspecs.json is absent

	id   string
	dir  string
	proj *project.Project
	eng  Engine
}

// Open validates id and loads basis_sets/bset.<id>/ of p. eng may be nil;
// operations that need it then fail.
func Open(p *project.Project, id string, eng Engine) (*Data, error) {
	if err := project.ValidateID("basis set", id); err != nil {
		return nil, err
	}
	d := &Data{id: id, dir: p.Dir.BsetDir(id), proj: p, eng: eng}
	if err := d.Load(); err != nil {
		return nil, err
	}
	return d, nil
}

// ID returns the basis set id.
func (d *Data) ID() string { return d.id }

// Dir returns the basis set directory.
func (d *Data) Dir() string { return d.dir }

// Load replaces Meta and Specs with the contents of meta.json and
// bspecs.json.
func (d *Data) Load() error {
	meta, err := jsonio.ReadMeta(filepath.Join(d.dir, MetaFile))
	if err != nil {
		return err
	}
	var specs *Specs
	path := d.proj.Dir.Bspecs(d.id)
	var raw json.RawMessage
	found, err := jsonio.ReadOptional(path, &raw)
	if err != nil {
		return err
	}
	if found {
		if specs, err = DecodeSpecs(raw); err != nil {
			return errkind.New(errkind.MalformedFile, "bset.load", path, err)
		}
	}
	d.Meta = meta
	d.Specs = specs
	return nil
}

func readObject(path string) (map[string]any, error) {
	var m map[string]any
	found, err := jsonio.ReadOptional(path, &m)
	if err != nil || !found {
		return nil, err
	}
	return m, nil
}

// BasisDict returns the contents of basis.json, or nil if absent.
func (d *Data) BasisDict() (map[string]any, error) {
	return readObject(d.proj.Dir.Basis(d.id))
}

// EquivalentsInfo returns the contents of equivalents_info.json, or nil if
// absent.
func (d *Data) EquivalentsInfo() (map[string]any, error) {
	return readObject(filepath.Join(d.dir, EquivalentsInfoFile))
}

// GeneratedFiles returns the contents of generated_files.json, or nil if
// absent.
func (d *Data) GeneratedFiles() (*GeneratedFiles, error) {
	var g GeneratedFiles
	found, err := jsonio.ReadOptional(filepath.Join(d.dir, GeneratedFilesFile), &g)
	if err != nil || !found {
		return nil, err
	}
	return &g, nil
}

// SrcPath returns the Clexulator (or prototype local Clexulator) source
// path, or "" when none has been generated.
func (d *Data) SrcPath() (string, error) {
	g, err := d.GeneratedFiles()
	if err != nil || g == nil || g.SrcPath == "" {
		return "", err
	}
	return filepath.Join(d.dir, g.SrcPath), nil
}

// LocalSrcPaths returns the local Clexulator source paths, or nil.
func (d *Data) LocalSrcPaths() ([]string, error) {
	g, err := d.GeneratedFiles()
	if err != nil || g == nil || g.LocalSrcPath == nil {
		return nil, err
	}
	out := make([]string, len(g.LocalSrcPath))
	for i, p := range g.LocalSrcPath {
		out[i] = filepath.Join(d.dir, p)
	}
	return out, nil
}

// Variables returns the writer variables of the basis set, or of the
// iEquiv-th equivalent local basis set. iEquiv NoEquivalent selects the
// basis set directory. It returns nil when the file is absent.
func (d *Data) Variables(iEquiv int) (map[string]any, error) {
	dir := d.dir
	if iEquiv != NoEquivalent {
		dir = filepath.Join(dir, strconv.Itoa(iEquiv))
	}
	return readObject(filepath.Join(dir, VariablesFile))
}

// Clean removes every generated file listed in generated_files.json and
// returns how many were removed.
func (d *Data) Clean() (int, error) {
	g, err := d.GeneratedFiles()
	if err != nil {
		return 0, err
	}
	if g == nil {
		if d.proj.Verbose && d.proj.Printer != nil {
			d.proj.Printer.Info("No generated files to remove")
		}
		return 0, nil
	}
	opts := d.proj.WriteOptions(true)
	n := 0
	for _, rel := range g.All {
		removed, err := jsonio.RemoveIfExists(filepath.Join(d.dir, rel), opts)
		if err != nil {
			return n, err
		}
		if removed {
			n++
		}
	}
	return n, nil
}

// Commit writes meta.json and bspecs.json, removing each when empty.
func (d *Data) Commit() error {
	if d.Meta == nil {
		return errkind.New(errkind.InvalidMetaType, "bset.commit", d.dir, errors.New("meta is not loaded"))
	}
	if err := os.MkdirAll(d.dir, 0o755); err != nil {
		return fmt.Errorf("creating basis set directory: %w", err)
	}
	opts := d.proj.WriteOptions(true)

	meta := filepath.Join(d.dir, MetaFile)
	if len(d.Meta) > 0 {
		if err := jsonio.SafeDump(d.Meta, meta, opts); err != nil {
			return err
		}
	} else if _, err := jsonio.RemoveIfExists(meta, opts); err != nil {
		return err
	}

	bspecs := d.proj.Dir.Bspecs(d.id)
	if d.Specs != nil {
		return jsonio.SafeDump(d.Specs, bspecs, opts)
	}
	_, err := jsonio.RemoveIfExists(bspecs, opts)
	return err
}

// SetBasisSpecs replaces the specifications. An empty version selects
// DefaultVersion. No files are written until Commit.
func (d *Data) SetBasisSpecs(specs map[string]any, version string, linearFunctionIndices []int) {
	if version == "" {
		version = DefaultVersion
	}
	d.Specs = &Specs{Specs: specs, Version: version, LinearFunctionIndices: linearFunctionIndices}
}

// Summary describes a basis set for listings.
type Summary struct {
	ID           string `json:"id"`
	Desc         string `json:"desc,omitempty"`
	HasSpecs     bool   `json:"has_bspecs"`
	Version      string `json:"version,omitempty"`
	Generated    int    `json:"generated_files"`
	HasSource    bool   `json:"has_source"`
	LocalSources int    `json:"local_sources"`
}

// Summary returns a listing summary. Generated file information is read
// from disk.
func (d *Data) Summary() (Summary, error) {
	s := Summary{ID: d.id, HasSpecs: d.Specs != nil}
	if desc, ok := d.Meta["desc"].(string); ok {
		s.Desc = desc
	}
	if d.Specs != nil {
		s.Version = d.Specs.Version
	}
	g, err := d.GeneratedFiles()
	if err != nil {
		return Summary{}, err
	}
	if g != nil {
		s.Generated = len(g.All)
		s.HasSource = g.SrcPath != ""
		s.LocalSources = len(g.LocalSrcPath)
	}
	return s, nil
}

// String lists the id, description, and specification status.
func (d *Data) String() string {
	var b strings.Builder
	b.WriteString("BsetData:\n")
	fmt.Fprintf(&b, "- id: %s\n", d.id)
	if desc, ok := d.Meta["desc"]; ok {
		if enc, err := json.Marshal(desc); err == nil {
			fmt.Fprintf(&b, "- desc: %s\n", enc)
		}
	}
	if d.Specs == nil {
		b.WriteString("- bspecs: none\n")
	} else {
		fmt.Fprintf(&b, "- version: %s\n", d.Specs.Version)
		if d.Specs.LinearFunctionIndices != nil {
			fmt.Fprintf(&b, "- linear_function_indices: %d functions\n", len(d.Specs.LinearFunctionIndices))
		}
	}
	if src, err := d.SrcPath(); err == nil && src != "" {
		fmt.Fprintf(&b, "- src_path: %s\n", jsonio.PrintPath(src))
	}
	return strings.TrimSpace(b.String())
}
