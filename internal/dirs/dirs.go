// Package dirs maps logical project identifiers (enumeration ids, basis set
// ids, calctypes, ...) to paths in the standard project directory tree. It
// holds no state beyond the project root and never touches the filesystem
// except in the All* queries and FindProjectRoot.
package dirs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	casmDir    = ".casm"
	casmDBDir  = "jsonDB"
	enumDir    = "enumerations"
	bsetDir    = "basis_sets"
	calcDir    = "training_data"
	settingDir = "settings"
	symDir     = "symmetry"
	clexDir    = "cluster_expansions"
	systemDir  = "systems"
)

// Structure builds standard paths below a project root.
type Structure struct {
	Root string
}

// New returns a Structure rooted at root.
func New(root string) Structure {
	return Structure{Root: root}
}

// FindProjectRoot walks upward from start looking for a directory that
// contains ".casm". It returns "" if none is found.
func FindProjectRoot(start string) (string, error) {
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		start = wd
	}
	abs, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil || !info.IsDir() {
		return "", fmt.Errorf("no directory named %s", start)
	}
	for cur := abs; ; cur = filepath.Dir(cur) {
		if fi, err := os.Stat(filepath.Join(cur, casmDir)); err == nil && fi.IsDir() {
			return cur, nil
		}
		if filepath.Dir(cur) == cur {
			return "", nil
		}
	}
}

// --- project metadata ---

// CasmDir returns <root>/.casm.
func (s Structure) CasmDir() string { return filepath.Join(s.Root, casmDir) }

// CasmDBDir returns <root>/.casm/jsonDB.
func (s Structure) CasmDBDir() string { return filepath.Join(s.CasmDir(), casmDBDir) }

// Prim returns the prim.json path.
func (s Structure) Prim() string { return filepath.Join(s.CasmDir(), "prim.json") }

// ProjectSettings returns the project_settings.json path.
func (s Structure) ProjectSettings() string {
	return filepath.Join(s.CasmDir(), "project_settings.json")
}

// CompositionAxes returns the v1 composition_axes.json path.
func (s Structure) CompositionAxes() string {
	return filepath.Join(s.CasmDir(), "composition_axes.json")
}

// ChemicalCompositionAxes returns the chemical_composition_axes.json path.
func (s Structure) ChemicalCompositionAxes() string {
	return filepath.Join(s.CasmDir(), "chemical_composition_axes.json")
}

// OccupantCompositionAxes returns the occupant_composition_axes.json path.
func (s Structure) OccupantCompositionAxes() string {
	return filepath.Join(s.CasmDir(), "occupant_composition_axes.json")
}

// EnumRunLog returns the JSONL file enumeration runs append events to.
func (s Structure) EnumRunLog() string { return filepath.Join(s.CasmDir(), "enum_runs.jsonl") }

// --- symmetry ---

// SymmetryDir returns <root>/symmetry.
func (s Structure) SymmetryDir() string { return filepath.Join(s.Root, symDir) }

// LatticePointGroup returns the lattice_point_group.json path.
func (s Structure) LatticePointGroup() string {
	return filepath.Join(s.SymmetryDir(), "lattice_point_group.json")
}

// FactorGroup returns the factor_group.json path.
func (s Structure) FactorGroup() string {
	return filepath.Join(s.SymmetryDir(), "factor_group.json")
}

// CrystalPointGroup returns the crystal_point_group.json path.
func (s Structure) CrystalPointGroup() string {
	return filepath.Join(s.SymmetryDir(), "crystal_point_group.json")
}

// --- enumerations ---

// EnumDir returns <root>/enumerations/enum.<id>.
func (s Structure) EnumDir(id string) string {
	return filepath.Join(s.Root, enumDir, "enum."+id)
}

// AllEnum returns the ids of all enumeration directories.
func (s Structure) AllEnum() ([]string, error) {
	return allSettings("enum", filepath.Join(s.Root, enumDir))
}

// --- basis sets ---

// BsetDir returns <root>/basis_sets/bset.<id>.
func (s Structure) BsetDir(bset string) string {
	return filepath.Join(s.Root, bsetDir, "bset."+bset)
}

// AllBset returns the ids of all basis set directories.
func (s Structure) AllBset() ([]string, error) {
	return allSettings("bset", filepath.Join(s.Root, bsetDir))
}

// Bspecs returns the bspecs.json path of a basis set.
func (s Structure) Bspecs(bset string) string { return filepath.Join(s.BsetDir(bset), "bspecs.json") }

// Basis returns the basis.json path of a basis set.
func (s Structure) Basis(bset string) string { return filepath.Join(s.BsetDir(bset), "basis.json") }

// Clust returns the clust.json path of a basis set.
func (s Structure) Clust(bset string) string { return filepath.Join(s.BsetDir(bset), "clust.json") }

// ClexulatorSrc returns the Clexulator source path for a project and basis set.
func (s Structure) ClexulatorSrc(project, bset string) string {
	return filepath.Join(s.BsetDir(bset), fmt.Sprintf("%s_Clexulator_%s.cc", project, bset))
}

// ClexulatorO returns the compiled Clexulator object path.
func (s Structure) ClexulatorO(project, bset string) string {
	return filepath.Join(s.BsetDir(bset), fmt.Sprintf("%s_Clexulator_%s.o", project, bset))
}

// ClexulatorSO returns the compiled Clexulator shared library path.
func (s Structure) ClexulatorSO(project, bset string) string {
	return filepath.Join(s.BsetDir(bset), fmt.Sprintf("%s_Clexulator_%s.so", project, bset))
}

// --- training data ---

// CalcSettingsRoot returns <root>/training_data/settings.
func (s Structure) CalcSettingsRoot() string {
	return filepath.Join(s.Root, calcDir, settingDir)
}

// CalctypeSettingsDir returns training_data/settings/calctype.<calctype>.
func (s Structure) CalctypeSettingsDir(calctype string) string {
	return filepath.Join(s.CalcSettingsRoot(), "calctype."+calctype)
}

// RefDir returns the reference state directory for a calctype.
func (s Structure) RefDir(calctype, ref string) string {
	return filepath.Join(s.CalctypeSettingsDir(calctype), "ref."+ref)
}

// ChemicalReference returns the chemical_reference.json path.
func (s Structure) ChemicalReference(calctype, ref string) string {
	return filepath.Join(s.RefDir(calctype, ref), "chemical_reference.json")
}

// AllCalctype returns the names of all calctype settings directories.
func (s Structure) AllCalctype() ([]string, error) {
	return allSettings("calctype", s.CalcSettingsRoot())
}

// AllRef returns the names of all reference states of a calctype.
func (s Structure) AllRef(calctype string) ([]string, error) {
	return allSettings("ref", s.CalctypeSettingsDir(calctype))
}

// ConfigurationDir returns training_data/<configname>. Configuration names
// contain a "/" separating supercell and index, which becomes a subdirectory.
func (s Structure) ConfigurationDir(configname string) string {
	return filepath.Join(s.Root, calcDir, filepath.FromSlash(configname))
}

// CalctypeDir returns training_data/<configname>/calctype.<calctype>.
func (s Structure) CalctypeDir(configname, calctype string) string {
	return filepath.Join(s.ConfigurationDir(configname), "calctype."+calctype)
}

// StructureJSON returns training_data/<configname>/structure.json.
func (s Structure) StructureJSON(configname string) string {
	return filepath.Join(s.ConfigurationDir(configname), "structure.json")
}

// CalculatedProperties returns the properties.calc.json path of a
// configuration for a calctype.
func (s Structure) CalculatedProperties(configname, calctype string) string {
	return filepath.Join(s.CalctypeDir(configname, calctype), "properties.calc.json")
}

// --- cluster expansions ---

// PropertyDir returns cluster_expansions/clex.<property>.
func (s Structure) PropertyDir(property string) string {
	return filepath.Join(s.Root, clexDir, "clex."+property)
}

// ECIDir returns the directory holding eci.json for a cluster expansion.
func (s Structure) ECIDir(property, calctype, ref, bset, eci string) string {
	return filepath.Join(s.PropertyDir(property),
		"calctype."+calctype, "ref."+ref, "bset."+bset, "eci."+eci)
}

// ECI returns the eci.json path for a cluster expansion.
func (s Structure) ECI(property, calctype, ref, bset, eci string) string {
	return filepath.Join(s.ECIDir(property, calctype, ref, bset, eci), "eci.json")
}

// AllClexName returns the names of all cluster expansion property dirs.
func (s Structure) AllClexName() ([]string, error) {
	return allSettings("clex", filepath.Join(s.Root, clexDir))
}

// AllECI returns the names of all ECI sets for a property/calctype/ref/bset.
func (s Structure) AllECI(property, calctype, ref, bset string) ([]string, error) {
	return allSettings("eci", filepath.Join(s.PropertyDir(property),
		"calctype."+calctype, "ref."+ref, "bset."+bset))
}

// --- systems ---

// SystemDir returns systems/system.<system>.
func (s Structure) SystemDir(system string) string {
	return filepath.Join(s.Root, systemDir, "system."+system)
}

// AllSystems returns the names of all system directories.
func (s Structure) AllSystems() ([]string, error) {
	return allSettings("system", filepath.Join(s.Root, systemDir))
}

// allSettings lists directories in location named "<prefix>.<name>" and
// returns the sorted names. A missing location yields an empty list.
func allSettings(prefix, location string) ([]string, error) {
	entries, err := os.ReadDir(location)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", location, err)
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		name, ok := strings.CutPrefix(e.Name(), prefix+".")
		if ok && name != "" {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}
