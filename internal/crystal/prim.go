// Package crystal holds the primitive structure and the supercell and
// configuration containers that enumerations store. Supercells are kept in
// Hermite normal form so two supercells describing the same lattice always
// share one name.
package crystal

import (
	"errors"
	"fmt"
	"math"

	"github.com/papapumpkin/casmproj/internal/jsonio"
)

// Coordinate modes accepted in prim.json.
const (
	Fractional = "Fractional"
	Cartesian  = "Cartesian"
)

// ErrInvalidPrim indicates prim.json is structurally unusable.
var ErrInvalidPrim = errors.New("invalid prim")

// Site is one basis site of the primitive cell.
type Site struct {
	Coordinate []float64 `json:"coordinate"`
	Occupants  []string  `json:"occupants"`
}

// Species describes an occupant label. Name is the chemical name used for
// chemical composition; it defaults to the label itself.
type Species struct {
	Name string `json:"name"`
}

// Prim is the primitive crystal structure with the allowed occupants of each
// basis site.
type Prim struct {
	Title          string             `json:"title"`
	LatticeVectors [][]float64        `json:"lattice_vectors"`
	CoordinateMode string             `json:"coordinate_mode"`
	Basis          []Site             `json:"basis"`
	Species        map[string]Species `json:"species,omitempty"`
}

// LoadPrim reads and validates prim.json.
func LoadPrim(path string) (*Prim, error) {
	var p Prim
	if err := jsonio.ReadRequired(path, &p); err != nil {
		return nil, err
	}
	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", jsonio.PrintPath(path), err)
	}
	return &p, nil
}

// Validate checks the lattice and basis.
func (p *Prim) Validate() error {
	if len(p.LatticeVectors) != 3 {
		return fmt.Errorf("%w: expected 3 lattice vectors, got %d", ErrInvalidPrim, len(p.LatticeVectors))
	}
	for i, v := range p.LatticeVectors {
		if len(v) != 3 {
			return fmt.Errorf("%w: lattice vector %d has %d components", ErrInvalidPrim, i, len(v))
		}
	}
	if math.Abs(p.Volume()) < 1e-8 {
		return fmt.Errorf("%w: lattice vectors are coplanar", ErrInvalidPrim)
	}
	switch p.CoordinateMode {
	case Fractional, Cartesian, "Direct":
	default:
		return fmt.Errorf("%w: unknown coordinate_mode %q", ErrInvalidPrim, p.CoordinateMode)
	}
	if len(p.Basis) == 0 {
		return fmt.Errorf("%w: empty basis", ErrInvalidPrim)
	}
	for b, site := range p.Basis {
		if len(site.Coordinate) != 3 {
			return fmt.Errorf("%w: basis site %d coordinate has %d components", ErrInvalidPrim, b, len(site.Coordinate))
		}
		if len(site.Occupants) == 0 {
			return fmt.Errorf("%w: basis site %d has no occupants", ErrInvalidPrim, b)
		}
		seen := make(map[string]bool, len(site.Occupants))
		for _, occ := range site.Occupants {
			if seen[occ] {
				return fmt.Errorf("%w: basis site %d lists %q twice", ErrInvalidPrim, b, occ)
			}
			seen[occ] = true
		}
	}
	return nil
}

// Volume returns the signed volume of the primitive lattice.
func (p *Prim) Volume() float64 {
	a, b, c := p.LatticeVectors[0], p.LatticeVectors[1], p.LatticeVectors[2]
	return a[0]*(b[1]*c[2]-b[2]*c[1]) -
		a[1]*(b[0]*c[2]-b[2]*c[0]) +
		a[2]*(b[0]*c[1]-b[1]*c[0])
}

// NumSublattices returns the number of basis sites.
func (p *Prim) NumSublattices() int { return len(p.Basis) }

// Occupants returns the allowed occupant labels of every sublattice.
func (p *Prim) Occupants() [][]string {
	out := make([][]string, len(p.Basis))
	for b, site := range p.Basis {
		out[b] = append([]string(nil), site.Occupants...)
	}
	return out
}

// VariableSublattices returns the indices of sublattices that allow more
// than one occupant.
func (p *Prim) VariableSublattices() []int {
	var out []int
	for b, site := range p.Basis {
		if len(site.Occupants) > 1 {
			out = append(out, b)
		}
	}
	return out
}

// ChemicalName returns the chemical name of an occupant label.
func (p *Prim) ChemicalName(label string) string {
	if s, ok := p.Species[label]; ok && s.Name != "" {
		return s.Name
	}
	return label
}
