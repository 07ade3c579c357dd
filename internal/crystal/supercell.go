package crystal

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Matrix3 is an integer 3x3 matrix indexed [row][col].
type Matrix3 [3][3]int

// Identity3 is the identity transformation.
var Identity3 = Matrix3{{1, 0, 0}, {0, 1, 0}, {0, 0, 1}}

// ErrSingular indicates a transformation matrix with zero determinant.
var ErrSingular = errors.New("transformation matrix is singular")

// Det returns the determinant of m.
func (m Matrix3) Det() int {
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

// Supercell is an integer multiple of the primitive cell. The lattice of the
// supercell is L_prim * T, with T stored in upper triangular Hermite normal
// form, so value equality is lattice equality.
type Supercell struct {
	prim *Prim
	t    Matrix3
	name string
}

// NewSupercell returns the supercell of prim generated by transformation
// matrix t. The matrix is reduced to Hermite normal form.
func NewSupercell(prim *Prim, t Matrix3) (*Supercell, error) {
	h, err := HermiteNormalForm(t)
	if err != nil {
		return nil, err
	}
	return &Supercell{prim: prim, t: h, name: scelName(h)}, nil
}

// SupercellFromName parses a name of the form
// SCEL<vol>_<h00>_<h11>_<h22>_<h12>_<h02>_<h01>.
func SupercellFromName(prim *Prim, name string) (*Supercell, error) {
	rest, ok := strings.CutPrefix(name, "SCEL")
	if !ok {
		return nil, fmt.Errorf("supercell name %q: missing SCEL prefix", name)
	}
	parts := strings.Split(rest, "_")
	if len(parts) != 7 {
		return nil, fmt.Errorf("supercell name %q: expected 7 fields, got %d", name, len(parts))
	}
	v := make([]int, 7)
	for i, s := range parts {
		n, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("supercell name %q: %w", name, err)
		}
		v[i] = n
	}
	t := Matrix3{{v[1], v[6], v[5]}, {0, v[2], v[4]}, {0, 0, v[3]}}
	s, err := NewSupercell(prim, t)
	if err != nil {
		return nil, fmt.Errorf("supercell name %q: %w", name, err)
	}
	if s.name != name {
		return nil, fmt.Errorf("supercell name %q is not in normal form (want %s)", name, s.name)
	}
	return s, nil
}

// Prim returns the primitive structure the supercell was built from.
func (s *Supercell) Prim() *Prim { return s.prim }

// TransformationMatrix returns T in Hermite normal form.
func (s *Supercell) TransformationMatrix() Matrix3 { return s.t }

// Name returns the canonical supercell name.
func (s *Supercell) Name() string { return s.name }

// Volume returns the number of primitive cells in the supercell.
func (s *Supercell) Volume() int { return s.t[0][0] * s.t[1][1] * s.t[2][2] }

// NumSites returns the number of sites: volume times the number of
// sublattices.
func (s *Supercell) NumSites() int { return s.Volume() * s.prim.NumSublattices() }

// Sublattice returns the sublattice of site index l. Sites are ordered by
// sublattice, then by unit cell.
func (s *Supercell) Sublattice(l int) int { return l / s.Volume() }

// Equal reports whether two supercells describe the same lattice.
func (s *Supercell) Equal(other *Supercell) bool {
	if s == nil || other == nil {
		return s == other
	}
	return s.t == other.t
}

func (s *Supercell) String() string { return s.name }

func scelName(h Matrix3) string {
	vol := h[0][0] * h[1][1] * h[2][2]
	return fmt.Sprintf("SCEL%d_%d_%d_%d_%d_%d_%d",
		vol, h[0][0], h[1][1], h[2][2], h[1][2], h[0][2], h[0][1])
}

// HermiteNormalForm returns H = T*U, with U unimodular, H upper triangular
// with a positive diagonal, and 0 <= H[i][j] < H[i][i] for j > i.
func HermiteNormalForm(t Matrix3) (Matrix3, error) {
	if t.Det() == 0 {
		return Matrix3{}, ErrSingular
	}
	h := t
	for row := 2; row >= 0; row-- {
		for c := 0; c < row; c++ {
			for h[row][c] != 0 {
				q := h[row][row] / h[row][c]
				addCol(&h, row, c, -q)
				swapCols(&h, row, c)
			}
		}
		if h[row][row] < 0 {
			for r := 0; r < 3; r++ {
				h[r][row] = -h[r][row]
			}
		}
	}
	for i := 1; i >= 0; i-- {
		for j := i + 1; j < 3; j++ {
			q := floorDiv(h[i][j], h[i][i])
			addCol(&h, j, i, -q)
		}
	}
	return h, nil
}

// addCol adds k times column src to column dst.
func addCol(h *Matrix3, dst, src, k int) {
	for r := 0; r < 3; r++ {
		h[r][dst] += k * h[r][src]
	}
}

func swapCols(h *Matrix3, a, b int) {
	for r := 0; r < 3; r++ {
		h[r][a], h[r][b] = h[r][b], h[r][a]
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
