// Package sym reads and describes the prim symmetry groups stored in the
// project symmetry directory.
package sym

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Operation is one symmetry operation: x' = Matrix·x + Translation, with
// an optional time reversal.
type Operation struct {
	Matrix       [][]float64 `json:"matrix"`
	Translation  []float64   `json:"translation,omitempty"`
	TimeReversal bool        `json:"time_reversal,omitempty"`
}

// Group is a symmetry group document.
type Group struct {
	Elements       []Operation    `json:"group_elements"`
	Classification map[string]any `json:"group_classification,omitempty"`
}

const opTol = 1e-6

// Op types reported by Operation.Type.
const (
	TypeIdentity      = "identity"
	TypeTranslation   = "translation"
	TypeRotation      = "rotation"
	TypeScrew         = "screw"
	TypeInversion     = "inversion"
	TypeMirror        = "mirror"
	TypeGlide         = "glide"
	TypeRotoinversion = "rotoinversion"
	TypeInvalid       = "invalid"
)

func (o Operation) det() float64 {
	m := o.Matrix
	return m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
}

func (o Operation) trace() float64 {
	return o.Matrix[0][0] + o.Matrix[1][1] + o.Matrix[2][2]
}

func (o Operation) valid() bool {
	if len(o.Matrix) != 3 {
		return false
	}
	for _, row := range o.Matrix {
		if len(row) != 3 {
			return false
		}
	}
	return len(o.Translation) == 0 || len(o.Translation) == 3
}

func (o Operation) translated() bool {
	for _, t := range o.Translation {
		if math.Abs(t-math.Round(t)) > opTol {
			return true
		}
	}
	return false
}

// Angle returns the rotation angle in degrees of the proper part of the
// operation, in [0, 180].
func (o Operation) Angle() float64 {
	if !o.valid() {
		return 0
	}
	tr := o.trace()
	if o.det() < 0 {
		tr = -tr
	}
	c := math.Max(-1, math.Min(1, (tr-1)/2))
	return math.Round(math.Acos(c) * 180 / math.Pi)
}

// Type classifies the operation from the determinant and trace of its
// matrix and whether its translation is a lattice translation. Matrices
// must be Cartesian or orthogonal.
func (o Operation) Type() string {
	if !o.valid() {
		return TypeInvalid
	}
	det, tr := o.det(), o.trace()
	shifted := o.translated()
	switch {
	case math.Abs(det-1) < opTol && math.Abs(tr-3) < opTol:
		if shifted {
			return TypeTranslation
		}
		return TypeIdentity
	case math.Abs(det-1) < opTol:
		if shifted {
			return TypeScrew
		}
		return TypeRotation
	case math.Abs(det+1) < opTol && math.Abs(tr+3) < opTol:
		return TypeInversion
	case math.Abs(det+1) < opTol && math.Abs(tr-1) < opTol:
		if shifted {
			return TypeGlide
		}
		return TypeMirror
	case math.Abs(det+1) < opTol:
		return TypeRotoinversion
	}
	return TypeInvalid
}

// Order returns the number of operations.
func (g *Group) Order() int { return len(g.Elements) }

// TypeCounts returns the number of operations of each type.
func (g *Group) TypeCounts() map[string]int {
	out := map[string]int{}
	for _, op := range g.Elements {
		out[op.Type()]++
	}
	return out
}

// SpacegroupType returns the international symbol and number recorded in
// the group classification, if any.
func (g *Group) SpacegroupType() (symbol string, number int, ok bool) {
	sg, found := g.Classification["spacegroup_type"].(map[string]any)
	if !found {
		return "", 0, false
	}
	symbol, _ = sg["international_short"].(string)
	switch n := sg["number"].(type) {
	case json.Number:
		if i, err := n.Int64(); err == nil {
			number = int(i)
		}
	case float64:
		number = int(n)
	}
	return symbol, number, symbol != "" || number != 0
}

// Brief returns a one-line description: the order, the space group type
// when classified, and the count of each operation type.
func (g *Group) Brief() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d operations", g.Order())
	if sym, num, ok := g.SpacegroupType(); ok {
		fmt.Fprintf(&b, ", space group %s (#%d)", sym, num)
	}
	counts := g.TypeCounts()
	types := make([]string, 0, len(counts))
	for t := range counts {
		types = append(types, t)
	}
	sort.Strings(types)
	parts := make([]string, len(types))
	for i, t := range types {
		parts[i] = fmt.Sprintf("%s: %d", t, counts[t])
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, " [%s]", strings.Join(parts, ", "))
	}
	return b.String()
}

// TableHeaders are the column headers of Rows.
var TableHeaders = []string{"#", "type", "angle", "matrix", "translation"}

// Rows returns one table row per operation.
func (g *Group) Rows() [][]string {
	rows := make([][]string, len(g.Elements))
	for i, op := range g.Elements {
		angle := ""
		switch op.Type() {
		case TypeRotation, TypeScrew, TypeRotoinversion:
			angle = strconv.FormatFloat(op.Angle(), 'f', 0, 64)
		}
		rows[i] = []string{
			strconv.Itoa(i + 1),
			op.Type(),
			angle,
			formatMatrix(op.Matrix),
			formatVector(op.Translation),
		}
	}
	return rows
}

func formatVector(v []float64) string {
	if len(v) == 0 {
		return ""
	}
	parts := make([]string, len(v))
	for i, x := range v {
		if math.Abs(x) < opTol {
			x = 0
		}
		parts[i] = strconv.FormatFloat(x, 'g', 4, 64)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func formatMatrix(m [][]float64) string {
	rows := make([]string, len(m))
	for i, r := range m {
		rows[i] = formatVector(r)
	}
	return strings.Join(rows, " ")
}
