package composition

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// ErrDegenerateAxes indicates end members that do not span independent
// directions from the origin.
var ErrDegenerateAxes = errors.New("composition axes are degenerate")

const axesTol = 1e-9

// Converter maps composition per unit cell n to parametric composition x
// by n = origin + Q x, where column i of Q is endMembers[i] - origin.
type Converter struct {
	components []string
	origin     []float64
	endMembers [][]float64
	q          *mat.Dense
	qr         mat.QR
}

// NewConverter builds a converter from the origin and end members, each a
// composition per unit cell over components.
func NewConverter(components []string, origin []float64, endMembers [][]float64) (*Converter, error) {
	if len(origin) != len(components) {
		return nil, fmt.Errorf("origin has %d values for %d components", len(origin), len(components))
	}
	for i, e := range endMembers {
		if len(e) != len(components) {
			return nil, fmt.Errorf("end member %s has %d values for %d components",
				axisName(i), len(e), len(components))
		}
	}
	c := &Converter{components: components, origin: origin, endMembers: endMembers}
	if len(endMembers) == 0 {
		return c, nil
	}
	if len(endMembers) > len(components) {
		return nil, ErrDegenerateAxes
	}
	c.q = mat.NewDense(len(components), len(endMembers), nil)
	for i, e := range endMembers {
		for j := range e {
			c.q.Set(j, i, e[j]-origin[j])
		}
	}
	c.qr.Factorize(c.q)
	var r mat.Dense
	c.qr.RTo(&r)
	for i := range endMembers {
		if math.Abs(r.At(i, i)) < axesTol {
			return nil, ErrDegenerateAxes
		}
	}
	return c, nil
}

// Components returns the component order.
func (c *Converter) Components() []string { return c.components }

// IndependentCompositions returns the number of parametric composition axes.
func (c *Converter) IndependentCompositions() int { return len(c.endMembers) }

// Origin returns the composition at x = 0.
func (c *Converter) Origin() []float64 { return c.origin }

// EndMember returns the composition at x_i = 1, other x = 0.
func (c *Converter) EndMember(i int) []float64 { return c.endMembers[i] }

// axis returns Q[j][i], the change in component j along axis i.
func (c *Converter) axis(j, i int) float64 { return c.q.At(j, i) }

// ParamComposition returns x for a composition per unit cell n, as the
// least-squares solution of Q x = n - origin.
func (c *Converter) ParamComposition(n []float64) ([]float64, error) {
	if len(n) != len(c.components) {
		return nil, fmt.Errorf("composition has %d values for %d components", len(n), len(c.components))
	}
	if c.q == nil {
		return []float64{}, nil
	}
	rhs := mat.NewVecDense(len(n), nil)
	for j := range n {
		rhs.SetVec(j, n[j]-c.origin[j])
	}
	var sol mat.VecDense
	if err := c.qr.SolveVecTo(&sol, false, rhs); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDegenerateAxes, err)
	}
	x := make([]float64, sol.Len())
	for i := range x {
		x[i] = clean(sol.AtVec(i))
	}
	return x, nil
}

// MolComposition returns n = origin + Q x.
func (c *Converter) MolComposition(x []float64) ([]float64, error) {
	if len(x) != len(c.endMembers) {
		return nil, fmt.Errorf("parametric composition has %d values, want %d", len(x), len(c.endMembers))
	}
	n := append([]float64(nil), c.origin...)
	if c.q != nil {
		var dn mat.VecDense
		dn.MulVec(c.q, mat.NewVecDense(len(x), append([]float64(nil), x...)))
		for j := range n {
			n[j] += dn.AtVec(j)
		}
	}
	for j := range n {
		n[j] = clean(n[j])
	}
	return n, nil
}

// MolFormula renders n in terms of the axis names, e.g. "A(1-a)B(a)".
func (c *Converter) MolFormula() string {
	var b strings.Builder
	for j, comp := range c.components {
		var terms []string
		if v := clean(c.origin[j]); v != 0 {
			terms = append(terms, formatNum(v))
		}
		for i := range c.endMembers {
			v := clean(c.axis(j, i))
			if v == 0 {
				continue
			}
			term := axisName(i)
			switch {
			case v == 1:
			case v == -1:
				term = "-" + term
			default:
				term = formatNum(v) + term
			}
			if len(terms) > 0 && !strings.HasPrefix(term, "-") {
				term = "+" + term
			}
			terms = append(terms, term)
		}
		if len(terms) == 0 {
			continue
		}
		expr := strings.Join(terms, "")
		if expr == "1" {
			b.WriteString(comp)
			continue
		}
		fmt.Fprintf(&b, "%s(%s)", comp, expr)
	}
	return b.String()
}

// axisName returns "a", "b", ... for axis i.
func axisName(i int) string {
	if i < 26 {
		return string(rune('a' + i))
	}
	return "x" + strconv.Itoa(i)
}

func formatNum(v float64) string {
	return strconv.FormatFloat(v, 'g', 6, 64)
}

func clean(v float64) float64 {
	if math.Abs(v) < axesTol {
		return 0
	}
	return v
}

type converterJSON struct {
	Components              []string             `json:"components"`
	IndependentCompositions int                  `json:"independent_compositions"`
	Origin                  []float64            `json:"origin"`
	EndMembers              map[string][]float64 `json:"end_members"`
	MolFormula              string               `json:"mol_formula"`
}

// MarshalJSON encodes the converter with end members keyed "a", "b", ...
func (c *Converter) MarshalJSON() ([]byte, error) {
	data := converterJSON{
		Components:              c.components,
		IndependentCompositions: len(c.endMembers),
		Origin:                  c.origin,
		EndMembers:              make(map[string][]float64, len(c.endMembers)),
		MolFormula:              c.MolFormula(),
	}
	for i, e := range c.endMembers {
		data.EndMembers[axisName(i)] = e
	}
	return json.Marshal(data)
}

// UnmarshalJSON decodes a converter written by MarshalJSON.
func (c *Converter) UnmarshalJSON(raw []byte) error {
	var data converterJSON
	if err := json.Unmarshal(raw, &data); err != nil {
		return err
	}
	ends := make([][]float64, data.IndependentCompositions)
	for i := range ends {
		e, ok := data.EndMembers[axisName(i)]
		if !ok {
			return fmt.Errorf("missing end member %q", axisName(i))
		}
		ends[i] = e
	}
	conv, err := NewConverter(data.Components, data.Origin, ends)
	if err != nil {
		return err
	}
	*c = *conv
	return nil
}
