package composition

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"

	"github.com/papapumpkin/casmproj/internal/crystal"
)

// EndMembers is one choice of composition axes: the origin and end member
// compositions per unit cell.
type EndMembers struct {
	Origin     []float64
	EndMembers [][]float64
}

// AxesGenerator produces the standard composition axes for a set of
// components and allowed occupants.
type AxesGenerator interface {
	StandardAxes(ctx context.Context, components []string, allowed [][]string, tol float64) ([]EndMembers, error)
}

// Axes stores the possible composition axes of a project and which one is
// selected. Enumerated axes are regenerated by Calculate; any other entries
// in PossibleAxes are custom axes and survive recalculation.
type Axes struct {
	Kind         Kind                  `json:"-"`
	Components   []string              `json:"components"`
	AllowedOccs  [][]string            `json:"allowed_occs"`
	Enumerated   []string              `json:"enumerated"`
	PossibleAxes map[string]*Converter `json:"possible_axes"`
	CurrentAxes  *string               `json:"current_axes"`
}

// InitAxes builds axes of the given kind for prim and calculates the
// standard axes with gen. gen may be nil, in which case only the
// components are set.
func InitAxes(ctx context.Context, prim *crystal.Prim, kind Kind, sorted bool, gen AxesGenerator, tol float64) (*Axes, error) {
	a := &Axes{Kind: kind, PossibleAxes: make(map[string]*Converter)}
	if err := a.Calculate(ctx, prim, sorted, gen, tol); err != nil {
		return nil, err
	}
	return a, nil
}

// Calculate replaces the enumerated standard axes and keeps custom ones.
// User-customized component order is kept.
func (a *Axes) Calculate(ctx context.Context, prim *crystal.Prim, sorted bool, gen AxesGenerator, tol float64) error {
	for _, key := range a.Enumerated {
		delete(a.PossibleAxes, key)
	}
	a.Enumerated = nil
	if a.PossibleAxes == nil {
		a.PossibleAxes = make(map[string]*Converter)
	}

	components, allowed := Components(prim, a.Kind, sorted)
	a.AllowedOccs = allowed
	if a.Components == nil {
		a.Components = components
	}
	if gen == nil {
		return nil
	}

	choices, err := gen.StandardAxes(ctx, a.Components, a.AllowedOccs, tol)
	if err != nil {
		return fmt.Errorf("generating standard %s composition axes: %w", a.Kind, err)
	}
	for i, ch := range choices {
		conv, err := NewConverter(a.Components, ch.Origin, ch.EndMembers)
		if err != nil {
			return fmt.Errorf("standard axes %d: %w", i, err)
		}
		key := strconv.Itoa(i)
		if _, custom := a.PossibleAxes[key]; custom {
			key = "std" + key
		}
		a.PossibleAxes[key] = conv
		a.Enumerated = append(a.Enumerated, key)
	}
	if a.CurrentAxes != nil {
		if _, ok := a.PossibleAxes[*a.CurrentAxes]; !ok {
			a.CurrentAxes = nil
		}
	}
	return nil
}

// SetCustom adds or replaces a custom axes choice.
func (a *Axes) SetCustom(key string, origin []float64, endMembers [][]float64) error {
	for _, e := range a.Enumerated {
		if e == key {
			return fmt.Errorf("axes %q is a standard axes and cannot be replaced", key)
		}
	}
	conv, err := NewConverter(a.Components, origin, endMembers)
	if err != nil {
		return err
	}
	if a.PossibleAxes == nil {
		a.PossibleAxes = make(map[string]*Converter)
	}
	a.PossibleAxes[key] = conv
	return nil
}

// SetCurrent selects the axes used for parametric composition.
func (a *Axes) SetCurrent(key string) error {
	if _, ok := a.PossibleAxes[key]; !ok {
		return fmt.Errorf("no composition axes %q; have %v", key, a.Keys())
	}
	a.CurrentAxes = &key
	return nil
}

// Current returns the selected converter, or nil.
func (a *Axes) Current() *Converter {
	if a.CurrentAxes == nil {
		return nil
	}
	return a.PossibleAxes[*a.CurrentAxes]
}

// Keys returns the possible axes keys, sorted.
func (a *Axes) Keys() []string {
	keys := make([]string, 0, len(a.PossibleAxes))
	for k := range a.PossibleAxes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Calculator returns a composition calculator using the selected axes.
func (a *Axes) Calculator() (*Calculator, error) {
	return NewCalculator(a.Components, a.AllowedOccs, a.Current())
}

// DecodeAxes reads axes written with json.Marshal.
func DecodeAxes(raw []byte, kind Kind) (*Axes, error) {
	a := &Axes{Kind: kind}
	if err := json.Unmarshal(raw, a); err != nil {
		return nil, fmt.Errorf("decoding %s composition axes: %w", kind, err)
	}
	if a.PossibleAxes == nil {
		a.PossibleAxes = make(map[string]*Converter)
	}
	return a, nil
}
