package composition

import (
	"errors"
	"fmt"
	"slices"

	"github.com/papapumpkin/casmproj/internal/crystal"
)

// ErrNoAxes indicates a parametric composition was requested without
// selected composition axes.
var ErrNoAxes = errors.New("no composition axes selected")

// Calculator computes the composition of configurations. Components fix the
// order of entries in every composition vector.
type Calculator struct {
	components []string
	allowed    [][]string
	index      [][]int // [sublattice][occupant] -> component index
	converter  *Converter
}

// NewCalculator returns a calculator for the given component order and
// per-sublattice occupant components. converter may be nil.
func NewCalculator(components []string, allowed [][]string, converter *Converter) (*Calculator, error) {
	index := make([][]int, len(allowed))
	for b, occs := range allowed {
		index[b] = make([]int, len(occs))
		for v, name := range occs {
			i := slices.Index(components, name)
			if i < 0 {
				return nil, fmt.Errorf("sublattice %d occupant %q is not a component", b, name)
			}
			index[b][v] = i
		}
	}
	if converter != nil && !slices.Equal(converter.Components(), components) {
		return nil, fmt.Errorf("composition axes components %v do not match calculator components %v",
			converter.Components(), components)
	}
	return &Calculator{components: components, allowed: allowed, index: index, converter: converter}, nil
}

// Components returns the component order.
func (c *Calculator) Components() []string { return c.components }

// NumComponents returns the number of components.
func (c *Calculator) NumComponents() int { return len(c.components) }

// AllowedOccs returns the component of each allowed occupant per sublattice.
func (c *Calculator) AllowedOccs() [][]string { return c.allowed }

// Converter returns the parametric composition converter, or nil.
func (c *Calculator) Converter() *Converter { return c.converter }

func (c *Calculator) check(config *crystal.Configuration) error {
	if got := config.Supercell.Prim().NumSublattices(); got != len(c.index) {
		return fmt.Errorf("configuration has %d sublattices, calculator expects %d", got, len(c.index))
	}
	return nil
}

// PerSupercell returns the number of each component in the configuration.
// A sublattice >= 0 restricts the count to that sublattice.
func (c *Calculator) PerSupercell(config *crystal.Configuration, sublattice int) ([]float64, error) {
	if err := c.check(config); err != nil {
		return nil, err
	}
	if sublattice >= len(c.index) {
		return nil, fmt.Errorf("sublattice %d out of range", sublattice)
	}
	n := make([]float64, len(c.components))
	for l, v := range config.Occupation {
		b := config.Supercell.Sublattice(l)
		if sublattice >= 0 && b != sublattice {
			continue
		}
		n[c.index[b][v]]++
	}
	return n, nil
}

// PerUnitcell returns the mean number of each component per primitive cell.
func (c *Calculator) PerUnitcell(config *crystal.Configuration, sublattice int) ([]float64, error) {
	n, err := c.PerSupercell(config, sublattice)
	if err != nil {
		return nil, err
	}
	vol := float64(config.Supercell.Volume())
	for i := range n {
		n[i] /= vol
	}
	return n, nil
}

// SpeciesFrac returns the fraction of each component among non-vacancy
// components. Vacancy components are reported as 0.
func (c *Calculator) SpeciesFrac(config *crystal.Configuration, sublattice int) ([]float64, error) {
	n, err := c.PerUnitcell(config, sublattice)
	if err != nil {
		return nil, err
	}
	total := 0.0
	for i, name := range c.components {
		if IsVacancy(name) {
			n[i] = 0
			continue
		}
		total += n[i]
	}
	if total == 0 {
		return n, nil
	}
	for i := range n {
		n[i] /= total
	}
	return n, nil
}

// ParamComposition returns the parametric composition of the configuration
// in the selected composition axes.
func (c *Calculator) ParamComposition(config *crystal.Configuration) ([]float64, error) {
	if c.converter == nil {
		return nil, ErrNoAxes
	}
	n, err := c.PerUnitcell(config, -1)
	if err != nil {
		return nil, err
	}
	return c.converter.ParamComposition(n)
}
