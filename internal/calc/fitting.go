package calc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/papapumpkin/casmproj/internal/crystal"
	"github.com/papapumpkin/casmproj/internal/jsonio"
)

// ErrMixedValues is returned by MakeFittingData when only some records
// carry a property value.
var ErrMixedValues = errors.New("some records have property values and some do not")

// FittingData holds, per configuration, the quantities used to fit a
// cluster expansion. FormationEnergies is nil for uncalculated data.
type FittingData struct {
	Names                   []string    `json:"names"`
	ParametricCompositions  [][]float64 `json:"parametric_compositions"`
	MolCompositions         [][]float64 `json:"mol_compositions"`
	CorrelationsPerUnitcell [][]float64 `json:"correlations_per_unitcell"`
	FormationEnergies       []float64   `json:"formation_energies"`
}

// Len returns the number of configurations.
func (f *FittingData) Len() int { return len(f.Names) }

type column struct {
	name string
	n    int
}

// Validate checks that every column has one entry per configuration.
func (f *FittingData) Validate() error {
	cols := []column{
		{"parametric_compositions", len(f.ParametricCompositions)},
		{"mol_compositions", len(f.MolCompositions)},
		{"correlations_per_unitcell", len(f.CorrelationsPerUnitcell)},
	}
	if f.FormationEnergies != nil {
		cols = append(cols, column{"formation_energies", len(f.FormationEnergies)})
	}
	for _, c := range cols {
		if c.n != len(f.Names) {
			return fmt.Errorf("fitting data has %d names but %d %s", len(f.Names), c.n, c.name)
		}
	}
	return nil
}

// DecodeFittingData parses and validates fitting data.
func DecodeFittingData(raw []byte) (*FittingData, error) {
	var f FittingData
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decoding fitting data: %w", err)
	}
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

// ReadFittingData reads fitting data from path.
func ReadFittingData(path string) (*FittingData, error) {
	var raw json.RawMessage
	if err := jsonio.ReadRequired(path, &raw); err != nil {
		return nil, err
	}
	return DecodeFittingData(raw)
}

// Composer computes the compositions of a configuration.
type Composer interface {
	PerUnitcell(config *crystal.Configuration, sublattice int) ([]float64, error)
	ParamComposition(config *crystal.Configuration) ([]float64, error)
}

// Correlator computes correlations per unit cell for configurations.
type Correlator interface {
	PerUnitcell(ctx context.Context, configs []*crystal.Configuration) ([][]float64, error)
}

// MakeFittingData evaluates compositions and correlations for records.
// Records without a name are named "config.<i>". Formation energies are
// filled when every record carries a value and left nil when none does.
func MakeFittingData(ctx context.Context, records []Record, comp Composer, corr Correlator) (*FittingData, error) {
	f := &FittingData{
		Names:                  make([]string, len(records)),
		ParametricCompositions: make([][]float64, len(records)),
		MolCompositions:        make([][]float64, len(records)),
	}
	configs := make([]*crystal.Configuration, len(records))
	withValue := 0
	for i, r := range records {
		f.Names[i] = r.Name
		if f.Names[i] == "" {
			f.Names[i] = fmt.Sprintf("config.%d", i)
		}
		configs[i] = r.Configuration
		mol, err := comp.PerUnitcell(r.Configuration, -1)
		if err != nil {
			return nil, fmt.Errorf("composition of %s: %w", f.Names[i], err)
		}
		param, err := comp.ParamComposition(r.Configuration)
		if err != nil {
			return nil, fmt.Errorf("parametric composition of %s: %w", f.Names[i], err)
		}
		f.MolCompositions[i] = mol
		f.ParametricCompositions[i] = param
		if r.Value != nil {
			withValue++
		}
	}
	switch withValue {
	case 0:
	case len(records):
		f.FormationEnergies = make([]float64, len(records))
		for i, r := range records {
			f.FormationEnergies[i] = *r.Value
		}
	default:
		return nil, ErrMixedValues
	}
	corrs, err := corr.PerUnitcell(ctx, configs)
	if err != nil {
		return nil, err
	}
	f.CorrelationsPerUnitcell = corrs
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return f, nil
}
