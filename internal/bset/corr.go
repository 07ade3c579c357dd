package bset

import (
	"context"
	"fmt"

	"github.com/papapumpkin/casmproj/internal/crystal"
	"github.com/papapumpkin/casmproj/internal/engine"
)

// CorrCalculator evaluates correlations of configurations with the
// Clexulator of one basis set.
type CorrCalculator struct {
	data *Data
	req  engine.BasisRequest
	eng  Engine
}

// NewCorrCalculator prepares a calculator for d. The basis set must have
// specifications and the project a neighbor list.
func NewCorrCalculator(d *Data) (*CorrCalculator, error) {
	req, err := d.request("bset.correlations")
	if err != nil {
		return nil, err
	}
	eng, err := d.requireEngine("bset.correlations")
	if err != nil {
		return nil, err
	}
	return &CorrCalculator{data: d, req: req, eng: eng}, nil
}

// Bset returns the id of the basis set.
func (c *CorrCalculator) Bset() string { return c.data.ID() }

// PerUnitcell returns the correlations normalized per primitive cell,
// one row per configuration.
func (c *CorrCalculator) PerUnitcell(ctx context.Context, configs []*crystal.Configuration) ([][]float64, error) {
	if len(configs) == 0 {
		return [][]float64{}, nil
	}
	rows, err := c.eng.Correlations(ctx, c.req, configs)
	if err != nil {
		return nil, err
	}
	if len(rows) != len(configs) {
		return nil, fmt.Errorf("engine returned %d correlation rows for %d configurations", len(rows), len(configs))
	}
	return rows, nil
}

// PerSupercell returns the correlations summed over each supercell, the
// per-unitcell values scaled by the supercell volume.
func (c *CorrCalculator) PerSupercell(ctx context.Context, configs []*crystal.Configuration) ([][]float64, error) {
	rows, err := c.PerUnitcell(ctx, configs)
	if err != nil {
		return nil, err
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		vol := float64(configs[i].Supercell.Volume())
		scaled := make([]float64, len(row))
		for j, v := range row {
			scaled[j] = v * vol
		}
		out[i] = scaled
	}
	return out, nil
}
