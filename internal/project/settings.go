package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/papapumpkin/casmproj/internal/crystal"
	"github.com/papapumpkin/casmproj/internal/errkind"
)

// Default tolerances.
const (
	DefaultCrystallographyTol = 1e-5
	DefaultLinAlgTol          = 1e-10
	DefaultClexName           = "formation_energy"
)

// ClexDescription names the pieces that make up one cluster expansion.
type ClexDescription struct {
	Name     string `json:"name" validate:"required,casmname"`
	Property string `json:"property" validate:"required,casmname"`
	Calctype string `json:"calctype" validate:"required,casmid"`
	Ref      string `json:"ref" validate:"required,casmid"`
	Bset     string `json:"bset" validate:"required,casmid"`
	ECI      string `json:"eci" validate:"required,casmid"`
}

// Settings is the content of project_settings.json.
type Settings struct {
	ClusterExpansions  map[string]ClexDescription     `json:"cluster_expansions" validate:"dive"`
	CrystallographyTol float64                        `json:"crystallography_tol" validate:"gt=0"`
	DefaultClexName    string                         `json:"default_clex,omitempty"`
	LinAlgTol          float64                        `json:"lin_alg_tol" validate:"gt=0"`
	Name               string                         `json:"name" validate:"required,casmname"`
	NlistSublatIndices []int                          `json:"nlist_sublat_indices"`
	NlistWeightMatrix  [][]int                        `json:"nlist_weight_matrix"`
	QueryAlias         map[string]map[string]string   `json:"query_alias"`
	RequiredProperties map[string]map[string][]string `json:"required_properties"`
	ViewCommand        string                         `json:"view_command"`
}

// DefaultSettings returns settings for a new project. An empty name falls
// back to the prim title. weightMatrix may be nil when no engine is
// available to compute it.
func DefaultSettings(prim *crystal.Prim, name string, weightMatrix [][]int) (*Settings, error) {
	if name == "" {
		name = prim.Title
	}
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	s := &Settings{
		ClusterExpansions: map[string]ClexDescription{
			DefaultClexName: {
				Name:     DefaultClexName,
				Property: DefaultClexName,
				Calctype: "default",
				Ref:      "default",
				Bset:     "default",
				ECI:      "default",
			},
		},
		CrystallographyTol: DefaultCrystallographyTol,
		DefaultClexName:    DefaultClexName,
		LinAlgTol:          DefaultLinAlgTol,
		Name:               name,
		NlistSublatIndices: prim.VariableSublattices(),
		NlistWeightMatrix:  weightMatrix,
		QueryAlias:         map[string]map[string]string{},
		RequiredProperties: map[string]map[string][]string{"Configuration": {"default": {"energy"}}},
	}
	if s.NlistSublatIndices == nil {
		s.NlistSublatIndices = []int{}
	}
	return s, nil
}

// DecodeSettings parses project_settings.json, filling absent tolerances
// with their defaults and resolving the default cluster expansion.
func DecodeSettings(raw []byte) (*Settings, error) {
	s := &Settings{CrystallographyTol: DefaultCrystallographyTol, LinAlgTol: DefaultLinAlgTol}
	if err := json.Unmarshal(raw, s); err != nil {
		return nil, err
	}
	if s.ClusterExpansions == nil {
		s.ClusterExpansions = map[string]ClexDescription{}
	}
	s.DefaultClexName = s.resolveDefaultClexName()
	return s, nil
}

// Validate checks names, ids and tolerances.
func (s *Settings) Validate() error {
	if err := newValidator().Struct(s); err != nil {
		return errkind.New(errkind.InvalidID, "project.settings", "", describeValidation(err))
	}
	if s.DefaultClexName != "" {
		if _, ok := s.ClusterExpansions[s.DefaultClexName]; !ok {
			return fmt.Errorf("default_clex %q is not a named cluster expansion", s.DefaultClexName)
		}
	}
	return nil
}

func (s *Settings) resolveDefaultClexName() string {
	if s.DefaultClexName != "" {
		return s.DefaultClexName
	}
	if _, ok := s.ClusterExpansions[DefaultClexName]; ok {
		return DefaultClexName
	}
	names := make([]string, 0, len(s.ClusterExpansions))
	for k := range s.ClusterExpansions {
		names = append(names, k)
	}
	sort.Strings(names)
	if len(names) > 0 {
		return names[0]
	}
	return ""
}

// DefaultClex returns the cluster expansion used when none is named.
func (s *Settings) DefaultClex() (ClexDescription, bool) {
	name := s.resolveDefaultClexName()
	if name == "" {
		return ClexDescription{}, false
	}
	clex, ok := s.ClusterExpansions[name]
	return clex, ok
}

// ErrNoNeighborList is wrapped by NeighborList when the settings do not
// define a neighbor list weight matrix.
var ErrNoNeighborList = errors.New("project prim neighbor list is not set")

// NeighborList describes how the prim neighbor list is ordered and which
// sublattices it includes.
type NeighborList struct {
	WeightMatrix  [][]int `json:"weight_matrix"`
	SublatIndices []int   `json:"sublattice_indices"`
}

// NeighborList returns the prim neighbor list parameters.
func (s *Settings) NeighborList() (*NeighborList, error) {
	if len(s.NlistWeightMatrix) != 3 {
		return nil, errkind.New(errkind.MissingPrimNeighborList, "project.neighbor_list", "", ErrNoNeighborList)
	}
	for _, row := range s.NlistWeightMatrix {
		if len(row) != 3 {
			return nil, errkind.New(errkind.MissingPrimNeighborList, "project.neighbor_list", "",
				fmt.Errorf("%w: weight matrix must be 3x3", ErrNoNeighborList))
		}
	}
	return &NeighborList{WeightMatrix: s.NlistWeightMatrix, SublatIndices: s.NlistSublatIndices}, nil
}
