package crystal

import (
	"encoding/json"
	"fmt"
	"sort"
)

const setVersion = "1.0"

// SupercellSet is a deduplicated collection of supercells of one prim.
// Configurations reference the *Supercell handles it returns.
type SupercellSet struct {
	prim   *Prim
	byName map[string]*Supercell
}

// NewSupercellSet returns an empty set bound to prim.
func NewSupercellSet(prim *Prim) *SupercellSet {
	return &SupercellSet{prim: prim, byName: make(map[string]*Supercell)}
}

// Prim returns the primitive structure the set is bound to.
func (s *SupercellSet) Prim() *Prim { return s.prim }

// Add inserts scel unless a value-equal supercell is present, and returns
// the handle held by the set.
func (s *SupercellSet) Add(scel *Supercell) *Supercell {
	if existing, ok := s.byName[scel.Name()]; ok {
		return existing
	}
	if scel.prim != s.prim {
		scel = &Supercell{prim: s.prim, t: scel.t, name: scel.name}
	}
	s.byName[scel.Name()] = scel
	return scel
}

// AddByName resolves a canonical supercell name, inserting it if needed.
func (s *SupercellSet) AddByName(name string) (*Supercell, error) {
	if existing, ok := s.byName[name]; ok {
		return existing, nil
	}
	scel, err := SupercellFromName(s.prim, name)
	if err != nil {
		return nil, err
	}
	return s.Add(scel), nil
}

// Get returns the supercell with the given name.
func (s *SupercellSet) Get(name string) (*Supercell, bool) {
	scel, ok := s.byName[name]
	return scel, ok
}

// Len returns the number of supercells.
func (s *SupercellSet) Len() int { return len(s.byName) }

// All returns the supercells sorted by volume, then name.
func (s *SupercellSet) All() []*Supercell {
	out := make([]*Supercell, 0, len(s.byName))
	for _, scel := range s.byName {
		out = append(out, scel)
	}
	SortSupercells(out)
	return out
}

// SortSupercells orders supercells by volume, then name.
func SortSupercells(scels []*Supercell) {
	sort.Slice(scels, func(i, j int) bool {
		if vi, vj := scels[i].Volume(), scels[j].Volume(); vi != vj {
			return vi < vj
		}
		return scels[i].Name() < scels[j].Name()
	})
}

type supercellData struct {
	TransformationMatrix Matrix3 `json:"transformation_matrix_to_super"`
}

type supercellSetData struct {
	Version    string                   `json:"version"`
	Supercells map[string]supercellData `json:"supercells"`
}

// MarshalJSON encodes the set keyed by supercell name.
func (s *SupercellSet) MarshalJSON() ([]byte, error) {
	data := supercellSetData{Version: setVersion, Supercells: make(map[string]supercellData, len(s.byName))}
	for name, scel := range s.byName {
		data.Supercells[name] = supercellData{TransformationMatrix: scel.t}
	}
	return json.Marshal(data)
}

// DecodeSupercellSet reads a set written by MarshalJSON.
func DecodeSupercellSet(raw []byte, prim *Prim) (*SupercellSet, error) {
	var data supercellSetData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decoding supercell set: %w", err)
	}
	set := NewSupercellSet(prim)
	for name, d := range data.Supercells {
		scel, err := NewSupercell(prim, d.TransformationMatrix)
		if err != nil {
			return nil, fmt.Errorf("supercell %s: %w", name, err)
		}
		set.Add(scel)
	}
	return set, nil
}

type supercellListEntry struct {
	Name                 string  `json:"supercell_name"`
	TransformationMatrix Matrix3 `json:"transformation_matrix_to_super"`
}

// SupercellListToData encodes an ordered supercell list.
func SupercellListToData(list []*Supercell) ([]byte, error) {
	entries := make([]supercellListEntry, len(list))
	for i, scel := range list {
		entries[i] = supercellListEntry{Name: scel.Name(), TransformationMatrix: scel.t}
	}
	return json.Marshal(entries)
}

// SupercellListFromData decodes an ordered supercell list. Every entry is
// resolved through set, so list entries share handles with the set.
func SupercellListFromData(raw []byte, set *SupercellSet) ([]*Supercell, error) {
	var entries []supercellListEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding supercell list: %w", err)
	}
	out := make([]*Supercell, len(entries))
	for i, e := range entries {
		scel, err := NewSupercell(set.Prim(), e.TransformationMatrix)
		if err != nil {
			return nil, fmt.Errorf("supercell list entry %d: %w", i, err)
		}
		out[i] = set.Add(scel)
	}
	return out, nil
}

// ContainsSupercell reports whether list holds a supercell equal to scel.
func ContainsSupercell(list []*Supercell, scel *Supercell) bool {
	for _, s := range list {
		if s.Equal(scel) {
			return true
		}
	}
	return false
}
