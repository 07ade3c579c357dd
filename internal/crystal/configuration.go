package crystal

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

// Configuration assigns an occupant index to every site of a supercell.
// Supercell is a back-reference to a handle owned by a SupercellSet.
type Configuration struct {
	Supercell  *Supercell
	Occupation []int
}

// NewConfiguration returns the configuration of scel with every site at
// occupant index 0.
func NewConfiguration(scel *Supercell) *Configuration {
	return &Configuration{Supercell: scel, Occupation: make([]int, scel.NumSites())}
}

// Validate checks the occupation length and that each value indexes an
// allowed occupant of its sublattice.
func (c *Configuration) Validate() error {
	if len(c.Occupation) != c.Supercell.NumSites() {
		return fmt.Errorf("configuration in %s: occupation has %d values, want %d",
			c.Supercell.Name(), len(c.Occupation), c.Supercell.NumSites())
	}
	basis := c.Supercell.Prim().Basis
	for l, v := range c.Occupation {
		b := c.Supercell.Sublattice(l)
		if v < 0 || v >= len(basis[b].Occupants) {
			return fmt.Errorf("configuration in %s: site %d occupant index %d out of range",
				c.Supercell.Name(), l, v)
		}
	}
	return nil
}

// Equal reports value equality: same supercell lattice and occupation.
func (c *Configuration) Equal(other *Configuration) bool {
	return c.Supercell.Equal(other.Supercell) && slices.Equal(c.Occupation, other.Occupation)
}

// Copy returns a configuration sharing the supercell handle but owning its
// occupation.
func (c *Configuration) Copy() *Configuration {
	return &Configuration{Supercell: c.Supercell, Occupation: slices.Clone(c.Occupation)}
}

// Key returns a string that is equal for value-equal configurations.
func (c *Configuration) Key() string {
	var b strings.Builder
	b.WriteString(c.Supercell.Name())
	b.WriteByte(':')
	for i, v := range c.Occupation {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(v))
	}
	return b.String()
}

// OccupantCounts returns, per sublattice, the number of sites holding each
// occupant index.
func (c *Configuration) OccupantCounts() [][]int {
	basis := c.Supercell.Prim().Basis
	counts := make([][]int, len(basis))
	for b := range basis {
		counts[b] = make([]int, len(basis[b].Occupants))
	}
	for l, v := range c.Occupation {
		counts[c.Supercell.Sublattice(l)][v]++
	}
	return counts
}

type dofData struct {
	Occ []int `json:"occ"`
}

type configData struct {
	Dof dofData `json:"dof"`
}

type configListEntry struct {
	SupercellName string  `json:"supercell_name"`
	Dof           dofData `json:"dof"`
}

// ConfigurationListToData encodes an ordered configuration list.
func ConfigurationListToData(list []*Configuration) ([]byte, error) {
	entries := make([]configListEntry, len(list))
	for i, c := range list {
		entries[i] = configListEntry{SupercellName: c.Supercell.Name(), Dof: dofData{Occ: c.Occupation}}
	}
	return json.Marshal(entries)
}

// ConfigurationListFromData decodes an ordered configuration list, resolving
// supercells through supercells.
func ConfigurationListFromData(raw []byte, supercells *SupercellSet) ([]*Configuration, error) {
	var entries []configListEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("decoding configuration list: %w", err)
	}
	out := make([]*Configuration, len(entries))
	for i, e := range entries {
		scel, err := supercells.AddByName(e.SupercellName)
		if err != nil {
			return nil, fmt.Errorf("configuration list entry %d: %w", i, err)
		}
		c := &Configuration{Supercell: scel, Occupation: e.Dof.Occ}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("configuration list entry %d: %w", i, err)
		}
		out[i] = c
	}
	return out, nil
}

// ContainsConfiguration reports whether list holds a configuration equal
// to c.
func ContainsConfiguration(list []*Configuration, c *Configuration) bool {
	for _, x := range list {
		if x.Equal(c) {
			return true
		}
	}
	return false
}

// ConfigurationRecord is a configuration held by a ConfigurationSet, with
// its stable id.
type ConfigurationRecord struct {
	ID            string
	Configuration *Configuration
}

// Name returns "<supercell name>/<id>".
func (r *ConfigurationRecord) Name() string {
	return r.Configuration.Supercell.Name() + "/" + r.ID
}

type scelConfigs struct {
	records []*ConfigurationRecord
	next    int
}

// ConfigurationSet is a deduplicated collection of configurations. Ids are
// assigned per supercell in insertion order and never reused.
type ConfigurationSet struct {
	byKey  map[string]*ConfigurationRecord
	byScel map[string]*scelConfigs
}

// NewConfigurationSet returns an empty set.
func NewConfigurationSet() *ConfigurationSet {
	return &ConfigurationSet{
		byKey:  make(map[string]*ConfigurationRecord),
		byScel: make(map[string]*scelConfigs),
	}
}

// Add inserts a copy of c unless a value-equal configuration is present. It
// returns the record held by the set and whether it was inserted.
func (s *ConfigurationSet) Add(c *Configuration) (*ConfigurationRecord, bool) {
	key := c.Key()
	if rec, ok := s.byKey[key]; ok {
		return rec, false
	}
	sc := s.scel(c.Supercell.Name())
	rec := &ConfigurationRecord{ID: strconv.Itoa(sc.next), Configuration: c.Copy()}
	sc.next++
	s.insert(key, sc, rec)
	return rec, true
}

func (s *ConfigurationSet) scel(name string) *scelConfigs {
	sc, ok := s.byScel[name]
	if !ok {
		sc = &scelConfigs{}
		s.byScel[name] = sc
	}
	return sc
}

func (s *ConfigurationSet) insert(key string, sc *scelConfigs, rec *ConfigurationRecord) {
	s.byKey[key] = rec
	sc.records = append(sc.records, rec)
}

// Contains reports whether a configuration equal to c is present.
func (s *ConfigurationSet) Contains(c *Configuration) bool {
	_, ok := s.byKey[c.Key()]
	return ok
}

// Get returns the record named "<supercell name>/<id>".
func (s *ConfigurationSet) Get(name string) (*ConfigurationRecord, bool) {
	scelname, id, ok := strings.Cut(name, "/")
	if !ok {
		return nil, false
	}
	sc, ok := s.byScel[scelname]
	if !ok {
		return nil, false
	}
	for _, rec := range sc.records {
		if rec.ID == id {
			return rec, true
		}
	}
	return nil, false
}

// Len returns the number of configurations.
func (s *ConfigurationSet) Len() int { return len(s.byKey) }

// All returns records ordered by supercell (volume, then name) and then by
// insertion order within each supercell.
func (s *ConfigurationSet) All() []*ConfigurationRecord {
	scels := make([]*Supercell, 0, len(s.byScel))
	for _, sc := range s.byScel {
		if len(sc.records) > 0 {
			scels = append(scels, sc.records[0].Configuration.Supercell)
		}
	}
	SortSupercells(scels)
	out := make([]*ConfigurationRecord, 0, len(s.byKey))
	for _, scel := range scels {
		out = append(out, s.byScel[scel.Name()].records...)
	}
	return out
}

type configSetData struct {
	Version    string                           `json:"version"`
	Supercells map[string]map[string]configData `json:"supercells"`
}

// MarshalJSON encodes the set keyed by supercell name, then id.
func (s *ConfigurationSet) MarshalJSON() ([]byte, error) {
	data := configSetData{Version: setVersion, Supercells: make(map[string]map[string]configData)}
	for name, sc := range s.byScel {
		if len(sc.records) == 0 {
			continue
		}
		m := make(map[string]configData, len(sc.records))
		for _, rec := range sc.records {
			m[rec.ID] = configData{Dof: dofData{Occ: rec.Configuration.Occupation}}
		}
		data.Supercells[name] = m
	}
	return json.Marshal(data)
}

// DecodeConfigurationSet reads a set written by MarshalJSON. Supercells are
// resolved through supercells, adding any that are missing.
func DecodeConfigurationSet(raw []byte, supercells *SupercellSet) (*ConfigurationSet, error) {
	var data configSetData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decoding configuration set: %w", err)
	}
	set := NewConfigurationSet()
	names := make([]string, 0, len(data.Supercells))
	for name := range data.Supercells {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		scel, err := supercells.AddByName(name)
		if err != nil {
			return nil, err
		}
		configs := data.Supercells[name]
		ids := make([]string, 0, len(configs))
		for id := range configs {
			ids = append(ids, id)
		}
		sortIDs(ids)
		sc := set.scel(name)
		for _, id := range ids {
			c := &Configuration{Supercell: scel, Occupation: configs[id].Dof.Occ}
			if err := c.Validate(); err != nil {
				return nil, fmt.Errorf("configuration %s/%s: %w", name, id, err)
			}
			key := c.Key()
			if _, dup := set.byKey[key]; dup {
				return nil, fmt.Errorf("configuration %s/%s duplicates an earlier entry", name, id)
			}
			set.insert(key, sc, &ConfigurationRecord{ID: id, Configuration: c})
			if n, err := strconv.Atoi(id); err == nil && n >= sc.next {
				sc.next = n + 1
			}
		}
	}
	return set, nil
}

// sortIDs orders numeric ids numerically and places any others after them
// in lexical order.
func sortIDs(ids []string) {
	sort.Slice(ids, func(i, j int) bool {
		a, errA := strconv.Atoi(ids[i])
		b, errB := strconv.Atoi(ids[j])
		switch {
		case errA == nil && errB == nil:
			return a < b
		case errA == nil:
			return true
		case errB == nil:
			return false
		}
		return ids[i] < ids[j]
	})
}
