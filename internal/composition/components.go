// Package composition computes configuration compositions and manages the
// parametric composition axes stored with a project.
package composition

import (
	"slices"
	"sort"

	"github.com/papapumpkin/casmproj/internal/crystal"
)

// Kind selects how occupants map to components.
type Kind string

// Component kinds. Chemical components merge occupants that share a chemical
// name; occupant components keep every occupant label distinct.
const (
	Chemical Kind = "chemical"
	Occupant Kind = "occupant"
)

// vacancyNames are component names counted as zero by SpeciesFrac.
var vacancyNames = []string{"Va", "va", "VA"}

// IsVacancy reports whether a component name denotes a vacancy.
func IsVacancy(name string) bool { return slices.Contains(vacancyNames, name) }

// Components returns the components of prim and, for each sublattice, the
// component of each allowed occupant. Components are listed in order of
// first appearance unless sorted is set.
func Components(prim *crystal.Prim, kind Kind, sorted bool) ([]string, [][]string) {
	var components []string
	allowed := make([][]string, len(prim.Basis))
	for b, site := range prim.Basis {
		for _, label := range site.Occupants {
			name := label
			if kind == Chemical {
				name = prim.ChemicalName(label)
			}
			if !slices.Contains(components, name) {
				components = append(components, name)
			}
			allowed[b] = append(allowed[b], name)
		}
	}
	if sorted {
		sort.Strings(components)
	}
	return components, allowed
}

// IndependentCompositions returns the number of independent composition
// parameters: for each group of sublattices connected by shared
// components, the number of components in the group minus one.
func IndependentCompositions(components []string, allowed [][]string) int {
	parent := make(map[string]string, len(components))
	var find func(string) string
	find = func(x string) string {
		for parent[x] != x {
			parent[x] = parent[parent[x]]
			x = parent[x]
		}
		return x
	}
	for _, c := range components {
		parent[c] = c
	}
	for _, occs := range allowed {
		for _, o := range occs[1:] {
			if _, ok := parent[o]; !ok {
				parent[o] = o
			}
			if _, ok := parent[occs[0]]; !ok {
				parent[occs[0]] = occs[0]
			}
			parent[find(o)] = find(occs[0])
		}
	}
	groups := make(map[string]int)
	for c := range parent {
		groups[find(c)]++
	}
	k := 0
	for _, n := range groups {
		k += n - 1
	}
	return k
}
