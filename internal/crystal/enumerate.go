package crystal

import "fmt"

// SupercellsByVolume returns every supercell of prim whose volume lies in
// [minVol, maxVol], one per Hermite normal form, ordered by volume then name.
// Symmetrically equivalent supercells are all included.
func SupercellsByVolume(prim *Prim, minVol, maxVol int) ([]*Supercell, error) {
	if minVol < 1 || maxVol < minVol {
		return nil, fmt.Errorf("invalid volume range [%d, %d]", minVol, maxVol)
	}
	var out []*Supercell
	for vol := minVol; vol <= maxVol; vol++ {
		for a := 1; a <= vol; a++ {
			if vol%a != 0 {
				continue
			}
			for b := 1; b <= vol/a; b++ {
				if (vol/a)%b != 0 {
					continue
				}
				c := vol / a / b
				for h12 := 0; h12 < b; h12++ {
					for h02 := 0; h02 < a; h02++ {
						for h01 := 0; h01 < a; h01++ {
							h := Matrix3{{a, h01, h02}, {0, b, h12}, {0, 0, c}}
							out = append(out, &Supercell{prim: prim, t: h, name: scelName(h)})
						}
					}
				}
			}
		}
	}
	SortSupercells(out)
	return out, nil
}

// OccupationEnumerator yields every occupation of each supercell in turn.
// Sites with a single allowed occupant stay fixed. EnumIndex reports the
// index of the supercell the last configuration belongs to, so callers can
// report progress per supercell.
type OccupationEnumerator struct {
	scels []*Supercell
	idx   int
	cur   []int
	done  bool
}

// NewOccupationEnumerator returns an enumerator over scels.
func NewOccupationEnumerator(scels []*Supercell) *OccupationEnumerator {
	return &OccupationEnumerator{scels: scels, done: len(scels) == 0}
}

// EnumIndex returns the index of the current supercell.
func (e *OccupationEnumerator) EnumIndex() int { return e.idx }

// Next returns the next configuration, or false once every supercell has
// been exhausted.
func (e *OccupationEnumerator) Next() (*Configuration, bool) {
	for !e.done {
		scel := e.scels[e.idx]
		if e.cur == nil {
			e.cur = make([]int, scel.NumSites())
			return e.emit(scel), true
		}
		if e.increment(scel) {
			return e.emit(scel), true
		}
		if e.idx+1 == len(e.scels) {
			e.done = true
			break
		}
		e.cur = nil
		e.idx++
	}
	return nil, false
}

func (e *OccupationEnumerator) emit(scel *Supercell) *Configuration {
	return &Configuration{Supercell: scel, Occupation: append([]int(nil), e.cur...)}
}

// increment advances the odometer and reports false on wrap-around.
func (e *OccupationEnumerator) increment(scel *Supercell) bool {
	basis := scel.Prim().Basis
	for l := len(e.cur) - 1; l >= 0; l-- {
		n := len(basis[scel.Sublattice(l)].Occupants)
		if e.cur[l]+1 < n {
			e.cur[l]++
			return true
		}
		e.cur[l] = 0
	}
	return false
}
