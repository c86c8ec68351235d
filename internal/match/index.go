// Package match resolves registry-B records to registry-A records through a
// cascade of four tiers: exact, relaxed name, similar name and ultra lenient.
package match

import (
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/normalize"
)

// key is the precomputed comparable form of one record.
type key struct {
	name      string
	runes     []rune
	birth     string
	rawBirth  string
	hasBirth  bool
	birthComp bool
}

func newKey(name, birthDate string) key {
	n := normalize.Name(name)
	b := normalize.BirthDate(birthDate)
	return key{
		name:      n,
		runes:     []rune(n),
		birth:     b,
		rawBirth:  birthDate,
		hasBirth:  b != "",
		birthComp: normalize.Comparable(b),
	}
}

// Index holds the normalized keys of a sorted registry-A collection and a
// lookup from normalized name to positions. It is built once per run and
// shared by every tier.
type Index struct {
	records []model.RecordA
	keys    []key
	byName  map[string][]int
}

// NewIndex builds an index over records. The caller is responsible for the
// ordering of records; positions in the index follow it and every tier picks
// the lowest matching position.
func NewIndex(records []model.RecordA) *Index {
	ix := &Index{
		records: records,
		keys:    make([]key, len(records)),
		byName:  make(map[string][]int, len(records)),
	}
	for i, r := range records {
		k := newKey(r.Name, r.BirthDate)
		ix.keys[i] = k
		if k.name != "" {
			ix.byName[k.name] = append(ix.byName[k.name], i)
		}
	}
	return ix
}

// Len returns the number of indexed records.
func (ix *Index) Len() int {
	return len(ix.records)
}

// Record returns the record at position i.
func (ix *Index) Record(i int) model.RecordA {
	return ix.records[i]
}

// ByName returns the positions whose normalized name equals name, in order.
func (ix *Index) ByName(name string) []int {
	return ix.byName[normalize.Name(name)]
}
