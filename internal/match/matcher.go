package match

import (
	"github.com/sells-group/roster-cli/internal/model"
)

// Thresholds tunes the two fuzzy tiers. The defaults reproduce the rules
// the reviewers were calibrated on; they are configurable so they can be
// re-validated against a labeled sample.
type Thresholds struct {
	// SimilarMinLength is the minimum rune length of both names in tier 3.
	SimilarMinLength int `yaml:"similar_min_length" mapstructure:"similar_min_length"`
	// SimilarPrefixLength is the number of leading runes that must agree in tier 3.
	SimilarPrefixLength int `yaml:"similar_prefix_length" mapstructure:"similar_prefix_length"`
	// SimilarMinOverlap is the position-overlap count that also satisfies tier 3.
	SimilarMinOverlap int `yaml:"similar_min_overlap" mapstructure:"similar_min_overlap"`
	// LenientMaxLengthDiff bounds the rune length difference in tier 4.
	LenientMaxLengthDiff int `yaml:"lenient_max_length_diff" mapstructure:"lenient_max_length_diff"`
	// LenientMinOverlapRatio is overlap divided by the longer name's length in tier 4.
	LenientMinOverlapRatio float64 `yaml:"lenient_min_overlap_ratio" mapstructure:"lenient_min_overlap_ratio"`
	// FuzzyBirthDateGuard rejects tier 3 and 4 pairs whose comparable
	// birthdates differ, as tier 1 does.
	FuzzyBirthDateGuard bool `yaml:"fuzzy_birth_date_guard" mapstructure:"fuzzy_birth_date_guard"`
}

// DefaultThresholds returns the standard fuzzy-tier settings.
func DefaultThresholds() Thresholds {
	return Thresholds{
		SimilarMinLength:       2,
		SimilarPrefixLength:    2,
		SimilarMinOverlap:      2,
		LenientMaxLengthDiff:   1,
		LenientMinOverlapRatio: 0.5,
		FuzzyBirthDateGuard:    true,
	}
}

// Matcher applies the tier cascade against an Index.
type Matcher struct {
	index *Index
	th    Thresholds
}

// New creates a Matcher over index.
func New(index *Index, th Thresholds) *Matcher {
	return &Matcher{index: index, th: th}
}

// Match resolves one registry-B record against every indexed registry-A
// record. The first tier with at least one candidate wins and the lowest
// position within that tier is selected. It returns -1 and TierNone when no
// tier matches.
func (m *Matcher) Match(b model.RecordB) (int, model.Tier) {
	bk := newKey(b.Name, b.BirthDate)
	if bk.name == "" {
		return -1, model.TierNone
	}
	if i, tier := m.matchByName(bk); tier != model.TierNone {
		return i, tier
	}
	return m.matchFuzzy(bk)
}

// MatchAll resolves every record of bs. Tiers 1 and 2 run through the name
// index for all records; tiers 3 and 4 run only for the residual unmatched
// records, against the full registry-A collection. Every result equals what
// Match returns for the same record. The result is in the order of bs.
func (m *Matcher) MatchAll(bs []model.RecordB) []model.MatchResult {
	results := make([]model.MatchResult, len(bs))
	keys := make([]key, len(bs))
	var residual []int

	for j, b := range bs {
		keys[j] = newKey(b.Name, b.BirthDate)
		results[j] = model.MatchResult{B: j, A: -1, Tier: model.TierNone}
		if keys[j].name == "" {
			continue
		}
		i, tier := m.matchByName(keys[j])
		if tier == model.TierNone {
			residual = append(residual, j)
			continue
		}
		results[j].A, results[j].Tier = i, tier
	}

	for _, j := range residual {
		results[j].A, results[j].Tier = m.matchFuzzy(keys[j])
	}

	return results
}

// matchByName runs tiers 1 and 2.
func (m *Matcher) matchByName(bk key) (int, model.Tier) {
	candidates := m.index.byName[bk.name]
	if len(candidates) == 0 {
		return -1, model.TierNone
	}
	for _, i := range candidates {
		if exactBirthDate(m.index.keys[i], bk) {
			return i, model.TierExact
		}
	}
	return candidates[0], model.TierRelaxedName
}

// matchFuzzy runs tiers 3 and 4.
func (m *Matcher) matchFuzzy(bk key) (int, model.Tier) {
	if i := m.scan(bk, m.similar); i >= 0 {
		return i, model.TierSimilarName
	}
	if i := m.scan(bk, m.lenient); i >= 0 {
		return i, model.TierUltraLenient
	}
	return -1, model.TierNone
}

func (m *Matcher) scan(bk key, pred func(a, b []rune) bool) int {
	for i, ak := range m.index.keys {
		if ak.name == "" {
			continue
		}
		if m.th.FuzzyBirthDateGuard && birthDatesConflict(ak, bk) {
			continue
		}
		if pred(ak.runes, bk.runes) {
			return i
		}
	}
	return -1
}

// exactBirthDate is the tier 1 birthdate rule: both absent, raw equal or
// normalized equal. A pair where both are present and differ is rejected.
func exactBirthDate(a, b key) bool {
	if !a.hasBirth && !b.hasBirth {
		return true
	}
	if a.rawBirth == b.rawBirth {
		return true
	}
	return a.hasBirth && b.hasBirth && a.birth == b.birth
}

func birthDatesConflict(a, b key) bool {
	return a.birthComp && b.birthComp && a.birth != b.birth
}

// similar is the tier 3 predicate.
func (m *Matcher) similar(a, b []rune) bool {
	return Similar(a, b, m.th)
}

// lenient is the tier 4 predicate.
func (m *Matcher) lenient(a, b []rune) bool {
	return Lenient(a, b, m.th)
}

// Similar reports whether two normalized names pass the tier 3 rule: both at
// least SimilarMinLength runes, and either the first SimilarPrefixLength
// runes agree or the position overlap reaches SimilarMinOverlap.
func Similar(a, b []rune, th Thresholds) bool {
	if len(a) < th.SimilarMinLength || len(b) < th.SimilarMinLength {
		return false
	}
	if n := th.SimilarPrefixLength; n > 0 && len(a) >= n && len(b) >= n && string(a[:n]) == string(b[:n]) {
		return true
	}
	return Overlap(a, b) >= th.SimilarMinOverlap
}

// Lenient reports whether two normalized names pass the tier 4 rule: same
// first rune, length difference within LenientMaxLengthDiff, and overlap
// divided by the longer length at least LenientMinOverlapRatio.
func Lenient(a, b []rune, th Thresholds) bool {
	if len(a) == 0 || len(b) == 0 || a[0] != b[0] {
		return false
	}
	diff := len(a) - len(b)
	if diff < 0 {
		diff = -diff
	}
	if diff > th.LenientMaxLengthDiff {
		return false
	}
	longer := max(len(a), len(b))
	return float64(Overlap(a, b))/float64(longer) >= th.LenientMinOverlapRatio
}

// Overlap counts the rune positions at which a and b carry the same rune.
func Overlap(a, b []rune) int {
	n := min(len(a), len(b))
	count := 0
	for i := 0; i < n; i++ {
		if a[i] == b[i] {
			count++
		}
	}
	return count
}
