package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roster-cli/internal/model"
)

func newMatcher(records ...model.RecordA) *Matcher {
	return New(NewIndex(records), DefaultThresholds())
}

func TestMatch_ExactTierViaDateNormalization(t *testing.T) {
	m := newMatcher(model.RecordA{Name: "Lee", BirthDate: "900101", IsActive: true})

	i, tier := m.Match(model.RecordB{Name: "Lee", BirthDate: "19900101"})
	assert.Equal(t, 0, i)
	assert.Equal(t, model.TierExact, tier)
}

func TestMatch_ExactTierBothBirthDatesAbsent(t *testing.T) {
	m := newMatcher(model.RecordA{Name: "Kim"})

	i, tier := m.Match(model.RecordB{Name: " kim "})
	assert.Equal(t, 0, i)
	assert.Equal(t, model.TierExact, tier)
}

func TestMatch_ExactTierRawEqual(t *testing.T) {
	m := newMatcher(model.RecordA{Name: "Kim", BirthDate: "unknown"})

	_, tier := m.Match(model.RecordB{Name: "Kim", BirthDate: "unknown"})
	assert.Equal(t, model.TierExact, tier)
}

func TestMatch_ExactTierRejectsDifferentBirthDates(t *testing.T) {
	m := newMatcher(
		model.RecordA{Name: "Kim", BirthDate: "19800101"},
		model.RecordA{Name: "Kim", BirthDate: "19900101"},
	)

	i, tier := m.Match(model.RecordB{Name: "Kim", BirthDate: "900101"})
	assert.Equal(t, 1, i, "tier 1 must skip the namesake with a different birthdate")
	assert.Equal(t, model.TierExact, tier)
}

func TestMatch_RelaxedNameTier(t *testing.T) {
	m := newMatcher(
		model.RecordA{Name: "Kim", BirthDate: "19800101"},
		model.RecordA{Name: "Kim", BirthDate: "19810101"},
	)

	i, tier := m.Match(model.RecordB{Name: "Kim", BirthDate: "19900101"})
	assert.Equal(t, 0, i, "first candidate in sorted order wins")
	assert.Equal(t, model.TierRelaxedName, tier)
}

func TestMatch_RelaxedNameTierOneSideMissingBirthDate(t *testing.T) {
	m := newMatcher(model.RecordA{Name: "Kim", BirthDate: "19800101"})

	_, tier := m.Match(model.RecordB{Name: "Kim"})
	assert.Equal(t, model.TierRelaxedName, tier)
}

func TestMatch_SimilarNameTier(t *testing.T) {
	m := newMatcher(model.RecordA{Name: "Kim Minsu", BirthDate: "19900101"})

	i, tier := m.Match(model.RecordB{Name: "Kim Minsoo", BirthDate: "19900101"})
	assert.Equal(t, 0, i)
	assert.Equal(t, model.TierSimilarName, tier)
}

func TestMatch_UltraLenientTier(t *testing.T) {
	m := newMatcher(model.RecordA{Name: "ab"})

	i, tier := m.Match(model.RecordB{Name: "ac"})
	assert.Equal(t, 0, i)
	assert.Equal(t, model.TierUltraLenient, tier)
}

func TestMatch_FuzzyBirthDateGuard(t *testing.T) {
	m := newMatcher(model.RecordA{Name: "Choi", BirthDate: "19950512"})

	i, tier := m.Match(model.RecordB{Name: "Chio", BirthDate: "19950505"})
	assert.Equal(t, -1, i)
	assert.Equal(t, model.TierNone, tier)

	th := DefaultThresholds()
	th.FuzzyBirthDateGuard = false
	loose := New(m.index, th)
	i, tier = loose.Match(model.RecordB{Name: "Chio", BirthDate: "19950505"})
	assert.Equal(t, 0, i)
	assert.Equal(t, model.TierSimilarName, tier)
}

func TestMatch_NoCandidate(t *testing.T) {
	m := newMatcher(model.RecordA{Name: "Park"})

	i, tier := m.Match(model.RecordB{Name: "Jung"})
	assert.Equal(t, -1, i)
	assert.Equal(t, model.TierNone, tier)
}

func TestMatch_EmptyName(t *testing.T) {
	m := newMatcher(model.RecordA{Name: "Park"})

	_, tier := m.Match(model.RecordB{Name: "  "})
	assert.Equal(t, model.TierNone, tier)
}

func TestMatchAll_FuzzyTiersMayShareRecord(t *testing.T) {
	m := newMatcher(model.RecordA{Name: "Choi", BirthDate: "19950512", IsActive: true})

	results := m.MatchAll([]model.RecordB{
		{Name: "Choi", BirthDate: "19950512"},
		{Name: "Chot", BirthDate: "19950512"},
	})
	require.Len(t, results, 2)

	assert.Equal(t, model.MatchResult{B: 0, A: 0, Tier: model.TierExact}, results[0])
	assert.Equal(t, model.MatchResult{B: 1, A: 0, Tier: model.TierSimilarName}, results[1])
}

func TestMatchAll_AgreesWithMatch(t *testing.T) {
	m := newMatcher(
		model.RecordA{Name: "leeab"},
		model.RecordA{Name: "Park", BirthDate: "19800101"},
		model.RecordA{Name: "Jo"},
	)
	bs := []model.RecordB{
		{Name: "leeab"}, {Name: "leeac"}, {Name: "Park", BirthDate: "19800102"},
		{Name: "Parx"}, {Name: "J"}, {Name: "Yoon"}, {Name: ""},
	}

	results := m.MatchAll(bs)
	require.Len(t, results, len(bs))
	for j, b := range bs {
		i, tier := m.Match(b)
		assert.Equal(t, model.MatchResult{B: j, A: i, Tier: tier}, results[j], "record %d (%q)", j, b.Name)
	}
}

func TestMatchAll_ExactTiersMayShareRecord(t *testing.T) {
	m := newMatcher(model.RecordA{Name: "Han"})

	results := m.MatchAll([]model.RecordB{{Name: "Han"}, {Name: "han"}})
	assert.True(t, results[0].Matched())
	assert.True(t, results[1].Matched())
}

func TestMatchAll_Deterministic(t *testing.T) {
	m := newMatcher(
		model.RecordA{Name: "Jang", BirthDate: "19700101"},
		model.RecordA{Name: "Jeon", BirthDate: "19700101"},
		model.RecordA{Name: "Jo"},
	)
	bs := []model.RecordB{{Name: "Jan"}, {Name: "Jeong"}, {Name: "J"}}

	first := m.MatchAll(bs)
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, m.MatchAll(bs))
	}
}

func TestSimilar(t *testing.T) {
	th := DefaultThresholds()
	assert.True(t, Similar([]rune("choi"), []rune("chio"), th))
	assert.True(t, Similar([]rune("xbcd"), []rune("ybcd"), th), "overlap of three positions")
	assert.False(t, Similar([]rune("ab"), []rune("ac"), th))
	assert.False(t, Similar([]rune("a"), []rune("a"), th), "single-rune names are too short")
}

func TestLenient(t *testing.T) {
	th := DefaultThresholds()
	assert.True(t, Lenient([]rune("k"), []rune("ki"), th))
	assert.False(t, Lenient([]rune("k"), []rune("kim"), th), "length difference of two")
	assert.False(t, Lenient([]rune("abc"), []rune("bbc"), th), "first rune differs")
	assert.False(t, Lenient([]rune("abcd"), []rune("axyz"), th), "overlap ratio 0.25")
	assert.False(t, Lenient(nil, []rune("a"), th))
}

func TestOverlap(t *testing.T) {
	assert.Equal(t, 0, Overlap(nil, []rune("abc")))
	assert.Equal(t, 2, Overlap([]rune("choi"), []rune("chio")))
	assert.Equal(t, 3, Overlap([]rune("홍길동"), []rune("홍길동씨")))
}

func TestIndex_ByName(t *testing.T) {
	ix := NewIndex([]model.RecordA{{Name: "Kim"}, {Name: "Lee"}, {Name: "KIM"}, {Name: ""}})

	assert.Equal(t, []int{0, 2}, ix.ByName("kim"))
	assert.Nil(t, ix.ByName("park"))
	assert.Equal(t, 4, ix.Len())
	assert.Equal(t, "Lee", ix.Record(1).Name)
}
