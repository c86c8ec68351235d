// Package suggest proposes the most plausible counterpart of a record the
// identity matcher could not resolve. Suggestions are hints only and never
// create a match.
package suggest

import (
	"fmt"
	"strings"

	"github.com/agext/levenshtein"

	"github.com/sells-group/roster-cli/internal/match"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/normalize"
)

// DefaultMaxBirthDateDays is the birthdate window for near-matches.
const DefaultMaxBirthDateDays = 30

// Candidate is one record of the opposite registry.
type Candidate struct {
	Registry    model.Registry
	Name        string
	BirthDate   string
	Institution string
}

type candidate struct {
	Candidate
	name  string
	runes []rune
	birth string
}

// Pool holds the normalized candidates of one search, in sort order.
type Pool struct {
	items []candidate
}

// NewPool prepares candidates for repeated searches. Candidates whose name
// normalizes to empty are ignored.
func NewPool(cs []Candidate) *Pool {
	p := &Pool{items: make([]candidate, 0, len(cs))}
	for _, c := range cs {
		n := normalize.Name(c.Name)
		if n == "" {
			continue
		}
		p.items = append(p.items, candidate{
			Candidate: c,
			name:      n,
			runes:     []rune(n),
			birth:     normalize.BirthDate(c.BirthDate),
		})
	}
	return p
}

// Len returns the number of usable candidates.
func (p *Pool) Len() int {
	if p == nil {
		return 0
	}
	return len(p.items)
}

// Suggester ranks near-match candidates.
type Suggester struct {
	maxDays int
	th      match.Thresholds
}

// New creates a Suggester. maxDays bounds the birthdate difference of
// name-based near-matches; th supplies the fuzzy name predicates.
func New(maxDays int, th match.Thresholds) *Suggester {
	if maxDays < 0 {
		maxDays = DefaultMaxBirthDateDays
	}
	return &Suggester{maxDays: maxDays, th: th}
}

// Best returns the top-ranked candidate of pool for the given name and
// birthdate, or nil when nothing qualifies. Ranking is name similarity
// (0-100) minus the birthdate day delta; ties keep pool order.
func (s *Suggester) Best(name, birthDate string, pool *Pool) *model.Suggestion {
	n := normalize.Name(name)
	if n == "" || pool.Len() == 0 {
		return nil
	}
	runes := []rune(n)
	birth := normalize.BirthDate(birthDate)

	var best *model.Suggestion
	for _, c := range pool.items {
		days, comparable := normalize.BirthDateDays(birthDate, c.BirthDate)
		sameBirth := birth != "" && birth == c.birth
		if sameBirth && !comparable {
			days, comparable = 0, true
		}
		within := comparable && days <= s.maxDays

		var reason string
		switch {
		case n == c.name && within:
			reason = sameNameReason(days)
		case sameBirth && relatedNames(n, c.name, runes, c.runes):
			reason = "same birthdate, similar name"
		case within && (match.Similar(runes, c.runes, s.th) || match.Lenient(runes, c.runes, s.th)):
			reason = similarNameReason(days)
		default:
			continue
		}

		sim := levenshtein.Similarity(n, c.name, nil) * 100
		score := sim - float64(days)
		if best != nil && score <= best.Score {
			continue
		}
		best = &model.Suggestion{
			Registry:       c.Registry,
			Name:           c.Name,
			BirthDate:      c.BirthDate,
			Institution:    c.Institution,
			DayDelta:       days,
			NameSimilarity: sim,
			Score:          score,
			Reason:         reason,
		}
	}
	return best
}

func relatedNames(a, b string, ar, br []rune) bool {
	return strings.Contains(a, b) || strings.Contains(b, a) || match.Overlap(ar, br) >= 1
}

func sameNameReason(days int) string {
	if days == 0 {
		return "same name and birthdate"
	}
	return fmt.Sprintf("same name, birthdate differs by %d days", days)
}

func similarNameReason(days int) string {
	if days == 0 {
		return "same birthdate, similar name"
	}
	return fmt.Sprintf("birthdate differs by %d days", days)
}
