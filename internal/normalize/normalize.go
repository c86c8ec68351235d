// Package normalize canonicalizes names, dates, statuses and job types into
// forms that can be compared across the two registries.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/width"
)

// nameDropRunes lists the bracket characters removed from names. Full-width
// brackets are folded to their ASCII forms before this set is applied.
var nameDropRunes = map[rune]bool{
	'(': true, ')': true,
	'[': true, ']': true,
}

// Name standardizes a person or organization name for matching by:
//  1. Folding full-width and half-width variants to their canonical width
//  2. Removing all whitespace and bracket characters
//  3. Case-folding
//
// Name is total: empty input yields "".
func Name(s string) string {
	if s == "" {
		return ""
	}

	s = width.Fold.String(s)

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if unicode.IsSpace(r) || nameDropRunes[r] {
			continue
		}
		b.WriteRune(r)
	}

	return cases.Fold().String(b.String())
}

// BirthDate reduces a free-text date to its digits. Six-digit dates are
// expanded to eight using the century heuristic (two-digit year >= 30 is
// 19xx, otherwise 20xx). Any other length is returned as-is and is not
// guaranteed comparable; see Comparable.
func BirthDate(s string) string {
	d := digits(s)
	if len(d) != 6 {
		return d
	}
	if d[0] >= '3' {
		return "19" + d
	}
	return "20" + d
}

// Comparable reports whether a normalized date is a full YYYYMMDD value.
func Comparable(normalized string) bool {
	return len(normalized) == 8
}

func digits(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// canonicalStatuses maps registry-B status vocabulary to canonical values.
var canonicalStatuses = map[string]string{
	"normal":    "normal",
	"active":    "normal",
	"정상":        "normal",
	"재직":        "normal",
	"suspended": "suspended",
	"정지":        "suspended",
	"dormant":   "dormant",
	"휴면":        "dormant",
	"withdrawn": "withdrawn",
	"탈퇴":        "withdrawn",
}

// Status lower-cases and trims a status value and maps known aliases to the
// canonical vocabulary. Unknown values are returned lower-cased.
func Status(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if c, ok := canonicalStatuses[s]; ok {
		return c
	}
	return s
}

// JobCategory returns the base category of a job type: the Name form with
// any of the given rank or region prefixes stripped.
func JobCategory(s string, prefixes []string) string {
	n := Name(s)
	for {
		trimmed := false
		for _, p := range prefixes {
			p = Name(p)
			if p != "" && n != p && strings.HasPrefix(n, p) {
				n = strings.TrimPrefix(n, p)
				trimmed = true
			}
		}
		if !trimmed {
			return n
		}
	}
}

// Organization returns the comparable form of an organizational unit name.
func Organization(s string) string {
	return Name(strings.TrimSpace(s))
}
