package report

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sells-group/roster-cli/internal/normalize"
)

// Unassigned is the organization of findings with no institution on either side.
const Unassigned = "(unassigned)"

// minSubstringRunes is the shortest normalized name the substring step
// considers, on either side.
const minSubstringRunes = 2

// Directory is the sorted list of known organizational units. Institution
// values on records are resolved against it to absorb transcription drift.
type Directory struct {
	names []string
	norm  []string
}

// NewDirectory builds a directory from one or more name lists. Blank and
// duplicate names are dropped.
func NewDirectory(lists ...[]string) *Directory {
	seen := make(map[string]bool)
	var names []string
	for _, list := range lists {
		for _, n := range list {
			n = strings.TrimSpace(n)
			if n == "" || seen[n] {
				continue
			}
			seen[n] = true
			names = append(names, n)
		}
	}
	sort.Strings(names)

	d := &Directory{names: names, norm: make([]string, len(names))}
	for i, n := range names {
		d.norm[i] = normalize.Organization(n)
	}
	return d
}

// Names returns the directory entries in sorted order.
func (d *Directory) Names() []string {
	return append([]string(nil), d.names...)
}

// Resolve maps a free-text institution to a directory entry. It tries an
// exact match, then a normalized match, then a normalized substring match in
// either direction; the first entry in sorted order wins at each step.
// Unresolved values are returned trimmed and blank values map to Unassigned.
func (d *Directory) Resolve(institution string) string {
	raw := strings.TrimSpace(institution)
	if raw == "" {
		return Unassigned
	}
	for _, n := range d.names {
		if n == raw {
			return n
		}
	}
	norm := normalize.Organization(raw)
	if norm == "" {
		return Unassigned
	}
	for i, n := range d.norm {
		if n == norm {
			return d.names[i]
		}
	}
	if utf8.RuneCountInString(norm) < minSubstringRunes {
		return raw
	}
	for i, n := range d.norm {
		if utf8.RuneCountInString(n) < minSubstringRunes {
			continue
		}
		if strings.Contains(n, norm) || strings.Contains(norm, n) {
			return d.names[i]
		}
	}
	return raw
}
