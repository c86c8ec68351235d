// Package report groups findings by organizational unit and computes the
// counters of a reconciliation run.
package report

import (
	"sort"

	"github.com/sells-group/roster-cli/internal/model"
)

// Builder accumulates findings for one run.
type Builder struct {
	dir    *Directory
	groups map[string][]model.Finding
}

// NewBuilder creates a Builder resolving institutions against dir.
func NewBuilder(dir *Directory) *Builder {
	if dir == nil {
		dir = NewDirectory()
	}
	return &Builder{dir: dir, groups: make(map[string][]model.Finding)}
}

// Add files f under the organization resolved from institution.
func (b *Builder) Add(institution string, f model.Finding) {
	org := b.dir.Resolve(institution)
	b.groups[org] = append(b.groups[org], f)
}

// Build returns the report. Organizations without findings are omitted.
// summary supplies the input counters; finding counts are filled in here.
func (b *Builder) Build(summary model.Summary) *model.Report {
	orgs := make([]string, 0, len(b.groups))
	for name := range b.groups {
		orgs = append(orgs, name)
	}
	sort.Strings(orgs)

	summary.Counts = make(map[model.InconsistencyType]int)
	summary.TotalFindings = 0
	if summary.Matched == nil {
		summary.Matched = make(map[string]int)
	}

	rep := &model.Report{Organizations: make([]model.OrganizationReport, 0, len(orgs))}
	for _, name := range orgs {
		findings := b.groups[name]
		SortFindings(findings)

		counts := make(map[model.InconsistencyType]int)
		for _, f := range findings {
			for _, t := range f.Types {
				counts[t]++
				summary.Counts[t]++
			}
		}
		summary.TotalFindings += len(findings)

		rep.Organizations = append(rep.Organizations, model.OrganizationReport{
			OrganizationName: name,
			Findings:         findings,
			Counts:           counts,
		})
	}
	summary.Organizations = len(rep.Organizations)
	rep.Summary = summary
	return rep
}

// SortFindings orders findings by person name, person id, birthdate and
// then type list.
func SortFindings(fs []model.Finding) {
	sort.SliceStable(fs, func(i, j int) bool {
		a, b := fs[i], fs[j]
		if a.PersonName != b.PersonName {
			return a.PersonName < b.PersonName
		}
		if a.PersonID != b.PersonID {
			return a.PersonID < b.PersonID
		}
		if a.BirthDate != b.BirthDate {
			return a.BirthDate < b.BirthDate
		}
		return a.TypeKey() < b.TypeKey()
	})
}
