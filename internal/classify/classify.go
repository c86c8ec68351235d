// Package classify computes the disagreement categories of a matched pair of
// registry records.
package classify

import (
	"strings"
	"time"

	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/normalize"
)

// Rules configures tolerance windows and domain vocabularies.
type Rules struct {
	ResignToleranceDays        int      `yaml:"resign_tolerance_days" mapstructure:"resign_tolerance_days"`
	HireToleranceDays          int      `yaml:"hire_tolerance_days" mapstructure:"hire_tolerance_days"`
	UmbrellaInstitutions       []string `yaml:"umbrella_institutions" mapstructure:"umbrella_institutions"`
	LifecycleEndStatuses       []string `yaml:"lifecycle_end_statuses" mapstructure:"lifecycle_end_statuses"`
	ActiveStatuses             []string `yaml:"active_statuses" mapstructure:"active_statuses"`
	JobTypePrefixes            []string `yaml:"job_type_prefixes" mapstructure:"job_type_prefixes"`
	UmbrellaRestrictedJobTypes []string `yaml:"umbrella_restricted_job_types" mapstructure:"umbrella_restricted_job_types"`
}

// DefaultRules returns the standard rule set.
func DefaultRules() Rules {
	return Rules{
		ResignToleranceDays:        10,
		HireToleranceDays:          90,
		UmbrellaInstitutions:       []string{"본부", "headquarters"},
		LifecycleEndStatuses:       []string{"suspended", "dormant", "withdrawn"},
		ActiveStatuses:             []string{"normal"},
		JobTypePrefixes:            []string{"senior", "regional", "수석", "선임", "지역"},
		UmbrellaRestrictedJobTypes: []string{"support", "지원"},
	}
}

// Result is the outcome of classifying one pair.
type Result struct {
	Types           []model.InconsistencyType
	HireDeltaDays   *int
	ResignDeltaDays *int
}

// Empty reports whether no disagreement was found.
func (r Result) Empty() bool {
	return len(r.Types) == 0
}

// Classifier applies Rules to matched pairs. It is safe for concurrent use.
type Classifier struct {
	rules      Rules
	now        func() time.Time
	umbrella   map[string]bool
	lifecycle  map[string]bool
	active     map[string]bool
	restricted map[string]bool
}

// New creates a Classifier. now supplies "today" for the rules that compare
// against the current date; nil means time.Now.
func New(rules Rules, now func() time.Time) *Classifier {
	if now == nil {
		now = time.Now
	}
	c := &Classifier{
		rules:      rules,
		now:        now,
		umbrella:   make(map[string]bool),
		lifecycle:  make(map[string]bool),
		active:     make(map[string]bool),
		restricted: make(map[string]bool),
	}
	for _, s := range rules.UmbrellaInstitutions {
		c.umbrella[normalize.Organization(s)] = true
	}
	for _, s := range rules.LifecycleEndStatuses {
		c.lifecycle[normalize.Status(s)] = true
	}
	for _, s := range rules.ActiveStatuses {
		c.active[normalize.Status(s)] = true
	}
	for _, s := range rules.UmbrellaRestrictedJobTypes {
		c.restricted[normalize.JobCategory(s, rules.JobTypePrefixes)] = true
	}
	return c
}

// Today returns the current calendar day.
func (c *Classifier) Today() time.Time {
	return normalize.Day(c.now())
}

// LifecycleEnd reports whether a registry-B status is a lifecycle-end state.
func (c *Classifier) LifecycleEnd(status string) bool {
	return c.lifecycle[normalize.Status(status)]
}

// IsUmbrella reports whether an institution is the umbrella placeholder.
func (c *Classifier) IsUmbrella(institution string) bool {
	return c.umbrella[normalize.Organization(institution)]
}

// LiveA reports whether registry A considers the person active: flagged
// active with no resignation on or before today.
func (c *Classifier) LiveA(a model.RecordA) bool {
	if !a.IsActive {
		return false
	}
	if resign, ok := normalize.ParseDate(a.ResignDate); ok && !resign.After(c.Today()) {
		return false
	}
	return true
}

// Classify computes the inconsistency types of a matched pair. Types are
// returned in taxonomy order. Comparisons whose inputs cannot be parsed are
// skipped rather than flagged.
func (c *Classifier) Classify(a model.RecordA, b model.RecordB) Result {
	var res Result
	today := c.Today()

	if c.statusContradiction(a, b) {
		res.Types = append(res.Types, model.StatusContradiction)
	}

	resignA, okA := normalize.ParseDate(a.ResignDate)
	resignB, okB := normalize.ParseDate(b.ResignDate)
	switch {
	case okA && okB:
		d := normalize.DaysBetween(resignA, resignB)
		res.ResignDeltaDays = &d
		if d > c.rules.ResignToleranceDays {
			res.Types = append(res.Types, model.ResignDateMismatch)
		}
	case okA && blank(b.ResignDate), okB && blank(a.ResignDate):
		res.Types = append(res.Types, model.ResignDateMismatch)
	}

	hireA, okHA := normalize.ParseDate(a.HireDate)
	hireB, okHB := normalize.ParseDate(b.HireDate)
	if okHA && okHB {
		d := normalize.DaysBetween(hireA, hireB)
		res.HireDeltaDays = &d
		if d > c.rules.HireToleranceDays {
			res.Types = append(res.Types, model.HireDateMismatch)
		}
	}

	if c.institutionMismatch(a.Institution, b.Institution) {
		res.Types = append(res.Types, model.InstitutionMismatch)
	}

	if c.jobTypeMismatch(a, b) {
		res.Types = append(res.Types, model.JobTypeMismatch)
	}

	selfA := okA && (a.IsActive || resignA.After(today))
	selfB := okB && (c.active[normalize.Status(b.Status)] || resignB.After(today))
	if selfA || selfB {
		res.Types = append(res.Types, model.StatusSelfContradiction)
	}

	return res
}

// statusContradiction compares liveness across registries. An empty B status
// cannot be interpreted and never contradicts. A lifecycle-end B status
// agrees with an inactive A record even though the vocabularies differ.
func (c *Classifier) statusContradiction(a model.RecordA, b model.RecordB) bool {
	status := normalize.Status(b.Status)
	if status == "" {
		return false
	}
	liveA := c.LiveA(a)
	ended := c.lifecycle[status]
	if ended && !liveA {
		return false
	}
	return liveA != !ended
}

func (c *Classifier) institutionMismatch(a, b string) bool {
	na, nb := normalize.Organization(a), normalize.Organization(b)
	if na == "" || nb == "" || na == nb {
		return false
	}
	return !c.umbrella[na] && !c.umbrella[nb]
}

func (c *Classifier) jobTypeMismatch(a model.RecordA, b model.RecordB) bool {
	ca := normalize.JobCategory(a.JobType, c.rules.JobTypePrefixes)
	cb := normalize.JobCategory(b.JobType, c.rules.JobTypePrefixes)
	if ca != "" && cb != "" && ca != cb {
		return true
	}
	if c.restricted[ca] && c.IsUmbrella(a.Institution) {
		return true
	}
	return c.restricted[cb] && c.IsUmbrella(b.Institution)
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
