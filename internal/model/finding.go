package model

import (
	"fmt"
	"strings"
)

// InconsistencyType tags one kind of disagreement between the registries.
type InconsistencyType string

const (
	OnlyInA                 InconsistencyType = "only_in_a"
	OnlyInB                 InconsistencyType = "only_in_b"
	StatusContradiction     InconsistencyType = "status_contradiction"
	ResignDateMismatch      InconsistencyType = "resign_date_mismatch"
	HireDateMismatch        InconsistencyType = "hire_date_mismatch"
	InstitutionMismatch     InconsistencyType = "institution_mismatch"
	JobTypeMismatch         InconsistencyType = "job_type_mismatch"
	StatusSelfContradiction InconsistencyType = "status_self_contradiction"
)

// InconsistencyTypes lists the taxonomy in output order.
var InconsistencyTypes = []InconsistencyType{
	OnlyInA,
	OnlyInB,
	StatusContradiction,
	ResignDateMismatch,
	HireDateMismatch,
	InstitutionMismatch,
	JobTypeMismatch,
	StatusSelfContradiction,
}

// Rank returns the position of t in the taxonomy, or len(InconsistencyTypes)
// for unknown values.
func (t InconsistencyType) Rank() int {
	for i, known := range InconsistencyTypes {
		if known == t {
			return i
		}
	}
	return len(InconsistencyTypes)
}

// Tier is the identity-matching rule that resolved a pair.
type Tier int

const (
	TierNone         Tier = 0
	TierExact        Tier = 1
	TierRelaxedName  Tier = 2
	TierSimilarName  Tier = 3
	TierUltraLenient Tier = 4
)

func (t Tier) String() string {
	switch t {
	case TierNone:
		return "unmatched"
	case TierExact:
		return "exact"
	case TierRelaxedName:
		return "relaxed_name"
	case TierSimilarName:
		return "similar_name"
	case TierUltraLenient:
		return "ultra_lenient"
	default:
		return fmt.Sprintf("tier(%d)", int(t))
	}
}

// MatchResult relates one registry-B record to zero or one registry-A record.
// Both indexes refer to the sorted collections of the run; A is -1 when
// unmatched.
type MatchResult struct {
	B    int  `json:"b"`
	A    int  `json:"a"`
	Tier Tier `json:"tier"`
}

// Matched reports whether a counterpart was found.
func (m MatchResult) Matched() bool {
	return m.Tier != TierNone && m.A >= 0
}

// Suggestion is a non-binding hint naming the most plausible counterpart of
// an unmatched record.
type Suggestion struct {
	Registry       Registry `json:"registry" yaml:"registry"`
	Name           string   `json:"name" yaml:"name"`
	BirthDate      string   `json:"birth_date,omitempty" yaml:"birth_date,omitempty"`
	Institution    string   `json:"institution,omitempty" yaml:"institution,omitempty"`
	DayDelta       int      `json:"day_delta" yaml:"day_delta"`
	NameSimilarity float64  `json:"name_similarity" yaml:"name_similarity"`
	Score          float64  `json:"score" yaml:"score"`
	Reason         string   `json:"reason" yaml:"reason"`
}

// Finding is one detected disagreement for one person.
type Finding struct {
	PersonName          string              `json:"person_name" yaml:"person_name"`
	PersonID            string              `json:"person_id,omitempty" yaml:"person_id,omitempty"`
	BirthDate           string              `json:"birth_date,omitempty" yaml:"birth_date,omitempty"`
	Types               []InconsistencyType `json:"types" yaml:"types"`
	Tier                Tier                `json:"tier" yaml:"tier"`
	A                   *FieldValues        `json:"a,omitempty" yaml:"a,omitempty"`
	B                   *FieldValues        `json:"b,omitempty" yaml:"b,omitempty"`
	HireDateDeltaDays   *int                `json:"hire_date_delta_days,omitempty" yaml:"hire_date_delta_days,omitempty"`
	ResignDateDeltaDays *int                `json:"resign_date_delta_days,omitempty" yaml:"resign_date_delta_days,omitempty"`
	Suggestion          *Suggestion         `json:"similar_suggestion,omitempty" yaml:"similar_suggestion,omitempty"`
}

// Has reports whether the finding carries the given type.
func (f Finding) Has(t InconsistencyType) bool {
	for _, ft := range f.Types {
		if ft == t {
			return true
		}
	}
	return false
}

// TypeKey joins the finding's types into a stable string.
func (f Finding) TypeKey() string {
	parts := make([]string, len(f.Types))
	for i, t := range f.Types {
		parts[i] = string(t)
	}
	return strings.Join(parts, ",")
}

// OrganizationReport groups the findings of one organizational unit.
type OrganizationReport struct {
	OrganizationName string                    `json:"organization_name" yaml:"organization_name"`
	Findings         []Finding                 `json:"findings" yaml:"findings"`
	Counts           map[InconsistencyType]int `json:"counts" yaml:"counts"`
}

// Summary holds run-wide counters.
type Summary struct {
	TotalA        int                       `json:"total_a" yaml:"total_a"`
	TotalB        int                       `json:"total_b" yaml:"total_b"`
	SkippedA      int                       `json:"skipped_a" yaml:"skipped_a"`
	SkippedB      int                       `json:"skipped_b" yaml:"skipped_b"`
	Matched       map[string]int            `json:"matched" yaml:"matched"`
	Counts        map[InconsistencyType]int `json:"counts" yaml:"counts"`
	TotalFindings int                       `json:"total_findings" yaml:"total_findings"`
	Organizations int                       `json:"organizations" yaml:"organizations"`
}

// Report is the full output of one reconciliation run.
type Report struct {
	Organizations []OrganizationReport `json:"organizations" yaml:"organizations"`
	Summary       Summary              `json:"summary" yaml:"summary"`
}

// Findings flattens the report in organization order.
func (r *Report) Findings() []Finding {
	if r == nil {
		return nil
	}
	var out []Finding
	for _, org := range r.Organizations {
		out = append(out, org.Findings...)
	}
	return out
}
