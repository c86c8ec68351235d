// Package reconcile runs the full comparison of two registries: identity
// matching, field classification, suggestions and aggregation.
package reconcile

import (
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/roster-cli/internal/classify"
	"github.com/sells-group/roster-cli/internal/match"
	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/normalize"
	"github.com/sells-group/roster-cli/internal/report"
	"github.com/sells-group/roster-cli/internal/suggest"
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the source of "today" used by date rules.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithThresholds overrides the fuzzy matching thresholds.
func WithThresholds(th match.Thresholds) Option {
	return func(e *Engine) { e.thresholds = th }
}

// WithRules overrides the classification rules.
func WithRules(r classify.Rules) Option {
	return func(e *Engine) { e.rules = r }
}

// WithSuggestWindow sets the birthdate window in days for suggestions.
func WithSuggestWindow(days int) Option {
	return func(e *Engine) { e.suggestDays = days }
}

// WithOrganizations adds known organization names to the directory used to
// group findings.
func WithOrganizations(names ...string) Option {
	return func(e *Engine) { e.orgs = append(e.orgs, names...) }
}

// Engine reconciles registry A against registry B. An Engine holds only
// configuration and may be reused and shared between goroutines.
type Engine struct {
	now         func() time.Time
	thresholds  match.Thresholds
	rules       classify.Rules
	suggestDays int
	orgs        []string
}

// New creates an Engine with default thresholds and rules.
func New(opts ...Option) *Engine {
	e := &Engine{
		now:         time.Now,
		thresholds:  match.DefaultThresholds(),
		rules:       classify.DefaultRules(),
		suggestDays: suggest.DefaultMaxBirthDateDays,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// Reconcile compares the two registries and returns the grouped findings.
// It never fails: malformed values degrade to "cannot determine" and
// records without a usable name are counted as skipped. Identical input
// always yields an identical report.
func (e *Engine) Reconcile(registryA []model.RecordA, registryB []model.RecordB) *model.Report {
	as, skippedA := prepareA(registryA)
	bs, skippedB := prepareB(registryB)

	r := &run{
		engine:     e,
		as:         as,
		bs:         bs,
		classifier: classify.New(e.rules, e.now),
		suggester:  suggest.New(e.suggestDays, e.thresholds),
		builder:    report.NewBuilder(report.NewDirectory(e.orgs, institutions(as))),
		summary: model.Summary{
			TotalA:   len(registryA),
			TotalB:   len(registryB),
			SkippedA: skippedA,
			SkippedB: skippedB,
			Matched:  make(map[string]int),
		},
	}

	switch {
	case len(as) == 0:
		r.allOnlyInB()
	case len(bs) == 0:
		r.allOnlyInA()
	default:
		r.compare()
	}

	rep := r.builder.Build(r.summary)
	zap.L().With(zap.String("component", "reconcile")).Debug("reconcile complete",
		zap.Int("registry_a", len(as)),
		zap.Int("registry_b", len(bs)),
		zap.Int("skipped_a", skippedA),
		zap.Int("skipped_b", skippedB),
		zap.Int("findings", rep.Summary.TotalFindings),
		zap.Int("organizations", rep.Summary.Organizations),
	)
	return rep
}

// run carries the state of one Reconcile call.
type run struct {
	engine     *Engine
	as         []model.RecordA
	bs         []model.RecordB
	classifier *classify.Classifier
	suggester  *suggest.Suggester
	builder    *report.Builder
	summary    model.Summary
}

func (r *run) allOnlyInB() {
	for _, b := range r.bs {
		r.summary.Matched[model.TierNone.String()]++
		r.builder.Add(b.Institution, onlyInB(b, nil))
	}
}

func (r *run) allOnlyInA() {
	for _, a := range r.as {
		r.builder.Add(a.Institution, onlyInA(a, nil))
	}
}

func (r *run) compare() {
	index := match.NewIndex(r.as)
	results := match.New(index, r.engine.thresholds).MatchAll(r.bs)

	matchedA := make(map[int]bool)
	var unmatchedB []int
	for _, res := range results {
		r.summary.Matched[res.Tier.String()]++
		if !res.Matched() {
			unmatchedB = append(unmatchedB, res.B)
			continue
		}
		matchedA[res.A] = true
		a, b := r.as[res.A], r.bs[res.B]
		if f, ok := r.pairFinding(a, b, res.Tier); ok {
			r.builder.Add(institutionOf(a.Institution, b.Institution), f)
		}
	}

	if len(unmatchedB) > 0 {
		poolA := suggest.NewPool(candidatesA(r.as))
		for _, j := range unmatchedB {
			b := r.bs[j]
			if r.classifier.LifecycleEnd(b.Status) {
				continue
			}
			s := r.suggester.Best(b.Name, b.BirthDate, poolA)
			r.builder.Add(b.Institution, onlyInB(b, s))
		}
	}

	var poolB *suggest.Pool
	for i, a := range r.as {
		if matchedA[i] || !r.classifier.LiveA(a) {
			continue
		}
		if poolB == nil {
			poolB = suggest.NewPool(candidatesB(r.bs, unmatchedB))
		}
		s := r.suggester.Best(a.Name, a.BirthDate, poolB)
		r.builder.Add(a.Institution, onlyInA(a, s))
	}
}

func (r *run) pairFinding(a model.RecordA, b model.RecordB, tier model.Tier) (model.Finding, bool) {
	res := r.classifier.Classify(a, b)
	if res.Empty() {
		return model.Finding{}, false
	}
	av, bv := a.Values(), b.Values()
	birth := a.BirthDate
	if birth == "" {
		birth = b.BirthDate
	}
	return model.Finding{
		PersonName:          a.Name,
		PersonID:            a.ID,
		BirthDate:           birth,
		Types:               res.Types,
		Tier:                tier,
		A:                   av,
		B:                   bv,
		HireDateDeltaDays:   res.HireDeltaDays,
		ResignDateDeltaDays: res.ResignDeltaDays,
	}, true
}

func onlyInB(b model.RecordB, s *model.Suggestion) model.Finding {
	bv := b.Values()
	return model.Finding{
		PersonName: b.Name,
		PersonID:   b.ID,
		BirthDate:  b.BirthDate,
		Types:      []model.InconsistencyType{model.OnlyInB},
		B:          bv,
		Suggestion: s,
	}
}

func onlyInA(a model.RecordA, s *model.Suggestion) model.Finding {
	av := a.Values()
	return model.Finding{
		PersonName: a.Name,
		PersonID:   a.ID,
		BirthDate:  a.BirthDate,
		Types:      []model.InconsistencyType{model.OnlyInA},
		A:          av,
		Suggestion: s,
	}
}

func institutionOf(a, b string) string {
	if normalize.Organization(a) != "" {
		return a
	}
	return b
}

func candidatesA(as []model.RecordA) []suggest.Candidate {
	out := make([]suggest.Candidate, len(as))
	for i, a := range as {
		out[i] = suggest.Candidate{Registry: model.RegistryA, Name: a.Name, BirthDate: a.BirthDate, Institution: a.Institution}
	}
	return out
}

func candidatesB(bs []model.RecordB, positions []int) []suggest.Candidate {
	out := make([]suggest.Candidate, 0, len(positions))
	for _, j := range positions {
		b := bs[j]
		out = append(out, suggest.Candidate{Registry: model.RegistryB, Name: b.Name, BirthDate: b.BirthDate, Institution: b.Institution})
	}
	return out
}

func institutions(as []model.RecordA) []string {
	out := make([]string, 0, len(as))
	for _, a := range as {
		out = append(out, a.Institution)
	}
	return out
}

// sortKey is the deterministic ordering of input records.
type sortKey struct {
	name, id, birth, raw string
}

func (k sortKey) less(o sortKey) bool {
	if k.name != o.name {
		return k.name < o.name
	}
	if k.id != o.id {
		return k.id < o.id
	}
	if k.birth != o.birth {
		return k.birth < o.birth
	}
	return k.raw < o.raw
}

func keyOf(name, id, birth string) sortKey {
	return sortKey{name: normalize.Name(name), id: id, birth: normalize.BirthDate(birth), raw: name}
}

// prepareA copies, filters and sorts registry A.
func prepareA(in []model.RecordA) ([]model.RecordA, int) {
	out := make([]model.RecordA, 0, len(in))
	keys := make([]sortKey, 0, len(in))
	for _, a := range in {
		k := keyOf(a.Name, a.ID, a.BirthDate)
		if k.name == "" {
			continue
		}
		out = append(out, a)
		keys = append(keys, k)
	}
	sort.Stable(&byKey[model.RecordA]{items: out, keys: keys})
	return out, len(in) - len(out)
}

// prepareB copies, filters and sorts registry B.
func prepareB(in []model.RecordB) ([]model.RecordB, int) {
	out := make([]model.RecordB, 0, len(in))
	keys := make([]sortKey, 0, len(in))
	for _, b := range in {
		k := keyOf(b.Name, b.ID, b.BirthDate)
		if k.name == "" {
			continue
		}
		out = append(out, b)
		keys = append(keys, k)
	}
	sort.Stable(&byKey[model.RecordB]{items: out, keys: keys})
	return out, len(in) - len(out)
}

type byKey[T any] struct {
	items []T
	keys  []sortKey
}

func (s *byKey[T]) Len() int           { return len(s.items) }
func (s *byKey[T]) Less(i, j int) bool { return s.keys[i].less(s.keys[j]) }
func (s *byKey[T]) Swap(i, j int) {
	s.items[i], s.items[j] = s.items[j], s.items[i]
	s.keys[i], s.keys[j] = s.keys[j], s.keys[i]
}
