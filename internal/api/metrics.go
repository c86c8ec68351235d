package api

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/sells-group/roster-cli/internal/model"
)

// Metrics provides observability for reconciliation requests.
type Metrics struct {
	// Runs by outcome: "ok", "invalid", "save_failed".
	Runs *prometheus.CounterVec

	// Findings by inconsistency type
	Findings *prometheus.CounterVec

	Duration prometheus.Histogram
}

// NewMetrics registers the API metrics with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Runs: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_reconcile_runs_total",
			Help: "Total reconciliation requests by outcome",
		}, []string{"outcome"}),

		Findings: f.NewCounterVec(prometheus.CounterOpts{
			Name: "roster_reconcile_findings_total",
			Help: "Total findings reported by inconsistency type",
		}, []string{"type"}),

		Duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "roster_reconcile_duration_seconds",
			Help:    "Duration of the reconciliation engine per request",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}),
	}
}

// IncrementRun records a request outcome.
func (m *Metrics) IncrementRun(outcome string) {
	if m != nil {
		m.Runs.WithLabelValues(outcome).Inc()
	}
}

// ObserveReport records the engine duration and the report's finding counts.
func (m *Metrics) ObserveReport(rep *model.Report, d time.Duration) {
	if m == nil || rep == nil {
		return
	}
	m.Duration.Observe(d.Seconds())
	for t, n := range rep.Summary.Counts {
		m.Findings.WithLabelValues(string(t)).Add(float64(n))
	}
}
