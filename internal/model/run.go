package model

import "time"

// Run is a stored reconciliation run. Runs are an application concern; the
// reconciliation engine itself never persists anything.
type Run struct {
	ID        string    `json:"id"`
	Label     string    `json:"label,omitempty"`
	SourceA   string    `json:"source_a,omitempty"`
	SourceB   string    `json:"source_b,omitempty"`
	Report    *Report   `json:"report,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RunSummary is the list view of a stored run.
type RunSummary struct {
	ID            string    `json:"id"`
	Label         string    `json:"label,omitempty"`
	SourceA       string    `json:"source_a,omitempty"`
	SourceB       string    `json:"source_b,omitempty"`
	TotalFindings int       `json:"total_findings"`
	CreatedAt     time.Time `json:"created_at"`
}
