// Package store persists reconciliation runs so reports can be compared
// across review cycles.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/sells-group/roster-cli/internal/model"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = eris.New("store: run not found")

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Label  string `json:"label,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

func (f RunFilter) limit() int {
	if f.Limit <= 0 {
		return 100
	}
	return f.Limit
}

// Store defines the persistence interface for reconciliation runs.
type Store interface {
	// SaveRun inserts run, assigning an ID and creation time when unset.
	SaveRun(ctx context.Context, run *model.Run) error
	GetRun(ctx context.Context, id string) (*model.Run, error)
	// ListRuns returns run summaries, newest first.
	ListRuns(ctx context.Context, filter RunFilter) ([]model.RunSummary, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}

// prepareRun fills defaults and encodes the report.
func prepareRun(run *model.Run) ([]byte, int, error) {
	if run == nil {
		return nil, 0, eris.New("store: nil run")
	}
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	total := 0
	if run.Report != nil {
		total = run.Report.Summary.TotalFindings
	}
	data, err := json.Marshal(run.Report)
	if err != nil {
		return nil, 0, eris.Wrap(err, "store: marshal report")
	}
	return data, total, nil
}

func decodeReport(data []byte) (*model.Report, error) {
	if len(data) == 0 || string(data) == "null" {
		return nil, nil
	}
	var rep model.Report
	if err := json.Unmarshal(data, &rep); err != nil {
		return nil, eris.Wrap(err, "store: unmarshal report")
	}
	return &rep, nil
}
