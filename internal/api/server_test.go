package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/reconcile"
	"github.com/sells-group/roster-cli/internal/store"
)

var fixedNow = func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) }

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

func newTestServer(t *testing.T, st store.Store, opts Options) (*Server, *httptest.Server) {
	t.Helper()
	s := New(reconcile.New(reconcile.WithClock(fixedNow)), st, opts)
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return s, srv
}

func postReconcile(t *testing.T, url string, req ReconcileRequest) *http.Response {
	t.Helper()
	body, err := json.Marshal(req)
	require.NoError(t, err)
	resp, err := http.Post(url+"/v1/reconcile", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() }) //nolint:errcheck
	return resp
}

func parkRequest() ReconcileRequest {
	return ReconcileRequest{
		Label: "2026-Q3",
		RegistryA: []model.RecordA{{
			Name: "Park", BirthDate: "850505", Institution: "Busan Center",
			ResignDate: "2026-03-01", IsActive: false,
		}},
		RegistryB: []model.RecordB{{
			Name: "Park", BirthDate: "19850505", Status: "withdrawn", ResignDate: "2026-03-20",
		}},
	}
}

func TestHealth(t *testing.T) {
	_, srv := newTestServer(t, nil, Options{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestReconcile_WithoutStore(t *testing.T) {
	s, srv := newTestServer(t, nil, Options{})

	resp := postReconcile(t, srv.URL, parkRequest())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out ReconcileResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Empty(t, out.RunID)
	require.NotNil(t, out.Report)
	assert.Equal(t, 1, out.Report.Summary.TotalFindings)
	assert.Equal(t, 1, out.Report.Summary.Counts[model.ResignDateMismatch])

	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Runs.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Findings.WithLabelValues(string(model.ResignDateMismatch))))
}

func TestReconcile_SavesRun(t *testing.T) {
	st := newTestStore(t)
	_, srv := newTestServer(t, st, Options{})

	resp := postReconcile(t, srv.URL, parkRequest())
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out ReconcileResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	require.NotEmpty(t, out.RunID)

	get, err := http.Get(srv.URL + "/v1/runs/" + out.RunID)
	require.NoError(t, err)
	defer get.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, get.StatusCode)

	var run model.Run
	require.NoError(t, json.NewDecoder(get.Body).Decode(&run))
	assert.Equal(t, "2026-Q3", run.Label)
	require.NotNil(t, run.Report)
	assert.Equal(t, 1, run.Report.Summary.TotalFindings)

	list, err := http.Get(srv.URL + "/v1/runs?label=2026-Q3&limit=5")
	require.NoError(t, err)
	defer list.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, list.StatusCode)

	var body struct {
		Runs []model.RunSummary `json:"runs"`
	}
	require.NoError(t, json.NewDecoder(list.Body).Decode(&body))
	require.Len(t, body.Runs, 1)
	assert.Equal(t, out.RunID, body.Runs[0].ID)
	assert.Equal(t, 1, body.Runs[0].TotalFindings)
}

func TestReconcile_InvalidBody(t *testing.T) {
	s, srv := newTestServer(t, nil, Options{})

	resp, err := http.Post(srv.URL+"/v1/reconcile", "application/json", strings.NewReader("{not json"))
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Runs.WithLabelValues("invalid")))
}

func TestReconcile_BodyTooLarge(t *testing.T) {
	_, srv := newTestServer(t, nil, Options{MaxBodyBytes: 16})

	resp := postReconcile(t, srv.URL, parkRequest())
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

type failingStore struct {
	store.Store
}

func (failingStore) SaveRun(context.Context, *model.Run) error {
	return errors.New("disk full")
}

func (failingStore) ListRuns(context.Context, store.RunFilter) ([]model.RunSummary, error) {
	return nil, errors.New("disk full")
}

func (failingStore) GetRun(context.Context, string) (*model.Run, error) {
	return nil, errors.New("disk full")
}

func TestReconcile_SaveFailure(t *testing.T) {
	s, srv := newTestServer(t, failingStore{}, Options{})

	resp := postReconcile(t, srv.URL, parkRequest())
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, 1.0, testutil.ToFloat64(s.metrics.Runs.WithLabelValues("save_failed")))

	list, err := http.Get(srv.URL + "/v1/runs")
	require.NoError(t, err)
	defer list.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusInternalServerError, list.StatusCode)

	get, err := http.Get(srv.URL + "/v1/runs/abc")
	require.NoError(t, err)
	defer get.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusInternalServerError, get.StatusCode)
}

func TestRuns_NotFound(t *testing.T) {
	_, srv := newTestServer(t, newTestStore(t), Options{})

	resp, err := http.Get(srv.URL + "/v1/runs/missing")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRuns_EmptyList(t *testing.T) {
	_, srv := newTestServer(t, newTestStore(t), Options{})

	resp, err := http.Get(srv.URL + "/v1/runs")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.JSONEq(t, "[]", string(body["runs"]))
}

func TestRuns_BadParams(t *testing.T) {
	_, srv := newTestServer(t, newTestStore(t), Options{})

	for _, q := range []string{"limit=abc", "offset=-1"} {
		resp, err := http.Get(srv.URL + "/v1/runs?" + q)
		require.NoError(t, err)
		resp.Body.Close() //nolint:errcheck
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, q)
	}
}

func TestRuns_NoStore(t *testing.T) {
	_, srv := newTestServer(t, nil, Options{})

	for _, path := range []string{"/v1/runs", "/v1/runs/abc"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close() //nolint:errcheck
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, path)
	}
}

func TestRateLimit(t *testing.T) {
	_, srv := newTestServer(t, nil, Options{RateLimit: 0.001, RateBurst: 1})

	first := postReconcile(t, srv.URL, parkRequest())
	assert.Equal(t, http.StatusOK, first.StatusCode)

	second := postReconcile(t, srv.URL, parkRequest())
	assert.Equal(t, http.StatusTooManyRequests, second.StatusCode)

	health, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close() //nolint:errcheck
	assert.Equal(t, http.StatusOK, health.StatusCode, "health is not rate limited")
}

func TestCORS(t *testing.T) {
	_, srv := newTestServer(t, nil, Options{AllowedOrigins: []string{"https://hr.example.com"}})

	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/v1/reconcile", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://hr.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	assert.Equal(t, "https://hr.example.com", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, srv := newTestServer(t, nil, Options{Registry: reg})

	postReconcile(t, srv.URL, parkRequest())

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close() //nolint:errcheck
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "roster_reconcile_runs_total")
	assert.Contains(t, buf.String(), "roster_reconcile_duration_seconds")
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.IncrementRun("ok")
	m.ObserveReport(&model.Report{}, time.Second)
}
