// Package api exposes reconciliation and run history over HTTP.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/roster-cli/internal/model"
	"github.com/sells-group/roster-cli/internal/reconcile"
	"github.com/sells-group/roster-cli/internal/store"
)

// Options configures the HTTP surface.
type Options struct {
	AllowedOrigins []string
	// RateLimit is requests per second across the process; 0 disables it.
	RateLimit    float64
	RateBurst    int
	MaxBodyBytes int64
	// Registry receives the API metrics and backs /metrics. A fresh registry
	// is used when nil.
	Registry *prometheus.Registry
}

// Server handles reconciliation requests. The store is optional; without it
// runs are not persisted and the /v1/runs endpoints answer 503.
type Server struct {
	engine   *reconcile.Engine
	store    store.Store
	metrics  *Metrics
	registry *prometheus.Registry
	limiter  *rate.Limiter
	opts     Options
	log      *zap.Logger
}

// New creates a Server.
func New(engine *reconcile.Engine, st store.Store, opts Options) *Server {
	if engine == nil {
		engine = reconcile.New()
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 10 << 20
	}
	reg := opts.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	s := &Server{
		engine:   engine,
		store:    st,
		metrics:  NewMetrics(reg),
		registry: reg,
		opts:     opts,
		log:      zap.L().With(zap.String("component", "api")),
	}
	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return s
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	if len(s.opts.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: s.opts.AllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Get("/health", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))

	r.Route("/v1", func(r chi.Router) {
		r.Use(s.rateLimit)
		r.Post("/reconcile", s.handleReconcile)
		r.Get("/runs", s.handleListRuns)
		r.Get("/runs/{id}", s.handleGetRun)
	})
	return r
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReconcileRequest carries both rosters inline.
type ReconcileRequest struct {
	Label     string          `json:"label,omitempty"`
	SourceA   string          `json:"source_a,omitempty"`
	SourceB   string          `json:"source_b,omitempty"`
	RegistryA []model.RecordA `json:"registry_a"`
	RegistryB []model.RecordB `json:"registry_b"`
}

// ReconcileResponse is the engine report plus the stored run ID, if any.
type ReconcileResponse struct {
	RunID  string        `json:"run_id,omitempty"`
	Report *model.Report `json:"report"`
}

func (s *Server) handleReconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.opts.MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.metrics.IncrementRun("invalid")
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	start := time.Now()
	rep := s.engine.Reconcile(req.RegistryA, req.RegistryB)
	s.metrics.ObserveReport(rep, time.Since(start))

	resp := ReconcileResponse{Report: rep}
	if s.store != nil {
		run := &model.Run{Label: req.Label, SourceA: req.SourceA, SourceB: req.SourceB, Report: rep}
		if err := s.store.SaveRun(r.Context(), run); err != nil {
			s.log.Error("save run failed", zap.Error(err))
			s.metrics.IncrementRun("save_failed")
			writeError(w, http.StatusInternalServerError, "failed to save run")
			return
		}
		resp.RunID = run.ID
	}

	s.metrics.IncrementRun("ok")
	s.log.Info("reconciled",
		zap.String("run_id", resp.RunID),
		zap.Int("registry_a", len(req.RegistryA)),
		zap.Int("registry_b", len(req.RegistryB)),
		zap.Int("findings", rep.Summary.TotalFindings),
	)
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}
	q := r.URL.Query()
	filter := store.RunFilter{Label: q.Get("label")}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		s.log.Error("list runs failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	if runs == nil {
		runs = []model.RunSummary{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": runs})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		writeError(w, http.StatusServiceUnavailable, "run store not configured")
		return
	}
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		s.log.Error("get run failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "failed to get run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, errors.New("invalid integer")
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
