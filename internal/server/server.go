// Package server exposes the workflow catalog and run history over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/spetersoncode/chartflow/event"
	"github.com/spetersoncode/chartflow/internal/logging"
	"github.com/spetersoncode/chartflow/internal/service"
	"github.com/spetersoncode/chartflow/internal/store"
	"github.com/spetersoncode/chartflow/state"
	"github.com/spetersoncode/chartflow/workflow"
	"github.com/spetersoncode/chartflow/workflows"
)

// Server serves the HTTP API.
type Server struct {
	svc     *service.Service
	metrics http.Handler
	logger  *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics mounts h at /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// WithLogger sets the request logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a server backed by svc.
func New(svc *service.Service, opts ...Option) *Server {
	s := &Server{svc: svc, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the routed API.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)
	r.Use(corsMiddleware)

	r.Get("/healthz", s.health)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/workflows", s.listWorkflows)
		r.Get("/workflows/{name}", s.getWorkflow)
		r.Get("/workflows/{name}/graph", s.getGraph)
		r.Post("/workflows/{name}/runs", s.runWorkflow)
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{id}", s.getRun)
		r.Get("/runs/{id}/chart", s.getChart)
	})
	return r
}

// WorkflowInfo describes one workflow.
type WorkflowInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Entry       string   `json:"entry"`
	Steps       []string `json:"steps"`
	Mermaid     string   `json:"mermaid,omitempty"`
}

// RunRequest is the body of POST /v1/workflows/{name}/runs.
type RunRequest struct {
	Query string `json:"query"`
}

// RunResponse reports a finished run.
type RunResponse struct {
	RunID       string                     `json:"run_id"`
	Workflow    string                     `json:"workflow"`
	Termination workflow.TerminationReason `json:"termination"`
	Path        []string                   `json:"path"`
	DurationMS  int64                      `json:"duration_ms"`
	Error       string                     `json:"error,omitempty"`
	State       *state.State               `json:"state,omitempty"`
}

func newRunResponse(res *service.Result) RunResponse {
	out := RunResponse{
		RunID:       res.RunID,
		Workflow:    res.WorkflowName,
		Termination: res.Termination,
		Path:        res.Path,
		DurationMS:  res.Duration.Milliseconds(),
		State:       res.State,
	}
	if out.Path == nil {
		out.Path = []string{}
	}
	if res.Error != nil {
		out.Error = res.Error.Error()
	}
	return out
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) info(def workflows.Definition, withGraph bool) (WorkflowInfo, error) {
	exec, err := s.svc.Executor(def.Name)
	if err != nil {
		return WorkflowInfo{}, err
	}
	info := WorkflowInfo{
		Name:        def.Name,
		Description: def.Description,
		Entry:       exec.Entry(),
		Steps:       exec.Steps(),
	}
	if withGraph {
		info.Mermaid = exec.Mermaid()
	}
	return info, nil
}

func (s *Server) listWorkflows(w http.ResponseWriter, _ *http.Request) {
	defs := s.svc.Workflows()
	out := make([]WorkflowInfo, 0, len(defs))
	for _, def := range defs {
		info, err := s.info(def, false)
		if err != nil {
			continue
		}
		out = append(out, info)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (workflows.Definition, bool) {
	name := chi.URLParam(r, "name")
	for _, def := range s.svc.Workflows() {
		if def.Name == name {
			return def, true
		}
	}
	writeError(w, http.StatusNotFound, fmt.Errorf("%w: %q", workflows.ErrUnknownWorkflow, name))
	return workflows.Definition{}, false
}

func (s *Server) getWorkflow(w http.ResponseWriter, r *http.Request) {
	def, ok := s.lookup(w, r)
	if !ok {
		return
	}
	info, err := s.info(def, true)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

func (s *Server) getGraph(w http.ResponseWriter, r *http.Request) {
	def, ok := s.lookup(w, r)
	if !ok {
		return
	}
	exec, err := s.svc.Executor(def.Name)
	if err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte(exec.Mermaid()))
}

func (s *Server) runWorkflow(w http.ResponseWriter, r *http.Request) {
	def, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body: %w", err))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, service.ErrEmptyQuery)
		return
	}

	if wantsStream(r) {
		s.streamRun(w, r, def.Name, req.Query)
		return
	}

	res, err := s.svc.Run(r.Context(), def.Name, req.Query)
	if res == nil {
		writeError(w, statusFor(err), err)
		return
	}
	if err != nil {
		writeJSON(w, statusForResult(res), newRunResponse(res))
		return
	}
	writeJSON(w, http.StatusOK, newRunResponse(res))
}

func wantsStream(r *http.Request) bool {
	if v := r.URL.Query().Get("stream"); v != "" {
		on, _ := strconv.ParseBool(v)
		return on
	}
	return strings.Contains(r.Header.Get("Accept"), "text/event-stream")
}

// streamEvent is the SSE payload for one executor event.
type streamEvent struct {
	Type       event.Type `json:"type"`
	RunID      string     `json:"run_id"`
	Workflow   string     `json:"workflow"`
	Step       string     `json:"step,omitempty"`
	Route      string     `json:"route,omitempty"`
	DurationMS int64      `json:"duration_ms,omitempty"`
	Message    string     `json:"message,omitempty"`
	Error      string     `json:"error,omitempty"`
}

func (s *Server) streamRun(w http.ResponseWriter, r *http.Request, name, query string) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, errors.New("streaming not supported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	log := logging.FromContext(r.Context())
	res, err := s.svc.Stream(r.Context(), name, query, func(ev event.Event) {
		payload := streamEvent{
			Type:       ev.Type,
			RunID:      ev.RunID,
			Workflow:   ev.Workflow,
			Step:       ev.StepName,
			Route:      ev.RouteName,
			DurationMS: ev.Duration.Milliseconds(),
			Message:    ev.Message,
		}
		if ev.Error != nil {
			payload.Error = ev.Error.Error()
		}
		if werr := writeSSE(w, flusher, string(ev.Type), payload); werr != nil {
			log.Warn("failed to write SSE event", "error", werr, "event_type", ev.Type)
		}
	})
	if res == nil {
		_ = writeSSE(w, flusher, "error", errorResponse{Error: err.Error()})
		return
	}
	if werr := writeSSE(w, flusher, "result", newRunResponse(res)); werr != nil {
		log.Warn("failed to write SSE result", "error", werr)
	}
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit := 0
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", v))
			return
		}
		limit = n
	}

	recs := s.svc.Store().List(q.Get("workflow"), limit)
	// The listing omits the full state; GET /v1/runs/{id} returns it.
	for i := range recs {
		recs[i].State = nil
	}
	writeJSON(w, http.StatusOK, recs)
}

func (s *Server) record(w http.ResponseWriter, r *http.Request) (store.Record, bool) {
	rec, err := s.svc.Store().Get(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, statusFor(err), err)
		return store.Record{}, false
	}
	return rec, true
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if rec, ok := s.record(w, r); ok {
		writeJSON(w, http.StatusOK, rec)
	}
}

func (s *Server) getChart(w http.ResponseWriter, r *http.Request) {
	rec, ok := s.record(w, r)
	if !ok {
		return
	}
	if rec.State == nil || rec.State.Chart == nil {
		writeError(w, http.StatusNotFound, fmt.Errorf("run %s has no chart", rec.RunID))
		return
	}
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeJSON(w, http.StatusOK, rec.State.Chart)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := rec.State.Chart.WriteHTML(w); err != nil {
		logging.FromContext(r.Context()).Error("chart render failed", "run_id", rec.RunID, "error", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrEmptyQuery):
		return http.StatusBadRequest
	case errors.Is(err, workflows.ErrUnknownWorkflow), errors.Is(err, store.ErrRunNotFound):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

func statusForResult(res *service.Result) int {
	switch res.Termination {
	case workflow.TerminationTimeout:
		return http.StatusGatewayTimeout
	case workflow.TerminationCancelled:
		// Client closed the request.
		return 499
	}
	return http.StatusBadGateway
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to serialize event: %w", err)
	}

	// event: TYPE\ndata: {json}\n\n
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, data); err != nil {
		return fmt.Errorf("failed to write event: %w", err)
	}
	flusher.Flush()
	return nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		log := s.logger.With("request_id", middleware.GetReqID(r.Context()))
		ctx := logging.WithLogger(r.Context(), log)

		next.ServeHTTP(ww, r.WithContext(ctx))

		log.Info("request complete",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
		)
	})
}

// corsMiddleware adds CORS headers for cross-origin frontend requests.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
