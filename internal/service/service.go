// Package service runs catalog workflows for the command line, HTTP and
// MCP front ends and records every finished run.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/spetersoncode/chartflow/event"
	"github.com/spetersoncode/chartflow/internal/logging"
	"github.com/spetersoncode/chartflow/internal/store"
	"github.com/spetersoncode/chartflow/state"
	"github.com/spetersoncode/chartflow/workflow"
	"github.com/spetersoncode/chartflow/workflows"
)

// ErrEmptyQuery indicates a run was requested without a query.
var ErrEmptyQuery = errors.New("service: query is required")

// Result is the outcome of one run.
type Result = workflow.Result[state.State]

// Service runs compiled workflows by name.
type Service struct {
	executors map[string]*workflows.Executor
	defs      []workflows.Definition
	store     *store.Store
	timeout   time.Duration
	logger    *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithStore records finished runs in st.
func WithStore(st *store.Store) Option {
	return func(s *Service) { s.store = st }
}

// WithTimeout bounds each run. Zero means no deadline beyond the caller's.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) { s.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a service over executors keyed by workflow name. Executors
// missing from the catalog have no initializer and are ignored.
func New(executors map[string]*workflows.Executor, opts ...Option) *Service {
	s := &Service{
		executors: make(map[string]*workflows.Executor, len(executors)),
		logger:    logging.NewNop(),
	}
	for _, def := range workflows.Catalog() {
		if exec, ok := executors[def.Name]; ok {
			s.executors[def.Name] = exec
			s.defs = append(s.defs, def)
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.store == nil {
		s.store = store.New(nil, store.DefaultCapacity)
	}
	return s
}

// Workflows lists the runnable workflows in catalog order.
func (s *Service) Workflows() []workflows.Definition {
	return slices.Clone(s.defs)
}

// Executor returns the compiled workflow.
func (s *Service) Executor(name string) (*workflows.Executor, error) {
	exec, ok := s.executors[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", workflows.ErrUnknownWorkflow, name)
	}
	return exec, nil
}

// Store returns the run history.
func (s *Service) Store() *store.Store { return s.store }

// Run executes the named workflow for query. The result is non-nil
// whenever the workflow started, including when a step failed.
func (s *Service) Run(ctx context.Context, name, query string) (*Result, error) {
	exec, st, err := s.prepare(name, query)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	started := time.Now()
	res, err := exec.Run(ctx, st)
	if res != nil {
		s.record(ctx, res, started)
	}
	return res, err
}

// Stream executes the named workflow and forwards executor events to
// onEvent as they occur. It returns once the run has ended.
func (s *Service) Stream(ctx context.Context, name, query string, onEvent func(event.Event)) (*Result, error) {
	exec, st, err := s.prepare(name, query)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	started := time.Now()
	res := &Result{WorkflowName: exec.Name(), State: st, Termination: workflow.TerminationComplete}
	for ev := range exec.RunStream(ctx, st) {
		if onEvent != nil {
			onEvent(ev)
		}
		res.RunID = ev.RunID
		switch ev.Type {
		case event.StepEnd:
			res.Path = append(res.Path, ev.StepName)
		case event.RunEnd:
			res.Duration = ev.Duration
			res.Termination = workflow.TerminationReason(ev.Message)
		case event.RunError:
			res.Duration = ev.Duration
			res.Termination = workflow.TerminationReason(ev.Message)
			res.Error = ev.Error
		}
	}
	s.record(ctx, res, started)
	return res, res.Error
}

func (s *Service) prepare(name, query string) (*workflows.Executor, *state.State, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, nil, ErrEmptyQuery
	}
	exec, err := s.Executor(name)
	if err != nil {
		return nil, nil, err
	}
	def, err := workflows.Lookup(name)
	if err != nil {
		return nil, nil, err
	}
	return exec, def.NewState(query), nil
}

func (s *Service) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *Service) record(ctx context.Context, res *Result, started time.Time) {
	s.store.Put(store.NewRecord(res, started))
	if err := s.store.Sync(context.WithoutCancel(ctx)); err != nil {
		s.logger.Warn("run history not saved", "run_id", res.RunID, "error", err)
		return
	}
	s.logger.Debug("run recorded", "run_id", res.RunID, "workflow", res.WorkflowName, "termination", res.Termination)
}
