package workflow

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/spetersoncode/chartflow/event"
	"github.com/spetersoncode/chartflow/internal/logging"
)

// Executor runs a compiled graph. It holds no per-run state, so one
// executor may serve concurrent runs as long as each owns its state.
type Executor[S any] struct {
	name        string
	entry       string
	order       []string
	steps       map[string]Step[S]
	edges       map[string]edge[S]
	logger      *slog.Logger
	observer    Observer
	stepTimeout time.Duration
	guard       Guard[S]
}

// Name returns the workflow name.
func (e *Executor[S]) Name() string { return e.name }

// Entry returns the entry step name.
func (e *Executor[S]) Entry() string { return e.entry }

// Steps returns step names in registration order.
func (e *Executor[S]) Steps() []string { return slices.Clone(e.order) }

// Step returns the named step.
func (e *Executor[S]) Step(name string) (Step[S], bool) {
	s, ok := e.steps[name]
	return s, ok
}

// Run executes the graph from the entry point until a terminal step.
// The returned Result is non-nil whenever state is non-nil, including on
// failure. A step error is returned as *StepError.
func (e *Executor[S]) Run(ctx context.Context, state *S) (*Result[S], error) {
	return e.run(ctx, state, nil)
}

// RunStream executes the graph and reports progress on the returned
// channel, which is closed when the run ends.
func (e *Executor[S]) RunStream(ctx context.Context, state *S) <-chan Event {
	ch := event.NewChannel()
	go func() {
		defer close(ch)
		e.run(ctx, state, ch)
	}()
	return ch
}

func (e *Executor[S]) run(ctx context.Context, state *S, ch chan<- Event) (*Result[S], error) {
	if state == nil {
		return nil, ErrNilState
	}

	runID := uuid.NewString()
	logger := e.logger.With("workflow", e.name, "run_id", runID)
	ctx = logging.WithLogger(ctx, logger)
	start := time.Now()

	result := &Result[S]{WorkflowName: e.name, RunID: runID, State: state}
	send := func(ev Event) {
		ev.RunID = runID
		ev.Workflow = e.name
		event.Send(ctx, ch, ev)
	}
	finish := func(reason TerminationReason, err error) (*Result[S], error) {
		result.Termination = reason
		result.Duration = time.Since(start)
		result.Error = err
		e.observer.RunFinished(e.name, reason, result.Duration)
		if err != nil {
			logger.Error("workflow failed", "termination", reason, "error", err)
			failed := Event{
				Type: event.RunError, RunID: runID, Workflow: e.name,
				Duration: result.Duration, Error: err, Message: string(reason),
			}
			var stepErr *StepError
			if errors.As(err, &stepErr) {
				failed.StepName = stepErr.StepName
			}
			// The run context may already be done, so this one never blocks.
			event.Emit(ch, failed)
			return result, err
		}
		logger.Info("workflow complete", "path", result.Path, "duration", result.Duration)
		send(Event{Type: event.RunEnd, Duration: result.Duration, Message: string(reason)})
		return result, nil
	}

	logger.Info("workflow started", "entry", e.entry)
	send(Event{Type: event.RunStart})

	current := e.entry
	for current != End {
		if err := ctx.Err(); err != nil {
			return finish(terminationFor(err), err)
		}

		step := e.steps[current]
		if err := e.runStep(ctx, step, state, send); err != nil {
			reason := TerminationError
			if ctxErr := ctx.Err(); ctxErr != nil {
				reason = terminationFor(ctxErr)
			}
			return finish(reason, err)
		}
		result.Path = append(result.Path, current)

		next, ok := e.next(current, state, send)
		if !ok {
			break
		}
		current = next
	}

	return finish(TerminationComplete, nil)
}

func (e *Executor[S]) runStep(ctx context.Context, step Step[S], state *S, send func(Event)) error {
	name := step.Name()
	contract := step.Contract()
	logger := logging.FromContext(ctx).With("step", name)
	stepCtx := logging.WithLogger(ctx, logger)

	var before *S
	if e.guard != nil {
		before = snapshot(state)
	}

	if e.stepTimeout > 0 {
		var cancel context.CancelFunc
		stepCtx, cancel = context.WithTimeout(stepCtx, e.stepTimeout)
		defer cancel()
	}

	send(Event{Type: event.StepStart, StepName: name})
	logger.Debug("step started", "policy", contract.Failure)

	start := time.Now()
	err := step.Run(stepCtx, state)
	if err == nil && e.guard != nil {
		err = e.guard(name, contract, before, state)
	}
	d := time.Since(start)
	e.observer.StepFinished(e.name, name, d, err)

	if err != nil {
		return &StepError{StepName: name, Policy: contract.Failure, Err: err}
	}

	logger.Debug("step finished", "duration", d)
	send(Event{Type: event.StepEnd, StepName: name, Duration: d})
	return nil
}

// next resolves the edge leaving from. The second result is false when
// from is terminal.
func (e *Executor[S]) next(from string, state *S, send func(Event)) (string, bool) {
	out, ok := e.edges[from]
	if !ok {
		return "", false
	}
	to := out.to
	if out.branch != nil {
		to = out.branch.Else
		if out.branch.Predicate(state) {
			to = out.branch.Then
		}
		e.observer.RouteSelected(e.name, from, to)
		send(Event{Type: event.RouteSelected, StepName: from, RouteName: to})
	}
	if to == End {
		return "", false
	}
	return to, true
}

func terminationFor(err error) TerminationReason {
	if errors.Is(err, context.DeadlineExceeded) {
		return TerminationTimeout
	}
	if errors.Is(err, context.Canceled) {
		return TerminationCancelled
	}
	return TerminationError
}

// Cloner is implemented by state types that can deep-copy themselves.
// Guards compare against the clone, so in-place slice edits are visible.
type Cloner[S any] interface {
	Clone() *S
}

func snapshot[S any](s *S) *S {
	if c, ok := any(s).(Cloner[S]); ok {
		return c.Clone()
	}
	cp := *s
	return &cp
}
