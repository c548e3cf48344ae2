package workflow

import (
	"time"

	"github.com/spetersoncode/chartflow/event"
)

// Event is an alias to the unified event type.
// Workflow events use event.RunStart, event.RunEnd, event.RunError,
// event.StepStart, event.StepEnd and event.RouteSelected.
type Event = event.Event

// TerminationReason indicates why the workflow stopped.
type TerminationReason string

const (
	// TerminationComplete indicates a terminal step was reached.
	TerminationComplete TerminationReason = "complete"

	// TerminationTimeout indicates the deadline was exceeded.
	TerminationTimeout TerminationReason = "timeout"

	// TerminationCancelled indicates context cancellation.
	TerminationCancelled TerminationReason = "cancelled"

	// TerminationError indicates a step returned an error.
	TerminationError TerminationReason = "error"
)

// Result represents the final outcome of workflow execution.
type Result[S any] struct {
	// WorkflowName identifies the graph.
	WorkflowName string

	// RunID correlates logs and events of this execution.
	RunID string

	// State is the final state. On failure it holds whatever the steps that
	// ran before the failure produced.
	State *S

	// Path lists the steps that completed, in execution order.
	Path []string

	Termination TerminationReason
	Duration    time.Duration

	// Error contains the error that caused termination, if any.
	Error error
}

// Observer receives execution measurements. Implementations must be safe
// for concurrent use when one executor serves concurrent runs.
type Observer interface {
	StepFinished(workflow, step string, d time.Duration, err error)
	RouteSelected(workflow, from, to string)
	RunFinished(workflow string, reason TerminationReason, d time.Duration)
}

type nopObserver struct{}

func (nopObserver) StepFinished(string, string, time.Duration, error)    {}
func (nopObserver) RouteSelected(string, string, string)                 {}
func (nopObserver) RunFinished(string, TerminationReason, time.Duration) {}
