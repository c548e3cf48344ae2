// Package event defines the events emitted while a workflow executes.
// Consumers subscribe through workflow.Executor.RunStream.
package event

import (
	"context"
	"time"
)

// Type identifies the kind of event.
type Type string

// Run lifecycle events
const (
	// RunStart fires when execution begins.
	RunStart Type = "run_start"

	// RunEnd fires when execution reaches a terminal step.
	RunEnd Type = "run_end"

	// RunError fires when a step propagates an error or the context ends.
	RunError Type = "run_error"
)

// Step lifecycle events
const (
	// StepStart fires before a step runs.
	StepStart Type = "step_start"

	// StepEnd fires after a step returns without error.
	StepEnd Type = "step_end"

	// RouteSelected fires when a conditional edge picks its target.
	RouteSelected Type = "route_selected"
)

// Event represents an observable occurrence during workflow execution.
type Event struct {
	Type Type

	// RunID correlates all events of one execution.
	RunID string

	// Workflow is the graph name.
	Workflow string

	// StepName identifies the step for step and route events.
	StepName string

	// RouteName is the chosen target for RouteSelected events.
	RouteName string

	// Duration is the step or run wall time on StepEnd, RunEnd and RunError.
	Duration time.Duration

	// Error contains the error for RunError events.
	Error error

	// Message contains additional context, such as the termination reason.
	Message string

	Timestamp time.Time
}

// Emit sends an event with timestamp to the channel without blocking.
// A nil channel is ignored.
func Emit(ch chan<- Event, e Event) {
	if ch == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
	default:
	}
}

// Send delivers an event, blocking until the receiver takes it or ctx ends.
// It reports whether the event was delivered.
func Send(ctx context.Context, ch chan<- Event, e Event) bool {
	if ch == nil {
		return false
	}
	e.Timestamp = time.Now()
	select {
	case ch <- e:
		return true
	case <-ctx.Done():
		return false
	}
}

// NewChannel creates a buffered event channel with standard capacity.
func NewChannel() chan Event {
	return make(chan Event, 64)
}
