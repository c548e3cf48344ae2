package workflow

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoEntryPoint indicates Compile was called before SetEntryPoint.
	ErrNoEntryPoint = errors.New("workflow: no entry point")

	// ErrStepNotFound indicates a referenced step does not exist.
	ErrStepNotFound = errors.New("workflow: step not found")

	// ErrDuplicateStep indicates two steps share a name.
	ErrDuplicateStep = errors.New("workflow: duplicate step")

	// ErrDuplicateEdge indicates a step was given more than one outgoing edge.
	ErrDuplicateEdge = errors.New("workflow: duplicate outgoing edge")

	// ErrInvalidStep indicates a nil step, an empty name, or a reserved name.
	ErrInvalidStep = errors.New("workflow: invalid step")

	// ErrCycle indicates a step is reachable from itself.
	ErrCycle = errors.New("workflow: cycle detected")

	// ErrGuardType indicates WithGuard was given a guard for a different state type.
	ErrGuardType = errors.New("workflow: guard state type mismatch")

	// ErrNilState indicates Run was called with a nil state.
	ErrNilState = errors.New("workflow: nil state")
)

// DefinitionError collects every problem found while compiling a graph.
type DefinitionError struct {
	Graph    string
	Problems []error
}

func (e *DefinitionError) Error() string {
	msgs := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		msgs[i] = p.Error()
	}
	return fmt.Sprintf("workflow: graph %q is invalid: %s", e.Graph, strings.Join(msgs, "; "))
}

// Unwrap exposes the individual problems to errors.Is and errors.As.
func (e *DefinitionError) Unwrap() []error {
	return e.Problems
}

// StepError wraps an error returned by a step. The executor adds nothing
// else; errors.Is and errors.As reach the step's original error.
type StepError struct {
	StepName string
	Policy   FailurePolicy
	Err      error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("workflow: step %q failed: %v", e.StepName, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// ContractError reports a step that changed fields it did not declare.
type ContractError struct {
	StepName   string
	Undeclared []string
}

func (e *ContractError) Error() string {
	return fmt.Sprintf("workflow: step %q changed undeclared fields: %s",
		e.StepName, strings.Join(e.Undeclared, ", "))
}
