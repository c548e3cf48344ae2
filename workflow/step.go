package workflow

import (
	"context"
	"slices"
)

// FailurePolicy declares how a step treats its own failures.
type FailurePolicy string

const (
	// FailurePure marks a step with no I/O that never returns an error.
	FailurePure FailurePolicy = "pure"

	// FailureRecoverable marks a step that folds I/O failures into the state
	// as a degraded value instead of returning them.
	FailureRecoverable FailurePolicy = "recoverable"

	// FailureFatal marks a step whose errors abort the run.
	FailureFatal FailurePolicy = "fatal"
)

// Contract describes which state fields a step reads and writes, and how it
// fails. Field names are the state type's own identifiers.
type Contract struct {
	Reads   []string
	Writes  []string
	Failure FailurePolicy
}

// WritesField reports whether the contract declares field as written.
func (c Contract) WritesField(field string) bool {
	return slices.Contains(c.Writes, field)
}

// Step is a unit of computation in a graph.
type Step[S any] interface {
	// Name returns the step identifier used by edges.
	Name() string

	// Contract returns the step's declared field access and failure policy.
	Contract() Contract

	// Run mutates state in place. Fields outside Contract().Writes must be
	// left untouched.
	Run(ctx context.Context, state *S) error
}

// FuncStep adapts a function into a Step.
type FuncStep[S any] struct {
	name     string
	contract Contract
	fn       func(ctx context.Context, state *S) error
}

// NewFuncStep creates a step from a function and its contract.
func NewFuncStep[S any](name string, contract Contract, fn func(ctx context.Context, state *S) error) *FuncStep[S] {
	return &FuncStep[S]{name: name, contract: contract, fn: fn}
}

// Name returns the step name.
func (f *FuncStep[S]) Name() string { return f.name }

// Contract returns the declared contract.
func (f *FuncStep[S]) Contract() Contract { return f.contract }

// Run executes the function.
func (f *FuncStep[S]) Run(ctx context.Context, state *S) error {
	return f.fn(ctx, state)
}
