// Package workflow implements a conditional step-graph engine.
//
// A [Graph] is a registry of named steps plus directed edges. An edge is
// either unconditional or a single data-dependent [Branch] whose predicate
// is evaluated against the state the step just produced. Exactly one step is
// the entry point; a step with no outgoing edge, or an edge to [End], is
// terminal.
//
// # State Model
//
// The generic parameter S is a caller-defined state struct. It is passed by
// pointer and mutated in place by each step; after execution the final
// values are read straight from the struct:
//
//	type PipelineState struct {
//	    Query  string
//	    Answer string
//	}
//
//	g := workflow.NewGraph[PipelineState]("qa").
//	    AddStep(workflow.NewFuncStep("answer", workflow.Contract{
//	        Reads:   []string{"query"},
//	        Writes:  []string{"answer"},
//	        Failure: workflow.FailureFatal,
//	    }, func(ctx context.Context, s *PipelineState) error {
//	        s.Answer = strings.ToUpper(s.Query)
//	        return nil
//	    })).
//	    SetEntryPoint("answer")
//
//	exec, err := g.Compile()
//	result, err := exec.Run(ctx, &PipelineState{Query: "hi"})
//
// # Contracts and Failure Policy
//
// Every step declares a [Contract]: the fields it reads, the fields it
// writes, and a [FailurePolicy]. Recoverable steps fold their own I/O
// failures into the state; fatal steps return the error, which aborts the
// run. The executor never retries and never swallows a step error. Install
// a [Guard] with [WithGuard] to verify after each step that only declared
// fields changed.
//
// # Validation
//
// [Graph.Compile] rejects a graph with no entry point, edges naming unknown
// steps, more than one outgoing edge per step, or any cycle reachable from
// the entry point. A compiled [Executor] therefore runs each step at most
// once per execution.
//
// # Streaming
//
// [Executor.RunStream] runs the same state machine and reports progress as
// [event.Event] values.
package workflow
