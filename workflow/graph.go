package workflow

import (
	"fmt"
	"slices"
)

// End is the terminal marker. An edge to End halts execution.
const End = "__end__"

// Predicate decides a conditional edge from the state a step just produced.
type Predicate[S any] func(state *S) bool

// When builds a predicate that compares one field of the state to want.
//
//	workflow.When(func(s *State) Decision { return s.CanGenerateGraph }, DecisionNo)
func When[S any, V comparable](field func(*S) V, want V) Predicate[S] {
	return func(s *S) bool { return field(s) == want }
}

// Branch is the target of a conditional edge: Then when the predicate
// holds, Else otherwise. Label describes the predicate in diagrams.
type Branch[S any] struct {
	Label     string
	Predicate Predicate[S]
	Then      string
	Else      string
}

type edge[S any] struct {
	to     string
	branch *Branch[S]
}

// targets lists every step the edge can lead to.
func (e edge[S]) targets() []string {
	if e.branch != nil {
		return []string{e.branch.Then, e.branch.Else}
	}
	return []string{e.to}
}

// Graph is a mutable graph definition. Builder methods record problems
// instead of failing immediately; Compile reports all of them at once.
type Graph[S any] struct {
	name     string
	steps    map[string]Step[S]
	order    []string
	edges    map[string]edge[S]
	entry    string
	problems []error
}

// NewGraph creates an empty graph definition.
func NewGraph[S any](name string) *Graph[S] {
	return &Graph[S]{
		name:  name,
		steps: make(map[string]Step[S]),
		edges: make(map[string]edge[S]),
	}
}

// Name returns the graph name.
func (g *Graph[S]) Name() string { return g.name }

func (g *Graph[S]) problem(err error, format string, args ...any) {
	g.problems = append(g.problems, fmt.Errorf("%w: %s", err, fmt.Sprintf(format, args...)))
}

// AddStep registers a step under its own name.
func (g *Graph[S]) AddStep(step Step[S]) *Graph[S] {
	if step == nil {
		g.problem(ErrInvalidStep, "nil step")
		return g
	}
	name := step.Name()
	switch {
	case name == "" || name == End:
		g.problem(ErrInvalidStep, "reserved or empty name %q", name)
	case g.steps[name] != nil:
		g.problem(ErrDuplicateStep, "%q", name)
	default:
		g.steps[name] = step
		g.order = append(g.order, name)
	}
	return g
}

// AddEdge adds an unconditional edge. to may be End.
func (g *Graph[S]) AddEdge(from, to string) *Graph[S] {
	return g.addEdge(from, edge[S]{to: to})
}

// AddConditionalEdge adds the data-dependent edge leaving from.
func (g *Graph[S]) AddConditionalEdge(from string, branch Branch[S]) *Graph[S] {
	if branch.Predicate == nil {
		g.problem(ErrInvalidStep, "conditional edge from %q has no predicate", from)
		return g
	}
	return g.addEdge(from, edge[S]{branch: &branch})
}

func (g *Graph[S]) addEdge(from string, e edge[S]) *Graph[S] {
	if _, exists := g.edges[from]; exists {
		g.problem(ErrDuplicateEdge, "from %q", from)
		return g
	}
	g.edges[from] = e
	return g
}

// SetEntryPoint marks the step execution starts from.
func (g *Graph[S]) SetEntryPoint(name string) *Graph[S] {
	g.entry = name
	return g
}

// Compile validates the definition and returns an immutable executor.
func (g *Graph[S]) Compile(opts ...Option) (*Executor[S], error) {
	problems := slices.Clone(g.problems)

	switch {
	case g.entry == "":
		problems = append(problems, ErrNoEntryPoint)
	case g.steps[g.entry] == nil:
		problems = append(problems, fmt.Errorf("%w: entry point %q", ErrStepNotFound, g.entry))
	}

	for _, from := range g.sortedEdgeSources() {
		if g.steps[from] == nil {
			problems = append(problems, fmt.Errorf("%w: edge source %q", ErrStepNotFound, from))
		}
		for _, to := range g.edges[from].targets() {
			if to != End && g.steps[to] == nil {
				problems = append(problems, fmt.Errorf("%w: edge %q -> %q", ErrStepNotFound, from, to))
			}
		}
	}

	if len(problems) == 0 {
		if cycle := g.findCycle(); cycle != nil {
			problems = append(problems, fmt.Errorf("%w: %v", ErrCycle, cycle))
		}
	}

	options := ApplyOptions(opts...)
	var guard Guard[S]
	if options.guard != nil {
		typed, ok := options.guard.(Guard[S])
		if !ok {
			problems = append(problems, ErrGuardType)
		}
		guard = typed
	}

	if len(problems) > 0 {
		return nil, &DefinitionError{Graph: g.name, Problems: problems}
	}

	edges := make(map[string]edge[S], len(g.edges))
	for k, v := range g.edges {
		edges[k] = v
	}
	steps := make(map[string]Step[S], len(g.steps))
	for k, v := range g.steps {
		steps[k] = v
	}

	return &Executor[S]{
		name:        g.name,
		entry:       g.entry,
		order:       slices.Clone(g.order),
		steps:       steps,
		edges:       edges,
		logger:      options.Logger,
		observer:    options.Observer,
		stepTimeout: options.StepTimeout,
		guard:       guard,
	}, nil
}

// sortedEdgeSources returns edge sources in step registration order, then
// any unknown sources in name order, so problems are reported deterministically.
func (g *Graph[S]) sortedEdgeSources() []string {
	var out, unknown []string
	for _, name := range g.order {
		if _, ok := g.edges[name]; ok {
			out = append(out, name)
		}
	}
	for from := range g.edges {
		if g.steps[from] == nil {
			unknown = append(unknown, from)
		}
	}
	slices.Sort(unknown)
	return append(out, unknown...)
}

// findCycle walks every branch from the entry point and returns the first
// cycle found as a path, or nil.
func (g *Graph[S]) findCycle() []string {
	const (
		unvisited = iota
		onStack
		done
	)
	color := make(map[string]int, len(g.steps))
	var stack []string

	var visit func(name string) []string
	visit = func(name string) []string {
		color[name] = onStack
		stack = append(stack, name)
		if e, ok := g.edges[name]; ok {
			for _, to := range e.targets() {
				if to == End {
					continue
				}
				switch color[to] {
				case onStack:
					start := slices.Index(stack, to)
					return append(slices.Clone(stack[start:]), to)
				case unvisited:
					if cycle := visit(to); cycle != nil {
						return cycle
					}
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[name] = done
		return nil
	}
	return visit(g.entry)
}
