package workflows

import (
	"fmt"
	"slices"

	"github.com/spetersoncode/chartflow/state"
)

// Definition describes one runnable workflow.
type Definition struct {
	Name        string
	Description string

	// Build compiles the workflow from deps.
	Build func(Deps) (*Executor, error)

	// NewState creates the initial state for a query.
	NewState func(query string) *state.State
}

var catalog = []Definition{
	{
		Name:        SimpleChatName,
		Description: "Answer the query directly with the chat model.",
		Build:       SimpleChat,
		NewState:    NewSimpleChatState,
	},
	{
		Name:        WebSearchName,
		Description: "Search the web for the query and answer from the results.",
		Build:       WebSearchAnswer,
		NewState:    NewWebSearchState,
	},
	{
		Name:        ConditionalGraphName,
		Description: "Chart the query from web data when it asks for numbers, otherwise explain why it cannot be charted.",
		Build:       ConditionalGraph,
		NewState:    NewConditionalGraphState,
	},
}

// Catalog returns every workflow definition.
func Catalog() []Definition {
	return slices.Clone(catalog)
}

// Names returns the workflow names in catalog order.
func Names() []string {
	names := make([]string, len(catalog))
	for i, d := range catalog {
		names[i] = d.Name
	}
	return names
}

// Lookup returns the named definition.
func Lookup(name string) (Definition, error) {
	for _, d := range catalog {
		if d.Name == name {
			return d, nil
		}
	}
	return Definition{}, fmt.Errorf("%w: %q", ErrUnknownWorkflow, name)
}

// BuildAll compiles every workflow in the catalog.
func BuildAll(d Deps) (map[string]*Executor, error) {
	out := make(map[string]*Executor, len(catalog))
	for _, def := range catalog {
		exec, err := def.Build(d)
		if err != nil {
			return nil, fmt.Errorf("build %s: %w", def.Name, err)
		}
		out[def.Name] = exec
	}
	return out, nil
}
