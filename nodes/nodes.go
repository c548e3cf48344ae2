// Package nodes implements the workflow steps that operate on state.State.
//
// Each step declares a workflow.Contract naming the fields it reads and
// writes and its failure policy. Steps that call a model take their
// collaborators at construction; they hold no per-run state and may be
// shared by concurrent runs.
package nodes

import (
	"context"

	ai "github.com/spetersoncode/chartflow"
	"github.com/spetersoncode/chartflow/state"
	"github.com/spetersoncode/chartflow/workflow"
)

// Step names.
const (
	NameChat           = "chat"
	NameChatWithSearch = "chat_with_search"
	NameQueryFiltering = "query_filtering"
	NameWebSearch      = "web_search"
	NameFormatData     = "format_data"
	NameGraphSelector  = "graph_selector"
	NameGraphRenderer  = "graph_renderer"
	NameTextResponse   = "text_response"
)

// Step is a workflow step over state.State.
type Step = workflow.Step[state.State]

// Searcher performs search-enabled generation for a query.
// client.Client satisfies it.
type Searcher interface {
	Search(ctx context.Context, query string, opts ...ai.Option) (*ai.Response, error)
}

// SearcherFunc adapts a function to Searcher.
type SearcherFunc func(ctx context.Context, query string, opts ...ai.Option) (*ai.Response, error)

// Search calls f.
func (f SearcherFunc) Search(ctx context.Context, query string, opts ...ai.Option) (*ai.Response, error) {
	return f(ctx, query, opts...)
}

func contract(policy workflow.FailurePolicy, reads []state.Field, writes ...state.Field) workflow.Contract {
	return workflow.Contract{
		Reads:   state.Names(reads...),
		Writes:  state.Names(writes...),
		Failure: policy,
	}
}

func reads(fields ...state.Field) []state.Field { return fields }

// withJSON appends JSON response mode to opts without aliasing the caller's slice.
func withJSON(opts []ai.Option) []ai.Option {
	out := make([]ai.Option, 0, len(opts)+1)
	out = append(out, opts...)
	return append(out, ai.WithJSONMode())
}
