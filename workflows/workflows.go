// Package workflows assembles the chartflow step graphs.
//
// Three topologies are provided:
//
//	simple_chat:        chat -> END
//	web_search:         web_search -> chat_with_search -> END
//	conditional_graph:  query_filtering -?-> text_response -> END
//	                                     \-> web_search -> format_data -> graph_selector -> graph_renderer -> END
//
// Collaborators are injected through [Deps]; nothing here is global.
package workflows

import (
	"errors"
	"log/slog"
	"time"

	ai "github.com/spetersoncode/chartflow"
	"github.com/spetersoncode/chartflow/chat"
	"github.com/spetersoncode/chartflow/nodes"
	"github.com/spetersoncode/chartflow/prompt"
	"github.com/spetersoncode/chartflow/state"
	"github.com/spetersoncode/chartflow/workflow"
)

// Workflow names.
const (
	SimpleChatName       = "simple_chat"
	WebSearchName        = "web_search"
	ConditionalGraphName = "conditional_graph"
)

// System prompts seeding the conversation.
const (
	SimpleChatSystem = "You are a helpful assistant."
	WebSearchSystem  = "You are a helpful assistant that provides information based on web search results."
)

var (
	// ErrNoChatClient indicates Deps.Chat is nil.
	ErrNoChatClient = errors.New("workflows: chat client is required")

	// ErrUnknownWorkflow indicates a name missing from the catalog.
	ErrUnknownWorkflow = errors.New("workflows: unknown workflow")

	// ErrNoSearcher indicates a search workflow was built without Deps.Searcher.
	ErrNoSearcher = errors.New("workflows: searcher is required")
)

// Executor runs one of the assembled workflows.
type Executor = workflow.Executor[state.State]

// Deps holds the collaborators shared by the assembled steps.
type Deps struct {
	// Chat answers, formats and selects charts.
	Chat chat.Client

	// Classifier runs the classification step. Nil uses Chat.
	Classifier chat.Client

	Searcher nodes.Searcher

	// Prompts resolves instruction templates. Nil uses the built-in defaults.
	Prompts *prompt.Loader

	ChatOptions       []ai.Option
	ClassifierOptions []ai.Option
	SearchOptions     []ai.Option

	// PassthroughFormat uses the search results as formatted data instead
	// of asking the model to restructure them.
	PassthroughFormat bool

	Logger      *slog.Logger
	Observer    workflow.Observer
	StepTimeout time.Duration
}

func (d Deps) classifier() chat.Client {
	if d.Classifier != nil {
		return d.Classifier
	}
	return d.Chat
}

func (d Deps) prompts() *prompt.Loader {
	if d.Prompts != nil {
		return d.Prompts
	}
	return prompt.NewLoader("")
}

func (d Deps) compile(g *workflow.Graph[state.State]) (*Executor, error) {
	opts := []workflow.Option{
		workflow.WithGuard[state.State](state.Verify),
		workflow.WithStepTimeout(d.StepTimeout),
	}
	if d.Logger != nil {
		opts = append(opts, workflow.WithLogger(d.Logger))
	}
	if d.Observer != nil {
		opts = append(opts, workflow.WithObserver(d.Observer))
	}
	return g.Compile(opts...)
}

// SimpleChat assembles chat -> END.
func SimpleChat(d Deps) (*Executor, error) {
	if d.Chat == nil {
		return nil, ErrNoChatClient
	}
	g := workflow.NewGraph[state.State](SimpleChatName).
		AddStep(nodes.NewChat(d.Chat, d.ChatOptions...)).
		SetEntryPoint(nodes.NameChat).
		AddEdge(nodes.NameChat, workflow.End)
	return d.compile(g)
}

// NewSimpleChatState seeds the conversation with the system prompt and the
// query itself.
func NewSimpleChatState(query string) *state.State {
	return state.New(query,
		ai.NewSystemMessage(SimpleChatSystem),
		ai.NewUserMessage(query),
	)
}

// WebSearchAnswer assembles web_search -> chat_with_search -> END.
func WebSearchAnswer(d Deps) (*Executor, error) {
	if d.Chat == nil {
		return nil, ErrNoChatClient
	}
	if d.Searcher == nil {
		return nil, ErrNoSearcher
	}
	g := workflow.NewGraph[state.State](WebSearchName).
		AddStep(nodes.NewWebSearch(d.Searcher, d.SearchOptions...)).
		AddStep(nodes.NewAnswer(d.Chat, d.prompts(), d.ChatOptions...)).
		SetEntryPoint(nodes.NameWebSearch).
		AddEdge(nodes.NameWebSearch, nodes.NameChatWithSearch).
		AddEdge(nodes.NameChatWithSearch, workflow.End)
	return d.compile(g)
}

// NewWebSearchState seeds the conversation with the search system prompt.
func NewWebSearchState(query string) *state.State {
	return state.New(query, ai.NewSystemMessage(WebSearchSystem))
}

// ConditionalGraph assembles the classify-then-chart workflow. A "No"
// classification ends with the rejection text; anything else searches,
// formats, selects a chart and renders it.
func ConditionalGraph(d Deps) (*Executor, error) {
	if d.Chat == nil {
		return nil, ErrNoChatClient
	}
	if d.Searcher == nil {
		return nil, ErrNoSearcher
	}
	prompts := d.prompts()

	var format nodes.Step = nodes.NewFormat(d.Chat, prompts, d.ChatOptions...)
	if d.PassthroughFormat {
		format = nodes.NewPassthrough()
	}

	g := workflow.NewGraph[state.State](ConditionalGraphName).
		AddStep(nodes.NewClassify(d.classifier(), prompts, d.ClassifierOptions...)).
		AddStep(nodes.NewTextResponse()).
		AddStep(nodes.NewWebSearch(d.Searcher, d.SearchOptions...)).
		AddStep(format).
		AddStep(nodes.NewSelectChart(d.Chat, prompts, d.ChatOptions...)).
		AddStep(nodes.NewRender()).
		SetEntryPoint(nodes.NameQueryFiltering).
		AddConditionalEdge(nodes.NameQueryFiltering, workflow.Branch[state.State]{
			Label:     "can_generate_graph == No",
			Predicate: workflow.When(canGenerateGraph, state.DecisionNo),
			Then:      nodes.NameTextResponse,
			Else:      nodes.NameWebSearch,
		}).
		AddEdge(nodes.NameTextResponse, workflow.End).
		AddEdge(nodes.NameWebSearch, nodes.NameFormatData).
		AddEdge(nodes.NameFormatData, nodes.NameGraphSelector).
		AddEdge(nodes.NameGraphSelector, nodes.NameGraphRenderer).
		AddEdge(nodes.NameGraphRenderer, workflow.End)
	return d.compile(g)
}

// NewConditionalGraphState seeds the conversation with the search system
// prompt.
func NewConditionalGraphState(query string) *state.State {
	return state.New(query, ai.NewSystemMessage(WebSearchSystem))
}

func canGenerateGraph(s *state.State) state.Decision { return s.CanGenerateGraph }
