package nodes

import (
	"context"
	"fmt"
	"slices"

	ai "github.com/spetersoncode/chartflow"
	"github.com/spetersoncode/chartflow/chat"
	"github.com/spetersoncode/chartflow/internal/logging"
	"github.com/spetersoncode/chartflow/prompt"
	"github.com/spetersoncode/chartflow/state"
	"github.com/spetersoncode/chartflow/workflow"
)

// Chat sends the conversation to the model and appends the reply.
type Chat struct {
	client chat.Client
	opts   []ai.Option
}

// NewChat creates the plain chat step.
func NewChat(client chat.Client, opts ...ai.Option) *Chat {
	return &Chat{client: client, opts: opts}
}

func (c *Chat) Name() string { return NameChat }

func (c *Chat) Contract() workflow.Contract {
	return contract(workflow.FailureFatal,
		reads(state.FieldConversation),
		state.FieldConversation, state.FieldResponse)
}

func (c *Chat) Run(ctx context.Context, s *state.State) error {
	resp, err := c.client.Chat(ctx, s.Conversation, c.opts...)
	if err != nil {
		return fmt.Errorf("chat: %w", err)
	}
	s.Append(ai.NewAssistantMessage(resp.Content))
	s.Response = resp.Content
	logging.FromContext(ctx).Info("generated response",
		"input_tokens", resp.Usage.InputTokens, "output_tokens", resp.Usage.OutputTokens)
	return nil
}

// Answer asks the model to answer the query from the search results. The
// templated prompt is sent after the conversation but only the reply is
// kept in it.
type Answer struct {
	client  chat.Client
	prompts *prompt.Loader
	opts    []ai.Option
}

// NewAnswer creates the search-grounded answer step.
func NewAnswer(client chat.Client, prompts *prompt.Loader, opts ...ai.Option) *Answer {
	return &Answer{client: client, prompts: prompts, opts: opts}
}

func (a *Answer) Name() string { return NameChatWithSearch }

func (a *Answer) Contract() workflow.Contract {
	return contract(workflow.FailureFatal,
		reads(state.FieldConversation, state.FieldUserQuery, state.FieldSearchResults),
		state.FieldConversation, state.FieldResponse)
}

func (a *Answer) Run(ctx context.Context, s *state.State) error {
	text := a.prompts.Render(prompt.SearchAnswer, prompt.Vars{
		UserQuery:     s.UserQuery,
		SearchResults: s.SearchResults,
	})
	messages := append(slices.Clone(s.Conversation), ai.NewUserMessage(text))

	resp, err := a.client.Chat(ctx, messages, a.opts...)
	if err != nil {
		return fmt.Errorf("answer: %w", err)
	}
	s.Append(ai.NewAssistantMessage(resp.Content))
	s.Response = resp.Content
	logging.FromContext(ctx).Info("generated response with web search context")
	return nil
}
