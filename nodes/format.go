package nodes

import (
	"context"
	"fmt"

	ai "github.com/spetersoncode/chartflow"
	"github.com/spetersoncode/chartflow/chart"
	"github.com/spetersoncode/chartflow/chat"
	"github.com/spetersoncode/chartflow/internal/logging"
	"github.com/spetersoncode/chartflow/prompt"
	"github.com/spetersoncode/chartflow/state"
	"github.com/spetersoncode/chartflow/workflow"
)

// Format asks the model to restructure search results into
// column-oriented JSON for charting.
type Format struct {
	client  chat.Client
	prompts *prompt.Loader
	opts    []ai.Option
}

// NewFormat creates the data formatting step.
func NewFormat(client chat.Client, prompts *prompt.Loader, opts ...ai.Option) *Format {
	return &Format{client: client, prompts: prompts, opts: opts}
}

func (f *Format) Name() string { return NameFormatData }

func (f *Format) Contract() workflow.Contract {
	return contract(workflow.FailureFatal,
		reads(state.FieldUserQuery, state.FieldSearchResults),
		state.FieldFormattedData)
}

func (f *Format) Run(ctx context.Context, s *state.State) error {
	text := f.prompts.Render(prompt.FormatData, prompt.Vars{
		Data:          s.SearchResults,
		UserQuery:     s.UserQuery,
		SearchResults: s.SearchResults,
	})
	resp, err := f.client.Chat(ctx, []ai.Message{ai.NewUserMessage(text)}, withJSON(f.opts)...)
	if err != nil {
		return fmt.Errorf("format data: %w", err)
	}
	s.FormattedData = chart.StripCodeFence(resp.Content)
	logging.FromContext(ctx).Info("formatted data for graphing", "bytes", len(s.FormattedData))
	return nil
}

// Passthrough copies the search results into FormattedData unchanged, for
// searchers that already return column-oriented JSON.
type Passthrough struct{}

// NewPassthrough creates the pass-through formatting step.
func NewPassthrough() *Passthrough { return &Passthrough{} }

func (Passthrough) Name() string { return NameFormatData }

func (Passthrough) Contract() workflow.Contract {
	return contract(workflow.FailurePure,
		reads(state.FieldSearchResults),
		state.FieldFormattedData)
}

func (Passthrough) Run(_ context.Context, s *state.State) error {
	s.FormattedData = s.SearchResults
	return nil
}
