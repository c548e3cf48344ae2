package nodes

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/chartflow"
	"github.com/spetersoncode/chartflow/chart"
	"github.com/spetersoncode/chartflow/prompt"
	"github.com/spetersoncode/chartflow/state"
	"github.com/spetersoncode/chartflow/workflow"
)

// fakeChat returns queued replies and records every request.
type fakeChat struct {
	mu      sync.Mutex
	replies []string
	err     error
	calls   [][]ai.Message
	options []*ai.Options
}

func (f *fakeChat) Chat(_ context.Context, messages []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, messages)
	f.options = append(f.options, ai.ApplyOptions(opts...))
	if f.err != nil {
		return nil, f.err
	}
	if len(f.replies) == 0 {
		return &ai.Response{}, nil
	}
	reply := f.replies[0]
	f.replies = f.replies[1:]
	return &ai.Response{Content: reply, Usage: ai.Usage{InputTokens: 3, OutputTokens: 2}}, nil
}

func (f *fakeChat) lastOptions() *ai.Options {
	return f.options[len(f.options)-1]
}

// sentinel returns a state with every field set to a recognizable value.
func sentinel() *state.State {
	s := state.New("sentinel query", ai.NewSystemMessage("sentinel system"))
	s.Response = "sentinel response"
	s.SearchResults = "sentinel results"
	s.CanGenerateGraph = state.DecisionYes
	s.SelectedChartType = chart.KindPie
	s.SelectedColumns = []string{"sentinel_a", "sentinel_b"}
	s.FormattedData = `{"A": {"values": ["x"]}, "B": {"values": [1]}}`
	s.Chart = chart.Placeholder("sentinel", "sentinel")
	return s
}

// runChecked runs step on s and asserts it only changed declared fields.
func runChecked(t *testing.T, step Step, s *state.State) error {
	t.Helper()
	before := s.Clone()
	err := step.Run(context.Background(), s)
	assert.NoError(t, state.Verify(step.Name(), step.Contract(), before, s), "step %s", step.Name())
	return err
}

func TestContracts(t *testing.T) {
	prompts := prompt.NewLoader("")
	tests := []struct {
		step   Step
		name   string
		policy workflow.FailurePolicy
		writes []state.Field
	}{
		{NewChat(&fakeChat{}), NameChat, workflow.FailureFatal, []state.Field{state.FieldConversation, state.FieldResponse}},
		{NewAnswer(&fakeChat{}, prompts), NameChatWithSearch, workflow.FailureFatal, []state.Field{state.FieldConversation, state.FieldResponse}},
		{NewClassify(&fakeChat{}, prompts), NameQueryFiltering, workflow.FailureRecoverable, []state.Field{state.FieldCanGenerateGraph}},
		{NewWebSearch(SearcherFunc(nil)), NameWebSearch, workflow.FailureRecoverable, []state.Field{state.FieldSearchResults}},
		{NewFormat(&fakeChat{}, prompts), NameFormatData, workflow.FailureFatal, []state.Field{state.FieldFormattedData}},
		{NewPassthrough(), NameFormatData, workflow.FailurePure, []state.Field{state.FieldFormattedData}},
		{NewSelectChart(&fakeChat{}, prompts), NameGraphSelector, workflow.FailureFatal, []state.Field{state.FieldSelectedChartType, state.FieldSelectedColumns}},
		{NewRender(), NameGraphRenderer, workflow.FailurePure, []state.Field{state.FieldChart}},
		{NewTextResponse(), NameTextResponse, workflow.FailurePure, []state.Field{state.FieldResponse}},
	}
	for _, tt := range tests {
		t.Run(tt.name+" "+string(tt.policy), func(t *testing.T) {
			assert.Equal(t, tt.name, tt.step.Name())
			c := tt.step.Contract()
			assert.Equal(t, tt.policy, c.Failure)
			assert.Equal(t, state.Names(tt.writes...), c.Writes)
			assert.NotEmpty(t, c.Reads)
			assert.False(t, c.WritesField(string(state.FieldUserQuery)))
		})
	}
}

func TestChat(t *testing.T) {
	fc := &fakeChat{replies: []string{"Paris"}}
	s := sentinel()
	s.Append(ai.NewUserMessage("capital of France?"))

	step := NewChat(fc, ai.WithMaxTokens(64))
	require.NoError(t, runChecked(t, step, s))

	require.Len(t, s.Conversation, 3)
	last, _ := s.LastMessage()
	assert.Equal(t, ai.RoleAssistant, last.Role)
	assert.Equal(t, "Paris", last.Content)
	assert.Equal(t, "Paris", s.Response)
	assert.Len(t, fc.calls[0], 2)
	assert.Equal(t, 64, fc.lastOptions().MaxTokens)

	failing := NewChat(&fakeChat{err: errors.New("rate limited")})
	err := failing.Run(context.Background(), sentinel())
	assert.ErrorContains(t, err, "rate limited")
}

func TestAnswer(t *testing.T) {
	fc := &fakeChat{replies: []string{"The answer."}}
	s := sentinel()
	s.SearchResults = "France has 68 million people."

	require.NoError(t, runChecked(t, NewAnswer(fc, prompt.NewLoader("")), s))

	sent := fc.calls[0]
	require.Len(t, sent, 2)
	assert.Contains(t, sent[1].Content, "User Query: sentinel query")
	assert.Contains(t, sent[1].Content, "France has 68 million people.")

	// Only the reply joins the conversation.
	require.Len(t, s.Conversation, 2)
	assert.Equal(t, "The answer.", s.Conversation[1].Content)
	assert.Equal(t, "The answer.", s.Response)

	err := NewAnswer(&fakeChat{err: errors.New("down")}, prompt.NewLoader("")).Run(context.Background(), sentinel())
	assert.ErrorContains(t, err, "down")
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
		want  state.Decision
	}{
		{"yes", `{"can_generate_graph": "Yes"}`, nil, state.DecisionYes},
		{"lowercase yes", `{"can_generate_graph": "yes"}`, nil, state.DecisionYes},
		{"boolean true", `{"can_generate_graph": true}`, nil, state.DecisionYes},
		{"fenced", "```json\n{\"can_generate_graph\": \"Yes\"}\n```", nil, state.DecisionYes},
		{"no", `{"can_generate_graph": "No"}`, nil, state.DecisionNo},
		{"unexpected value", `{"can_generate_graph": "perhaps"}`, nil, state.DecisionNo},
		{"missing key", `{"other": "Yes"}`, nil, state.DecisionNo},
		{"not json", `Yes, definitely`, nil, state.DecisionNo},
		{"generation failure", "", errors.New("timeout"), state.DecisionNo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fc := &fakeChat{replies: []string{tt.reply}, err: tt.err}
			s := sentinel()
			s.CanGenerateGraph = state.DecisionUnset

			require.NoError(t, runChecked(t, NewClassify(fc, prompt.NewLoader(""), ai.WithTemperature(0)), s))
			assert.Equal(t, tt.want, s.CanGenerateGraph)

			sent := fc.calls[0]
			require.Len(t, sent, 2)
			assert.Equal(t, ai.RoleSystem, sent[0].Role)
			assert.Equal(t, "User Query: sentinel query", sent[1].Content)
			assert.Equal(t, ai.ResponseFormatJSON, fc.lastOptions().ResponseFormat)
			assert.NotNil(t, fc.lastOptions().Temperature)
		})
	}
}

func TestWebSearch(t *testing.T) {
	t.Run("success with sources", func(t *testing.T) {
		var gotQuery string
		searcher := SearcherFunc(func(_ context.Context, q string, _ ...ai.Option) (*ai.Response, error) {
			gotQuery = q
			return &ai.Response{
				Content: "GDP figures...",
				Citations: []ai.Citation{
					{Title: "World Bank", URL: "https://worldbank.org"},
					{URL: "https://worldbank.org"},
					{URL: "https://imf.org"},
				},
			}, nil
		})
		s := sentinel()
		require.NoError(t, runChecked(t, NewWebSearch(searcher), s))
		assert.Equal(t, "sentinel query", gotQuery)
		assert.Equal(t, "GDP figures...\n\nSources:\n- World Bank: https://worldbank.org\n- https://imf.org", s.SearchResults)
	})

	t.Run("empty result", func(t *testing.T) {
		searcher := SearcherFunc(func(context.Context, string, ...ai.Option) (*ai.Response, error) {
			return &ai.Response{Content: "  "}, nil
		})
		s := sentinel()
		require.NoError(t, runChecked(t, NewWebSearch(searcher), s))
		assert.Equal(t, NoSearchResults, s.SearchResults)
	})

	t.Run("failure is recorded", func(t *testing.T) {
		searcher := SearcherFunc(func(context.Context, string, ...ai.Option) (*ai.Response, error) {
			return nil, errors.New("quota exceeded")
		})
		s := sentinel()
		require.NoError(t, runChecked(t, NewWebSearch(searcher), s))
		assert.Equal(t, "Web search failed: quota exceeded", s.SearchResults)
	})
}

func TestFormat(t *testing.T) {
	fc := &fakeChat{replies: []string{"```json\n{\"A\": {\"values\": [1]}}\n```"}}
	s := sentinel()
	require.NoError(t, runChecked(t, NewFormat(fc, prompt.NewLoader("")), s))

	assert.Equal(t, `{"A": {"values": [1]}}`, s.FormattedData)
	assert.Contains(t, fc.calls[0][0].Content, "sentinel results")
	assert.Equal(t, ai.ResponseFormatJSON, fc.lastOptions().ResponseFormat)

	err := NewFormat(&fakeChat{err: errors.New("nope")}, prompt.NewLoader("")).Run(context.Background(), sentinel())
	assert.Error(t, err)
}

func TestPassthrough(t *testing.T) {
	s := sentinel()
	require.NoError(t, runChecked(t, NewPassthrough(), s))
	assert.Equal(t, "sentinel results", s.FormattedData)
}

func TestParseSelection(t *testing.T) {
	tests := []struct {
		name    string
		reply   string
		kind    chart.Kind
		columns []string
	}{
		{"canonical", `{"chart_type": "line_graph", "columns": ["Year", "GDP"]}`, chart.KindLine, []string{"Year", "GDP"}},
		{"aliases", `{"graph_type": "Pie_Chart", "selected_columns": ["A", "B"]}`, chart.KindPie, []string{"A", "B"}},
		{"no columns", `{"chart_type": "bar_graph"}`, chart.KindBar, []string{}},
		{"bare name", "multi_bar_graph\n", chart.KindMultiBar, []string{}},
		{"quoted name", `"scatterplot"`, chart.KindScatter, []string{}},
		{"unknown kind kept", `{"chart_type": "histogram"}`, chart.Kind("histogram"), []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := ParseSelection(tt.reply)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, sel.Kind)
			assert.Equal(t, tt.columns, sel.Columns)
		})
	}

	for name, reply := range map[string]string{
		"prose":        "I would use a chart.",
		"missing type": `{"columns": ["A", "B"]}`,
		"array":        `["bar_graph"]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ParseSelection(reply)
			var ue *ai.UnmarshalError
			require.ErrorAs(t, err, &ue)
			assert.Equal(t, reply, ue.Content)
		})
	}
}

func TestSelectChart(t *testing.T) {
	fc := &fakeChat{replies: []string{`{"chart_type": "bar_graph", "columns": ["A", "B"]}`}}
	s := sentinel()
	require.NoError(t, runChecked(t, NewSelectChart(fc, prompt.NewLoader("")), s))

	assert.Equal(t, chart.KindBar, s.SelectedChartType)
	assert.Equal(t, []string{"A", "B"}, s.SelectedColumns)
	assert.Contains(t, fc.calls[0][0].Content, `{"A": {"values": ["x"]}`)

	err := NewSelectChart(&fakeChat{replies: []string{"no idea"}}, prompt.NewLoader("")).Run(context.Background(), sentinel())
	var ue *ai.UnmarshalError
	assert.ErrorAs(t, err, &ue)
}

func TestRender(t *testing.T) {
	s := sentinel()
	s.SelectedChartType = chart.KindBar
	s.SelectedColumns = []string{}
	require.NoError(t, runChecked(t, NewRender(), s))

	require.NotNil(t, s.Chart)
	require.Len(t, s.Chart.Traces, 1)
	assert.Equal(t, "sentinel query", s.Chart.Title)

	bad := sentinel()
	bad.FormattedData = "not json"
	require.NoError(t, runChecked(t, NewRender(), bad))
	assert.True(t, bad.Chart.IsPlaceholder())
}

func TestTextResponse(t *testing.T) {
	s := sentinel()
	require.NoError(t, runChecked(t, NewTextResponse(), s))
	assert.Equal(t,
		"Graph is not possible for your query: 'sentinel query'. Please provide a query that asks for numerical data, comparisons, or statistics that can be visualized in a chart or graph.",
		s.Response)
}
