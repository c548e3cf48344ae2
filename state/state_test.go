package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/chartflow"
	"github.com/spetersoncode/chartflow/chart"
	"github.com/spetersoncode/chartflow/workflow"
)

func TestNew(t *testing.T) {
	seed := []ai.Message{ai.NewSystemMessage("sys")}
	s := New("population of France", seed...)

	assert.Equal(t, "population of France", s.UserQuery)
	require.Len(t, s.Conversation, 1)
	assert.NotNil(t, s.SelectedColumns)
	assert.Empty(t, s.SelectedColumns)
	assert.Equal(t, DecisionUnset, s.CanGenerateGraph)
	assert.Empty(t, s.Response)
	assert.Empty(t, s.SearchResults)
	assert.Empty(t, s.FormattedData)
	assert.Empty(t, s.SelectedChartType)
	assert.Nil(t, s.Chart)

	// The seed slice is copied.
	seed[0].Content = "changed"
	assert.Equal(t, "sys", s.Conversation[0].Content)

	empty := New("q")
	assert.NotNil(t, empty.Conversation)
	_, ok := empty.LastMessage()
	assert.False(t, ok)
}

func TestParseDecision(t *testing.T) {
	tests := map[string]Decision{
		"Yes":   DecisionYes,
		"yes":   DecisionYes,
		" YES ": DecisionYes,
		"No":    DecisionNo,
		"no":    DecisionNo,
		"maybe": DecisionNo,
		"":      DecisionNo,
	}
	for in, want := range tests {
		t.Run(in, func(t *testing.T) {
			assert.Equal(t, want, ParseDecision(in))
		})
	}
}

func TestClone(t *testing.T) {
	s := New("q", ai.NewUserMessage("hi"))
	s.SelectedColumns = []string{"A", "B"}
	s.Chart = chart.Placeholder("q", chart.NoDataText)

	cp := s.Clone()
	require.Equal(t, s, cp)

	cp.Conversation[0].Content = "edited"
	cp.SelectedColumns[0] = "Z"
	cp.Chart.Annotations[0].Text = "edited"

	assert.Equal(t, "hi", s.Conversation[0].Content)
	assert.Equal(t, "A", s.SelectedColumns[0])
	assert.Equal(t, chart.NoDataText, s.Chart.Annotations[0].Text)
}

func TestChanged(t *testing.T) {
	before := New("q", ai.NewUserMessage("hi"))
	assert.Empty(t, Changed(before, before.Clone()))

	after := before.Clone()
	after.Append(ai.NewAssistantMessage("hello"))
	after.Response = "hello"
	after.Chart = chart.Placeholder("q", "x")

	assert.Equal(t, []Field{FieldConversation, FieldResponse, FieldChart}, Changed(before, after))

	edited := before.Clone()
	edited.Conversation[0].Content = "rewritten"
	assert.Equal(t, []Field{FieldConversation}, Changed(before, edited))
}

func TestVerify(t *testing.T) {
	contract := workflow.Contract{Writes: Names(FieldResponse)}

	t.Run("declared write passes", func(t *testing.T) {
		before := New("q")
		after := before.Clone()
		after.Response = "ok"
		assert.NoError(t, Verify("answer", contract, before, after))
	})

	t.Run("undeclared write fails", func(t *testing.T) {
		before := New("q")
		after := before.Clone()
		after.Response = "ok"
		after.SearchResults = "leak"

		err := Verify("answer", contract, before, after)
		var ce *workflow.ContractError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, "answer", ce.StepName)
		assert.Equal(t, []string{"search_results"}, ce.Undeclared)
	})

	t.Run("user query is immutable even when declared", func(t *testing.T) {
		before := New("q")
		after := before.Clone()
		after.UserQuery = "other"

		err := Verify("x", workflow.Contract{Writes: Names(FieldUserQuery)}, before, after)
		var ce *workflow.ContractError
		require.ErrorAs(t, err, &ce)
		assert.Equal(t, []string{"user_query"}, ce.Undeclared)
	})
}

func TestAllFieldsMatchJSONKeys(t *testing.T) {
	names := Names(AllFields()...)
	assert.Len(t, names, 9)
	assert.Contains(t, names, "can_generate_graph")
	assert.Contains(t, names, "chart_object")
}
