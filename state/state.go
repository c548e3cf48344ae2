// Package state defines the record every workflow step reads and writes.
//
// A State is created once per run with [New], handed to the executor and
// mutated in place by each step. Steps declare the fields they write in
// their workflow.Contract using the [Field] names below; [Verify] checks
// those declarations after every step.
package state

import (
	"slices"
	"strings"

	ai "github.com/spetersoncode/chartflow"
	"github.com/spetersoncode/chartflow/chart"
)

// Decision is the chartability verdict of the classification step.
type Decision string

const (
	DecisionUnset Decision = ""
	DecisionYes   Decision = "Yes"
	DecisionNo    Decision = "No"
)

// ParseDecision maps "yes" and "no" in any case to a Decision. Every other
// value, including the empty string, is DecisionNo.
func ParseDecision(s string) Decision {
	if strings.EqualFold(strings.TrimSpace(s), "yes") {
		return DecisionYes
	}
	return DecisionNo
}

// State is the record shared by the steps of one run.
type State struct {
	// Conversation is the ordered message history. Steps only append to it.
	Conversation []ai.Message `json:"conversation"`

	// Response is the final text, either the model's answer or the
	// not-chartable explanation.
	Response string `json:"response"`

	SearchResults string `json:"search_results"`

	// UserQuery is the input query. It never changes after New.
	UserQuery string `json:"user_query"`

	CanGenerateGraph  Decision   `json:"can_generate_graph"`
	SelectedChartType chart.Kind `json:"selected_chart_type"`
	SelectedColumns   []string   `json:"selected_columns"`
	FormattedData     string     `json:"formatted_data"`

	// Chart is nil until the render step runs.
	Chart *chart.Figure `json:"chart_object,omitempty"`
}

// New creates a state for query with every field at its default and the
// conversation seeded with a copy of seed.
func New(query string, seed ...ai.Message) *State {
	conv := make([]ai.Message, len(seed))
	copy(conv, seed)
	return &State{
		Conversation:    conv,
		UserQuery:       query,
		SelectedColumns: []string{},
	}
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	cp := *s
	cp.Conversation = slices.Clone(s.Conversation)
	cp.SelectedColumns = slices.Clone(s.SelectedColumns)
	cp.Chart = s.Chart.Clone()
	return &cp
}

// LastMessage returns the final conversation entry.
func (s *State) LastMessage() (ai.Message, bool) {
	if len(s.Conversation) == 0 {
		return ai.Message{}, false
	}
	return s.Conversation[len(s.Conversation)-1], true
}

// Append adds a message to the conversation.
func (s *State) Append(msg ai.Message) {
	s.Conversation = append(s.Conversation, msg)
}
