package state

import (
	"reflect"
	"slices"

	"github.com/spetersoncode/chartflow/workflow"
)

// Field names a State field in step contracts. Names match the JSON keys.
type Field string

const (
	FieldConversation      Field = "conversation"
	FieldResponse          Field = "response"
	FieldSearchResults     Field = "search_results"
	FieldUserQuery         Field = "user_query"
	FieldCanGenerateGraph  Field = "can_generate_graph"
	FieldSelectedChartType Field = "selected_chart_type"
	FieldSelectedColumns   Field = "selected_columns"
	FieldFormattedData     Field = "formatted_data"
	FieldChart             Field = "chart_object"
)

// AllFields lists every field in declaration order.
func AllFields() []Field {
	return []Field{
		FieldConversation,
		FieldResponse,
		FieldSearchResults,
		FieldUserQuery,
		FieldCanGenerateGraph,
		FieldSelectedChartType,
		FieldSelectedColumns,
		FieldFormattedData,
		FieldChart,
	}
}

// Names converts fields to the strings used by workflow.Contract.
func Names(fields ...Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = string(f)
	}
	return out
}

// Changed reports the fields whose values differ between before and after.
func Changed(before, after *State) []Field {
	var out []Field
	add := func(f Field, differ bool) {
		if differ {
			out = append(out, f)
		}
	}
	add(FieldConversation, !slices.Equal(before.Conversation, after.Conversation))
	add(FieldResponse, before.Response != after.Response)
	add(FieldSearchResults, before.SearchResults != after.SearchResults)
	add(FieldUserQuery, before.UserQuery != after.UserQuery)
	add(FieldCanGenerateGraph, before.CanGenerateGraph != after.CanGenerateGraph)
	add(FieldSelectedChartType, before.SelectedChartType != after.SelectedChartType)
	add(FieldSelectedColumns, !slices.Equal(before.SelectedColumns, after.SelectedColumns))
	add(FieldFormattedData, before.FormattedData != after.FormattedData)
	add(FieldChart, !reflect.DeepEqual(before.Chart, after.Chart))
	return out
}

// Verify is a workflow.Guard for State. It fails with a
// *workflow.ContractError when the step changed a field missing from the
// contract's Writes, or changed UserQuery at all.
func Verify(step string, contract workflow.Contract, before, after *State) error {
	var undeclared []string
	for _, f := range Changed(before, after) {
		if f == FieldUserQuery || !contract.WritesField(string(f)) {
			undeclared = append(undeclared, string(f))
		}
	}
	if len(undeclared) == 0 {
		return nil
	}
	return &workflow.ContractError{StepName: step, Undeclared: undeclared}
}
