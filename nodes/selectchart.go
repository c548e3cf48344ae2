package nodes

import (
	"context"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"

	ai "github.com/spetersoncode/chartflow"
	"github.com/spetersoncode/chartflow/chart"
	"github.com/spetersoncode/chartflow/chat"
	"github.com/spetersoncode/chartflow/internal/logging"
	"github.com/spetersoncode/chartflow/prompt"
	"github.com/spetersoncode/chartflow/state"
	"github.com/spetersoncode/chartflow/workflow"
)

const selectionTarget = "chart selection"

var (
	errNotJSONObject    = errors.New("reply is not a JSON object")
	errMissingChartType = errors.New("reply has no chart_type")
)

// Selection is the chart choice made by the model.
type Selection struct {
	Kind    chart.Kind
	Columns []string
}

// SelectChart asks the model for a chart type and the columns to plot.
type SelectChart struct {
	client  chat.Client
	prompts *prompt.Loader
	opts    []ai.Option
}

// NewSelectChart creates the chart selection step.
func NewSelectChart(client chat.Client, prompts *prompt.Loader, opts ...ai.Option) *SelectChart {
	return &SelectChart{client: client, prompts: prompts, opts: opts}
}

func (c *SelectChart) Name() string { return NameGraphSelector }

func (c *SelectChart) Contract() workflow.Contract {
	return contract(workflow.FailureFatal,
		reads(state.FieldFormattedData, state.FieldUserQuery),
		state.FieldSelectedChartType, state.FieldSelectedColumns)
}

func (c *SelectChart) Run(ctx context.Context, s *state.State) error {
	text := c.prompts.Render(prompt.GraphSelection, prompt.Vars{
		Data:      s.FormattedData,
		UserQuery: s.UserQuery,
	})
	resp, err := c.client.Chat(ctx, []ai.Message{ai.NewUserMessage(text)}, withJSON(c.opts)...)
	if err != nil {
		return fmt.Errorf("select chart: %w", err)
	}

	sel, err := ParseSelection(resp.Content)
	if err != nil {
		return err
	}

	logger := logging.FromContext(ctx)
	if !sel.Kind.Valid() {
		logger.Warn("unsupported chart type selected, rendering as bar graph", "chart_type", sel.Kind)
	}
	s.SelectedChartType = sel.Kind
	s.SelectedColumns = sel.Columns
	logger.Info("selected graph type", "chart_type", sel.Kind, "columns", sel.Columns)
	return nil
}

// ParseSelection reads a chart selection reply of the form
// {"chart_type": "...", "columns": [...]}. The keys graph_type and
// selected_columns are accepted as aliases, and a bare chart type name is
// accepted as a reply without columns. Failures are *ai.UnmarshalError.
func ParseSelection(content string) (Selection, error) {
	raw := chart.StripCodeFence(content)
	var doc gjson.Result
	if gjson.Valid(raw) {
		doc = gjson.Parse(raw)
	}
	if !doc.IsObject() {
		if k := chart.ParseKind(raw); k.Valid() {
			return Selection{Kind: k, Columns: []string{}}, nil
		}
		return Selection{}, &ai.UnmarshalError{Content: content, TargetType: selectionTarget, Err: errNotJSONObject}
	}

	kind := chart.ParseKind(firstOf(doc, "chart_type", "graph_type").String())
	if kind == "" {
		return Selection{}, &ai.UnmarshalError{Content: content, TargetType: selectionTarget, Err: errMissingChartType}
	}

	cols := []string{}
	for _, c := range firstOf(doc, "columns", "selected_columns").Array() {
		if name := c.String(); name != "" {
			cols = append(cols, name)
		}
	}
	return Selection{Kind: kind, Columns: cols}, nil
}

func firstOf(doc gjson.Result, keys ...string) gjson.Result {
	for _, k := range keys {
		if v := doc.Get(k); v.Exists() {
			return v
		}
	}
	return gjson.Result{}
}
