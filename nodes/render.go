package nodes

import (
	"context"
	"fmt"

	"github.com/spetersoncode/chartflow/chart"
	"github.com/spetersoncode/chartflow/internal/logging"
	"github.com/spetersoncode/chartflow/state"
	"github.com/spetersoncode/chartflow/workflow"
)

// Render draws the selected chart from the formatted data.
type Render struct{}

// NewRender creates the chart rendering step.
func NewRender() *Render { return &Render{} }

func (Render) Name() string { return NameGraphRenderer }

func (Render) Contract() workflow.Contract {
	return contract(workflow.FailurePure,
		reads(state.FieldFormattedData, state.FieldSelectedChartType, state.FieldSelectedColumns, state.FieldUserQuery),
		state.FieldChart)
}

func (Render) Run(ctx context.Context, s *state.State) error {
	s.Chart = chart.Render(s.SelectedChartType, s.FormattedData, s.UserQuery, s.SelectedColumns)

	logger := logging.FromContext(ctx)
	if s.Chart.IsPlaceholder() {
		logger.Warn("rendered placeholder chart", "chart_type", s.SelectedChartType, "reason", s.Chart.Annotations[0].Text)
		return nil
	}
	logger.Info("rendered chart", "chart_type", s.SelectedChartType, "traces", len(s.Chart.Traces))
	return nil
}

const notChartableFormat = "Graph is not possible for your query: '%s'. " +
	"Please provide a query that asks for numerical data, comparisons, or statistics " +
	"that can be visualized in a chart or graph."

// TextResponse explains that the query cannot be charted.
type TextResponse struct{}

// NewTextResponse creates the rejection step.
func NewTextResponse() *TextResponse { return &TextResponse{} }

func (TextResponse) Name() string { return NameTextResponse }

func (TextResponse) Contract() workflow.Contract {
	return contract(workflow.FailurePure,
		reads(state.FieldUserQuery),
		state.FieldResponse)
}

func (TextResponse) Run(_ context.Context, s *state.State) error {
	s.Response = NotChartable(s.UserQuery)
	return nil
}

// NotChartable returns the rejection message for query.
func NotChartable(query string) string {
	return fmt.Sprintf(notChartableFormat, query)
}
