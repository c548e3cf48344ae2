package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/spetersoncode/chartflow/chart"
	"github.com/spetersoncode/chartflow/event"
	"github.com/spetersoncode/chartflow/internal/service"
	"github.com/spetersoncode/chartflow/nodes"
	"github.com/spetersoncode/chartflow/state"
	"github.com/spetersoncode/chartflow/workflow"
	"github.com/spetersoncode/chartflow/workflows"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func barFigure() *chart.Figure {
	return chart.Render(chart.KindBar,
		`{"A": {"values": ["x", "y"]}, "B": {"values": [1, 2]}}`, "Test", nil)
}

func TestGraphCommand(t *testing.T) {
	out, err := execute(t, "graph", workflows.ConditionalGraphName)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "graph TD"))
	assert.Contains(t, out, nodes.NameGraphSelector)

	_, err = execute(t, "graph", "nope")
	assert.ErrorIs(t, err, workflows.ErrUnknownWorkflow)
}

func TestWorkflowsCommand(t *testing.T) {
	out, err := execute(t, "workflows")
	require.NoError(t, err)
	for _, name := range workflows.Names() {
		assert.Contains(t, out, name)
	}
}

func TestRunRejectsUnknownWorkflow(t *testing.T) {
	_, err := execute(t, "run", "nope", "some", "query")
	assert.ErrorIs(t, err, workflows.ErrUnknownWorkflow)

	_, err = execute(t, "run", workflows.SimpleChatName)
	assert.Error(t, err)
}

func TestWriteChart(t *testing.T) {
	dir := t.TempDir()
	fig := barFigure()

	jsonPath := filepath.Join(dir, "chart.json")
	require.NoError(t, writeChart(jsonPath, fig))
	data, err := os.ReadFile(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, "bar", gjson.GetBytes(data, "data.0.type").String())
	assert.Equal(t, "Test", gjson.GetBytes(data, "layout.title.text").String())

	htmlPath := filepath.Join(dir, "chart.HTML")
	require.NoError(t, writeChart(htmlPath, fig))
	data, err = os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), chart.PlotlyScriptURL)

	err = writeChart(filepath.Join(dir, "chart.png"), fig)
	assert.ErrorContains(t, err, "unsupported chart file extension")
}

func result(st *state.State) *service.Result {
	return &service.Result{WorkflowName: workflows.ConditionalGraphName, RunID: "run-1", State: st, Termination: workflow.TerminationComplete}
}

func TestPrintPlain(t *testing.T) {
	st := state.New("q")
	st.Response = "The **answer**."
	st.SearchResults = "raw results"

	var buf bytes.Buffer
	require.NoError(t, output{plain: true, showSearch: true}.print(&buf, result(st)))
	assert.Equal(t, "## Search results\n\nraw results\nThe **answer**.\n", buf.String())

	buf.Reset()
	require.NoError(t, output{plain: true}.print(&buf, result(st)))
	assert.Equal(t, "The **answer**.\n", buf.String())
}

func TestPrintChart(t *testing.T) {
	st := state.New("q")
	st.SelectedChartType = chart.KindBar
	st.Chart = barFigure()

	var buf bytes.Buffer
	require.NoError(t, output{plain: true}.print(&buf, result(st)))
	assert.Contains(t, buf.String(), "Chart: bar_graph with 1 series")
	assert.Contains(t, buf.String(), "--out")

	path := filepath.Join(t.TempDir(), "c.json")
	buf.Reset()
	require.NoError(t, output{plain: true, out: path}.print(&buf, result(st)))
	assert.Contains(t, buf.String(), "Chart written to "+path)
	assert.FileExists(t, path)

	st.Chart = chart.Placeholder("q", chart.NoDataText)
	buf.Reset()
	require.NoError(t, output{plain: true}.print(&buf, result(st)))
	assert.Contains(t, buf.String(), "No chart: "+chart.NoDataText)
}

func TestPrintJSON(t *testing.T) {
	st := state.New("q")
	st.Response = "hi"

	var buf bytes.Buffer
	require.NoError(t, output{asJSON: true}.print(&buf, result(st)))
	assert.Equal(t, "hi", gjson.Get(buf.String(), "response").String())
	assert.Equal(t, "q", gjson.Get(buf.String(), "user_query").String())
}

func TestPrintEvent(t *testing.T) {
	var buf bytes.Buffer
	printEvent(&buf, event.Event{Type: event.StepStart, StepName: nodes.NameWebSearch})
	printEvent(&buf, event.Event{Type: event.RouteSelected, StepName: nodes.NameQueryFiltering, RouteName: nodes.NameTextResponse})
	printEvent(&buf, event.Event{Type: event.RunError, Message: "error", Error: errors.New("boom")})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], nodes.NameWebSearch)
	assert.Contains(t, lines[1], "routed to "+nodes.NameTextResponse)
	assert.Contains(t, lines[2], "boom")
}

func TestOfflineExecutorFails(t *testing.T) {
	exec, err := offlineExecutor(workflows.SimpleChatName)
	require.NoError(t, err)
	_, err = exec.Run(t.Context(), workflows.NewSimpleChatState("hi"))
	assert.ErrorIs(t, err, errOffline)
}
