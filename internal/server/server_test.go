package server

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ai "github.com/spetersoncode/chartflow"
	"github.com/spetersoncode/chartflow/chart"
	"github.com/spetersoncode/chartflow/internal/metrics"
	"github.com/spetersoncode/chartflow/internal/service"
	"github.com/spetersoncode/chartflow/internal/store"
	"github.com/spetersoncode/chartflow/nodes"
	"github.com/spetersoncode/chartflow/workflow"
	"github.com/spetersoncode/chartflow/workflows"
)

const tableJSON = `{"col_names": ["Country", "Population"], "Country": {"values": ["France", "Spain"]}, "Population": {"values": [68, 48]}}`

// mockChatClient answers by request shape: classification prompts get the
// configured verdict, other JSON requests get a chart selection.
type mockChatClient struct {
	decision string
	err      error
}

func (m *mockChatClient) Chat(_ context.Context, msgs []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	if m.err != nil {
		return nil, m.err
	}
	last := msgs[len(msgs)-1].Content
	switch {
	case strings.HasPrefix(last, "User Query: "):
		return &ai.Response{Content: `{"can_generate_graph": "` + m.decision + `"}`}, nil
	case ai.ApplyOptions(opts...).ResponseFormat == ai.ResponseFormatJSON:
		return &ai.Response{Content: `{"chart_type": "bar_graph", "columns": ["Country", "Population"]}`}, nil
	}
	return &ai.Response{Content: "Hello from the model"}, nil
}

func newTestServer(t *testing.T, chat *mockChatClient) (*httptest.Server, *service.Service) {
	t.Helper()
	rec := metrics.New()
	execs, err := workflows.BuildAll(workflows.Deps{
		Chat: chat,
		Searcher: nodes.SearcherFunc(func(context.Context, string, ...ai.Option) (*ai.Response, error) {
			return &ai.Response{Content: tableJSON}, nil
		}),
		PassthroughFormat: true,
		Observer:          rec,
	})
	require.NoError(t, err)

	svc := service.New(execs, service.WithStore(store.New(nil, 10)))
	ts := httptest.NewServer(New(svc, WithMetrics(rec.Handler())).Handler())
	t.Cleanup(ts.Close)
	return ts, svc
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t, &mockChatClient{})
	resp := get(t, ts.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "ok", decode[map[string]string](t, resp)["status"])
}

func TestListWorkflows(t *testing.T) {
	ts, _ := newTestServer(t, &mockChatClient{})
	resp := get(t, ts.URL+"/v1/workflows")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	infos := decode[[]WorkflowInfo](t, resp)
	require.Len(t, infos, 3)
	assert.Equal(t, workflows.SimpleChatName, infos[0].Name)
	assert.Equal(t, nodes.NameChat, infos[0].Entry)
	assert.Equal(t, nodes.NameQueryFiltering, infos[2].Entry)
	assert.Empty(t, infos[2].Mermaid)
}

func TestGetWorkflowAndGraph(t *testing.T) {
	ts, _ := newTestServer(t, &mockChatClient{})

	resp := get(t, ts.URL+"/v1/workflows/conditional_graph")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	info := decode[WorkflowInfo](t, resp)
	assert.Contains(t, info.Mermaid, "graph TD")

	resp = get(t, ts.URL+"/v1/workflows/conditional_graph/graph")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/plain")

	resp = get(t, ts.URL+"/v1/workflows/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunWorkflow(t *testing.T) {
	ts, svc := newTestServer(t, &mockChatClient{})

	resp := post(t, ts.URL+"/v1/workflows/simple_chat/runs", `{"query": "hi"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	out := decode[RunResponse](t, resp)
	assert.Equal(t, workflows.SimpleChatName, out.Workflow)
	assert.Equal(t, workflow.TerminationComplete, out.Termination)
	assert.Equal(t, []string{nodes.NameChat}, out.Path)
	require.NotNil(t, out.State)
	assert.Equal(t, "Hello from the model", out.State.Response)
	assert.Empty(t, out.Error)
	assert.Equal(t, 1, svc.Store().Len())
}

func TestRunWorkflowErrors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"bad json", "/v1/workflows/simple_chat/runs", `{`, http.StatusBadRequest},
		{"empty query", "/v1/workflows/simple_chat/runs", `{"query": "  "}`, http.StatusBadRequest},
		{"unknown workflow", "/v1/workflows/nope/runs", `{"query": "hi"}`, http.StatusNotFound},
	}
	ts, _ := newTestServer(t, &mockChatClient{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := post(t, ts.URL+tt.path, tt.body)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.NotEmpty(t, decode[errorResponse](t, resp).Error)
		})
	}
}

func TestRunWorkflowStepFailure(t *testing.T) {
	ts, svc := newTestServer(t, &mockChatClient{err: errors.New("provider down")})

	resp := post(t, ts.URL+"/v1/workflows/simple_chat/runs", `{"query": "hi"}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)

	out := decode[RunResponse](t, resp)
	assert.Equal(t, workflow.TerminationError, out.Termination)
	assert.Contains(t, out.Error, "provider down")
	assert.Empty(t, out.Path)
	assert.Equal(t, 1, svc.Store().Len())
}

func TestRunsHistoryAndChart(t *testing.T) {
	ts, _ := newTestServer(t, &mockChatClient{decision: "Yes"})

	resp := post(t, ts.URL+"/v1/workflows/conditional_graph/runs", `{"query": "population of France and Spain"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	run := decode[RunResponse](t, resp)
	require.NotNil(t, run.State.Chart)
	assert.Equal(t, chart.KindBar, run.State.SelectedChartType)

	post(t, ts.URL+"/v1/workflows/simple_chat/runs", `{"query": "hi"}`)

	resp = get(t, ts.URL+"/v1/runs")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[[]store.Record](t, resp)
	require.Len(t, all, 2)
	for _, rec := range all {
		assert.Nil(t, rec.State)
	}

	resp = get(t, ts.URL+"/v1/runs?workflow=conditional_graph&limit=5")
	filtered := decode[[]store.Record](t, resp)
	require.Len(t, filtered, 1)
	assert.Equal(t, run.RunID, filtered[0].RunID)

	resp = get(t, ts.URL+"/v1/runs?limit=x")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = get(t, ts.URL+"/v1/runs/"+run.RunID)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	rec := decode[store.Record](t, resp)
	require.NotNil(t, rec.State)
	require.NotNil(t, rec.State.Chart)
	assert.Equal(t, []float64{68, 48}, rec.State.Chart.Traces[0].Values)

	resp = get(t, ts.URL+"/v1/runs/"+run.RunID+"/chart")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")

	resp = get(t, ts.URL+"/v1/runs/unknown")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestChartMissing(t *testing.T) {
	ts, _ := newTestServer(t, &mockChatClient{})
	run := decode[RunResponse](t, post(t, ts.URL+"/v1/workflows/simple_chat/runs", `{"query": "hi"}`))

	resp := get(t, ts.URL+"/v1/runs/"+run.RunID+"/chart")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestRunWorkflowStream(t *testing.T) {
	ts, _ := newTestServer(t, &mockChatClient{decision: "No"})

	resp := post(t, ts.URL+"/v1/workflows/conditional_graph/runs?stream=true", `{"query": "write a poem"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var names []string
	var last string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if name, ok := strings.CutPrefix(line, "event: "); ok {
			names = append(names, name)
		}
		if data, ok := strings.CutPrefix(line, "data: "); ok {
			last = data
		}
	}
	require.NoError(t, scanner.Err())

	require.NotEmpty(t, names)
	assert.Equal(t, "run_start", names[0])
	assert.Contains(t, names, "route_selected")
	assert.Equal(t, "result", names[len(names)-1])

	var out RunResponse
	require.NoError(t, json.Unmarshal([]byte(last), &out))
	assert.Equal(t, []string{nodes.NameQueryFiltering, nodes.NameTextResponse}, out.Path)
	assert.Contains(t, out.State.Response, "write a poem")
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := newTestServer(t, &mockChatClient{})
	post(t, ts.URL+"/v1/workflows/simple_chat/runs", `{"query": "hi"}`)

	resp := get(t, ts.URL+"/metrics")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := new(strings.Builder)
	_, err := bufio.NewReader(resp.Body).WriteTo(body)
	require.NoError(t, err)
	assert.Contains(t, body.String(), "chartflow_runs_total")
}

func TestCORSPreflight(t *testing.T) {
	ts, _ := newTestServer(t, &mockChatClient{})
	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/v1/workflows/simple_chat/runs", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
