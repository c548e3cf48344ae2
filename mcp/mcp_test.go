package mcp

import (
	"context"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	ai "github.com/spetersoncode/chartflow"
	"github.com/spetersoncode/chartflow/internal/service"
	"github.com/spetersoncode/chartflow/nodes"
	"github.com/spetersoncode/chartflow/workflows"
)

const tableJSON = `{"col_names": ["Region", "Sales"], "Region": {"values": ["North", "South"]}, "Sales": {"values": [10, 20]}}`

// mockChatClient answers classification prompts with a verdict, other JSON
// requests with a chart selection and everything else with a greeting.
type mockChatClient struct {
	decision string
}

func (m *mockChatClient) Chat(_ context.Context, msgs []ai.Message, opts ...ai.Option) (*ai.Response, error) {
	last := msgs[len(msgs)-1].Content
	switch {
	case strings.HasPrefix(last, "User Query: "):
		return &ai.Response{Content: `{"can_generate_graph": "` + m.decision + `"}`}, nil
	case ai.ApplyOptions(opts...).ResponseFormat == ai.ResponseFormatJSON:
		return &ai.Response{Content: `{"chart_type": "pie_chart", "columns": ["Region", "Sales"]}`}, nil
	}
	return &ai.Response{Content: "Hello, World!"}, nil
}

func newClient(t *testing.T, decision string) (*client.Client, *service.Service) {
	t.Helper()
	execs, err := workflows.BuildAll(workflows.Deps{
		Chat: &mockChatClient{decision: decision},
		Searcher: nodes.SearcherFunc(func(context.Context, string, ...ai.Option) (*ai.Response, error) {
			return &ai.Response{Content: tableJSON}, nil
		}),
		PassthroughFormat: true,
	})
	require.NoError(t, err)
	svc := service.New(execs)

	c, err := client.NewInProcessClient(NewServer(svc, WithName("test-server"), WithVersion("1.0.0")))
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { c.Close() })

	_, err = c.Initialize(ctx, mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "test-client",
				Version: "1.0.0",
			},
		},
	})
	require.NoError(t, err)
	return c, svc
}

func callTool(t *testing.T, c *client.Client, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	result, err := c.CallTool(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err)
	return result
}

func texts(t *testing.T, result *mcp.CallToolResult) []string {
	t.Helper()
	out := make([]string, 0, len(result.Content))
	for _, c := range result.Content {
		tc, ok := c.(mcp.TextContent)
		require.True(t, ok)
		out = append(out, tc.Text)
	}
	return out
}

func TestListTools(t *testing.T) {
	c, _ := newClient(t, "No")

	result, err := c.ListTools(context.Background(), mcp.ListToolsRequest{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
		if tool.Name != GetRunTool {
			assert.Contains(t, tool.InputSchema.Required, "query")
		}
	}
	assert.ElementsMatch(t, append(workflows.Names(), GetRunTool), names)
}

func TestCallSimpleChat(t *testing.T) {
	c, svc := newClient(t, "No")

	result := callTool(t, c, workflows.SimpleChatName, map[string]any{"query": "hi"})
	assert.False(t, result.IsError)
	out := texts(t, result)
	require.Len(t, out, 1)
	assert.True(t, strings.HasPrefix(out[0], "Hello, World!"))
	assert.Equal(t, 1, svc.Store().Len())
}

func TestCallConditionalGraphReturnsChart(t *testing.T) {
	c, _ := newClient(t, "Yes")

	result := callTool(t, c, workflows.ConditionalGraphName, map[string]any{"query": "sales by region"})
	require.False(t, result.IsError)
	out := texts(t, result)
	require.Len(t, out, 2)
	assert.Contains(t, out[0], "Chart: pie_chart")

	fig := gjson.Parse(out[1])
	assert.Equal(t, "pie", fig.Get("data.0.type").String())
	assert.Equal(t, `["North","South"]`, fig.Get("data.0.labels").Raw)
}

func TestCallMissingQuery(t *testing.T) {
	c, _ := newClient(t, "No")

	result := callTool(t, c, workflows.WebSearchName, map[string]any{})
	assert.True(t, result.IsError)

	result = callTool(t, c, workflows.WebSearchName, map[string]any{"query": "   "})
	assert.True(t, result.IsError)
	assert.Contains(t, texts(t, result)[0], "query is required")
}

func TestGetRun(t *testing.T) {
	c, svc := newClient(t, "No")

	callTool(t, c, workflows.ConditionalGraphName, map[string]any{"query": "write a poem"})
	recs := svc.Store().List("", 0)
	require.Len(t, recs, 1)

	result := callTool(t, c, GetRunTool, map[string]any{"run_id": recs[0].RunID})
	require.False(t, result.IsError)
	doc := gjson.Parse(texts(t, result)[0])
	assert.Equal(t, workflows.ConditionalGraphName, doc.Get("workflow").String())
	assert.Equal(t, "No", doc.Get("state.can_generate_graph").String())

	result = callTool(t, c, GetRunTool, map[string]any{"run_id": "missing"})
	assert.True(t, result.IsError)
}

func TestGraphResource(t *testing.T) {
	c, _ := newClient(t, "No")

	list, err := c.ListResources(context.Background(), mcp.ListResourcesRequest{})
	require.NoError(t, err)
	assert.Len(t, list.Resources, len(workflows.Names()))

	res, err := c.ReadResource(context.Background(), mcp.ReadResourceRequest{
		Params: mcp.ReadResourceParams{URI: GraphURI(workflows.ConditionalGraphName)},
	})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	text, ok := res.Contents[0].(mcp.TextResourceContents)
	require.True(t, ok)
	assert.Contains(t, text.Text, "graph TD")
	assert.Contains(t, text.Text, nodes.NameGraphRenderer)
}
