// Package mcp exposes the chartflow workflows over the Model Context
// Protocol. Each workflow becomes a tool taking a single query argument;
// workflow graphs and finished runs are published as resources.
//
//	svc := service.New(executors)
//	if err := mcp.ServeStdio(svc, mcp.WithVersion("1.0.0")); err != nil {
//	    log.Fatal(err)
//	}
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/spetersoncode/chartflow/internal/service"
	"github.com/spetersoncode/chartflow/workflows"
)

// GetRunTool names the tool that returns a recorded run.
const GetRunTool = "get_run"

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	name    string
	version string
}

// WithName sets the server name reported to MCP clients.
func WithName(name string) ServerOption {
	return func(c *serverConfig) {
		c.name = name
	}
}

// WithVersion sets the server version reported to MCP clients.
func WithVersion(version string) ServerOption {
	return func(c *serverConfig) {
		c.version = version
	}
}

// NewServer creates an MCP server backed by svc.
func NewServer(svc *service.Service, opts ...ServerOption) *server.MCPServer {
	cfg := &serverConfig{
		name:    "chartflow",
		version: "1.0.0",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	s := server.NewMCPServer(
		cfg.name,
		cfg.version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, false),
	)

	for _, def := range svc.Workflows() {
		s.AddTool(workflowTool(def), runHandler(svc, def.Name))
		addGraphResource(s, svc, def.Name)
	}

	s.AddTool(mcp.NewTool(GetRunTool,
		mcp.WithDescription("Return a recorded workflow run, including its final state, as JSON."),
		mcp.WithString("run_id", mcp.Required(), mcp.Description("Run ID reported by a workflow tool")),
	), getRunHandler(svc))

	return s
}

// ServeStdio serves svc over stdin/stdout.
func ServeStdio(svc *service.Service, opts ...ServerOption) error {
	return server.ServeStdio(NewServer(svc, opts...))
}

// GraphURI is the resource URI of a workflow's Mermaid graph.
func GraphURI(name string) string {
	return "chartflow://workflows/" + name + "/graph"
}

func workflowTool(def workflows.Definition) mcp.Tool {
	return mcp.NewTool(def.Name,
		mcp.WithDescription(def.Description),
		mcp.WithString("query", mcp.Required(), mcp.Description("The user's question")),
	)
}

func runHandler(svc *service.Service, name string) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := req.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := svc.Run(ctx, name, query)
		if err != nil {
			if res == nil {
				return mcp.NewToolResultError(err.Error()), nil
			}
			return mcp.NewToolResultError(fmt.Sprintf("run %s failed (%s): %v", res.RunID, res.Termination, err)), nil
		}
		return toolResult(res)
	}
}

// toolResult reports the answer text first and, when a chart was built,
// the Plotly figure as a second JSON text block.
func toolResult(res *service.Result) (*mcp.CallToolResult, error) {
	st := res.State
	var sb strings.Builder
	if st.Response != "" {
		sb.WriteString(st.Response)
	}
	if st.Chart != nil {
		if sb.Len() > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "Chart: %s", st.SelectedChartType)
		if st.Chart.Title != "" {
			fmt.Fprintf(&sb, " %q", st.Chart.Title)
		}
	}
	fmt.Fprintf(&sb, "\n\nrun_id: %s", res.RunID)

	result := mcp.NewToolResultText(strings.TrimSpace(sb.String()))
	if st.Chart != nil {
		data, err := json.Marshal(st.Chart)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode chart: %v", err)), nil
		}
		result.Content = append(result.Content, mcp.NewTextContent(string(data)))
	}
	return result, nil
}

func getRunHandler(svc *service.Service) server.ToolHandlerFunc {
	return func(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := req.RequireString("run_id")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		rec, err := svc.Store().Get(id)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("%v: %s", err, id)), nil
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to encode run: %v", err)), nil
		}
		return mcp.NewToolResultText(string(data)), nil
	}
}

func addGraphResource(s *server.MCPServer, svc *service.Service, name string) {
	uri := GraphURI(name)
	s.AddResource(mcp.NewResource(uri, name+" workflow graph",
		mcp.WithResourceDescription("Mermaid flowchart of the "+name+" workflow"),
		mcp.WithMIMEType("text/vnd.mermaid"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		exec, err := svc.Executor(name)
		if err != nil {
			return nil, err
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      uri,
				MIMEType: "text/vnd.mermaid",
				Text:     exec.Mermaid(),
			},
		}, nil
	})
}
