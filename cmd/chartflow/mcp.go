package main

import (
	"github.com/spf13/cobra"

	"github.com/spetersoncode/chartflow/mcp"
)

// version is reported to MCP clients. Release builds set it with -ldflags.
var version = "dev"

func newMCPCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the workflows as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := bootstrap(cmd, g, appOptions{})
			if err != nil {
				return err
			}
			defer a.Close()

			a.logger.Info("MCP server starting on stdio", "workflows", len(a.svc.Workflows()))
			return mcp.ServeStdio(a.svc, mcp.WithName("chartflow"), mcp.WithVersion(version))
		},
	}
}
