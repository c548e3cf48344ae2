package main

import (
	"github.com/spf13/cobra"

	"github.com/spetersoncode/chartflow/config"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	provider    string
	modelConfig string
	logLevel    string
	history     string
}

func (g *globalFlags) overrides(cmd *cobra.Command) config.Override {
	return func(c *config.Config) {
		flags := cmd.Flags()
		if flags.Changed("provider") {
			c.Provider = g.provider
		}
		if flags.Changed("model-config") {
			c.ModelConfigPath = g.modelConfig
		}
		if flags.Changed("log-level") {
			c.LogLevel = g.logLevel
		}
		if flags.Changed("history") {
			c.HistoryPath = g.history
		}
	}
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:           "chartflow",
		Short:         "Answer questions with LLMs and web search, and chart the numbers",
		Long:          `chartflow runs small step graphs over chat models: plain chat, web-search answers, and a conditional pipeline that turns numeric answers into Plotly charts.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&g.provider, "provider", "", "Chat provider: openai, anthropic or google (overrides LLM_PROVIDER)")
	pf.StringVar(&g.modelConfig, "model-config", "", "Model configuration YAML (overrides CHARTFLOW_MODEL_CONFIG)")
	pf.StringVar(&g.logLevel, "log-level", "", "Log level: debug, info, warn, error")
	pf.StringVar(&g.history, "history", "", "JSON file for run history (overrides CHARTFLOW_HISTORY_FILE)")

	root.AddCommand(
		newRunCmd(g),
		newGraphCmd(),
		newWorkflowsCmd(),
		newServeCmd(g),
		newMCPCmd(g),
	)
	return root
}
