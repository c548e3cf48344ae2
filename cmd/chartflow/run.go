package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/spetersoncode/chartflow/event"
	"github.com/spetersoncode/chartflow/internal/service"
	"github.com/spetersoncode/chartflow/workflows"
)

type runFlags struct {
	output
	stream      bool
	passthrough bool
}

func newRunCmd(g *globalFlags) *cobra.Command {
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run <workflow> <query...>",
		Short: "Run a workflow for one query",
		Long: `Runs one workflow and prints the answer.

Workflows: ` + strings.Join(workflows.Names(), ", ") + `.
When the conditional_graph workflow builds a chart, --out writes it as a
Plotly JSON document (.json) or a standalone page (.html).`,
		Args: cobra.MinimumNArgs(2),
		ValidArgsFunction: func(_ *cobra.Command, args []string, _ string) ([]string, cobra.ShellCompDirective) {
			if len(args) == 0 {
				return workflows.Names(), cobra.ShellCompDirectiveNoFileComp
			}
			return nil, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			name, query := args[0], strings.Join(args[1:], " ")
			if _, err := workflows.Lookup(name); err != nil {
				return err
			}

			a, err := bootstrap(cmd, g, appOptions{passthrough: f.passthrough})
			if err != nil {
				return err
			}
			defer a.Close()

			var res *service.Result
			if f.stream {
				res, err = a.svc.Stream(cmd.Context(), name, query, func(ev event.Event) {
					printEvent(cmd.ErrOrStderr(), ev)
				})
			} else {
				res, err = a.svc.Run(cmd.Context(), name, query)
			}
			if res != nil {
				if perr := f.print(cmd.OutOrStdout(), res); perr != nil {
					return perr
				}
			}
			if err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&f.plain, "plain", false, "Print the answer without Markdown rendering")
	flags.BoolVar(&f.showSearch, "show-search", false, "Print the web search results")
	flags.StringVarP(&f.out, "out", "o", "", "Write the chart to this .json or .html file")
	flags.BoolVar(&f.asJSON, "json", false, "Print the final state as JSON")
	flags.BoolVar(&f.stream, "stream", false, "Print step events to stderr while running")
	flags.BoolVar(&f.passthrough, "passthrough", false, "Chart the raw search results without reformatting them")
	return cmd
}
