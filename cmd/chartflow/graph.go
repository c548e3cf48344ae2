package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	ai "github.com/spetersoncode/chartflow"
	"github.com/spetersoncode/chartflow/workflows"
)

var errOffline = errors.New("chartflow: no model configured")

// offline satisfies the chat and search dependencies for commands that
// only inspect workflow structure.
type offline struct{}

func (offline) Chat(context.Context, []ai.Message, ...ai.Option) (*ai.Response, error) {
	return nil, errOffline
}

func (offline) Search(context.Context, string, ...ai.Option) (*ai.Response, error) {
	return nil, errOffline
}

func offlineExecutor(name string) (*workflows.Executor, error) {
	def, err := workflows.Lookup(name)
	if err != nil {
		return nil, err
	}
	return def.Build(workflows.Deps{Chat: offline{}, Searcher: offline{}})
}

func newGraphCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "graph <workflow>",
		Short:     "Print a workflow as a Mermaid flowchart",
		Args:      cobra.ExactArgs(1),
		ValidArgs: workflows.Names(),
		RunE: func(cmd *cobra.Command, args []string) error {
			exec, err := offlineExecutor(args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), exec.Mermaid())
			return nil
		},
	}
}

func newWorkflowsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "workflows",
		Short: "List the available workflows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "NAME\tSTEPS\tDESCRIPTION")
			for _, def := range workflows.Catalog() {
				exec, err := offlineExecutor(def.Name)
				if err != nil {
					return err
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\n", def.Name, len(exec.Steps()), def.Description)
			}
			return tw.Flush()
		},
	}
}
