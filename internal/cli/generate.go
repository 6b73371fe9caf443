package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewGenerateCmd создаёт команду генерации графа по описанию.
func NewGenerateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var save string

	cmd := &cobra.Command{
		Use:   "generate DESCRIPTION...",
		Short: "Generate a workflow graph from a plain-language description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			graph, err := client.Generate(strings.Join(args, " "))
			if err != nil {
				return err
			}

			if save == "" {
				out.JSON(graph)
				return nil
			}

			wf, err := client.CreateWorkflow(CreateWorkflowRequest{Name: save, Graph: graph})
			if err != nil {
				return err
			}
			out.Success(fmt.Sprintf("Workflow created: %s (%d nodes)", wf.ID, len(wf.Graph.Nodes)))
			return nil
		},
	}

	cmd.Flags().StringVar(&save, "save", "", "Save the result as a workflow with this name")

	return cmd
}
