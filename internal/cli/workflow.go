package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewWorkflowCmd создаёт группу команд для управления workflows.
func NewWorkflowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "workflow",
		Aliases: []string{"wf"},
		Short:   "Manage saved workflows",
	}

	cmd.AddCommand(
		newWorkflowListCmd(clientFn, outputFn),
		newWorkflowCreateCmd(clientFn, outputFn),
		newWorkflowShowCmd(clientFn, outputFn),
		newWorkflowUpdateCmd(clientFn, outputFn),
		newWorkflowDeleteCmd(clientFn, outputFn),
		newWorkflowSaveCmd(clientFn, outputFn),
		newWorkflowHistoryCmd(clientFn, outputFn),
		newWorkflowRestoreCmd(clientFn, outputFn),
	)

	return cmd
}

func newWorkflowListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all workflows",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			workflows, err := client.ListWorkflows()
			if err != nil {
				return err
			}

			headers := []string{"ID", "NAME", "NODES", "EDGES", "UPDATED"}
			rows := make([][]string, len(workflows))
			for i, wf := range workflows {
				rows[i] = []string{
					wf.ID, wf.Name,
					strconv.Itoa(len(wf.Graph.Nodes)), strconv.Itoa(len(wf.Graph.Edges)),
					wf.UpdatedAt,
				}
			}

			out.Print(headers, rows, workflows)
			return nil
		},
	}
}

func newWorkflowCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name, file, template string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a workflow from a graph file or a template",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateWorkflowRequest{Name: name, Template: template}
			if file != "" {
				graph, err := LoadGraph(file)
				if err != nil {
					return err
				}
				req.Graph = graph
			}

			wf, err := client.CreateWorkflow(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow created: %s", wf.ID))
			out.Print(
				[]string{"ID", "NAME", "NODES", "CREATED"},
				[][]string{{wf.ID, wf.Name, strconv.Itoa(len(wf.Graph.Nodes)), wf.CreatedAt}},
				wf,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Workflow name (required)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Graph JSON file (- for stdin)")
	cmd.Flags().StringVar(&template, "template", "", "Template ID when no file is given (default: default)")
	_ = cmd.MarkFlagRequired("name")
	cmd.MarkFlagsMutuallyExclusive("file", "template")

	return cmd
}

func newWorkflowShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show workflow graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			wf, err := client.GetWorkflow(args[0])
			if err != nil {
				return err
			}

			if out.IsJSON() {
				out.JSON(wf)
				return nil
			}

			out.Success(fmt.Sprintf("%s (%s), updated %s", wf.Name, wf.ID, wf.UpdatedAt))

			nodes := make([][]string, len(wf.Graph.Nodes))
			for i, n := range wf.Graph.Nodes {
				nodes[i] = []string{n.ID, n.DisplayName(), n.Kind.String()}
			}
			out.Table([]string{"ID", "LABEL", "TYPE"}, nodes)

			edges := make([][]string, len(wf.Graph.Edges))
			for i, e := range wf.Graph.Edges {
				edges[i] = []string{e.ID, e.Source, e.Target, e.SourceHandle}
			}
			out.Table([]string{"EDGE", "SOURCE", "TARGET", "HANDLE"}, edges)
			return nil
		},
	}
}

func newWorkflowUpdateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var name, file string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Rename a workflow or replace its graph",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var req UpdateWorkflowRequest
			if cmd.Flags().Changed("name") {
				req.Name = &name
			}
			if file != "" {
				graph, err := LoadGraph(file)
				if err != nil {
					return err
				}
				req.Graph = graph
			}
			if req.Name == nil && req.Graph == nil {
				return fmt.Errorf("nothing to update: pass --name or --file")
			}

			wf, err := client.UpdateWorkflow(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Workflow updated: %s", wf.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New name")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Graph JSON file (- for stdin)")

	return cmd
}

func newWorkflowDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a workflow and its version history",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := clientFn().DeleteWorkflow(args[0]); err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Workflow deleted: %s", args[0]))
			return nil
		},
	}
}

func newWorkflowSaveCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var label, file string

	cmd := &cobra.Command{
		Use:   "save ID",
		Short: "Save the current graph as a named version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateVersionRequest{Label: label}
			if file != "" {
				graph, err := LoadGraph(file)
				if err != nil {
					return err
				}
				req.Graph = graph
			}

			v, err := client.CreateVersion(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Version saved: %s (%s)", v.Label, v.ID))
			return nil
		},
	}

	cmd.Flags().StringVar(&label, "label", "", "Version label (default: Auto-save HH:MM:SS)")
	cmd.Flags().StringVarP(&file, "file", "f", "", "Save this graph as the new snapshot first")

	return cmd
}

func newWorkflowHistoryCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "history ID",
		Short: "List saved versions, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			versions, err := client.ListVersions(args[0])
			if err != nil {
				return err
			}

			headers := []string{"ID", "LABEL", "NODES", "CREATED"}
			rows := make([][]string, len(versions))
			for i, v := range versions {
				rows[i] = []string{v.ID, v.Label, strconv.Itoa(len(v.Graph.Nodes)), v.CreatedAt}
			}

			out.Print(headers, rows, versions)
			return nil
		},
	}
}

func newWorkflowRestoreCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "restore VERSION_ID",
		Short: "Replace the workflow graph with a saved version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wf, err := clientFn().RestoreVersion(args[0])
			if err != nil {
				return err
			}
			outputFn().Success(fmt.Sprintf("Workflow %s restored from version %s", wf.ID, args[0]))
			return nil
		},
	}
}
