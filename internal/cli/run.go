package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт группу команд для runs на сервере.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Manage runs",
	}

	cmd.AddCommand(
		newRunListCmd(clientFn, outputFn),
		newRunStartCmd(clientFn, outputFn),
		newRunShowCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var opts ListRunsOpts

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListRuns(opts)
			if err != nil {
				return err
			}

			headers := []string{"ID", "WORKFLOW_ID", "STATUS", "EXECUTIONS", "TOTAL", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{
					r.ID, r.WorkflowID, r.Status,
					strconv.Itoa(r.Executions), formatMs(r.TotalMs), r.CreatedAt,
				}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&opts.WorkflowID, "workflow-id", "", "Filter by workflow ID")
	cmd.Flags().StringVar(&opts.Status, "status", "", "Filter by status (RUNNING, COMPLETED, CANCELLED)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Maximum number of results")
	cmd.Flags().IntVar(&opts.Offset, "offset", 0, "Skip the first N results")

	return cmd
}

func newRunStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "start [WORKFLOW_ID]",
		Short: "Run a saved workflow, or a graph file with --file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			var (
				run *RunResponse
				err error
			)
			switch {
			case len(args) == 1 && file == "":
				run, err = client.RunWorkflow(args[0])
			case len(args) == 0 && file != "":
				graph, lerr := LoadGraph(file)
				if lerr != nil {
					return lerr
				}
				run, err = client.RunGraph(graph)
			default:
				return fmt.Errorf("pass either WORKFLOW_ID or --file")
			}
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run finished: %s", run.ID))
			out.Run(run.Status, run.Nodes, run.Stats, run.TotalMs, run)
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "Graph JSON file to run without saving (- for stdin)")

	return cmd
}

func newRunShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			if run.Error != "" && !out.IsJSON() {
				out.Warn(run.Error)
			}
			out.Run(run.Status, run.Nodes, run.Stats, run.TotalMs, run)
			return nil
		},
	}
}
