package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/flowgen/internal/engine"
)

// NewValidateCmd создаёт команду проверки графа без выполнения.
func NewValidateCmd(outputFn func() *Output) *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check a graph file for structural errors and warnings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			graph, err := LoadGraph(args[0])
			if err != nil {
				return err
			}

			if err := engine.Validate(graph); err != nil {
				return err
			}

			issues := engine.Lint(graph)
			headers := []string{"#", "NODE", "FIELD", "WARNING"}
			rows := make([][]string, len(issues))
			for i, issue := range issues {
				rows[i] = []string{strconv.Itoa(i + 1), issue.NodeID, issue.Field, issue.Message}
			}
			if len(issues) > 0 || out.IsJSON() {
				out.Print(headers, rows, issues)
			}

			out.Success(fmt.Sprintf("%s: %d nodes, %d edges, %d warnings",
				args[0], len(graph.Nodes), len(graph.Edges), len(issues)))
			if strict && len(issues) > 0 {
				return fmt.Errorf("%d warnings", len(issues))
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Treat warnings as errors")

	return cmd
}
