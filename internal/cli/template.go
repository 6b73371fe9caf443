package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/shaiso/flowgen/internal/templates"
)

// NewTemplateCmd создаёт группу команд для встроенной галереи шаблонов.
// Шаблоны читаются локально, API не нужен.
func NewTemplateCmd(outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Browse built-in workflow templates",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List templates",
			RunE: func(cmd *cobra.Command, args []string) error {
				list, err := templates.List()
				if err != nil {
					return err
				}

				headers := []string{"ID", "TITLE", "NODES", "DESCRIPTION"}
				rows := make([][]string, len(list))
				for i, t := range list {
					rows[i] = []string{t.ID, t.Title, strconv.Itoa(len(t.Graph.Nodes)), t.Description}
				}

				outputFn().Print(headers, rows, list)
				return nil
			},
		},
		&cobra.Command{
			Use:   "show ID",
			Short: "Print a template graph as JSON (usable with exec and workflow create)",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				tpl, err := templates.Get(args[0])
				if err != nil {
					return err
				}
				outputFn().JSON(tpl.Graph)
				return nil
			},
		},
	)

	return cmd
}
