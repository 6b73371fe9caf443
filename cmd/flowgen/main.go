// flowgen — инструмент командной строки для выполнения графов
// и управления workflows через HTTP API.
//
// Использование:
//
//	flowgen [--api-url URL] [--json] <command> [subcommand] [flags]
//
// Команды:
//
//	exec      Выполнить граф из файла локально
//	validate  Проверить граф из файла
//	template  Встроенные шаблоны
//	events    События run из RabbitMQ
//	workflow  Управление workflows
//	run       Управление runs
//	generate  Граф по текстовому описанию
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/flowgen/internal/cli"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var apiURL string
	var jsonOutput bool

	rootCmd := &cobra.Command{
		Use:           "flowgen",
		Short:         "flowgen — visual workflow execution engine",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaultURL := "http://localhost:8080"
	if v := os.Getenv("FLOWGEN_API_URL"); v != "" {
		defaultURL = v
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", defaultURL, "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }

	rootCmd.AddCommand(
		cli.NewExecCmd(outputFn),
		cli.NewValidateCmd(outputFn),
		cli.NewTemplateCmd(outputFn),
		cli.NewEventsCmd(outputFn),
		cli.NewWorkflowCmd(clientFn, outputFn),
		cli.NewRunCmd(clientFn, outputFn),
		cli.NewGenerateCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
