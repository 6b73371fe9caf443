package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/shaiso/flowgen/internal/domain"
)

// outputPreview — максимальная длина output узла в таблице.
const outputPreview = 60

// Output управляет форматированием вывода CLI.
type Output struct {
	jsonMode bool
	w        io.Writer // stdout для данных
	errW     io.Writer // stderr для сообщений
}

// NewOutput создаёт Output. Если jsonMode=true, данные выводятся в JSON.
func NewOutput(jsonMode bool) *Output {
	return NewOutputTo(jsonMode, os.Stdout, os.Stderr)
}

// NewOutputTo создаёт Output с заданными потоками.
func NewOutputTo(jsonMode bool, w, errW io.Writer) *Output {
	return &Output{
		jsonMode: jsonMode,
		w:        w,
		errW:     errW,
	}
}

// IsJSON возвращает true в режиме --json.
func (o *Output) IsJSON() bool {
	return o.jsonMode
}

// Print выводит данные: таблицу или JSON в зависимости от режима.
func (o *Output) Print(headers []string, rows [][]string, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}
	o.Table(headers, rows)
}

// Table выводит данные в виде таблицы через tabwriter.
func (o *Output) Table(headers []string, rows [][]string) {
	tw := tabwriter.NewWriter(o.w, 0, 0, 2, ' ', 0)

	// Заголовки
	fmt.Fprintln(tw, strings.Join(headers, "\t"))

	// Разделитель
	dashes := make([]string, len(headers))
	for i, h := range headers {
		dashes[i] = strings.Repeat("-", len(h))
	}
	fmt.Fprintln(tw, strings.Join(dashes, "\t"))

	// Строки данных
	for _, row := range rows {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	tw.Flush()
}

// JSON выводит данные в формате JSON с отступами.
func (o *Output) JSON(v any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

// Run выводит итог run: проекцию узлов и телеметрию.
func (o *Output) Run(status string, nodes []domain.Node, stats []domain.StatSample, totalMs float64, jsonData any) {
	if o.jsonMode {
		o.JSON(jsonData)
		return
	}

	rows := make([][]string, len(nodes))
	for i, n := range nodes {
		detail := n.Error
		if detail == "" && n.Output != nil {
			detail = preview(n.Output)
		}
		rows[i] = []string{n.ID, n.DisplayName(), n.Kind.String(), n.Status.String(), detail}
	}
	o.Table([]string{"ID", "LABEL", "TYPE", "STATUS", "OUTPUT/ERROR"}, rows)

	fmt.Fprintln(o.w)
	o.Stats(stats, totalMs)
	fmt.Fprintf(o.w, "\nstatus: %s\n", status)
}

// Stats выводит телеметрию по узлам в порядке завершения.
func (o *Output) Stats(stats []domain.StatSample, totalMs float64) {
	rows := make([][]string, len(stats))
	for i, s := range stats {
		rows[i] = []string{strconv.Itoa(i + 1), s.NodeID, s.Name, formatMs(s.Duration)}
	}
	o.Table([]string{"#", "NODE", "NAME", "DURATION"}, rows)
	fmt.Fprintf(o.w, "total: %s across %d executions\n", formatMs(totalMs), len(stats))
}

// Event выводит одно событие узла (режим --watch).
func (o *Output) Event(e domain.NodeEvent) {
	if o.jsonMode {
		enc := json.NewEncoder(o.errW)
		enc.Encode(e)
		return
	}

	line := fmt.Sprintf("%s  %-8s %s (%s)", e.Time.Format("15:04:05.000"), e.Status, e.NodeID, e.Label)
	switch e.Status {
	case domain.NodeStatusSuccess:
		line += "  " + formatMs(float64(e.Duration.Microseconds())/1000)
	case domain.NodeStatusError:
		line += "  " + e.Error
	}
	fmt.Fprintln(o.errW, line)
}

// Success выводит сообщение об успехе в stderr.
func (o *Output) Success(msg string) {
	fmt.Fprintln(o.errW, msg)
}

// Warn выводит предупреждение в stderr.
func (o *Output) Warn(msg string) {
	fmt.Fprintln(o.errW, "Warning: "+msg)
}

// Error выводит сообщение об ошибке в stderr.
func (o *Output) Error(msg string) {
	fmt.Fprintln(o.errW, "Error: "+msg)
}

// preview возвращает компактную однострочную форму output.
func preview(v any) string {
	var s string
	if str, ok := v.(string); ok {
		s = str
	} else {
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprint(v)
		}
		s = string(data)
	}
	s = strings.Join(strings.Fields(s), " ")

	runes := []rune(s)
	if len(runes) > outputPreview {
		return string(runes[:outputPreview-3]) + "..."
	}
	return s
}

func formatMs(ms float64) string {
	return strconv.FormatFloat(ms, 'f', 1, 64) + "ms"
}
