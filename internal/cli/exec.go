package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/engine"
	"github.com/shaiso/flowgen/internal/llm"
	"github.com/shaiso/flowgen/internal/mq"
	"github.com/shaiso/flowgen/internal/orchestrator"
	"github.com/shaiso/flowgen/internal/steps"
	"github.com/shaiso/flowgen/internal/telemetry"
)

// DefaultLatency — симулированная задержка перед каждым узлом.
const DefaultLatency = 600 * time.Millisecond

// ExecOptions — параметры локального выполнения графа.
type ExecOptions struct {
	Latency       time.Duration
	NodeTimeout   time.Duration
	Join          string
	MaxExecutions int

	// Offline заменяет Gemini детерминированным генератором.
	Offline bool
	Model   string

	LiveHTTP bool

	// Watch печатает переходы статусов узлов по мере выполнения.
	Watch bool

	// AMQPURL включает публикацию событий run в RabbitMQ.
	AMQPURL string
}

// NewExecCmd создаёт команду локального выполнения графа из файла.
func NewExecCmd(outputFn func() *Output) *cobra.Command {
	opts := ExecOptions{Latency: DefaultLatency}
	var publish bool

	cmd := &cobra.Command{
		Use:   "exec FILE",
		Short: "Execute a graph file locally",
		Long: `Execute a graph file in-process and print the final node states and telemetry.

FILE is a JSON graph ({nodes, edges}) or an editor export; use - for stdin.
AI nodes call Gemini when GOOGLE_API_KEY is set, or a local echo with --offline.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()

			graph, err := LoadGraph(args[0])
			if err != nil {
				return err
			}

			if publish {
				opts.AMQPURL = amqpURL()
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger := telemetry.NewLogger(os.Stderr)
			run, err := Exec(ctx, graph, opts, out, logger)
			if err != nil {
				return err
			}

			out.Run(string(run.Status), run.Nodes, run.Stats, run.TotalMs, run)
			if run.Status == domain.RunStatusCancelled {
				return fmt.Errorf("run cancelled: %s", run.Error)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.DurationVar(&opts.Latency, "latency", DefaultLatency, "Simulated latency before each node")
	f.DurationVar(&opts.NodeTimeout, "node-timeout", 0, "Deadline for a single node (0 = none)")
	f.StringVar(&opts.Join, "join", "per-path", "Join policy for merging paths: per-path or once")
	f.IntVar(&opts.MaxExecutions, "max-executions", 0, "Stop scheduling after N node executions (0 = unlimited)")
	f.BoolVar(&opts.Offline, "offline", false, "Answer AI nodes locally without calling Gemini")
	f.StringVar(&opts.Model, "model", os.Getenv("FLOWGEN_MODEL"), "Default Gemini model for AI nodes")
	f.BoolVar(&opts.LiveHTTP, "live-http", false, "Perform real HTTP calls in http_request nodes")
	f.BoolVar(&opts.Watch, "watch", false, "Stream node status changes to stderr")
	f.BoolVar(&publish, "publish", false, "Publish run events to RabbitMQ (RABBITMQ_URL)")

	return cmd
}

// Exec выполняет граф в текущем процессе.
//
// Структурные ошибки графа (дубликаты ID, висячие рёбра) возвращаются
// до запуска; предупреждения Lint печатаются в out.
func Exec(ctx context.Context, graph *domain.Graph, opts ExecOptions, out *Output, logger *slog.Logger) (*domain.Run, error) {
	if logger == nil {
		logger = slog.Default()
	}

	if err := engine.Validate(graph); err != nil {
		return nil, err
	}
	for _, issue := range engine.Lint(graph) {
		out.Warn(issue.Error())
	}

	join, err := orchestrator.ParseJoinPolicy(opts.Join)
	if err != nil {
		return nil, err
	}

	generator, err := newGenerator(ctx, opts, logger)
	if err != nil {
		return nil, err
	}
	if generator == nil && hasKind(graph, domain.KindAIAgent) {
		out.Warn("no Gemini API key found, AI nodes will fail (set GOOGLE_API_KEY or pass --offline)")
	}

	stepOpts := []steps.Option{steps.WithLiveHTTP(opts.LiveHTTP)}
	if generator != nil {
		stepOpts = append(stepOpts, steps.WithGenerator(generator))
	}

	cfg := orchestrator.Config{
		Registry:      steps.DefaultRegistry(stepOpts...),
		Latency:       opts.Latency,
		NodeTimeout:   opts.NodeTimeout,
		JoinPolicy:    join,
		MaxExecutions: opts.MaxExecutions,
		Logger:        logger,
	}

	if opts.AMQPURL != "" {
		conn, err := mq.NewConnection(opts.AMQPURL, logger)
		if err != nil {
			return nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		defer conn.Close()
		if err := mq.SetupTopology(ctx, conn); err != nil {
			return nil, fmt.Errorf("setup topology: %w", err)
		}
		cfg.Publisher = mq.NewPublisher(conn, logger)
	}

	o, err := orchestrator.New(cfg)
	if err != nil {
		return nil, err
	}

	var runOpts []orchestrator.RunOption
	if opts.Watch {
		runOpts = append(runOpts, orchestrator.WithObserver(orchestrator.ObserverFunc(out.Event)))
	}

	return o.Run(ctx, graph, runOpts...)
}

// newGenerator выбирает генератор для узлов ai_agent.
// Возвращает nil, если ключа нет и --offline не задан.
func newGenerator(ctx context.Context, opts ExecOptions, logger *slog.Logger) (steps.TextGenerator, error) {
	if opts.Offline {
		return llm.Offline{}, nil
	}

	geminiOpts := []llm.Option{llm.WithLogger(logger)}
	if opts.Model != "" {
		geminiOpts = append(geminiOpts, llm.WithModel(opts.Model))
	}
	g, err := llm.NewGemini(ctx, geminiOpts...)
	if errors.Is(err, llm.ErrNoAPIKey) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return g, nil
}

// amqpURL возвращает RABBITMQ_URL или адрес для локальной разработки.
func amqpURL() string {
	if v := os.Getenv("RABBITMQ_URL"); v != "" {
		return v
	}
	return mq.DefaultURL()
}

func hasKind(g *domain.Graph, kind domain.NodeKind) bool {
	for i := range g.Nodes {
		if g.Nodes[i].Kind == kind {
			return true
		}
	}
	return false
}
