package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/steps"
	"github.com/shaiso/flowgen/internal/telemetry"
)

// Orchestrator выполняет графы workflow.
//
// Orchestrator — центральный компонент движка, который:
//   - Находит точки входа и запускает их параллельно с входом {}
//   - Передаёт output узла всем его последователям и ждёт их завершения
//   - Для условного узла выбирает рёбра по результату и передаёт исходный вход
//   - Проецирует статусы узлов через проектор и собирает телеметрию
//
// Одновременно выполняется не более одного run: повторный вызов Run
// во время выполнения возвращает ErrRunInProgress.
type Orchestrator struct {
	executor *steps.Executor

	join          JoinPolicy
	maxExecutions int

	observer  Observer
	publisher EventPublisher
	metrics   *telemetry.Metrics
	logger    *slog.Logger

	mu      sync.Mutex
	running bool
}

// Config — конфигурация Orchestrator.
type Config struct {
	// Executor выполняет отдельные узлы.
	// Если nil, создаётся из Registry, Latency и NodeTimeout.
	Executor *steps.Executor

	// Registry — шаги по типам узлов (default: steps.DefaultRegistry()).
	Registry *steps.Registry

	// Latency — симулированная задержка перед каждым узлом (0 — без задержки).
	Latency time.Duration

	// NodeTimeout — дедлайн на выполнение узла (0 — без дедлайна).
	NodeTimeout time.Duration

	// JoinPolicy — поведение узлов, в которые сходятся пути (default: JoinPerPath).
	JoinPolicy JoinPolicy

	// MaxExecutions ограничивает количество выполнений узлов за run
	// (0 — без ограничения). Защищает от бесконечного обхода циклов.
	MaxExecutions int

	// Observer получает события всех run.
	Observer Observer

	// Publisher публикует события run (опционально).
	Publisher EventPublisher

	// Metrics — Prometheus метрики (опционально).
	Metrics *telemetry.Metrics

	// Logger
	Logger *slog.Logger
}

// New создаёт новый Orchestrator.
//
// Возвращает ошибку, если в реестре нет шага для какого-либо типа узла.
func New(cfg Config) (*Orchestrator, error) {
	executor := cfg.Executor
	if executor == nil {
		registry := cfg.Registry
		if registry == nil {
			registry = steps.DefaultRegistry()
		}
		executor = steps.NewExecutor(registry, cfg.Latency, cfg.NodeTimeout)
	}

	if err := executor.Registry().Validate(); err != nil {
		return nil, fmt.Errorf("incomplete step registry: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	maxExecutions := cfg.MaxExecutions
	if maxExecutions < 0 {
		maxExecutions = 0
	}

	return &Orchestrator{
		executor:      executor,
		join:          cfg.JoinPolicy,
		maxExecutions: maxExecutions,
		observer:      cfg.Observer,
		publisher:     cfg.Publisher,
		metrics:       cfg.Metrics,
		logger:        logger,
	}, nil
}

// RunOption настраивает отдельный run.
type RunOption func(*runOptions)

type runOptions struct {
	workflowID *uuid.UUID
	observers  []Observer
}

// WithWorkflowID связывает run с сохранённым workflow.
func WithWorkflowID(id uuid.UUID) RunOption {
	return func(o *runOptions) {
		o.workflowID = &id
	}
}

// WithObserver добавляет наблюдателя только для этого run.
func WithObserver(obs Observer) RunOption {
	return func(o *runOptions) {
		if obs != nil {
			o.observers = append(o.observers, obs)
		}
	}
}

// IsRunning возвращает true, если run выполняется.
func (o *Orchestrator) IsRunning() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

func (o *Orchestrator) acquire() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return false
	}
	o.running = true
	return true
}

func (o *Orchestrator) release() {
	o.mu.Lock()
	o.running = false
	o.mu.Unlock()
}

// Run выполняет граф и возвращает завершённый run.
//
// Исходный граф не изменяется: выполнение идёт по копии, статусы которой
// сбрасываются в idle. Ошибки отдельных узлов не делают Run ошибочным;
// результат каждого узла смотрите в run.Nodes. Если ctx отменён,
// run завершается со статусом CANCELLED.
func (o *Orchestrator) Run(ctx context.Context, graph *domain.Graph, opts ...RunOption) (*domain.Run, error) {
	if !o.acquire() {
		o.metrics.RunRejected()
		return nil, ErrRunInProgress
	}
	defer o.release()

	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}

	if graph == nil {
		graph = &domain.Graph{}
	}
	projection := graph.Clone()
	projection.ResetStatuses()

	run := domain.NewRun(ro.workflowID)
	run.Edges = projection.Edges
	run.MarkRunning()

	logger := telemetry.WithRunID(o.logger, run.ID.String())
	if ro.workflowID != nil {
		logger = telemetry.WithWorkflowID(logger, ro.workflowID.String())
	}

	// публикация не должна обрываться вместе с отменой run
	pubCtx := context.WithoutCancel(ctx)

	observers := ro.observers
	if o.observer != nil {
		observers = append([]Observer{o.observer}, observers...)
	}

	collector := telemetry.NewCollector()
	proj := newProjector(projection.Nodes, collector, observers, o.publisher, o.metrics, logger)
	state := newRunState(run.ID, graph.Clone(), o.join, o.maxExecutions, proj.events)

	o.metrics.RunStarted()
	o.publishRunStarted(pubCtx, run, logger)

	logger.Info("run started",
		"nodes", state.plan.Size(),
		"edges", len(projection.Edges),
		"starts", len(state.plan.Starts),
		"join_policy", o.join.String(),
	)

	go proj.run(pubCtx)

	var g errgroup.Group
	for _, id := range state.plan.Starts {
		g.Go(func() error {
			o.visit(ctx, state, id, map[string]any{}, logger)
			return nil
		})
	}
	_ = g.Wait()

	proj.close()

	run.Nodes = projection.Nodes
	run.Stats = collector.Snapshot()
	run.TotalMs = collector.Total()
	run.Executions = collector.Len()

	if err := ctx.Err(); err != nil {
		run.MarkCancelled(err.Error())
	} else {
		run.MarkCompleted()
	}

	o.metrics.RunFinished(run.Status)
	o.publishRunCompleted(pubCtx, run, logger)

	logger.Info("run finished",
		"status", run.Status,
		"executions", run.Executions,
		"succeeded", run.CountByStatus(domain.NodeStatusSuccess),
		"failed", run.CountByStatus(domain.NodeStatusError),
		"skipped_arrivals", state.Skipped(),
		"total_ms", run.TotalMs,
		"duration", run.Duration(),
	)

	return run, nil
}

// visit выполняет узел и, если он успешен, его последователей.
// Возвращается, когда завершился весь обход, начатый с этого узла.
func (o *Orchestrator) visit(ctx context.Context, st *runState, nodeID string, input any, logger *slog.Logger) {
	node := st.plan.Node(nodeID)
	if node == nil {
		return
	}
	if ctx.Err() != nil {
		return
	}

	nodeLogger := telemetry.WithNodeID(logger, nodeID)

	if ok, reason := st.admit(nodeID); !ok {
		nodeLogger.Debug("node arrival skipped", "reason", reason)
		return
	}

	label := node.DisplayName()
	st.emit(domain.NodeEvent{
		NodeID: nodeID,
		Label:  label,
		Kind:   node.Kind,
		Status: domain.NodeStatusRunning,
		Time:   time.Now(),
	})

	start := time.Now()
	output, err := o.executor.Execute(ctx, node, input)
	duration := time.Since(start)

	if err != nil {
		nodeLogger.Warn("node failed",
			"kind", node.Kind,
			"duration", duration,
			"error", err,
		)
		st.emit(domain.NodeEvent{
			NodeID:   nodeID,
			Label:    label,
			Kind:     node.Kind,
			Status:   domain.NodeStatusError,
			Error:    err.Error(),
			Duration: duration,
			Time:     time.Now(),
		})
		return
	}

	nodeLogger.Debug("node completed", "kind", node.Kind, "duration", duration)
	st.emit(domain.NodeEvent{
		NodeID:   nodeID,
		Label:    label,
		Kind:     node.Kind,
		Status:   domain.NodeStatusSuccess,
		Output:   output,
		Duration: duration,
		Time:     time.Now(),
	})

	next := output
	branch := node.Kind.IsBranch()
	result := false
	if branch {
		var ok bool
		result, next, ok = steps.BranchResult(output)
		if !ok {
			return
		}
	}

	edges := st.plan.Successors(nodeID, branch, result)
	if len(edges) == 0 {
		return
	}

	var g errgroup.Group
	for _, e := range edges {
		g.Go(func() error {
			o.visit(ctx, st, e.Target, next, logger)
			return nil
		})
	}
	_ = g.Wait()
}

func (o *Orchestrator) publishRunStarted(ctx context.Context, run *domain.Run, logger *slog.Logger) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.PublishRunStarted(ctx, run); err != nil {
		logger.Warn("failed to publish run started", "error", err)
	}
}

func (o *Orchestrator) publishRunCompleted(ctx context.Context, run *domain.Run, logger *slog.Logger) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.PublishRunCompleted(ctx, run); err != nil {
		logger.Warn("failed to publish run completed", "error", err)
	}
}
