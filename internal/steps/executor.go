package steps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shaiso/flowgen/internal/domain"
)

// DefaultLatency — симулированная задержка перед каждым узлом,
// чтобы переходы статусов были видны в интерфейсе.
const DefaultLatency = 600 * time.Millisecond

// Executor выполняет один узел: ждёт симулированную задержку,
// выбирает Step по типу узла и применяет дедлайн узла.
//
// Узлы неизвестного типа передают вход без изменений.
type Executor struct {
	registry    *Registry
	latency     time.Duration
	nodeTimeout time.Duration
}

// NewExecutor создаёт Executor.
//
// latency — задержка перед вызовом шага (0 отключает),
// nodeTimeout — дедлайн на узел, включая задержку (0 — без дедлайна).
func NewExecutor(registry *Registry, latency, nodeTimeout time.Duration) *Executor {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Executor{
		registry:    registry,
		latency:     latency,
		nodeTimeout: nodeTimeout,
	}
}

// Registry возвращает реестр шагов.
func (e *Executor) Registry() *Registry {
	return e.registry
}

// Execute выполняет узел с входом input и возвращает output.
func (e *Executor) Execute(ctx context.Context, node *domain.Node, input any) (any, error) {
	if e.nodeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.nodeTimeout)
		defer cancel()
	}

	if e.latency > 0 {
		timer := time.NewTimer(e.latency)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, e.contextError(ctx)
		case <-timer.C:
		}
	}

	step, err := e.registry.Get(node.Kind)
	if err != nil {
		step = NewPassthroughStep(node.Kind)
	}

	resp, err := step.Execute(ctx, NewRequest(node, input))
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(err, ErrStepTimeout) {
			return nil, e.contextError(ctx)
		}
		return nil, err
	}
	if resp == nil {
		return nil, nil
	}
	return resp.Output, nil
}

func (e *Executor) contextError(ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		if e.nodeTimeout > 0 {
			return fmt.Errorf("%w after %s", ErrStepTimeout, e.nodeTimeout)
		}
		return fmt.Errorf("%w: %v", ErrStepTimeout, ctx.Err())
	}
	return fmt.Errorf("%w: %v", ErrStepCancelled, ctx.Err())
}
