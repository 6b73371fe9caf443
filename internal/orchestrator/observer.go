package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/flowgen/internal/domain"
)

// Observer получает переходы статусов узлов в порядке их применения.
//
// Вызывается из горутины проектора: медленный Observer
// задерживает проекцию, но не обход графа.
type Observer interface {
	OnNodeEvent(event domain.NodeEvent)
}

// ObserverFunc адаптирует функцию к Observer.
type ObserverFunc func(event domain.NodeEvent)

// OnNodeEvent вызывает f(event).
func (f ObserverFunc) OnNodeEvent(event domain.NodeEvent) {
	f(event)
}

// EventPublisher публикует события run во внешнюю систему (RabbitMQ).
//
// Ошибки публикации логируются и не влияют на выполнение.
type EventPublisher interface {
	PublishRunStarted(ctx context.Context, run *domain.Run) error
	PublishNodeStatus(ctx context.Context, event domain.NodeEvent) error
	PublishRunCompleted(ctx context.Context, run *domain.Run) error
}

// JoinPolicy определяет поведение узла, в который сходятся несколько путей.
type JoinPolicy int

const (
	// JoinPerPath — узел выполняется заново для каждого пришедшего пути.
	JoinPerPath JoinPolicy = iota

	// JoinOnce — узел выполняется только для первого пришедшего пути,
	// остальные прибытия отбрасываются.
	JoinOnce
)

// String возвращает имя политики.
func (p JoinPolicy) String() string {
	switch p {
	case JoinOnce:
		return "once"
	default:
		return "per-path"
	}
}

// ParseJoinPolicy разбирает имя политики ("per-path", "once").
func ParseJoinPolicy(s string) (JoinPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "per-path", "per_path", "perpath":
		return JoinPerPath, nil
	case "once":
		return JoinOnce, nil
	default:
		return JoinPerPath, fmt.Errorf("%w: %q", ErrUnknownJoinPolicy, s)
	}
}
