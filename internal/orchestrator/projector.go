package orchestrator

import (
	"context"
	"log/slog"

	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/telemetry"
)

// eventBuffer — ёмкость канала событий.
const eventBuffer = 64

// projector — единственный владелец проекции узлов run.
//
// Применяет события в порядке получения (last write wins по узлу),
// записывает телеметрию и рассылает события наблюдателям.
type projector struct {
	events chan domain.NodeEvent
	done   chan struct{}

	nodes []domain.Node
	index map[string]int

	collector *telemetry.Collector
	observers []Observer
	publisher EventPublisher
	metrics   *telemetry.Metrics
	logger    *slog.Logger
}

func newProjector(nodes []domain.Node, collector *telemetry.Collector, observers []Observer, publisher EventPublisher, metrics *telemetry.Metrics, logger *slog.Logger) *projector {
	index := make(map[string]int, len(nodes))
	for i := range nodes {
		if _, exists := index[nodes[i].ID]; !exists {
			index[nodes[i].ID] = i
		}
	}
	return &projector{
		events:    make(chan domain.NodeEvent, eventBuffer),
		done:      make(chan struct{}),
		nodes:     nodes,
		index:     index,
		collector: collector,
		observers: observers,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger,
	}
}

// run обрабатывает события до закрытия канала.
func (p *projector) run(ctx context.Context) {
	defer close(p.done)

	for event := range p.events {
		p.apply(event)

		for _, obs := range p.observers {
			obs.OnNodeEvent(event)
		}

		if p.publisher != nil {
			if err := p.publisher.PublishNodeStatus(ctx, event); err != nil {
				p.logger.Warn("failed to publish node status",
					"node_id", event.NodeID,
					"status", event.Status,
					"error", err,
				)
			}
		}
	}
}

// close закрывает канал и ждёт применения всех событий.
func (p *projector) close() {
	close(p.events)
	<-p.done
}

func (p *projector) apply(event domain.NodeEvent) {
	i, ok := p.index[event.NodeID]
	if !ok {
		return
	}
	node := &p.nodes[i]
	node.Status = event.Status

	switch event.Status {
	case domain.NodeStatusSuccess:
		node.Output = event.Output
		node.Error = ""
	case domain.NodeStatusError:
		node.Output = nil
		node.Error = event.Error
	}

	if event.IsTerminal() {
		p.collector.Record(event.NodeID, event.Label, event.Duration)
		p.metrics.ObserveNode(event.Kind, event.Status, event.Duration)
	}
}
