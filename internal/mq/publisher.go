package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/shaiso/flowgen/internal/domain"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunStarted   MessageType = "run.started"
	MessageTypeNodeStatus   MessageType = "node.status"
	MessageTypeRunCompleted MessageType = "run.completed"
)

// Publisher публикует события run в RabbitMQ.
//
// Реализует orchestrator.EventPublisher.
type Publisher struct {
	conn   *Connection
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher.
func NewPublisher(conn *Connection, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{
		conn:   conn,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// RunStartedPayload — payload для сообщения о начале run.
type RunStartedPayload struct {
	RunID      uuid.UUID  `json:"run_id"`
	WorkflowID *uuid.UUID `json:"workflow_id,omitempty"`
	Nodes      int        `json:"nodes"`
	Edges      int        `json:"edges"`
}

// NodeStatusPayload — payload для сообщения о переходе статуса узла.
type NodeStatusPayload struct {
	RunID      uuid.UUID         `json:"run_id"`
	NodeID     string            `json:"node_id"`
	Label      string            `json:"label"`
	Kind       domain.NodeKind   `json:"kind"`
	Status     domain.NodeStatus `json:"status"`
	Output     any               `json:"output,omitempty"`
	Error      string            `json:"error,omitempty"`
	DurationMs float64           `json:"duration_ms,omitempty"`
}

// RunCompletedPayload — payload для сообщения о завершении run.
type RunCompletedPayload struct {
	RunID      uuid.UUID           `json:"run_id"`
	WorkflowID *uuid.UUID          `json:"workflow_id,omitempty"`
	Status     domain.RunStatus    `json:"status"`
	Executions int                 `json:"executions"`
	TotalMs    float64             `json:"total_ms"`
	Stats      []domain.StatSample `json:"stats"`
	Error      string              `json:"error,omitempty"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	return p.conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		err := ch.PublishWithContext(
			ctx,
			string(exchange),   // exchange
			string(routingKey), // routing key
			false,
			false,
			amqp.Publishing{
				ContentType:  "application/json",
				DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
				MessageId:    msg.ID,
				Timestamp:    msg.Timestamp,
				Body:         body,
			},
		)
		if err != nil {
			return fmt.Errorf("publish to %s/%s: %w", exchange, routingKey, err)
		}

		p.logger.Debug("published message",
			"exchange", exchange,
			"routing_key", routingKey,
			"message_id", msg.ID,
			"type", msg.Type,
		)

		return nil
	})
}

// PublishRunStarted публикует событие о начале run.
func (p *Publisher) PublishRunStarted(ctx context.Context, run *domain.Run) error {
	return p.PublishJSON(ctx, ExchangeRuns, RoutingKeyRunStarted, MessageTypeRunStarted, RunStartedPayload{
		RunID:      run.ID,
		WorkflowID: run.WorkflowID,
		Nodes:      len(run.Nodes),
		Edges:      len(run.Edges),
	})
}

// PublishNodeStatus публикует переход статуса узла.
func (p *Publisher) PublishNodeStatus(ctx context.Context, event domain.NodeEvent) error {
	return p.PublishJSON(ctx, ExchangeRuns, RoutingKeyNodeStatus, MessageTypeNodeStatus, NodeStatusPayload{
		RunID:      event.RunID,
		NodeID:     event.NodeID,
		Label:      event.Label,
		Kind:       event.Kind,
		Status:     event.Status,
		Output:     event.Output,
		Error:      event.Error,
		DurationMs: float64(event.Duration) / float64(time.Millisecond),
	})
}

// PublishRunCompleted публикует событие о завершении run.
func (p *Publisher) PublishRunCompleted(ctx context.Context, run *domain.Run) error {
	return p.PublishJSON(ctx, ExchangeRuns, RoutingKeyRunCompleted, MessageTypeRunCompleted, RunCompletedPayload{
		RunID:      run.ID,
		WorkflowID: run.WorkflowID,
		Status:     run.Status,
		Executions: run.Executions,
		TotalMs:    run.TotalMs,
		Stats:      run.Stats,
		Error:      run.Error,
	})
}

// PublishJSON публикует произвольный JSON payload.
func (p *Publisher) PublishJSON(ctx context.Context, exchange Exchange, routingKey RoutingKey, msgType MessageType, payload any) error {
	return p.Publish(ctx, exchange, routingKey, NewMessage(msgType, payload))
}

// NewMessage создаёт сообщение с новым ID и текущим временем.
func NewMessage(msgType MessageType, payload any) *Message {
	return &Message{
		ID:        uuid.New().String(),
		Type:      msgType,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}
