package mq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Handler обрабатывает одно событие run. Ошибка отбрасывает сообщение:
// события не переигрываются.
type Handler func(ctx context.Context, msg *Message) error

// QueueSetup объявляет очередь, привязанную к ExchangeRuns, и возвращает
// её имя. Вызывается на каждом (пере)подключении, см. TemporaryQueue.
type QueueSetup func(ch *amqp.Channel) (string, error)

var errDeliveriesClosed = errors.New("deliveries channel closed")

// Consumer читает события run из очереди на ExchangeRuns.
type Consumer struct {
	conn     *Connection
	logger   *slog.Logger
	setup    QueueSetup
	handler  Handler
	prefetch int

	queue string
}

// ConsumerConfig — конфигурация consumer.
type ConsumerConfig struct {
	Setup   QueueSetup
	Handler Handler

	// Prefetch — сколько неподтверждённых сообщений брокер отдаёт сразу (по умолчанию 1).
	Prefetch int
}

// NewConsumer создаёт новый Consumer.
func NewConsumer(conn *Connection, logger *slog.Logger, cfg ConsumerConfig) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Consumer{
		conn:     conn,
		logger:   logger,
		setup:    cfg.Setup,
		handler:  cfg.Handler,
		prefetch: max(cfg.Prefetch, 1),
	}
}

// Start читает события до отмены ctx и возвращает ctx.Err().
// После разрыва соединения ждёт reconnect и объявляет очередь заново.
func (c *Consumer) Start(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		deliveries, err := c.subscribe()
		if err == nil {
			c.logger.Info("consumer started", "queue", c.queue)
			err = c.drain(ctx, deliveries)
			if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		c.logger.Warn("consumer interrupted, waiting for reconnect", "queue", c.queue, "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.ReconnectNotify():
		}
	}
}

// subscribe объявляет очередь и начинает потребление с ручным ack.
func (c *Consumer) subscribe() (<-chan amqp.Delivery, error) {
	ch := c.conn.Channel()
	if ch == nil {
		return nil, ErrNoChannel
	}
	if c.setup == nil {
		return nil, errors.New("consumer has no queue setup")
	}

	queue, err := c.setup(ch)
	if err != nil {
		return nil, fmt.Errorf("setup queue: %w", err)
	}
	c.queue = queue

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		return nil, fmt.Errorf("set qos: %w", err)
	}

	deliveries, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", queue, err)
	}
	return deliveries, nil
}

func (c *Consumer) drain(ctx context.Context, deliveries <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-deliveries:
			if !ok {
				return errDeliveriesClosed
			}
			c.handle(ctx, raw)
		}
	}
}

// handle декодирует сообщение, вызывает handler и подтверждает доставку.
// Некорректный JSON и ошибки handler отбрасываются без requeue.
func (c *Consumer) handle(ctx context.Context, raw amqp.Delivery) {
	var msg Message
	if err := json.Unmarshal(raw.Body, &msg); err != nil {
		c.logger.Error("failed to unmarshal message", "queue", c.queue, "error", err)
		_ = raw.Nack(false, false)
		return
	}

	if err := c.handler(ctx, &msg); err != nil {
		c.logger.Error("handler failed",
			"queue", c.queue,
			"message_id", msg.ID,
			"type", msg.Type,
			"error", err,
		)
		_ = raw.Nack(false, false)
		return
	}
	_ = raw.Ack(false)
}

// ParsePayload декодирует payload сообщения в T. После доставки payload
// лежит в Message как map[string]any, поэтому проходит через JSON ещё раз.
func ParsePayload[T any](msg *Message) (T, error) {
	var result T

	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return result, fmt.Errorf("marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("unmarshal payload: %w", err)
	}
	return result, nil
}
