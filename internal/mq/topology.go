package mq

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Exchanges — имена обменников.
const (
	ExchangeRuns Exchange = "flowgen.runs"
)

// Queues — имена очередей.
const (
	// QueueRunEvents — долговечная очередь всех событий run для внешних потребителей
	// (аудит, аналитика). Живые наблюдатели используют временные очереди.
	QueueRunEvents Queue = "flowgen.run-events"
)

// Routing keys.
const (
	RoutingKeyRunStarted   RoutingKey = "run.started"
	RoutingKeyNodeStatus   RoutingKey = "node.status"
	RoutingKeyRunCompleted RoutingKey = "run.completed"

	// RoutingKeyAll — шаблон для подписки на все события.
	RoutingKeyAll RoutingKey = "#"
)

// SetupTopology объявляет exchange и долговечную очередь событий.
func SetupTopology(ctx context.Context, conn *Connection) error {
	return conn.WithChannel(ctx, func(ch *amqp.Channel) error {
		_, err := DurableQueue(ch)
		return err
	})
}

// DurableQueue — QueueSetup для общей очереди QueueRunEvents: события
// копятся в ней, пока никто не читает, и делятся между читателями.
func DurableQueue(ch *amqp.Channel) (string, error) {
	if err := declareExchange(ch); err != nil {
		return "", err
	}

	_, err := ch.QueueDeclare(
		string(QueueRunEvents), // name
		true,                   // durable
		false,                  // delete when unused
		false,                  // exclusive
		false,                  // no-wait
		nil,                    // arguments
	)
	if err != nil {
		return "", fmt.Errorf("declare queue %s: %w", QueueRunEvents, err)
	}

	if err := ch.QueueBind(string(QueueRunEvents), string(RoutingKeyAll), string(ExchangeRuns), false, nil); err != nil {
		return "", fmt.Errorf("bind queue %s to %s: %w", QueueRunEvents, ExchangeRuns, err)
	}
	return string(QueueRunEvents), nil
}

// TemporaryQueue возвращает QueueSetup для живого наблюдателя:
// эксклюзивная очередь с автоудалением, привязанная к ExchangeRuns по key.
// Пропущенные до подписки события не видны.
func TemporaryQueue(key RoutingKey) QueueSetup {
	return func(ch *amqp.Channel) (string, error) {
		if err := declareExchange(ch); err != nil {
			return "", err
		}

		q, err := ch.QueueDeclare(
			"",    // имя назначит сервер
			false, // durable
			true,  // delete when unused
			true,  // exclusive
			false, // no-wait
			nil,   // arguments
		)
		if err != nil {
			return "", fmt.Errorf("declare temporary queue: %w", err)
		}

		if err := ch.QueueBind(q.Name, string(key), string(ExchangeRuns), false, nil); err != nil {
			return "", fmt.Errorf("bind queue %s to %s: %w", q.Name, ExchangeRuns, err)
		}
		return q.Name, nil
	}
}

// declareExchange создаёт topic exchange для событий run.
func declareExchange(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		string(ExchangeRuns), // name
		"topic",              // type
		true,                 // durable
		false,                // auto-deleted
		false,                // internal
		false,                // no-wait
		nil,                  // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeRuns, err)
	}
	return nil
}

// TopologyInfo возвращает описание топологии для логирования.
func TopologyInfo() string {
	return `
  FlowGen RabbitMQ Topology:

    flowgen.runs (topic)
    ├── flowgen.run-events [routing: #]
    │       Durable, consumer: flowgen events --durable
    └── amq.gen-* [routing: #, exclusive]
            Consumer: flowgen events

  Routing keys: run.started, node.status, run.completed
  `
}
