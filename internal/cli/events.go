package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/mq"
	"github.com/shaiso/flowgen/internal/telemetry"
)

// NewEventsCmd создаёт команду просмотра событий run из RabbitMQ.
func NewEventsCmd(outputFn func() *Output) *cobra.Command {
	var (
		url     string
		key     string
		durable bool
	)

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Tail run events published to RabbitMQ",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := outputFn()
			logger := telemetry.NewLogger(os.Stderr)

			conn, err := mq.NewConnection(url, logger)
			if err != nil {
				return fmt.Errorf("connect to rabbitmq: %w", err)
			}
			defer conn.Close()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			setup := mq.TemporaryQueue(mq.RoutingKey(key))
			if durable {
				setup = mq.DurableQueue
			}

			consumer := mq.NewConsumer(conn, logger, mq.ConsumerConfig{
				Setup:    setup,
				Prefetch: 16,
				Handler: func(_ context.Context, msg *mq.Message) error {
					return PrintEvent(out, msg)
				},
			})

			err = consumer.Start(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().StringVar(&url, "amqp-url", amqpURL(), "RabbitMQ URL")
	cmd.Flags().StringVar(&key, "key", string(mq.RoutingKeyAll), "Routing key pattern (run.started, node.status, run.completed, #)")
	cmd.Flags().BoolVar(&durable, "durable", false, "Read the shared durable queue instead of a live subscription (--key is ignored)")

	return cmd
}

// PrintEvent выводит одно сообщение о run.
func PrintEvent(out *Output, msg *mq.Message) error {
	if out.IsJSON() {
		out.JSON(msg)
		return nil
	}

	switch msg.Type {
	case mq.MessageTypeRunStarted:
		p, err := mq.ParsePayload[mq.RunStartedPayload](msg)
		if err != nil {
			return err
		}
		out.Success(fmt.Sprintf("%s  run %s started (%d nodes, %d edges)",
			stamp(msg.Timestamp), p.RunID, p.Nodes, p.Edges))

	case mq.MessageTypeNodeStatus:
		p, err := mq.ParsePayload[mq.NodeStatusPayload](msg)
		if err != nil {
			return err
		}
		out.Event(domain.NodeEvent{
			RunID:    p.RunID,
			NodeID:   p.NodeID,
			Label:    p.Label,
			Kind:     p.Kind,
			Status:   p.Status,
			Output:   p.Output,
			Error:    p.Error,
			Duration: time.Duration(p.DurationMs * float64(time.Millisecond)),
			Time:     msg.Timestamp,
		})

	case mq.MessageTypeRunCompleted:
		p, err := mq.ParsePayload[mq.RunCompletedPayload](msg)
		if err != nil {
			return err
		}
		out.Success(fmt.Sprintf("%s  run %s %s: %d executions, %s",
			stamp(msg.Timestamp), p.RunID, p.Status, p.Executions, formatMs(p.TotalMs)))

	default:
		out.Warn(fmt.Sprintf("unknown message type %q", msg.Type))
	}
	return nil
}

func stamp(t time.Time) string {
	return t.Format("15:04:05.000")
}
