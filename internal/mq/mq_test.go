package mq

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/telemetry"
)

func TestParsePayload_NodeStatus(t *testing.T) {
	runID := uuid.New()
	msg := NewMessage(MessageTypeNodeStatus, NodeStatusPayload{
		RunID:      runID,
		NodeID:     "2",
		Label:      "AI Agent",
		Kind:       domain.KindAIAgent,
		Status:     domain.NodeStatusSuccess,
		Output:     map[string]any{"result": "ok"},
		DurationMs: 612.5,
	})

	// сообщение проходит через JSON, как при доставке
	body, err := json.Marshal(msg)
	require.NoError(t, err)
	var delivered Message
	require.NoError(t, json.Unmarshal(body, &delivered))

	assert.Equal(t, MessageTypeNodeStatus, delivered.Type)
	assert.Equal(t, msg.ID, delivered.ID)

	payload, err := ParsePayload[NodeStatusPayload](&delivered)
	require.NoError(t, err)
	assert.Equal(t, runID, payload.RunID)
	assert.Equal(t, domain.NodeStatusSuccess, payload.Status)
	assert.Equal(t, map[string]any{"result": "ok"}, payload.Output)
	assert.InDelta(t, 612.5, payload.DurationMs, 1e-9)
}

func TestParsePayload_RunCompleted(t *testing.T) {
	wf := uuid.New()
	msg := NewMessage(MessageTypeRunCompleted, RunCompletedPayload{
		RunID:      uuid.New(),
		WorkflowID: &wf,
		Status:     domain.RunStatusCancelled,
		Executions: 3,
		TotalMs:    1800,
		Stats:      []domain.StatSample{{NodeID: "1", Name: "Webhook", Duration: 600}},
		Error:      "context canceled",
	})

	payload, err := ParsePayload[RunCompletedPayload](msg)
	require.NoError(t, err)
	require.NotNil(t, payload.WorkflowID)
	assert.Equal(t, wf, *payload.WorkflowID)
	assert.Equal(t, domain.RunStatusCancelled, payload.Status)
	require.Len(t, payload.Stats, 1)
	assert.Equal(t, "Webhook", payload.Stats[0].Name)
}

func TestNewMessage(t *testing.T) {
	before := time.Now()
	a := NewMessage(MessageTypeRunStarted, nil)
	b := NewMessage(MessageTypeRunStarted, nil)

	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.Timestamp.Before(before))
	_, err := uuid.Parse(a.ID)
	assert.NoError(t, err)
}

func TestConnection_WithChannelClosed(t *testing.T) {
	c := &Connection{closed: true, closedCh: make(chan struct{})}
	err := c.WithChannel(t.Context(), nil)
	assert.ErrorIs(t, err, ErrConnectionClosed)

	c = &Connection{closedCh: make(chan struct{})}
	err = c.WithChannel(t.Context(), nil)
	assert.ErrorIs(t, err, ErrNoChannel)
}

// ackRecorder запоминает, как consumer подтвердил доставку.
type ackRecorder struct {
	acked, nacked, requeued bool
}

func (a *ackRecorder) Ack(uint64, bool) error { a.acked = true; return nil }

func (a *ackRecorder) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

func (a *ackRecorder) Reject(_ uint64, requeue bool) error {
	a.nacked, a.requeued = true, requeue
	return nil
}

func TestConsumer_Handle(t *testing.T) {
	valid, err := json.Marshal(NewMessage(MessageTypeRunStarted, RunStartedPayload{RunID: uuid.New(), Nodes: 2}))
	require.NoError(t, err)

	tests := []struct {
		name       string
		body       []byte
		handlerErr error
		wantAck    bool
		wantCalled bool
	}{
		{name: "handled", body: valid, wantAck: true, wantCalled: true},
		{name: "handler error", body: valid, handlerErr: errors.New("print failed"), wantCalled: true},
		{name: "malformed body", body: []byte("{not json")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got *Message
			c := NewConsumer(nil, telemetry.Discard(), ConsumerConfig{
				Handler: func(_ context.Context, msg *Message) error {
					got = msg
					return tt.handlerErr
				},
			})

			ack := &ackRecorder{}
			c.handle(t.Context(), amqp.Delivery{Acknowledger: ack, Body: tt.body})

			assert.Equal(t, tt.wantCalled, got != nil)
			assert.Equal(t, tt.wantAck, ack.acked)
			assert.Equal(t, !tt.wantAck, ack.nacked)
			assert.False(t, ack.requeued)
			if tt.wantCalled {
				assert.Equal(t, MessageTypeRunStarted, got.Type)
			}
		})
	}
}
