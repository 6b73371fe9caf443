package domain

import (
	"time"

	"github.com/google/uuid"
)

// NodeEvent — переход статуса узла во время run.
//
// Горутины обхода отправляют события проектору, который единственный
// изменяет состояние узлов. Те же события получают наблюдатели
// (CLI --watch) и публикуются в RabbitMQ.
type NodeEvent struct {
	RunID  uuid.UUID  `json:"run_id"`
	NodeID string     `json:"node_id"`
	Label  string     `json:"label"`
	Kind   NodeKind   `json:"kind"`
	Status NodeStatus `json:"status"`

	// Output — результат узла (только для success).
	Output any `json:"output,omitempty"`

	// Error — текст ошибки (только для error).
	Error string `json:"error,omitempty"`

	// Duration — длительность выполнения, включая симулированную задержку.
	// Заполняется для терминальных статусов.
	Duration time.Duration `json:"duration_ns,omitempty"`

	Time time.Time `json:"time"`
}

// IsTerminal возвращает true для success и error.
func (e NodeEvent) IsTerminal() bool {
	return e.Status.IsTerminal()
}
