package domain

import (
	"time"

	"github.com/google/uuid"
)

// Run — один запуск графа.
//
// Run создаётся когда:
// - Пользователь запускает сохранённый workflow (через API/CLI)
// - Граф выполняется локально из файла (flowgen exec)
//
// После завершения Nodes содержит итоговую проекцию статусов,
// а Stats — замеры длительности узлов в порядке завершения.
type Run struct {
	// ID — уникальный идентификатор run.
	ID uuid.UUID `json:"id"`

	// WorkflowID — ссылка на сохранённый workflow.
	// Nil для ad-hoc графов.
	WorkflowID *uuid.UUID `json:"workflow_id,omitempty"`

	// Status — текущий статус выполнения.
	Status RunStatus `json:"status"`

	// Nodes — узлы с финальными статусами, outputs и ошибками.
	Nodes []Node `json:"nodes"`

	// Edges — рёбра графа, который выполнялся.
	Edges []Edge `json:"edges,omitempty"`

	// Stats — телеметрия по узлам.
	Stats []StatSample `json:"stats"`

	// TotalMs — сумма длительностей всех выполнений узлов.
	TotalMs float64 `json:"total_ms"`

	// Executions — сколько раз узлы были выполнены (с учётом повторов по путям).
	Executions int `json:"executions"`

	// StartedAt — время начала выполнения.
	StartedAt *time.Time `json:"started_at,omitempty"`

	// FinishedAt — время завершения.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Error — причина отмены, если run завершился с CANCELLED.
	Error string `json:"error,omitempty"`

	// CreatedAt — время создания run.
	CreatedAt time.Time `json:"created_at"`
}

// StatSample — замер длительности одного выполнения узла.
type StatSample struct {
	NodeID string `json:"node_id"`

	// Name — label узла на момент выполнения.
	Name string `json:"name"`

	// Duration — длительность в миллисекундах (включая симулированную задержку).
	Duration float64 `json:"duration"`
}

// NewRun создаёт run для графа.
func NewRun(workflowID *uuid.UUID) *Run {
	return &Run{
		ID:         uuid.New(),
		WorkflowID: workflowID,
		Status:     RunStatusRunning,
		CreatedAt:  time.Now(),
	}
}

// Duration возвращает продолжительность выполнения.
// Возвращает 0, если run ещё не завершён.
func (r *Run) Duration() time.Duration {
	if r.StartedAt == nil || r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(*r.StartedAt)
}

// IsFinished возвращает true, если run завершён (в любом статусе).
func (r *Run) IsFinished() bool {
	return r.Status.IsTerminal()
}

// NodeByID возвращает узел итоговой проекции по ID или nil.
func (r *Run) NodeByID(id string) *Node {
	for i := range r.Nodes {
		if r.Nodes[i].ID == id {
			return &r.Nodes[i]
		}
	}
	return nil
}

// CountByStatus возвращает количество узлов с указанным статусом.
func (r *Run) CountByStatus(status NodeStatus) int {
	n := 0
	for i := range r.Nodes {
		if r.Nodes[i].Status == status {
			n++
		}
	}
	return n
}

// MarkRunning переводит run в статус RUNNING.
func (r *Run) MarkRunning() {
	now := time.Now()
	r.Status = RunStatusRunning
	r.StartedAt = &now
}

// MarkCompleted переводит run в статус COMPLETED.
func (r *Run) MarkCompleted() {
	now := time.Now()
	r.Status = RunStatusCompleted
	r.FinishedAt = &now
}

// MarkCancelled переводит run в статус CANCELLED с причиной.
func (r *Run) MarkCancelled(reason string) {
	now := time.Now()
	r.Status = RunStatusCancelled
	r.FinishedAt = &now
	r.Error = reason
}
