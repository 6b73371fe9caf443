package domain

import (
	"time"

	"github.com/google/uuid"
)

// Workflow — сохранённый граф.
//
// Хранится только текущий снимок; история изменений лежит в WorkflowVersion.
type Workflow struct {
	// ID — уникальный идентификатор workflow.
	ID uuid.UUID `json:"id"`

	// Name — имя workflow (например, "Expense Approval").
	Name string `json:"name"`

	// Graph — текущие узлы и рёбра.
	Graph Graph `json:"graph"`

	// CreatedAt — время создания.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt — время последнего сохранения снимка.
	UpdatedAt time.Time `json:"updated_at"`
}

// WorkflowVersion — именованная точка в истории workflow.
//
// Версии позволяют:
// - Сохранять состояние перед рискованными правками
// - Откатываться к предыдущему графу (restore)
type WorkflowVersion struct {
	ID         uuid.UUID `json:"id"`
	WorkflowID uuid.UUID `json:"workflow_id"`

	// Label — имя версии. Пустое заменяется на "Auto-save HH:MM:SS".
	Label string `json:"label"`

	Graph     Graph     `json:"graph"`
	CreatedAt time.Time `json:"created_at"`
}

// DefaultVersionLabel возвращает метку версии по умолчанию.
func DefaultVersionLabel(t time.Time) string {
	return "Auto-save " + t.Format("15:04:05")
}
