package domain

// RunStatus — статус выполнения run.
//
// Жизненный цикл:
//
//	RUNNING → COMPLETED
//	        ↘ CANCELLED (отмена контекста вызывающей стороной)
//
// Ошибки отдельных узлов не переводят run в отдельный статус:
// ветка с ошибкой просто останавливается, остальные продолжают работу.
type RunStatus string

const (
	// RunStatusRunning — run в процессе выполнения.
	RunStatusRunning RunStatus = "RUNNING"

	// RunStatusCompleted — обход графа завершён.
	RunStatusCompleted RunStatus = "COMPLETED"

	// RunStatusCancelled — run отменён до завершения обхода.
	RunStatusCancelled RunStatus = "CANCELLED"
)

// IsTerminal возвращает true, если статус финальный (run завершён).
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusCancelled:
		return true
	default:
		return false
	}
}

// NodeStatus — статус узла в рамках одного run.
//
// Жизненный цикл:
//
//	idle → running → success
//	               ↘ error
//
// Узел, до которого обход не дошёл, остаётся idle.
type NodeStatus string

const (
	NodeStatusIdle    NodeStatus = "idle"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusSuccess NodeStatus = "success"
	NodeStatusError   NodeStatus = "error"
)

// IsTerminal возвращает true для success и error.
func (s NodeStatus) IsTerminal() bool {
	switch s {
	case NodeStatusSuccess, NodeStatusError:
		return true
	default:
		return false
	}
}

// String возвращает строковое представление NodeStatus.
func (s NodeStatus) String() string {
	return string(s)
}
