package engine

import "errors"

// Ошибки валидации графа.
var (
	// ErrEmptyNodeID — узел не имеет ID.
	ErrEmptyNodeID = errors.New("node has empty ID")

	// ErrDuplicateNodeID — несколько узлов с одинаковым ID.
	ErrDuplicateNodeID = errors.New("duplicate node ID")

	// ErrUnknownNodeKind — неизвестный тип узла.
	ErrUnknownNodeKind = errors.New("unknown node type")

	// ErrDanglingEdge — ребро ссылается на несуществующий узел.
	ErrDanglingEdge = errors.New("edge references unknown node")

	// ErrCyclicGraph — в графе есть цикл.
	ErrCyclicGraph = errors.New("cyclic graph detected")

	// ErrUnreachableNode — узел недостижим ни из одной точки входа.
	ErrUnreachableNode = errors.New("unreachable node")

	// ErrInvalidHandle — неизвестная метка исходящего handle условного узла.
	ErrInvalidHandle = errors.New("invalid source handle")

	// ErrInvalidOperator — неизвестный оператор условного узла.
	ErrInvalidOperator = errors.New("invalid condition operator")
)

// Ошибки рендеринга шаблонов.
var (
	// ErrTemplateRender — ошибка рендеринга шаблона.
	ErrTemplateRender = errors.New("template render failed")

	// ErrTemplateParse — ошибка парсинга шаблона.
	ErrTemplateParse = errors.New("template parse failed")
)

// ValidationError — ошибка валидации с контекстом.
type ValidationError struct {
	NodeID  string // ID узла или ребра, где произошла ошибка
	Field   string // поле, вызвавшее ошибку
	Message string // описание ошибки
	Err     error  // базовая ошибка
}

// Error реализует интерфейс error.
func (e *ValidationError) Error() string {
	if e.NodeID != "" {
		return "node " + e.NodeID + ": " + e.Message
	}
	return e.Message
}

// Unwrap возвращает базовую ошибку.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError создаёт новую ошибку валидации.
func NewValidationError(nodeID, field, message string, err error) *ValidationError {
	return &ValidationError{
		NodeID:  nodeID,
		Field:   field,
		Message: message,
		Err:     err,
	}
}
