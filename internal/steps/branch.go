package steps

import (
	"context"
	"fmt"

	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/engine"
)

// Ключи конфигурации condition.
const (
	configVariable = "variable"
	configOperator = "operator"
	configValue    = "value"
)

// BranchStep — условный узел.
//
// Конфигурация:
//
//	{"variable": "amount", "operator": "less_than", "value": "500"}
//
// Output:
//
//	{"result": true, "input": <исходный вход>}
//
// По result orchestrator выбирает рёбра с handle "true" или "false",
// а дальше передаёт input, а не саму обёртку.
type BranchStep struct{}

// NewBranchStep создаёт новый BranchStep.
func NewBranchStep() *BranchStep {
	return &BranchStep{}
}

// Kind возвращает тип узла.
func (s *BranchStep) Kind() domain.NodeKind {
	return domain.KindCondition
}

// Execute вычисляет условие.
func (s *BranchStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStepCancelled, err)
	}

	result := engine.Evaluate(
		req.Input,
		GetConfigText(req.Config, configVariable),
		engine.Operator(GetConfigText(req.Config, configOperator)),
		GetConfigText(req.Config, configValue),
	)

	return NewResponse(map[string]any{
		"result": result,
		"input":  req.Input,
	}), nil
}

// BranchResult извлекает result и input из output условного узла.
// ok = false, если output имеет другую форму.
func BranchResult(output any) (result bool, input any, ok bool) {
	m, isMap := output.(map[string]any)
	if !isMap {
		return false, nil, false
	}
	result, ok = m["result"].(bool)
	return result, m["input"], ok
}
