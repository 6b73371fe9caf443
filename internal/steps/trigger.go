package steps

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shaiso/flowgen/internal/domain"
)

// configMockData — ключ с mock-данными триггера.
const configMockData = "mockData"

// invalidJSONOutput — output триггера с невалидным mockData.
// Узел при этом считается успешным.
var invalidJSONOutput = map[string]any{"error": "Invalid JSON"}

// TriggerStep — точка входа webhook.
//
// Выдаёт заранее заданный JSON вместо реального входящего запроса.
//
// Конфигурация:
//
//	{"mockData": "{\"topic\": \"AI\"}"}
//
// Output: распарсенный mockData. Пустой mockData даёт {},
// невалидный JSON даёт {"error": "Invalid JSON"}.
type TriggerStep struct{}

// NewTriggerStep создаёт новый TriggerStep.
func NewTriggerStep() *TriggerStep {
	return &TriggerStep{}
}

// Kind возвращает тип узла.
func (s *TriggerStep) Kind() domain.NodeKind {
	return domain.KindWebhook
}

// Execute разбирает mockData.
func (s *TriggerStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStepCancelled, err)
	}

	raw, ok := req.Config[configMockData]
	if !ok || raw == nil {
		return NewResponse(map[string]any{}), nil
	}

	var data []byte
	switch v := raw.(type) {
	case string:
		if v == "" {
			return NewResponse(map[string]any{}), nil
		}
		data = []byte(v)
	default:
		// Сгенерированные графы иногда кладут объект вместо строки
		b, err := json.Marshal(v)
		if err != nil {
			return NewResponse(cloneInvalid()), nil
		}
		data = b
	}

	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return NewResponse(cloneInvalid()), nil
	}
	return NewResponse(out), nil
}

func cloneInvalid() map[string]any {
	out := make(map[string]any, len(invalidJSONOutput))
	for k, v := range invalidJSONOutput {
		out[k] = v
	}
	return out
}
