package steps

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/engine"
)

// Ключи конфигурации ai_agent.
const (
	configPrompt = "prompt"
	configModel  = "model"
)

// AIStep — вызов генератора текста.
//
// Конфигурация:
//
//	{
//	    "prompt": "Summarize {{ .Input.topic }}",
//	    "model": "gemini-2.5-flash"   // опционально
//	}
//
// Prompt рендерится как Go template с входом узла. Если prompt не
// является корректным шаблоном (например, "Return JSON like {{name}}"),
// он уходит генератору как есть. Сам вход передаётся генератору
// сериализованным в JSON.
//
// Output:
//
//	{"result": "<текст ответа>"}
type AIStep struct {
	generator TextGenerator
}

// NewAIStep создаёт новый AIStep. generator может быть nil:
// тогда каждый вызов завершается ErrNoGenerator.
func NewAIStep(generator TextGenerator) *AIStep {
	return &AIStep{generator: generator}
}

// Kind возвращает тип узла.
func (s *AIStep) Kind() domain.NodeKind {
	return domain.KindAIAgent
}

// Execute вызывает генератор.
func (s *AIStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	if s.generator == nil {
		return nil, ErrNoGenerator
	}

	raw := GetConfigText(req.Config, configPrompt)
	prompt, err := engine.Render(raw, req.TemplateContext())
	if err != nil {
		prompt = raw
	}

	input, err := json.Marshal(req.Input)
	if err != nil {
		return nil, fmt.Errorf("%w: input is not serializable: %v", ErrInvalidConfig, err)
	}

	text, err := s.generator.Generate(ctx, prompt, string(input), GetConfigString(req.Config, configModel))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %v", ErrStepCancelled, ctx.Err())
		}
		return nil, err
	}

	return NewResponse(map[string]any{"result": text}), nil
}
