package llm

import (
	"context"
	"errors"
	"fmt"
)

// DefaultModel — модель по умолчанию для узлов ai_agent.
const DefaultModel = "gemini-2.5-flash"

// emptyResponse — текст, который возвращается, если модель ничего не ответила.
const emptyResponse = "No response generated."

var (
	// ErrGeneration — сервис генерации вернул ошибку.
	ErrGeneration = errors.New("failed to communicate with Gemini API")

	// ErrWorkflowGeneration — не удалось получить граф от модели.
	ErrWorkflowGeneration = errors.New("failed to generate workflow configuration")

	// ErrNoAPIKey — не задан ключ API.
	ErrNoAPIKey = errors.New("GOOGLE_API_KEY is not provided")
)

// Generator генерирует текст для узла ai_agent.
//
// input — вход узла, сериализованный в JSON; model может быть пустым.
type Generator interface {
	Generate(ctx context.Context, prompt, input, model string) (string, error)
}

// GeneratorFunc адаптирует функцию к Generator.
type GeneratorFunc func(ctx context.Context, prompt, input, model string) (string, error)

// Generate вызывает f.
func (f GeneratorFunc) Generate(ctx context.Context, prompt, input, model string) (string, error) {
	return f(ctx, prompt, input, model)
}

// FramePrompt оборачивает задачу пользователя и вход узла в итоговый запрос к модели.
func FramePrompt(prompt, input string) string {
	return fmt.Sprintf(
		"Input Data Context: %s\n\nTask: %s\n\nPlease provide the response directly without markdown code blocks unless requested.",
		input, prompt,
	)
}

// Offline — генератор без сети для локальных прогонов и тестов.
//
// Возвращает детерминированный текст, по которому видно, что было передано модели.
type Offline struct{}

// Generate реализует Generator.
func (Offline) Generate(ctx context.Context, prompt, input, model string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if model == "" {
		model = DefaultModel
	}
	return fmt.Sprintf("[%s offline] %s | input: %s", model, prompt, input), nil
}
