package steps

import (
	"context"
	"errors"
	"math"

	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/engine"
)

// Ошибки шагов.
var (
	// ErrStepNotFound — для типа узла нет обработчика в реестре.
	ErrStepNotFound = errors.New("step type not found")

	// ErrInvalidConfig — невалидная конфигурация узла.
	ErrInvalidConfig = errors.New("invalid step config")

	// ErrStepTimeout — узел превысил таймаут.
	ErrStepTimeout = errors.New("step execution timeout")

	// ErrStepCancelled — выполнение узла отменено.
	ErrStepCancelled = errors.New("step execution cancelled")

	// ErrNoGenerator — для ai_agent не настроен генератор текста.
	ErrNoGenerator = errors.New("text generation is not configured")

	// ErrScript — пользовательский скрипт завершился исключением.
	ErrScript = errors.New("script failed")
)

// Step — обработчик одного типа узла.
//
// Каждый тип узла (webhook, ai_agent, javascript, condition, delay,
// http_request, debug) реализует этот интерфейс.
type Step interface {
	// Kind возвращает тип узла, который обрабатывает шаг.
	Kind() domain.NodeKind

	// Execute выполняет узел и возвращает его output.
	// Шаг должен проверять ctx.Done() на каждой точке ожидания.
	Execute(ctx context.Context, req *Request) (*Response, error)
}

// Request — входные данные для выполнения узла.
type Request struct {
	// NodeID — идентификатор узла.
	NodeID string

	// Label — отображаемое имя узла.
	Label string

	// Config — конфигурация узла.
	Config map[string]any

	// Input — выход предыдущего узла ({} для точек входа).
	Input any
}

// Response — результат выполнения узла.
type Response struct {
	// Output — выходные данные, станут input для следующих узлов.
	Output any
}

// NewRequest создаёт Request для узла.
func NewRequest(node *domain.Node, input any) *Request {
	config := node.Config
	if config == nil {
		config = make(map[string]any)
	}
	return &Request{
		NodeID: node.ID,
		Label:  node.Label,
		Config: config,
		Input:  input,
	}
}

// TemplateContext возвращает контекст для рендеринга шаблонов конфига.
func (r *Request) TemplateContext() *engine.Context {
	return engine.NewContext(r.Input).WithNode(r.NodeID, r.Label)
}

// NewResponse создаёт Response с output.
func NewResponse(output any) *Response {
	return &Response{Output: output}
}

// ScriptError — исключение, выброшенное пользовательским скриптом.
//
// Error() возвращает ровно сообщение исключения: именно его видит пользователь.
type ScriptError struct {
	Message string
}

// Error реализует интерфейс error.
func (e *ScriptError) Error() string {
	return e.Message
}

// Unwrap возвращает ErrScript.
func (e *ScriptError) Unwrap() error {
	return ErrScript
}

// GetConfigString извлекает строковое значение из конфига.
func GetConfigString(config map[string]any, key string) string {
	if v, ok := config[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// GetConfigInt извлекает числовое значение из конфига.
func GetConfigInt(config map[string]any, key string) int {
	if v, ok := config[key]; ok {
		switch n := v.(type) {
		case int:
			return n
		case int64:
			return int(n)
		case float64:
			return int(n)
		case string:
			if f := engine.ToNumber(n); !math.IsNaN(f) && !math.IsInf(f, 0) {
				return int(f)
			}
		}
	}
	return 0
}

// GetConfigText возвращает значение конфига в строковой форме.
//
// Редактор хранит поля как строки, но сгенерированные графы могут
// содержать числа и булевы значения; они приводятся к строке.
// Отсутствующее значение и null дают пустую строку.
func GetConfigText(config map[string]any, key string) string {
	v, ok := config[key]
	if !ok || v == nil {
		return ""
	}
	return engine.ToString(v)
}

// GetConfigBool извлекает булево значение из конфига.
func GetConfigBool(config map[string]any, key string, defaultVal bool) bool {
	if v, ok := config[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return defaultVal
}

// GetConfigMapString извлекает map[string]string из конфига.
func GetConfigMapString(config map[string]any, key string) map[string]string {
	if v, ok := config[key]; ok {
		switch m := v.(type) {
		case map[string]string:
			return m
		case map[string]any:
			result := make(map[string]string)
			for k, val := range m {
				if s, ok := val.(string); ok {
					result[k] = s
				}
			}
			return result
		}
	}
	return nil
}
