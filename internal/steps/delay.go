package steps

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/engine"
)

const (
	// configDuration — ключ длительности в миллисекундах.
	configDuration = "duration"

	// DefaultDelay — задержка, если duration не задан или не число.
	DefaultDelay = 1000 * time.Millisecond
)

// DelayStep — шаг задержки.
//
// Приостанавливает выполнение на указанное время.
// Поддерживает отмену через context cancellation.
//
// Конфигурация:
//
//	{"duration": "250"}   // миллисекунды, строкой или числом
//
// Output: вход, дополненный полем delayed_ms. Поля входа имеют приоритет:
//
//	{"delayed_ms": 250, ...input}
type DelayStep struct{}

// NewDelayStep создаёт новый DelayStep.
func NewDelayStep() *DelayStep {
	return &DelayStep{}
}

// Kind возвращает тип узла.
func (s *DelayStep) Kind() domain.NodeKind {
	return domain.KindDelay
}

// Execute выполняет задержку.
func (s *DelayStep) Execute(ctx context.Context, req *Request) (*Response, error) {
	ms := s.parseDuration(req.Config)

	wait := time.Duration(0)
	if ms > 0 {
		wait = time.Duration(ms * float64(time.Millisecond))
	}

	// Создаём таймер
	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrStepCancelled, ctx.Err())
	case <-timer.C:
	}

	out := map[string]any{"delayed_ms": ms}
	if in, ok := req.Input.(map[string]any); ok {
		for k, v := range in {
			out[k] = v
		}
	}
	return NewResponse(out), nil
}

// parseDuration извлекает длительность в миллисекундах.
// Отсутствующее, нулевое и нечисловое значение дают DefaultDelay.
func (s *DelayStep) parseDuration(config map[string]any) float64 {
	raw, ok := config[configDuration]
	if !ok {
		return float64(DefaultDelay.Milliseconds())
	}
	ms := engine.ToNumber(raw)
	if math.IsNaN(ms) || ms == 0 || math.IsInf(ms, 0) {
		return float64(DefaultDelay.Milliseconds())
	}
	return ms
}
