// Package steps содержит обработчики типов узлов workflow.
//
// # Обзор
//
// Каждый тип узла (domain.NodeKind) обслуживается одним Step. Step:
//   - Получает конфигурацию узла и вход (выход предыдущего узла)
//   - Выполняет действие (разбор mock-данных, вызов LLM, скрипт, условие, задержка)
//   - Возвращает output, который станет входом следующих узлов
//
// # Интерфейс Step
//
//	type Step interface {
//	    Kind() domain.NodeKind
//	    Execute(ctx context.Context, req *Request) (*Response, error)
//	}
//
// # Registry
//
// Registry хранит Step по типу узла. DefaultRegistry регистрирует обработчики
// для всех типов, а Registry.Validate проверяет, что ни один тип не пропущен:
//
//	registry := steps.DefaultRegistry(steps.WithGenerator(gemini))
//	if err := registry.Validate(); err != nil {
//	    // какой-то тип остался без обработчика
//	}
//
// # Типы узлов
//
//   - webhook (trigger.go) — разбирает mockData; невалидный JSON даёт {"error": "Invalid JSON"}
//   - ai_agent (ai.go) — {"result": текст} от TextGenerator
//   - javascript (script.go) — тело функции от input в изолированном goja.Runtime
//   - condition (branch.go) — {"result": bool, "input": вход}
//   - delay (delay.go) — пауза duration мс (по умолчанию 1000), {"delayed_ms": d, ...input}
//   - http_request (http.go) — passthrough, либо реальный запрос в live-режиме
//   - debug (passthrough.go) — передаёт вход без изменений
//
// Узлы неизвестного типа Executor выполняет как passthrough.
//
// # Executor
//
// Executor выполняет один узел целиком: симулированная задержка перед
// вызовом (DefaultLatency), дедлайн узла и выбор Step по типу.
//
// # Обработка ошибок
//
// Шаги возвращают типизированные ошибки:
//
//	var (
//	    ErrStepCancelled   // context cancelled
//	    ErrStepTimeout     // дедлайн узла
//	    ErrInvalidConfig   // неверная конфигурация
//	    ErrNoGenerator     // ai_agent без генератора
//	    ErrScript          // исключение в скрипте (*ScriptError)
//	)
//
// Текст ошибки становится сообщением узла. Повторов нет: ошибка узла
// останавливает только его ветку, это решает orchestrator.
package steps
