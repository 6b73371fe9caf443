// Package telemetry обеспечивает наблюдаемость движка.
//
// Включает:
//   - logging.go   — structured logging через slog
//   - collector.go — замеры длительности узлов в рамках одного run
//   - metrics.go   — Prometheus метрики
//
// Все сервисы используют единый формат логирования
// и экспортируют метрики на /metrics endpoint.
package telemetry
