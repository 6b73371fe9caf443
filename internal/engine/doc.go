// Package engine содержит чистую логику над графом workflow.
//
// Включает:
//   - condition.go — вычисление условий узла condition (путь, оператор, литерал)
//   - graph.go     — план обхода: входящие степени, точки входа, исходящие рёбра
//   - validate.go  — структурная валидация и предупреждения (Lint)
//   - template.go  — рендеринг Go templates ({{ .Input.x }})
//
// Пакет не выполняет узлы и не хранит состояние run: этим занимаются
// steps и orchestrator.
package engine
