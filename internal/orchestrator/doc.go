// Package orchestrator выполняет граф workflow.
//
// Orchestrator отвечает за:
//   - Поиск точек входа (узлы без входящих рёбер)
//   - Параллельный запуск узлов и передачу output по рёбрам
//   - Выбор ветки условного узла по handle "true"/"false"
//   - Проекцию статусов узлов и сбор телеметрии
//   - Отклонение повторного запуска, пока run выполняется
//
// Ошибка узла останавливает только его путь: соседние ветки продолжают
// выполняться, а run завершается в статусе COMPLETED. Отмена ctx
// останавливает обход и завершает run в статусе CANCELLED.
//
// Состояние узлов изменяет только проектор: горутины обхода отправляют
// ему domain.NodeEvent через канал.
package orchestrator
