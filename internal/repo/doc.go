// Package repo хранит workflows, их версии и завершённые runs.
//
// Две реализации с одинаковым поведением:
//   - PostgreSQL через pgx (WorkflowRepo, VersionRepo, RunRepo)
//   - Memory — в памяти процесса, когда DB_URL не задан
//
// Графы и проекции узлов хранятся в JSONB в том же формате,
// что и в API. Отсутствие записи — ErrNotFound.
package repo
