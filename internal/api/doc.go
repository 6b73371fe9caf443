// Package api содержит HTTP API сервер.
//
// Структура:
//   - handler.go          — Handler с DI (store, runner, architect, logger)
//   - routes.go           — регистрация маршрутов
//   - middleware.go       — middleware (logging, recovery, CORS)
//   - response.go         — унифицированные JSON-ответы и обработка ошибок
//   - dto.go              — Data Transfer Objects (request/response)
//   - workflow_handler.go — обработчики для /workflows
//   - version_handler.go  — обработчики для /versions
//   - run_handler.go      — обработчики для /runs
//   - generate_handler.go — генерация графа по описанию
//   - template_handler.go — галерея шаблонов
//
// Runs выполняются синхронно: ответ на POST содержит итоговую проекцию
// узлов и телеметрию.
package api
