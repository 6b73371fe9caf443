// Package cli реализует инструмент командной строки flowgen.
//
// # Обзор
//
// Часть команд работает локально и не требует сервера:
//   - exec — выполнение графа из файла в текущем процессе
//   - validate — структурная проверка и предупреждения
//   - template — встроенная галерея шаблонов
//   - events — просмотр событий run из RabbitMQ
//
// Остальные ходят в flowgen API по HTTP:
//   - workflow: list, create, show, update, delete, save, history, restore
//   - run: list, start, show
//   - generate: граф по текстовому описанию
//
// # Ключевые компоненты
//
// ## Client
//
// HTTP-клиент для flowgen API. Инкапсулирует запросы, разбор ответов
// (DataResponse, ListResponse, ErrorResponse) и обработку ошибок.
//
//	client := cli.NewClient("http://localhost:8080")
//	workflows, err := client.ListWorkflows()
//
// ## Output
//
// Форматирование вывода. Поддерживает два режима:
//   - Таблицы (text/tabwriter) — по умолчанию
//   - JSON — с флагом --json
//
// Данные выводятся в stdout, сообщения, предупреждения и события --watch в stderr.
// Это позволяет использовать pipe: flowgen exec graph.json --json | jq .stats
//
// ## Commands
//
// Каждая группа создаётся через фабричную функцию (NewWorkflowCmd и т.д.),
// принимающую clientFn и outputFn — замыкания для ленивого создания
// Client и Output после парсинга PersistentFlags.
package cli
