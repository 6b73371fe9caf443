// Package mq предоставляет инфраструктуру для работы с RabbitMQ.
//
// Структура:
//   - connection.go — управление соединением с RabbitMQ (reconnect, graceful shutdown)
//   - topology.go   — объявление exchange и очередей
//   - publisher.go  — публикация событий run
//   - consumer.go   — чтение событий из временной или общей очереди (flowgen events)
//
// Типы сообщений:
//   - run.started    — run начал выполнение
//   - node.status    — переход статуса узла (running/success/error)
//   - run.completed  — run завершён (COMPLETED/CANCELLED) с телеметрией
//
// Exchanges:
//   - flowgen.runs   — topic exchange всех событий run
package mq
