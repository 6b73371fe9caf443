package orchestrator

import "errors"

// Ошибки оркестратора.
var (
	// ErrRunInProgress — run уже выполняется, новый запуск отклонён.
	ErrRunInProgress = errors.New("run already in progress")

	// ErrUnknownJoinPolicy — неизвестное имя политики слияния.
	ErrUnknownJoinPolicy = errors.New("unknown join policy")
)
