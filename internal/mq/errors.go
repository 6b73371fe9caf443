package mq

import "errors"

// Ошибки работы с RabbitMQ.
var (
	// ErrNoChannel — канал ещё не открыт или потерян до переподключения.
	ErrNoChannel = errors.New("no channel available")

	// ErrConnectionClosed — соединение закрыто через Close.
	ErrConnectionClosed = errors.New("connection closed")
)
