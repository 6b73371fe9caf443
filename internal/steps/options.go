package steps

import (
	"context"
	"net/http"
)

// TextGenerator — внешний генератор текста для узла ai_agent.
//
// input — сериализованный в JSON вход узла, model может быть пустым.
type TextGenerator interface {
	Generate(ctx context.Context, prompt, input, model string) (string, error)
}

// Option настраивает DefaultRegistry.
type Option func(*options)

type options struct {
	generator       TextGenerator
	liveHTTP        bool
	httpClient      *http.Client
	scriptStackSize int
}

func newOptions(opts []Option) *options {
	o := &options{scriptStackSize: defaultScriptStackSize}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithGenerator задаёт генератор текста для ai_agent.
func WithGenerator(g TextGenerator) Option {
	return func(o *options) {
		o.generator = g
	}
}

// WithLiveHTTP включает реальные запросы в узлах http_request.
// По умолчанию узел передаёт вход без изменений.
func WithLiveHTTP(enabled bool) Option {
	return func(o *options) {
		o.liveHTTP = enabled
	}
}

// WithHTTPClient задаёт HTTP клиент для узлов http_request.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithScriptStackSize ограничивает глубину стека вызовов в скриптах.
func WithScriptStackSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.scriptStackSize = n
		}
	}
}
