package api

import (
	"context"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/shaiso/flowgen/internal/domain"
	"github.com/shaiso/flowgen/internal/llm"
	"github.com/shaiso/flowgen/internal/orchestrator"
	"github.com/shaiso/flowgen/internal/repo"
)

// Runner выполняет граф. Реализуется orchestrator.Orchestrator.
type Runner interface {
	Run(ctx context.Context, graph *domain.Graph, opts ...orchestrator.RunOption) (*domain.Run, error)
}

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	store     *repo.Store
	runner    Runner
	architect llm.Architect
	logger    *slog.Logger
	requests  *prometheus.CounterVec
}

// Config — конфигурация для создания Handler.
type Config struct {
	Store  *repo.Store
	Runner Runner

	// Architect генерирует графы по описанию (опционально).
	// Без него POST /api/v1/generate отвечает 503.
	Architect llm.Architect

	Logger *slog.Logger

	// Requests считает ответы API с метками method и status (опционально).
	Requests *prometheus.CounterVec
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	store := cfg.Store
	if store == nil {
		store = repo.NewMemoryStore()
	}
	return &Handler{
		store:     store,
		runner:    cfg.Runner,
		architect: cfg.Architect,
		logger:    logger,
		requests:  cfg.Requests,
	}
}
