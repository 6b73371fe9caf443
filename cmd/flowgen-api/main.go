// flowgen-api — HTTP API для хранения и выполнения workflows.
//
// Окружение:
//
//	API_PORT                  порт (8080)
//	DB_URL                    PostgreSQL; без него данные живут в памяти процесса
//	RABBITMQ_URL              публикация событий run (опционально)
//	GOOGLE_API_KEY / API_KEY  Gemini для ai_agent и /generate
//	FLOWGEN_MODEL             модель по умолчанию
//	FLOWGEN_LATENCY_MS        задержка перед каждым узлом (600)
//	FLOWGEN_NODE_TIMEOUT_SEC  дедлайн узла (0 — без дедлайна)
//	FLOWGEN_LIVE_HTTP         реальные запросы в http_request (false)
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shaiso/flowgen/internal/api"
	"github.com/shaiso/flowgen/internal/llm"
	"github.com/shaiso/flowgen/internal/mq"
	"github.com/shaiso/flowgen/internal/orchestrator"
	"github.com/shaiso/flowgen/internal/repo"
	"github.com/shaiso/flowgen/internal/steps"
	"github.com/shaiso/flowgen/internal/telemetry"
)

var (
	startTime = time.Now()
	reqTotal  = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flowgen_api_http_requests_total",
		Help: "API requests handled by flowgen-api by method and status code",
	}, []string{"method", "status"})
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting flowgen-api")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Хранилище
	store := repo.NewMemoryStore()
	if os.Getenv("DB_URL") != "" {
		pool, err := repo.NewPool(ctx)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		if err := repo.Migrate(ctx, pool); err != nil {
			logger.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		store = repo.NewPostgresStore(pool)
		logger.Info("connected to database")
	} else {
		logger.Warn("DB_URL is not set, using in-memory store")
	}

	// Gemini
	var stepOpts []steps.Option
	var architect llm.Architect
	geminiOpts := []llm.Option{llm.WithLogger(logger)}
	if model := os.Getenv("FLOWGEN_MODEL"); model != "" {
		geminiOpts = append(geminiOpts, llm.WithModel(model))
	}
	gemini, err := llm.NewGemini(ctx, geminiOpts...)
	switch {
	case err == nil:
		stepOpts = append(stepOpts, steps.WithGenerator(gemini))
		architect = gemini
		logger.Info("gemini client ready")
	case errors.Is(err, llm.ErrNoAPIKey):
		logger.Warn("no Gemini API key, ai_agent nodes will fail and /generate is disabled")
	default:
		logger.Error("failed to create gemini client", "error", err)
		os.Exit(1)
	}
	stepOpts = append(stepOpts, steps.WithLiveHTTP(envBool("FLOWGEN_LIVE_HTTP")))

	orchCfg := orchestrator.Config{
		Registry:    steps.DefaultRegistry(stepOpts...),
		Latency:     time.Duration(envInt("FLOWGEN_LATENCY_MS", 600)) * time.Millisecond,
		NodeTimeout: time.Duration(envInt("FLOWGEN_NODE_TIMEOUT_SEC", 0)) * time.Second,
		Metrics:     telemetry.NewMetrics(nil),
		Logger:      logger,
	}

	// RabbitMQ (опционально)
	if mqURL := os.Getenv("RABBITMQ_URL"); mqURL != "" {
		mqConn, err := mq.NewConnection(mqURL, logger)
		if err != nil {
			logger.Warn("RabbitMQ not available, run events will not be published", "error", err)
		} else {
			defer mqConn.Close()
			if err := mq.SetupTopology(ctx, mqConn); err != nil {
				logger.Warn("failed to setup topology", "error", err)
			}
			orchCfg.Publisher = mq.NewPublisher(mqConn, logger)
			logger.Info("RabbitMQ connected", "topology", mq.TopologyInfo())
		}
	}

	orch, err := orchestrator.New(orchCfg)
	if err != nil {
		logger.Error("failed to create orchestrator", "error", err)
		os.Exit(1)
	}

	// Создаём API handler
	handler := api.NewHandler(api.Config{
		Store:     store,
		Runner:    orch,
		Architect: architect,
		Logger:    logger,
		Requests:  reqTotal,
	})

	mux := http.NewServeMux()

	// Health и metrics
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "ok %s", time.Since(startTime))
	})
	mux.Handle("/metrics", promhttp.Handler())

	// Регистрируем API маршруты
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	// Создаём HTTP сервер с возможностью graceful shutdown
	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	// Запускаем сервер в горутине
	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Graceful shutdown с таймаутом 10 секунд
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

// envInt читает целое из окружения; пустое или некорректное значение даёт def.
func envInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}

func envBool(key string) bool {
	b, _ := strconv.ParseBool(os.Getenv(key))
	return b
}
