package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"google.golang.org/genai"
)

const (
	// GoogleAPIKeyEnv — переменная окружения с ключом Gemini API.
	GoogleAPIKeyEnv = "GOOGLE_API_KEY"

	// APIKeyEnv — запасная переменная окружения с ключом.
	APIKeyEnv = "API_KEY"
)

// contentGenerator — часть genai.Models, которая нужна клиенту.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini — Generator и Architect поверх Gemini API.
type Gemini struct {
	models         contentGenerator
	model          string
	architectModel string
	apiKey         string
	clientConfig   *genai.ClientConfig
	logger         *slog.Logger
}

// Option настраивает Gemini.
type Option func(*Gemini)

// WithModel задаёт модель по умолчанию для узлов без поля model.
func WithModel(model string) Option {
	return func(g *Gemini) {
		g.model = model
	}
}

// WithArchitectModel задаёт модель для генерации графов.
func WithArchitectModel(model string) Option {
	return func(g *Gemini) {
		g.architectModel = model
	}
}

// WithAPIKey задаёт ключ API.
// Приоритет: WithClientConfig > WithAPIKey > GOOGLE_API_KEY > API_KEY.
func WithAPIKey(apiKey string) Option {
	return func(g *Gemini) {
		g.apiKey = apiKey
	}
}

// WithClientConfig задаёт конфигурацию клиента genai.
func WithClientConfig(cfg *genai.ClientConfig) Option {
	return func(g *Gemini) {
		c := *cfg
		g.clientConfig = &c
	}
}

// WithLogger задаёт логгер.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Gemini) {
		g.logger = logger
	}
}

// NewGemini создаёт клиент Gemini.
// Возвращает ErrNoAPIKey, если ключ не найден.
func NewGemini(ctx context.Context, opts ...Option) (*Gemini, error) {
	g := &Gemini{
		model:          DefaultModel,
		architectModel: DefaultModel,
		apiKey:         os.Getenv(GoogleAPIKeyEnv),
		clientConfig:   &genai.ClientConfig{},
		logger:         slog.Default(),
	}
	if g.apiKey == "" {
		g.apiKey = os.Getenv(APIKeyEnv)
	}
	for _, opt := range opts {
		opt(g)
	}

	if g.clientConfig.APIKey == "" {
		g.clientConfig.APIKey = g.apiKey
	}
	if g.clientConfig.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	if g.clientConfig.Backend == genai.BackendUnspecified {
		g.clientConfig.Backend = genai.BackendGeminiAPI
	}

	client, err := genai.NewClient(ctx, g.clientConfig)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	g.models = client.Models
	return g, nil
}

// Generate реализует Generator.
func (g *Gemini) Generate(ctx context.Context, prompt, input, model string) (string, error) {
	if model == "" {
		model = g.model
	}

	resp, err := g.models.GenerateContent(ctx, model, genai.Text(FramePrompt(prompt, input)), nil)
	if err != nil {
		g.logger.Error("gemini request failed", "model", model, "error", err)
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	text := resp.Text()
	if text == "" {
		return emptyResponse, nil
	}
	return text, nil
}
