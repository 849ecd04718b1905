// Package ai wraps generative-model calls behind typed flows.
//
// A flow validates its input, renders a prompt, asks the Generator for JSON
// matching a response schema, strictly decodes and validates the answer, and
// optionally post-processes it. There is no retry and no streaming.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"
	"google.golang.org/genai"

	"github.com/hpungsan/flowfocus/internal/config"
	"github.com/hpungsan/flowfocus/internal/errors"
	"github.com/hpungsan/flowfocus/internal/logging"
)

// Generator produces a JSON document for prompt, shaped by schema.
type Generator interface {
	Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error)
}

// GeminiGenerator calls the Gemini API.
type GeminiGenerator struct {
	client      *genai.Client
	model       string
	temperature float32
	limiter     *rate.Limiter
	logger      *log.Logger
}

// GeminiOption adjusts the client configuration.
type GeminiOption func(*genai.ClientConfig)

// WithBaseURL points the client at another endpoint (tests, proxies).
func WithBaseURL(baseURL string) GeminiOption {
	return func(cc *genai.ClientConfig) { cc.HTTPOptions.BaseURL = baseURL }
}

// WithHTTPClient replaces the client's HTTP client.
func WithHTTPClient(c *http.Client) GeminiOption {
	return func(cc *genai.ClientConfig) { cc.HTTPClient = c }
}

// NewGeminiGenerator builds a generator from cfg. It fails without an API key.
func NewGeminiGenerator(ctx context.Context, cfg *config.Config, logger *log.Logger, opts ...GeminiOption) (*GeminiGenerator, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if strings.TrimSpace(cfg.GeminiAPIKey) == "" {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("AI generation needs an API key: set %s or gemini_api_key", config.EnvAPIKey))
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cc)
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create Gemini client: %w", err))
	}

	perMinute := cfg.AIRequestsPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	return &GeminiGenerator{
		client:      client,
		model:       cfg.GeminiModel,
		temperature: 0.4,
		limiter:     rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1),
		logger:      logging.With(logger, "ai"),
	}, nil
}

// Generate asks the model for a JSON response matching schema.
func (g *GeminiGenerator) Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}

	temperature := g.temperature
	start := time.Now()
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:      &temperature,
		ResponseMIMEType: "application/json",
		ResponseSchema:   schema,
	})
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}

	text := resp.Text()
	g.logger.Debug("generated", "model", g.model, "chars", len(text), "elapsed", time.Since(start))
	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("model returned no content")
	}
	return text, nil
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, prompt string, schema *genai.Schema) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, prompt string, schema *genai.Schema) (string, error) {
	return f(ctx, prompt, schema)
}
