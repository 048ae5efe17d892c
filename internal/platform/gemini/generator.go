package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"google.golang.org/genai"

	"github.com/draftforge/draftforge-api/internal/config"
	"github.com/draftforge/draftforge-api/internal/domain"
	"github.com/draftforge/draftforge-api/internal/generation"
)

// Generator implements generation.Generator using Google's Gemini API.
//
// It performs exactly one API call per Generate invocation: retrying a
// failed generation is the task queue's responsibility, and stacking a
// second retry loop here would multiply the attempt budget.
type Generator struct {
	logger *slog.Logger
	client *genai.Client
	model  string
}

// NewGenerator creates a Gemini-backed generator from LLM configuration.
func NewGenerator(ctx context.Context, log *slog.Logger, cfg config.LLMConfig) (*Generator, error) {
	if log == nil {
		return nil, errors.New("logger cannot be nil")
	}
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("%w: gemini API key cannot be empty", generation.ErrInvalidConfig)
	}
	if cfg.ModelName == "" {
		return nil, fmt.Errorf("%w: model name cannot be empty", generation.ErrInvalidConfig)
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create Gemini client: %v",
			generation.ErrInvalidConfig, err)
	}

	return &Generator{
		logger: log.With(slog.String("component", "gemini_generator")),
		client: client,
		model:  cfg.ModelName,
	}, nil
}

// Ensure Generator implements generation.Generator.
var _ generation.Generator = (*Generator)(nil)

// Generate implements generation.Generator.Generate.
func (g *Generator) Generate(ctx context.Context, prompt string, contentType domain.ContentType) (string, error) {
	if prompt == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", generation.ErrGenerationFailed)
	}

	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(generation.Instruction(contentType), genai.RoleUser),
	}

	g.logger.DebugContext(ctx, "calling Gemini API",
		slog.String("model", g.model),
		slog.String("content_type", contentType.String()),
		slog.Int("prompt_length", len(prompt)))

	resp, err := g.client.Models.GenerateContent(ctx, g.model,
		genai.Text(generation.UserPrompt(prompt, contentType)), cfg)
	if err != nil {
		g.logger.ErrorContext(ctx, "Gemini API call failed",
			slog.String("error", err.Error()),
			slog.String("model", g.model))
		return "", fmt.Errorf("%w: %v", generation.ErrGenerationFailed, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", fmt.Errorf("%w: model returned no text", generation.ErrEmptyResponse)
	}

	g.logger.DebugContext(ctx, "Gemini API call succeeded",
		slog.Int("content_length", len(text)))
	return text, nil
}
