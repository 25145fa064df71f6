package report

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/spec-kit/evaluation-service/internal/domain"
)

// ContentModel is the slice of *genai.Models the generator calls.
type ContentModel interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator writes reports with a Gemini model.
type GeminiGenerator struct {
	models  ContentModel
	model   string
	timeout time.Duration
}

// NewGeminiGenerator creates a Gemini API client.
func NewGeminiGenerator(ctx context.Context, apiKey, model string, timeout time.Duration) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return NewGeminiGeneratorWithModels(client.Models, model, timeout), nil
}

// NewGeminiGeneratorWithModels wires an existing model client.
func NewGeminiGeneratorWithModels(models ContentModel, model string, timeout time.Duration) *GeminiGenerator {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	return &GeminiGenerator{models: models, model: model, timeout: timeout}
}

// Generate sends the evaluation prompt and returns the model's text.
func (g *GeminiGenerator) Generate(ctx context.Context, e *domain.Evaluation) (string, error) {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(BuildPrompt(e)), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("gemini returned an empty report")
	}
	return text, nil
}
