package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"github.com/civiclens/hansard/internal/config"
	"github.com/civiclens/hansard/internal/models"
)

// OpenAIGenerator implements Generator against an OpenAI-compatible chat API.
type OpenAIGenerator struct {
	client  llms.Model
	timeout time.Duration
}

// NewOpenAIGenerator creates a generator from AI config.
func NewOpenAIGenerator(cfg *config.AIConfig) (*OpenAIGenerator, error) {
	client, err := openai.New(
		openai.WithBaseURL(cfg.Host),
		openai.WithToken(cfg.Token),
		openai.WithModel(cfg.GenerationModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}
	return &OpenAIGenerator{
		client:  client,
		timeout: time.Duration(cfg.GenerateTimeoutSec) * time.Second,
	}, nil
}

// Generate runs one JSON-mode completion with the configured per-call timeout.
func (g *OpenAIGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	content := []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, req.System),
		llms.TextParts(schema.ChatMessageTypeHuman, req.Prompt),
	}
	resp, err := g.client.GenerateContent(ctx, content,
		llms.WithTemperature(req.Temperature),
		llms.WithJSONMode(),
	)
	if err != nil {
		return "", classify(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: empty completion", models.ErrModelUnavailable)
	}
	return resp.Choices[0].Content, nil
}

// OpenAIEmbedder implements Embedder against an OpenAI-compatible embedding API.
type OpenAIEmbedder struct {
	embedder   embeddings.Embedder
	dimensions int
	timeout    time.Duration
}

// NewOpenAIEmbedder creates an embedder from AI config.
func NewOpenAIEmbedder(cfg *config.AIConfig) (*OpenAIEmbedder, error) {
	client, err := openai.New(
		openai.WithBaseURL(cfg.Host),
		openai.WithToken(cfg.Token),
		openai.WithEmbeddingModel(cfg.EmbeddingModel),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedding client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(client, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("failed to wrap embedder: %w", err)
	}
	return &OpenAIEmbedder{
		embedder:   embedder,
		dimensions: cfg.EmbeddingDimensions,
		timeout:    time.Duration(cfg.EmbedTimeoutSec) * time.Second,
	}, nil
}

// Embed generates one embedding with the configured per-call timeout.
func (e *OpenAIEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	vecs, err := e.embedder.EmbedDocuments(ctx, []string{text})
	if err != nil {
		return nil, classify(ctx, err)
	}
	if len(vecs) == 0 {
		return nil, fmt.Errorf("%w: empty embedding result", models.ErrModelUnavailable)
	}
	if len(vecs[0]) != e.dimensions {
		return nil, fmt.Errorf("%w: embedding dimension %d, expected %d",
			models.ErrModelUnavailable, len(vecs[0]), e.dimensions)
	}
	return vecs[0], nil
}

// Dimensions returns the configured embedding dimensionality.
func (e *OpenAIEmbedder) Dimensions() int {
	return e.dimensions
}

// classify maps a transport error onto the uniform model failure signals.
func classify(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", models.ErrModelTimeout, err)
	}
	return fmt.Errorf("%w: %v", models.ErrModelUnavailable, err)
}
