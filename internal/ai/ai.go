// Package ai provides the model-calling primitives: structured text generation
// and embedding generation against an OpenAI-compatible service.
package ai

import "context"

// GenerateRequest is one structured-output generation call. The model is
// expected to answer with JSON only; callers decode with DecodeJSON.
type GenerateRequest struct {
	System      string
	Prompt      string
	Temperature float64
}

// Generator produces model completions. Implementations apply a per-call
// timeout and report failures using the uniform error signals
// models.ErrModelTimeout and models.ErrModelUnavailable.
type Generator interface {
	Generate(ctx context.Context, req GenerateRequest) (string, error)
}

// Embedder produces vector embeddings for text.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
}
