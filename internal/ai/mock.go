package ai

import (
	"context"
	"hash/fnv"
	"math"

	"github.com/civiclens/hansard/pkg/utils"
)

// MockGenerator is a scripted generator for tests. Responses are returned in
// order; once exhausted the last response repeats. When Err is set every call
// fails with it.
type MockGenerator struct {
	Responses []string
	Err       error
	// Prompts records every request for assertions.
	Prompts []GenerateRequest
	calls   int
}

// Generate returns the next scripted response.
func (m *MockGenerator) Generate(ctx context.Context, req GenerateRequest) (string, error) {
	m.Prompts = append(m.Prompts, req)
	m.calls++
	if m.Err != nil {
		return "", m.Err
	}
	if len(m.Responses) == 0 {
		return "{}", nil
	}
	i := m.calls - 1
	if i >= len(m.Responses) {
		i = len(m.Responses) - 1
	}
	return m.Responses[i], nil
}

// Calls returns how many times Generate was invoked.
func (m *MockGenerator) Calls() int {
	return m.calls
}

// MockEmbedder is a deterministic embedder for tests. It returns a fixed-dimension
// unit vector derived from the text hash so the same text always gets the same
// embedding.
type MockEmbedder struct {
	dimensions int
	// Err, when set, makes every Embed call fail.
	Err error
}

// NewMockEmbedder returns an embedder producing deterministic embeddings of the
// given dimensions.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{dimensions: dimensions}
}

// Embed returns a deterministic embedding based on the text hash.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if e.Err != nil {
		return nil, e.Err
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(text))
	seed := int(h.Sum32() % 10000)
	emb := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(seed*(i+1)))*0.1 + 0.01)
	}
	utils.NormalizeL2(emb)
	return emb, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}
