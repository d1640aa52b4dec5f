package ai

import (
	"context"
	"testing"
)

type sample struct {
	Intent string `json:"intent"`
	Score  int    `json:"score"`
}

func TestDecodeJSON(t *testing.T) {
	var s sample
	if err := DecodeJSON(`{"intent": "factual", "score": 7}`, &s); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if s.Intent != "factual" || s.Score != 7 {
		t.Errorf("unexpected decode: %+v", s)
	}
}

func TestDecodeJSONStripsFences(t *testing.T) {
	raw := "```json\n{\"intent\": \"temporal\", \"score\": 3}\n```"
	var s sample
	if err := DecodeJSON(raw, &s); err != nil {
		t.Fatalf("DecodeJSON failed: %v", err)
	}
	if s.Intent != "temporal" {
		t.Errorf("intent should be temporal, got %q", s.Intent)
	}
}

func TestDecodeJSONRepairsMissingOpeningQuote(t *testing.T) {
	// Missing opening quote before the second key.
	raw := `{"intent": "factual", score": 5}`
	var s sample
	if err := DecodeJSON(raw, &s); err != nil {
		t.Fatalf("DecodeJSON should repair missing quote: %v", err)
	}
	if s.Score != 5 {
		t.Errorf("score should be 5, got %d", s.Score)
	}
}

func TestDecodeJSONMalformed(t *testing.T) {
	var s sample
	if err := DecodeJSON(`not json at all`, &s); err == nil {
		t.Error("expected error for malformed output")
	}
}

func TestMockEmbedderDeterministic(t *testing.T) {
	e := NewMockEmbedder(16)
	a, err := e.Embed(context.Background(), "island highway")
	if err != nil {
		t.Fatalf("embed failed: %v", err)
	}
	b, _ := e.Embed(context.Background(), "island highway")
	for i := range a {
		if a[i] != b[i] {
			t.Fatal("same text should produce identical embeddings")
		}
	}
	c, _ := e.Embed(context.Background(), "something else")
	same := true
	for i := range a {
		if a[i] != c[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts should produce different embeddings")
	}
}
