package analyzer

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/ai"
	"github.com/civiclens/hansard/internal/models"
)

func TestAnalyzeStructuredOutput(t *testing.T) {
	gen := &ai.MockGenerator{Responses: []string{`{
		"intent": "factual",
		"entities": {"people": ["Councillor A"], "topics": ["bike lane"]},
		"semantic_query": "who opposed the bike lane motion",
		"lexical_query": "bike lane motion opposed",
		"date_from": "2024-01-01",
		"date_to": "",
		"independent_lookups": false
	}`}}
	a := New(gen, ai.NewMockEmbedder(16), nil, zap.NewNop())

	analysis, degradations := a.Analyze(context.Background(), "Who voted against the bike lane?", "scope1", nil)
	if analysis.Intent != models.IntentFactual {
		t.Errorf("intent should be factual, got %s", analysis.Intent)
	}
	if analysis.SemanticQuery != "who opposed the bike lane motion" {
		t.Errorf("unexpected semantic query: %q", analysis.SemanticQuery)
	}
	if analysis.DateFrom == nil || analysis.DateFrom.Year() != 2024 {
		t.Errorf("date_from should parse, got %v", analysis.DateFrom)
	}
	if analysis.DateTo != nil {
		t.Errorf("empty date_to should stay nil, got %v", analysis.DateTo)
	}
	if len(analysis.Embedding) != 16 {
		t.Errorf("embedding should be generated, got %d dims", len(analysis.Embedding))
	}
	if len(degradations) != 0 {
		t.Errorf("clean analysis should have no degradations: %v", degradations)
	}
}

func TestAnalyzeFallbackOnModelFailure(t *testing.T) {
	gen := &ai.MockGenerator{Err: models.ErrModelUnavailable}
	a := New(gen, ai.NewMockEmbedder(16), nil, zap.NewNop())

	analysis, degradations := a.Analyze(context.Background(), "What happened with the arena?", "scope1", nil)
	if analysis == nil {
		t.Fatal("Analyze must never return nil")
	}
	if analysis.Intent != models.IntentExploratory {
		t.Errorf("fallback intent should be exploratory, got %s", analysis.Intent)
	}
	if analysis.SemanticQuery != "What happened with the arena?" || analysis.LexicalQuery != "What happened with the arena?" {
		t.Error("fallback queries should be the original question unmodified")
	}
	if !analysis.Degraded {
		t.Error("fallback analysis should be marked degraded")
	}
	if len(degradations) == 0 {
		t.Error("fallback should be recorded as a degradation")
	}
}

func TestAnalyzeRetriesMalformedOutput(t *testing.T) {
	gen := &ai.MockGenerator{Responses: []string{
		`certainly! here is my analysis`,
		`{"intent": "temporal", "semantic_query": "arena history", "lexical_query": "arena"}`,
	}}
	a := New(gen, nil, nil, zap.NewNop())

	analysis, _ := a.Analyze(context.Background(), "How did the arena project evolve?", "scope1", nil)
	if analysis.Intent != models.IntentTemporal {
		t.Errorf("second attempt should succeed, got intent %s", analysis.Intent)
	}
	if gen.Calls() != 2 {
		t.Errorf("expected 2 generation attempts, got %d", gen.Calls())
	}
}

func TestAnalyzeEmbeddingFailureDegrades(t *testing.T) {
	gen := &ai.MockGenerator{Responses: []string{`{"intent": "factual", "semantic_query": "q", "lexical_query": "q"}`}}
	embedder := ai.NewMockEmbedder(16)
	embedder.Err = models.ErrModelTimeout
	a := New(gen, embedder, nil, zap.NewNop())

	analysis, degradations := a.Analyze(context.Background(), "question", "scope1", nil)
	if analysis.Embedding != nil {
		t.Error("failed embedding should leave Embedding nil")
	}
	found := false
	for _, d := range degradations {
		if strings.Contains(d.Reason, "embedding failed") {
			found = true
		}
	}
	if !found {
		t.Errorf("embedding failure should be a degradation: %v", degradations)
	}
}

func TestAnalyzePriorTurnPronounResolution(t *testing.T) {
	gen := &ai.MockGenerator{Responses: []string{
		`{"intent": "factual", "semantic_query": "who opposed it", "lexical_query": "opposed"}`,
	}}
	a := New(gen, nil, nil, zap.NewNop())

	prior := &models.ConversationTurn{
		Question: "What is the status of the bike lane project?",
		Entities: models.Entities{Topics: []string{"bike lane project"}},
		MatterID: "42",
	}
	analysis, _ := a.Analyze(context.Background(), "Who opposed it?", "scope1", prior)
	if analysis.MatterID != "42" {
		t.Errorf("pronoun should resolve to prior matter id 42, got %q", analysis.MatterID)
	}
}

func TestAnalyzeNoPronounNoInheritance(t *testing.T) {
	gen := &ai.MockGenerator{Responses: []string{
		`{"intent": "factual", "semantic_query": "pool hours", "lexical_query": "pool hours"}`,
	}}
	a := New(gen, nil, nil, zap.NewNop())

	prior := &models.ConversationTurn{Question: "bike lanes?", MatterID: "42"}
	analysis, _ := a.Analyze(context.Background(), "When does the pool open?", "scope1", prior)
	if analysis.MatterID == "42" {
		t.Error("unrelated question should not inherit the prior matter id")
	}
}

func TestAnalyzeTruncatesLongQuestions(t *testing.T) {
	gen := &ai.MockGenerator{Err: models.ErrModelUnavailable}
	a := New(gen, nil, nil, zap.NewNop())

	long := strings.Repeat("why ", 1000)
	analysis, _ := a.Analyze(context.Background(), long, "scope1", nil)
	if len(analysis.Question) > models.MaxQuestionLength {
		t.Errorf("question should be truncated to %d, got %d", models.MaxQuestionLength, len(analysis.Question))
	}
}
