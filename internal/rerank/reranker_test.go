package rerank

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/ai"
	"github.com/civiclens/hansard/internal/models"
)

func candidates(n int) []models.EvidenceRecord {
	out := make([]models.EvidenceRecord, n)
	for i := range out {
		out[i] = models.EvidenceRecord{
			SourceID:  fmt.Sprintf("item%d", i),
			Category:  models.CategoryDiscussion,
			Rendering: fmt.Sprintf("candidate text %d", i),
			Score:     float64(n - i),
		}
	}
	return out
}

func TestRerankSkippedAtGateBoundary(t *testing.T) {
	gen := &ai.MockGenerator{}
	r := New(gen, 5, zap.NewNop())

	// Exactly 10 candidates: no judge call, original order kept.
	out, deg := r.Rerank(context.Background(), "q", candidates(10), 5)
	if gen.Calls() != 0 {
		t.Errorf("judge must not be called with 10 candidates, got %d calls", gen.Calls())
	}
	if deg != nil {
		t.Errorf("skip below gate is not a degradation: %v", deg)
	}
	if len(out) != 5 || out[0].SourceID != "item0" {
		t.Errorf("expected original top-5, got %v", out)
	}
}

func TestRerankExecutesAboveGate(t *testing.T) {
	var judgements []string
	for i := 0; i < 11; i++ {
		score := 2
		if i == 7 {
			score = 9
		}
		judgements = append(judgements, fmt.Sprintf(`{"index": %d, "score": %d, "reason": "r"}`, i, score))
	}
	gen := &ai.MockGenerator{Responses: []string{
		`{"judgements": [` + strings.Join(judgements, ",") + `]}`,
	}}
	r := New(gen, 5, zap.NewNop())

	out, deg := r.Rerank(context.Background(), "q", candidates(11), 5)
	if gen.Calls() != 1 {
		t.Fatalf("judge should be called once with 11 candidates, got %d", gen.Calls())
	}
	if deg != nil {
		t.Errorf("unexpected degradation: %v", deg)
	}
	// Only item7 scored >= 5.
	if len(out) != 1 || out[0].SourceID != "item7" {
		t.Errorf("only item7 passes threshold, got %v", out)
	}
	if out[0].Score != 9 {
		t.Errorf("kept record should carry the judge score, got %f", out[0].Score)
	}
}

func TestRerankDegradesOnJudgeFailure(t *testing.T) {
	gen := &ai.MockGenerator{Err: models.ErrModelTimeout}
	r := New(gen, 5, zap.NewNop())

	out, deg := r.Rerank(context.Background(), "q", candidates(12), 4)
	if deg == nil {
		t.Error("judge failure should produce a degradation")
	}
	if len(out) != 4 {
		t.Fatalf("degraded rerank should return original top-4, got %d", len(out))
	}
	for i, rec := range out {
		if rec.SourceID != fmt.Sprintf("item%d", i) {
			t.Errorf("original order should be preserved: %v", out)
		}
	}
}

func TestRerankDegradesOnMalformedOutput(t *testing.T) {
	gen := &ai.MockGenerator{Responses: []string{`the most relevant is probably item3`}}
	r := New(gen, 5, zap.NewNop())

	out, deg := r.Rerank(context.Background(), "q", candidates(11), 3)
	if deg == nil {
		t.Error("malformed output should produce a degradation")
	}
	if len(out) != 3 || out[0].SourceID != "item0" {
		t.Errorf("expected original top-3, got %v", out)
	}
}

func TestRerankRejectsOutOfRangeScores(t *testing.T) {
	gen := &ai.MockGenerator{Responses: []string{`{"judgements": [{"index": 0, "score": 42}]}`}}
	r := New(gen, 5, zap.NewNop())

	out, deg := r.Rerank(context.Background(), "q", candidates(11), 3)
	if deg == nil {
		t.Error("out-of-range score should degrade")
	}
	if len(out) != 3 {
		t.Errorf("expected original top-3 on degradation, got %d", len(out))
	}
}
