package search

import (
	"testing"

	"github.com/civiclens/hansard/internal/models"
)

func ranked(ids ...string) []models.RankedID {
	out := make([]models.RankedID, len(ids))
	for i, id := range ids {
		out[i] = models.RankedID{ID: id, Rank: i + 1}
	}
	return out
}

func TestFuseBothListsBeatSingleList(t *testing.T) {
	// "both" appears at rank 2 in each list; "lex-only" and "sem-only" hold
	// rank 1 in exactly one list. Dual membership must win.
	lex := ranked("lex-only", "both")
	sem := ranked("sem-only", "both")

	fused := Fuse(lex, sem, DefaultFusionParams())
	if len(fused) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(fused))
	}
	if fused[0].ID != "both" {
		t.Errorf("item in both lists must rank first, got %s", fused[0].ID)
	}
	for _, e := range fused[1:] {
		if e.Score >= fused[0].Score {
			t.Errorf("single-list item %s must score strictly lower than dual-list item", e.ID)
		}
	}
}

func TestFuseScoreFormula(t *testing.T) {
	lex := ranked("a")
	sem := ranked("a")
	p := FusionParams{K: 50, TextWeight: 1.0, SemanticWeight: 1.0}
	fused := Fuse(lex, sem, p)
	want := 1.0/51.0 + 1.0/51.0
	if diff := fused[0].Score - want; diff > 1e-12 || diff < -1e-12 {
		t.Errorf("score should be %f, got %f", want, fused[0].Score)
	}
}

func TestFuseAbsenceIsNotPenalty(t *testing.T) {
	// An item only in the lexical list gets exactly its lexical term, no
	// negative contribution for semantic absence.
	fused := Fuse(ranked("solo"), nil, FusionParams{K: 50, TextWeight: 1.0, SemanticWeight: 1.0})
	want := 1.0 / 51.0
	if fused[0].Score != want {
		t.Errorf("absent list must contribute zero: want %f, got %f", want, fused[0].Score)
	}
	if fused[0].SemanticRank != 0 {
		t.Errorf("semantic rank should be 0 (absent), got %d", fused[0].SemanticRank)
	}
}

func TestFuseWeights(t *testing.T) {
	p := FusionParams{K: 50, TextWeight: 2.0, SemanticWeight: 0.5}
	fused := Fuse(ranked("lex"), ranked("sem"), p)
	if fused[0].ID != "lex" {
		t.Errorf("text weight 2.0 should put the lexical item first, got %s", fused[0].ID)
	}
}

func TestFuseTieBreakByIDAscending(t *testing.T) {
	// Two items at identical ranks in the same single list tie on score.
	lex := []models.RankedID{{ID: "zebra", Rank: 1}}
	sem := []models.RankedID{{ID: "apple", Rank: 1}}
	fused := Fuse(lex, sem, DefaultFusionParams())
	if fused[0].ID != "apple" || fused[1].ID != "zebra" {
		t.Errorf("ties must break by id ascending: %v", fused)
	}
}

func TestFuseDeterminism(t *testing.T) {
	lex := ranked("a", "b", "c", "d")
	sem := ranked("c", "a", "e")
	first := Fuse(lex, sem, DefaultFusionParams())
	for i := 0; i < 10; i++ {
		again := Fuse(lex, sem, DefaultFusionParams())
		if len(again) != len(first) {
			t.Fatal("rankings differ in length across runs")
		}
		for j := range first {
			if first[j].ID != again[j].ID || first[j].Score != again[j].Score {
				t.Fatalf("run %d differs at position %d: %v vs %v", i, j, first[j], again[j])
			}
		}
	}
}

func TestFuseEmptyInputs(t *testing.T) {
	if fused := Fuse(nil, nil, DefaultFusionParams()); len(fused) != 0 {
		t.Errorf("empty inputs should fuse to empty, got %d", len(fused))
	}
}
