package vector

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/civiclens/hansard/internal/models"
)

func unitVec(dims int, hot int) []float32 {
	v := make([]float32, dims)
	v[hot%dims] = 1
	return v
}

func TestMemoryIndexSearchRanksByInnerProduct(t *testing.T) {
	idx, err := NewMemoryIndex(4)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ctx := context.Background()
	meta := Meta{Category: models.CategoryDiscussion, ScopeID: "s"}
	_ = idx.Add(ctx, "a", []float32{1, 0, 0, 0}, meta)
	_ = idx.Add(ctx, "b", []float32{0.9, 0.1, 0, 0}, meta)
	_ = idx.Add(ctx, "c", []float32{0, 1, 0, 0}, meta)

	hits, err := idx.Search(ctx, []float32{1, 0, 0, 0}, models.CategoryDiscussion, "s", models.SearchFilters{}, 2)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].ID != "a" || hits[1].ID != "b" {
		t.Errorf("unexpected order: %v", hits)
	}
	if hits[0].Rank != 1 || hits[1].Rank != 2 {
		t.Errorf("ranks should be 1-indexed: %v", hits)
	}
}

func TestMemoryIndexFiltersByCategoryScopeAndMeta(t *testing.T) {
	idx, _ := NewMemoryIndex(4)
	ctx := context.Background()
	q := []float32{1, 0, 0, 0}
	_ = idx.Add(ctx, "disc", q, Meta{Category: models.CategoryDiscussion, ScopeID: "s"})
	_ = idx.Add(ctx, "dec", q, Meta{Category: models.CategoryDecision, ScopeID: "s"})
	_ = idx.Add(ctx, "other-scope", q, Meta{Category: models.CategoryDiscussion, ScopeID: "s2"})
	_ = idx.Add(ctx, "by-person", q, Meta{Category: models.CategoryDiscussion, ScopeID: "s", Participants: []string{"Councillor A"}})

	hits, _ := idx.Search(ctx, q, models.CategoryDecision, "s", models.SearchFilters{}, 10)
	if len(hits) != 1 || hits[0].ID != "dec" {
		t.Errorf("category filter failed: %v", hits)
	}

	hits, _ = idx.Search(ctx, q, models.CategoryDiscussion, "s",
		models.SearchFilters{Participant: "Councillor A"}, 10)
	if len(hits) != 1 || hits[0].ID != "by-person" {
		t.Errorf("participant filter failed: %v", hits)
	}
}

func TestMemoryIndexParticipantFilterCoversAllDissenters(t *testing.T) {
	idx, _ := NewMemoryIndex(4)
	ctx := context.Background()
	q := []float32{1, 0, 0, 0}
	meta := MetaFor(&models.SearchableItem{
		ID: "dec", ScopeID: "s", Category: models.CategoryDecision,
		Dissenters: []string{"Councillor A", "Councillor B"},
	})
	_ = idx.Add(ctx, "dec", q, meta)

	for _, name := range []string{"Councillor A", "Councillor B", "councillor b"} {
		hits, _ := idx.Search(ctx, q, models.CategoryDecision, "s",
			models.SearchFilters{Participant: name}, 10)
		if len(hits) != 1 || hits[0].ID != "dec" {
			t.Errorf("filter on %q should match the decision: %v", name, hits)
		}
	}
	hits, _ := idx.Search(ctx, q, models.CategoryDecision, "s",
		models.SearchFilters{Participant: "Councillor C"}, 10)
	if len(hits) != 0 {
		t.Errorf("filter on a non-participant should match nothing: %v", hits)
	}
}

func TestMemoryIndexDateFilter(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	q := []float32{1, 0}
	old := time.Date(2021, 5, 1, 0, 0, 0, 0, time.UTC)
	recent := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	_ = idx.Add(ctx, "old", q, Meta{Category: models.CategoryDecision, ScopeID: "s", Date: old})
	_ = idx.Add(ctx, "new", q, Meta{Category: models.CategoryDecision, ScopeID: "s", Date: recent})

	from := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	hits, _ := idx.Search(ctx, q, models.CategoryDecision, "s", models.SearchFilters{From: &from}, 10)
	if len(hits) != 1 || hits[0].ID != "new" {
		t.Errorf("date filter failed: %v", hits)
	}
}

func TestMemoryIndexRemove(t *testing.T) {
	idx, _ := NewMemoryIndex(2)
	ctx := context.Background()
	meta := Meta{Category: models.CategoryDiscussion, ScopeID: "s"}
	_ = idx.Add(ctx, "a", []float32{1, 0}, meta)
	_ = idx.Add(ctx, "b", []float32{0, 1}, meta)
	if err := idx.Remove(ctx, []string{"a"}); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if idx.Size() != 1 {
		t.Errorf("size should be 1 after remove, got %d", idx.Size())
	}
	hits, _ := idx.Search(ctx, []float32{1, 0}, models.CategoryDiscussion, "s", models.SearchFilters{}, 10)
	for _, h := range hits {
		if h.ID == "a" {
			t.Error("removed id should not be returned")
		}
	}
}

func TestMemoryIndexSaveLoad(t *testing.T) {
	idx, _ := NewMemoryIndex(3)
	ctx := context.Background()
	date := time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC)
	_ = idx.Add(ctx, "x", []float32{1, 0, 0}, Meta{
		Category: models.CategoryDecision, ScopeID: "s", MatterID: "42", Date: date,
		Participants: []string{"Councillor A", "Councillor B"},
	})

	path := filepath.Join(t.TempDir(), "vectors.idx")
	if err := idx.Save(path); err != nil {
		t.Fatalf("save: %v", err)
	}

	loaded, _ := NewMemoryIndex(3)
	if err := loaded.Load(path); err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.Size() != 1 {
		t.Fatalf("loaded size should be 1, got %d", loaded.Size())
	}
	hits, _ := loaded.Search(ctx, []float32{1, 0, 0}, models.CategoryDecision, "s",
		models.SearchFilters{MatterID: "42"}, 10)
	if len(hits) != 1 || hits[0].ID != "x" {
		t.Errorf("loaded index should preserve vectors and metadata: %v", hits)
	}
	hits, _ = loaded.Search(ctx, []float32{1, 0, 0}, models.CategoryDecision, "s",
		models.SearchFilters{Participant: "Councillor B"}, 10)
	if len(hits) != 1 {
		t.Errorf("loaded index should preserve the participant list: %v", hits)
	}
}

func TestMemoryIndexDimensionMismatch(t *testing.T) {
	idx, _ := NewMemoryIndex(4)
	if err := idx.Add(context.Background(), "a", []float32{1, 0}, Meta{}); err == nil {
		t.Error("expected dimension mismatch error")
	}
	if _, err := idx.Search(context.Background(), []float32{1}, models.CategoryDiscussion, "s", models.SearchFilters{}, 5); err == nil {
		t.Error("expected query dimension mismatch error")
	}
}
