// Package search provides hybrid retrieval: lexical and semantic candidates
// fused into one ranking by Reciprocal Rank Fusion.
package search

import (
	"sort"

	"github.com/civiclens/hansard/internal/models"
)

// FusionParams tunes reciprocal rank fusion. Weights are caller-tunable per
// category; K dampens the influence of low ranks.
type FusionParams struct {
	K              float64
	TextWeight     float64
	SemanticWeight float64
}

// DefaultFusionParams returns the standard parameters: k=50, equal weights.
func DefaultFusionParams() FusionParams {
	return FusionParams{K: 50, TextWeight: 1.0, SemanticWeight: 1.0}
}

// Fuse merges two rank lists via Reciprocal Rank Fusion:
//
//	score = text_weight/(k + lexical_rank) + semantic_weight/(k + semantic_rank)
//
// An item absent from one list contributes zero for that term (not a penalty).
// Scores derive only from rank positions, never from raw incomparable
// relevance magnitudes. The result is sorted descending by score with stable
// id-ascending tie-breaks.
func Fuse(lexical, semantic []models.RankedID, p FusionParams) models.FusedRanking {
	if p.K <= 0 {
		p.K = 50
	}
	entries := make(map[string]*models.FusedEntry, len(lexical)+len(semantic))
	for _, r := range lexical {
		entries[r.ID] = &models.FusedEntry{ID: r.ID, LexicalRank: r.Rank}
	}
	for _, r := range semantic {
		if e, ok := entries[r.ID]; ok {
			e.SemanticRank = r.Rank
		} else {
			entries[r.ID] = &models.FusedEntry{ID: r.ID, SemanticRank: r.Rank}
		}
	}

	out := make(models.FusedRanking, 0, len(entries))
	for _, e := range entries {
		var score float64
		if e.LexicalRank > 0 {
			score += p.TextWeight / (p.K + float64(e.LexicalRank))
		}
		if e.SemanticRank > 0 {
			score += p.SemanticWeight / (p.K + float64(e.SemanticRank))
		}
		e.Score = score
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	return out
}
