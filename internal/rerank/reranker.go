// Package rerank re-scores candidate evidence with a generative judge.
// Reranking is an optional quality pass: any failure degrades silently to the
// original ordering.
package rerank

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/ai"
	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/pkg/utils"
)

// gateSize is the candidate count above which reranking engages. The gate is
// strict: exactly gateSize candidates skip the judge.
const gateSize = 10

// excerptLen bounds the candidate text sent to the judge.
const excerptLen = 300

// Reranker batches candidates to a generative judge for 0-10 relevance scores.
type Reranker struct {
	generator ai.Generator
	threshold int
	logger    *zap.Logger
}

// New creates a reranker keeping candidates scoring at or above threshold.
func New(generator ai.Generator, threshold int, logger *zap.Logger) *Reranker {
	if threshold <= 0 {
		threshold = 5
	}
	return &Reranker{generator: generator, threshold: threshold, logger: logger}
}

type judgement struct {
	Index  int    `json:"index"`
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

type judgeResponse struct {
	Judgements []judgement `json:"judgements"`
}

// Rerank returns at most topK candidates. With gateSize or fewer candidates the
// judge is skipped and the original top-topK order is returned. On judge
// failure or malformed output the original order is returned with a degradation.
func (r *Reranker) Rerank(ctx context.Context, question string, candidates []models.EvidenceRecord, topK int) ([]models.EvidenceRecord, *models.Degradation) {
	if topK <= 0 || len(candidates) == 0 {
		return nil, nil
	}
	if len(candidates) <= gateSize {
		return head(candidates, topK), nil
	}

	raw, err := r.generator.Generate(ctx, ai.GenerateRequest{
		System: judgeSystemPrompt,
		Prompt: buildJudgePrompt(question, candidates),
	})
	if err != nil {
		r.logger.Warn("rerank judge call failed, keeping original order", zap.Error(err))
		return head(candidates, topK), &models.Degradation{
			Stage: "rerank", Reason: "judge call failed: " + err.Error(),
		}
	}

	var resp judgeResponse
	if err := ai.DecodeJSON(raw, &resp); err != nil {
		r.logger.Warn("rerank judge output malformed, keeping original order", zap.Error(err))
		return head(candidates, topK), &models.Degradation{
			Stage: "rerank", Reason: "judge output malformed",
		}
	}

	scores := make(map[int]int, len(resp.Judgements))
	for _, j := range resp.Judgements {
		if j.Index < 0 || j.Index >= len(candidates) || j.Score < 0 || j.Score > 10 {
			r.logger.Warn("rerank judge output out of range, keeping original order",
				zap.Int("index", j.Index), zap.Int("score", j.Score))
			return head(candidates, topK), &models.Degradation{
				Stage: "rerank", Reason: "judge output out of range",
			}
		}
		scores[j.Index] = j.Score
	}

	type rescored struct {
		record models.EvidenceRecord
		score  int
	}
	kept := make([]rescored, 0, len(candidates))
	for i, c := range candidates {
		s, ok := scores[i]
		if !ok || s < r.threshold {
			continue
		}
		c.Score = float64(s)
		kept = append(kept, rescored{record: c, score: s})
	}
	sort.SliceStable(kept, func(i, j int) bool { return kept[i].score > kept[j].score })

	out := make([]models.EvidenceRecord, 0, topK)
	for _, k := range kept {
		if len(out) == topK {
			break
		}
		out = append(out, k.record)
	}
	return out, nil
}

func head(candidates []models.EvidenceRecord, topK int) []models.EvidenceRecord {
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	out := make([]models.EvidenceRecord, len(candidates))
	copy(out, candidates)
	return out
}

const judgeSystemPrompt = `You judge how relevant council-record excerpts are to a question.
Respond with JSON only:
{"judgements": [{"index": 0, "score": 0-10, "reason": "one short sentence"}, ...]}
Score 10 means the excerpt directly answers the question; 0 means unrelated.
Include every candidate index exactly once.`

func buildJudgePrompt(question string, candidates []models.EvidenceRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Question: %s\n\nCandidates:\n", question)
	for i, c := range candidates {
		fmt.Fprintf(&b, "[%d] (%s) %s\n", i, c.Category, utils.Truncate(c.Rendering, excerptLen))
	}
	return b.String()
}
