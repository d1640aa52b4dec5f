// Package analyzer turns a raw question into a structured QueryAnalysis:
// intent, entities, rewritten query variants, resolved date bounds, and
// pre-resolved entity ids.
package analyzer

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/ai"
	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/internal/store"
)

const maxAttempts = 2

// Analyzer produces a QueryAnalysis per request. Analysis failure degrades
// quality, never availability: Analyze always returns a usable analysis.
type Analyzer struct {
	generator ai.Generator
	embedder  ai.Embedder
	store     store.Store
	logger    *zap.Logger
}

// New creates an analyzer. store may be nil; entity pre-resolution is then skipped.
func New(generator ai.Generator, embedder ai.Embedder, st store.Store, logger *zap.Logger) *Analyzer {
	return &Analyzer{generator: generator, embedder: embedder, store: st, logger: logger}
}

// analysisResponse is the JSON shape requested from the model.
type analysisResponse struct {
	Intent             string          `json:"intent"`
	Entities           models.Entities `json:"entities"`
	SemanticQuery      string          `json:"semantic_query"`
	LexicalQuery       string          `json:"lexical_query"`
	DateFrom           string          `json:"date_from"`
	DateTo             string          `json:"date_to"`
	IndependentLookups bool            `json:"independent_lookups"`
}

// Analyze builds the QueryAnalysis for question. prior may carry the previous
// turn for pronoun/entity resolution. Returned degradations record any quality
// loss (model fallback, failed embedding); the analysis itself is always valid.
func (a *Analyzer) Analyze(ctx context.Context, question, scopeID string, prior *models.ConversationTurn) (*models.QueryAnalysis, []models.Degradation) {
	question = models.TruncateQuestion(question)

	var degradations []models.Degradation
	analysis := a.fromModel(ctx, question, prior)
	if analysis == nil {
		analysis = fallbackAnalysis(question)
		degradations = append(degradations, models.Degradation{
			Stage: "analysis", Reason: "model analysis failed, using minimal fallback",
		})
	}

	a.resolvePriorTurn(analysis, prior)
	a.resolveEntities(ctx, analysis, scopeID)

	if a.embedder != nil {
		emb, err := a.embedder.Embed(ctx, analysis.SemanticQuery)
		if err != nil {
			a.logger.Warn("query embedding failed, search will run lexical-only", zap.Error(err))
			degradations = append(degradations, models.Degradation{
				Stage: "analysis", Reason: "embedding failed: " + err.Error(),
			})
		} else {
			analysis.Embedding = emb
		}
	}
	return analysis, degradations
}

// fromModel runs the structured analysis call; returns nil when every attempt
// fails or the output is unusable.
func (a *Analyzer) fromModel(ctx context.Context, question string, prior *models.ConversationTurn) *models.QueryAnalysis {
	prompt := buildAnalysisPrompt(question, prior)
	for attempt := 0; attempt < maxAttempts; attempt++ {
		raw, err := a.generator.Generate(ctx, ai.GenerateRequest{
			System: analysisSystemPrompt,
			Prompt: prompt,
		})
		if err != nil {
			a.logger.Warn("analysis generation failed", zap.Int("attempt", attempt+1), zap.Error(err))
			return nil
		}
		var resp analysisResponse
		if err := ai.DecodeJSON(raw, &resp); err != nil {
			a.logger.Warn("analysis output malformed", zap.Int("attempt", attempt+1), zap.Error(err))
			continue
		}
		return toAnalysis(question, resp)
	}
	return nil
}

func toAnalysis(question string, resp analysisResponse) *models.QueryAnalysis {
	analysis := &models.QueryAnalysis{
		Question:           question,
		Intent:             models.Intent(resp.Intent),
		Entities:           resp.Entities,
		SemanticQuery:      strings.TrimSpace(resp.SemanticQuery),
		LexicalQuery:       strings.TrimSpace(resp.LexicalQuery),
		IndependentLookups: resp.IndependentLookups,
	}
	if !analysis.Intent.Valid() {
		analysis.Intent = models.IntentExploratory
	}
	if analysis.SemanticQuery == "" {
		analysis.SemanticQuery = question
	}
	if analysis.LexicalQuery == "" {
		analysis.LexicalQuery = question
	}
	if t, err := time.Parse("2006-01-02", resp.DateFrom); err == nil {
		analysis.DateFrom = &t
	}
	if t, err := time.Parse("2006-01-02", resp.DateTo); err == nil {
		analysis.DateTo = &t
	}
	return analysis
}

// fallbackAnalysis is the minimal analysis used when the model is unavailable:
// exploratory intent, queries unmodified, nothing resolved.
func fallbackAnalysis(question string) *models.QueryAnalysis {
	return &models.QueryAnalysis{
		Question:      question,
		Intent:        models.IntentExploratory,
		SemanticQuery: question,
		LexicalQuery:  question,
		Degraded:      true,
	}
}

// resolvePriorTurn carries entity resolutions forward when the new question
// refers back with a pronoun, so follow-ups skip full-text rediscovery.
func (a *Analyzer) resolvePriorTurn(analysis *models.QueryAnalysis, prior *models.ConversationTurn) {
	if prior == nil || !hasReferencePronoun(analysis.Question) {
		return
	}
	if analysis.MatterID == "" && prior.MatterID != "" {
		analysis.MatterID = prior.MatterID
	}
	if analysis.PersonID == "" && prior.PersonID != "" && len(analysis.Entities.People) == 0 {
		analysis.PersonID = prior.PersonID
	}
	if analysis.Entities.Empty() {
		analysis.Entities = prior.Entities
	}
}

func hasReferencePronoun(question string) bool {
	for _, w := range strings.Fields(strings.ToLower(strings.TrimRight(question, "?!. "))) {
		switch strings.Trim(w, "?,.!") {
		case "it", "that", "this", "they", "them", "he", "she", "those":
			return true
		}
	}
	return false
}

// resolveEntities pre-resolves an extracted name or topic to a record id via a
// direct store lookup. Lookup failures are non-fatal and leave the entity
// unresolved.
func (a *Analyzer) resolveEntities(ctx context.Context, analysis *models.QueryAnalysis, scopeID string) {
	if a.store == nil {
		return
	}
	if analysis.PersonID == "" && len(analysis.Entities.People) > 0 {
		id, err := a.store.ResolvePerson(ctx, scopeID, analysis.Entities.People[0])
		if err != nil {
			a.logger.Debug("person resolution failed", zap.Error(err))
		} else if id != "" {
			analysis.PersonID = id
		}
	}
	if analysis.MatterID == "" && len(analysis.Entities.Topics) > 0 {
		id, err := a.store.ResolveMatter(ctx, scopeID, analysis.Entities.Topics[0])
		if err != nil {
			a.logger.Debug("matter resolution failed", zap.Error(err))
		} else if id != "" {
			analysis.MatterID = id
		}
	}
}
