package search

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/config"
	"github.com/civiclens/hansard/internal/lexical"
	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/internal/vector"
)

// Request is one hybrid search call over a single category.
type Request struct {
	Category      models.Category
	SemanticQuery string
	LexicalQuery  string
	// Embedding is the request-scoped embedding of SemanticQuery. Nil degrades
	// the call to lexical-only.
	Embedding []float32
	ScopeID   string
	Filters   models.SearchFilters
	Limit     int
	// Fusion overrides the engine defaults when non-nil.
	Fusion *FusionParams
}

// Result is the fused ranking plus any quality degradations absorbed while
// producing it.
type Result struct {
	Ranking      models.FusedRanking
	Degradations []models.Degradation
}

// Engine runs hybrid (lexical + semantic) retrieval with RRF fusion. Either
// index may be absent for a deployment; the engine degrades to the other
// automatically and never errors on empty result sets.
type Engine struct {
	lexical lexical.Index
	vector  vector.Index
	cfg     *config.SearchConfig
	logger  *zap.Logger
}

// NewEngine creates a hybrid search engine. lex or vec may be nil when the
// corresponding index is not configured.
func NewEngine(lex lexical.Index, vec vector.Index, cfg *config.SearchConfig, logger *zap.Logger) *Engine {
	return &Engine{lexical: lex, vector: vec, cfg: cfg, logger: logger}
}

// Search runs both retrievals concurrently, fuses ranks, and truncates to the
// requested limit (hard-capped by config). Index failures downgrade to
// single-mode retrieval and are reported as degradations, not errors.
func (e *Engine) Search(ctx context.Context, req Request) (*Result, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}
	candidates := limit * 2
	if candidates > e.cfg.CandidateCeiling {
		candidates = e.cfg.CandidateCeiling
	}

	res := &Result{}
	var (
		lexicalHits  []models.RankedID
		semanticHits []models.RankedID
		lexicalErr   error
		semanticErr  error
		wg           sync.WaitGroup
	)

	runLexical := e.lexical != nil && req.LexicalQuery != ""
	runSemantic := e.vector != nil && len(req.Embedding) > 0

	if runLexical {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			lexicalHits, lexicalErr = e.lexical.Search(ctx, req.Category, req.LexicalQuery, req.ScopeID, req.Filters, candidates)
			e.logger.Debug("lexical retrieval",
				zap.String("category", string(req.Category)),
				zap.Int("hits", len(lexicalHits)),
				zap.Duration("took", time.Since(start)))
		}()
	}
	if runSemantic {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			semanticHits, semanticErr = e.vector.Search(ctx, req.Embedding, req.Category, req.ScopeID, req.Filters, candidates)
			e.logger.Debug("semantic retrieval",
				zap.String("category", string(req.Category)),
				zap.Int("hits", len(semanticHits)),
				zap.Duration("took", time.Since(start)))
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !runLexical {
		res.Degradations = append(res.Degradations, models.Degradation{
			Stage: "search", Reason: "lexical retrieval skipped: " + skipReason(e.lexical == nil, models.ErrIndexUnavailable.Error(), "empty query"),
		})
	} else if lexicalErr != nil {
		e.logger.Warn("lexical retrieval failed, continuing semantic-only", zap.Error(lexicalErr))
		res.Degradations = append(res.Degradations, models.Degradation{
			Stage: "search", Reason: "lexical retrieval failed: " + lexicalErr.Error(),
		})
		lexicalHits = nil
	}
	if !runSemantic {
		res.Degradations = append(res.Degradations, models.Degradation{
			Stage: "search", Reason: "semantic retrieval skipped: " + skipReason(e.vector == nil, models.ErrIndexUnavailable.Error(), "no embedding"),
		})
	} else if semanticErr != nil {
		e.logger.Warn("semantic retrieval failed, continuing lexical-only", zap.Error(semanticErr))
		res.Degradations = append(res.Degradations, models.Degradation{
			Stage: "search", Reason: "semantic retrieval failed: " + semanticErr.Error(),
		})
		semanticHits = nil
	}

	params := FusionParams{
		K:              e.cfg.RRFDamping,
		TextWeight:     e.cfg.TextWeight,
		SemanticWeight: e.cfg.SemanticWeight,
	}
	if req.Fusion != nil {
		params = *req.Fusion
	}
	fused := Fuse(lexicalHits, semanticHits, params)
	if len(fused) > limit {
		fused = fused[:limit]
	}
	res.Ranking = fused
	return res, nil
}

func skipReason(condition bool, whenTrue, whenFalse string) string {
	if condition {
		return whenTrue
	}
	return whenFalse
}
