// Package inquiry wires the full question-answering pipeline: conversation
// state, query analysis, evidence orchestration, assembly, and synthesis.
package inquiry

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/answer"
	"github.com/civiclens/hansard/internal/cache"
	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/internal/orchestrator"
	"github.com/civiclens/hansard/internal/session"
)

// cacheWriteTimeout bounds the detached share-cache write.
const cacheWriteTimeout = 5 * time.Second

// Analyzer produces a query analysis. *analyzer.Analyzer satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, question, scopeID string, prior *models.ConversationTurn) (*models.QueryAnalysis, []models.Degradation)
}

// Gatherer runs the evidence-gathering loop. *orchestrator.Orchestrator
// satisfies it.
type Gatherer interface {
	Run(ctx context.Context, q *models.QueryAnalysis, scopeID string) (*orchestrator.Outcome, error)
}

// Synthesizer produces the final answer. *answer.Synthesizer satisfies it.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, bundle *models.EvidenceBundle) (*models.Answer, []models.Degradation, error)
}

// ResponseCache stores finished responses under share ids. *cache.AnswerCache
// satisfies it.
type ResponseCache interface {
	Put(ctx context.Context, resp *models.AskResponse) (string, error)
}

// Service answers questions about council records end to end.
type Service struct {
	analyzer    Analyzer
	gatherer    Gatherer
	synthesizer Synthesizer
	sessions    *session.Store
	cache       ResponseCache
	logger      *zap.Logger
}

// NewService wires the pipeline. cache may be nil when sharing is disabled.
func NewService(a Analyzer, g Gatherer, s Synthesizer, sessions *session.Store, cache ResponseCache, logger *zap.Logger) *Service {
	return &Service{
		analyzer:    a,
		gatherer:    g,
		synthesizer: s,
		sessions:    sessions,
		cache:       cache,
		logger:      logger,
	}
}

// Ask answers one question. Degraded stages are reported on the response;
// the only pipeline failure that surfaces as an error is synthesis, which has
// no useful degraded form.
func (s *Service) Ask(ctx context.Context, req models.AskRequest) (*models.AskResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()

	prior := s.sessions.Latest(req.SessionID)
	analysis, degradations := s.analyzer.Analyze(ctx, req.Question, req.ScopeID, prior)
	applyRequestBounds(analysis, &req)

	outcome, err := s.gatherer.Run(ctx, analysis, req.ScopeID)
	if err != nil {
		return nil, err
	}
	degradations = append(degradations, outcome.Degradations...)

	bundle := answer.Assemble(outcome.Evidence)
	ans, synthDegs, err := s.synthesizer.Synthesize(ctx, req.Question, bundle)
	if err != nil {
		return nil, err
	}
	degradations = append(degradations, synthDegs...)

	resp := &models.AskResponse{
		Answer:       ans.Text,
		Citations:    ans.Citations,
		Confidence:   ans.Confidence,
		FollowUps:    ans.FollowUps,
		Trace:        outcome.Traces,
		Degradations: degradations,
		QueryTimeMS:  time.Since(start).Milliseconds(),
	}

	s.sessions.Append(ctx, req.SessionID, &models.ConversationTurn{
		Question:        req.Question,
		Entities:        analysis.Entities,
		PersonID:        analysis.PersonID,
		MatterID:        analysis.MatterID,
		EvidenceSummary: evidenceSummary(bundle),
		CreatedAt:       time.Now(),
	})
	if s.cache != nil {
		resp.ShareID = cache.NewShareID()
		s.shareAsync(resp)
	}

	s.logger.Info("question answered",
		zap.String("intent", string(analysis.Intent)),
		zap.Int("evidence", len(bundle.Items)),
		zap.Int("citations", len(resp.Citations)),
		zap.String("confidence", string(resp.Confidence)),
		zap.Int64("took_ms", resp.QueryTimeMS))
	return resp, nil
}

// applyRequestBounds lets an explicit request date range override whatever the
// analysis inferred. Validate already checked the dates parse.
func applyRequestBounds(analysis *models.QueryAnalysis, req *models.AskRequest) {
	bounds, err := req.DateBounds()
	if err != nil {
		return
	}
	if bounds.From != nil {
		analysis.DateFrom = bounds.From
	}
	if bounds.To != nil {
		analysis.DateTo = bounds.To
	}
}

// shareAsync writes the response to the share cache off the request path. The
// response already went to the caller; a failed write only costs the share id.
func (s *Service) shareAsync(resp *models.AskResponse) {
	stored := *resp
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), cacheWriteTimeout)
		defer cancel()
		if _, err := s.cache.Put(ctx, &stored); err != nil {
			s.logger.Warn("share cache write failed", zap.Error(err))
		}
	}()
}

func evidenceSummary(bundle *models.EvidenceBundle) string {
	if bundle.Empty() {
		return "no evidence found"
	}
	counts := map[models.Category]int{}
	for _, item := range bundle.Items {
		counts[item.Category]++
	}
	summary := ""
	for _, c := range []models.Category{
		models.CategoryDecision, models.CategoryDiscussion,
		models.CategoryDocumentSection, models.CategoryKeyStatement,
	} {
		if counts[c] == 0 {
			continue
		}
		if summary != "" {
			summary += ", "
		}
		summary += string(c) + "s: " + strconv.Itoa(counts[c])
	}
	return summary
}
