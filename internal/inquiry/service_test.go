package inquiry

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/config"
	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/internal/orchestrator"
	"github.com/civiclens/hansard/internal/session"
)

type stubAnalyzer struct {
	analysis *models.QueryAnalysis
	degs     []models.Degradation
	prior    *models.ConversationTurn
}

func (s *stubAnalyzer) Analyze(ctx context.Context, question, scopeID string, prior *models.ConversationTurn) (*models.QueryAnalysis, []models.Degradation) {
	s.prior = prior
	if s.analysis == nil {
		s.analysis = &models.QueryAnalysis{
			Question: question, Intent: models.IntentFactual,
			SemanticQuery: question, LexicalQuery: question,
			Entities: models.Entities{Topics: []string{"bike lane"}},
		}
	}
	return s.analysis, s.degs
}

type stubGatherer struct {
	outcome *orchestrator.Outcome
	err     error
	got     *models.QueryAnalysis
}

func (s *stubGatherer) Run(ctx context.Context, q *models.QueryAnalysis, scopeID string) (*orchestrator.Outcome, error) {
	s.got = q
	if s.err != nil {
		return nil, s.err
	}
	if s.outcome == nil {
		s.outcome = &orchestrator.Outcome{}
	}
	return s.outcome, nil
}

type stubSynthesizer struct {
	answer *models.Answer
	degs   []models.Degradation
	err    error
}

func (s *stubSynthesizer) Synthesize(ctx context.Context, question string, bundle *models.EvidenceBundle) (*models.Answer, []models.Degradation, error) {
	if s.err != nil {
		return nil, s.degs, s.err
	}
	return s.answer, s.degs, nil
}

type stubCache struct {
	stored chan *models.AskResponse
}

func (s *stubCache) Put(ctx context.Context, resp *models.AskResponse) (string, error) {
	s.stored <- resp
	return resp.ShareID, nil
}

func newService(a Analyzer, g Gatherer, sy Synthesizer, c ResponseCache) (*Service, *session.Store) {
	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	sessions := session.NewStore(&cfg.Session)
	return NewService(a, g, sy, sessions, c, zap.NewNop()), sessions
}

func evidence() []models.EvidenceRecord {
	return []models.EvidenceRecord{{
		SourceID: "dec1", Category: models.CategoryDecision,
		Rendering: "Decision (2024-03-11): bike lane motion CARRIED 5-2. Opposed: Councillor A, Councillor B.",
		Date:      time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), Tool: "find_decisions",
	}}
}

func TestAskEndToEnd(t *testing.T) {
	gatherer := &stubGatherer{outcome: &orchestrator.Outcome{
		Evidence: evidence(),
		Traces:   []models.ToolTrace{{Tool: "find_decisions", ResultCount: 1}},
		Degradations: []models.Degradation{
			{Stage: "search", Reason: "semantic retrieval skipped: no embedding"},
		},
	}}
	synth := &stubSynthesizer{answer: &models.Answer{
		Text:       "Councillor A and Councillor B voted against it.",
		Confidence: models.ConfidenceHigh,
		Citations: []models.Citation{
			{SourceID: "dec1", Category: models.CategoryDecision},
			{SourceID: "dec1", Category: models.CategoryDecision},
		},
		FollowUps: []string{"Who moved the motion?"},
	}}
	cache := &stubCache{stored: make(chan *models.AskResponse, 1)}
	svc, sessions := newService(&stubAnalyzer{}, gatherer, synth, cache)

	resp, err := svc.Ask(context.Background(), models.AskRequest{
		Question: "Who voted against the bike lane?", ScopeID: "scope1", SessionID: "sess1",
	})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if resp.Answer == "" || resp.Confidence != models.ConfidenceHigh {
		t.Errorf("answer not carried through: %+v", resp)
	}
	if len(resp.Citations) != 2 {
		t.Errorf("expected 2 citations, got %d", len(resp.Citations))
	}
	if len(resp.Trace) != 1 {
		t.Errorf("tool trace lost: %+v", resp.Trace)
	}
	if len(resp.Degradations) != 1 {
		t.Errorf("degradations lost: %+v", resp.Degradations)
	}
	if resp.ShareID == "" {
		t.Error("share id missing from response")
	}

	select {
	case stored := <-cache.stored:
		if stored.ShareID != resp.ShareID {
			t.Errorf("cached under %q, returned %q", stored.ShareID, resp.ShareID)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("response never reached the share cache")
	}

	turn := sessions.Latest("sess1")
	if turn == nil || turn.Question != "Who voted against the bike lane?" {
		t.Fatalf("conversation turn not recorded: %+v", turn)
	}
	if len(turn.Entities.Topics) == 0 {
		t.Error("turn should carry the analyzed entities")
	}
}

func TestAskValidatesRequest(t *testing.T) {
	svc, _ := newService(&stubAnalyzer{}, &stubGatherer{}, &stubSynthesizer{answer: &models.Answer{Text: "x"}}, nil)

	if _, err := svc.Ask(context.Background(), models.AskRequest{ScopeID: "scope1"}); err == nil {
		t.Error("empty question must be rejected")
	}
	if _, err := svc.Ask(context.Background(), models.AskRequest{Question: "hi"}); err == nil {
		t.Error("missing scope must be rejected")
	}
	if _, err := svc.Ask(context.Background(), models.AskRequest{
		Question: "hi", ScopeID: "scope1", DateFrom: "not-a-date",
	}); err == nil {
		t.Error("malformed dates must be rejected")
	}
}

func TestAskSynthesisFailurePropagates(t *testing.T) {
	synth := &stubSynthesizer{err: models.ErrSynthesisFailed}
	svc, _ := newService(&stubAnalyzer{}, &stubGatherer{}, synth, nil)

	_, err := svc.Ask(context.Background(), models.AskRequest{Question: "hi", ScopeID: "scope1"})
	if !errors.Is(err, models.ErrSynthesisFailed) {
		t.Fatalf("expected ErrSynthesisFailed, got %v", err)
	}
}

func TestAskRequestDatesOverrideAnalysis(t *testing.T) {
	inferred := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	analyzer := &stubAnalyzer{analysis: &models.QueryAnalysis{
		Question: "q", Intent: models.IntentFactual, SemanticQuery: "q", LexicalQuery: "q",
		DateFrom: &inferred,
	}}
	gatherer := &stubGatherer{}
	svc, _ := newService(analyzer, gatherer, &stubSynthesizer{answer: &models.Answer{Text: "x", Confidence: models.ConfidenceLow}}, nil)

	_, err := svc.Ask(context.Background(), models.AskRequest{
		Question: "q", ScopeID: "scope1", DateFrom: "2024-01-01", DateTo: "2024-12-31",
	})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if gatherer.got.DateFrom == nil || gatherer.got.DateFrom.Year() != 2024 {
		t.Errorf("explicit date_from should win: %v", gatherer.got.DateFrom)
	}
	if gatherer.got.DateTo == nil || gatherer.got.DateTo.Month() != time.December {
		t.Errorf("explicit date_to should win: %v", gatherer.got.DateTo)
	}
}

func TestAskPriorTurnFlowsToAnalyzer(t *testing.T) {
	analyzer := &stubAnalyzer{}
	svc, sessions := newService(analyzer, &stubGatherer{}, &stubSynthesizer{answer: &models.Answer{Text: "x", Confidence: models.ConfidenceLow}}, nil)

	sessions.Append(context.Background(), "sess1", &models.ConversationTurn{Question: "previous", CreatedAt: time.Now()})
	if _, err := svc.Ask(context.Background(), models.AskRequest{
		Question: "and what did they decide?", ScopeID: "scope1", SessionID: "sess1",
	}); err != nil {
		t.Fatalf("ask: %v", err)
	}
	if analyzer.prior == nil || analyzer.prior.Question != "previous" {
		t.Errorf("prior turn should reach the analyzer: %+v", analyzer.prior)
	}
}

func TestAskWithoutCacheOmitsShareID(t *testing.T) {
	svc, _ := newService(&stubAnalyzer{}, &stubGatherer{}, &stubSynthesizer{answer: &models.Answer{Text: "x", Confidence: models.ConfidenceLow}}, nil)

	resp, err := svc.Ask(context.Background(), models.AskRequest{Question: "hi", ScopeID: "scope1"})
	if err != nil {
		t.Fatalf("ask: %v", err)
	}
	if resp.ShareID != "" {
		t.Errorf("no cache configured, share id should be empty: %q", resp.ShareID)
	}
}
