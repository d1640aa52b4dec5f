// Package orchestrator runs the bounded tool loop that gathers evidence for
// one question. It is a small state machine: pick the next planned step,
// execute it, evaluate whether the evidence is sufficient, and finalize.
package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/config"
	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/internal/tools"
)

// maxFinal bounds the evidence handed to assembly after reranking.
const maxFinal = 16

type state int

const (
	stateStepping state = iota
	stateEvaluating
	stateFinalizing
	stateDone
)

// Registry resolves tool names. *tools.Registry satisfies it.
type Registry interface {
	Get(name string) (tools.Tool, error)
}

// Reranker trims a candidate set with a relevance judge. *rerank.Reranker
// satisfies it.
type Reranker interface {
	Rerank(ctx context.Context, question string, candidates []models.EvidenceRecord, topK int) ([]models.EvidenceRecord, *models.Degradation)
}

// Outcome is everything one orchestration run produced.
type Outcome struct {
	Evidence     []models.EvidenceRecord
	Traces       []models.ToolTrace
	Degradations []models.Degradation
}

// Orchestrator executes plans against the tool registry within an adaptive
// step budget. Tool failures are isolated; the run itself fails only on
// context cancellation.
type Orchestrator struct {
	registry Registry
	reranker Reranker
	cfg      *config.OrchestratorConfig
	logger   *zap.Logger
}

// New creates an orchestrator. reranker may be nil to disable reranking.
func New(registry Registry, reranker Reranker, cfg *config.OrchestratorConfig, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{registry: registry, reranker: reranker, cfg: cfg, logger: logger}
}

// run is the mutable state of one orchestration.
type run struct {
	q       *models.QueryAnalysis
	scopeID string
	budget  int
	steps   int
	// seen enforces the no-identical-repeat invariant on (tool, args).
	seen map[string]bool
	// recovered is set once the single allowed recovery attempt is spent.
	recovered bool
	// byID dedups evidence across tools by source id, first occurrence wins.
	byID     map[string]bool
	evidence []models.EvidenceRecord
	// toolsHit tracks which tools contributed at least one record.
	toolsHit map[string]bool

	out Outcome
}

// Run gathers evidence for the analyzed question. The returned outcome is
// never nil unless ctx was cancelled.
func (o *Orchestrator) Run(ctx context.Context, q *models.QueryAnalysis, scopeID string) (*Outcome, error) {
	r := &run{
		q:        q,
		scopeID:  scopeID,
		budget:   q.StepBudget(),
		seen:     make(map[string]bool),
		byID:     make(map[string]bool),
		toolsHit: make(map[string]bool),
	}
	queue := plan(q)

	for st := stateStepping; st != stateDone; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		switch st {
		case stateStepping:
			if len(queue) == 0 || r.steps >= r.budget {
				st = stateFinalizing
				continue
			}
			group := queue[0]
			queue = queue[1:]
			o.runGroup(ctx, r, group)
			st = stateEvaluating

		case stateEvaluating:
			if o.sufficient(r) {
				o.logger.Debug("evidence sufficient",
					zap.Int("records", len(r.evidence)),
					zap.Int("tools", len(r.toolsHit)))
				st = stateFinalizing
				continue
			}
			st = stateStepping

		case stateFinalizing:
			o.finalize(ctx, r)
			st = stateDone
		}
	}
	return &r.out, nil
}

// runGroup executes one plan group. Groups with multiple steps are the
// independent lookups of a comparative question and run concurrently; a
// failing branch never takes down its siblings.
func (o *Orchestrator) runGroup(ctx context.Context, r *run, group []step) {
	// Budget and repeat checks happen up front so concurrent branches do not
	// race on run state.
	var runnable []step
	for _, s := range group {
		if r.steps >= r.budget {
			break
		}
		key := s.args.Key(s.tool)
		if r.seen[key] {
			o.logger.Debug("skipping repeated step", zap.String("tool", s.tool))
			continue
		}
		r.seen[key] = true
		r.steps++
		runnable = append(runnable, s)
	}
	if len(runnable) == 0 {
		return
	}

	if len(runnable) == 1 {
		res, trace := o.invoke(ctx, r, runnable[0])
		o.merge(ctx, r, runnable[0], res, trace)
		return
	}

	type branch struct {
		res   *tools.Result
		trace models.ToolTrace
	}
	branches := make([]branch, len(runnable))
	var wg sync.WaitGroup
	for i, s := range runnable {
		wg.Add(1)
		go func(i int, s step) {
			defer wg.Done()
			branches[i].res, branches[i].trace = o.invoke(ctx, r, s)
		}(i, s)
	}
	wg.Wait()
	for i, s := range runnable {
		o.merge(ctx, r, s, branches[i].res, branches[i].trace)
	}
}

// invoke runs a single tool call and produces its trace. It never touches
// shared run state, so it is safe to call from concurrent branches.
func (o *Orchestrator) invoke(ctx context.Context, r *run, s step) (*tools.Result, models.ToolTrace) {
	trace := models.ToolTrace{Tool: s.tool, Recovery: s.recovery}
	tool, err := o.registry.Get(s.tool)
	if err != nil {
		trace.Err = err.Error()
		return nil, trace
	}
	start := time.Now()
	res, err := tool.Run(ctx, s.args, r.q, r.scopeID)
	trace.LatencyMS = time.Since(start).Milliseconds()
	if err != nil {
		trace.Err = err.Error()
		return nil, trace
	}
	trace.ResultCount = len(res.Evidence)
	return res, trace
}

// merge folds one step's result into the run: dedup evidence, record the
// trace, and spend the single recovery attempt when the step came up empty.
func (o *Orchestrator) merge(ctx context.Context, r *run, s step, res *tools.Result, trace models.ToolTrace) {
	r.out.Traces = append(r.out.Traces, trace)
	if trace.Err != "" {
		o.logger.Warn("tool step failed", zap.String("tool", s.tool), zap.String("err", trace.Err))
		r.out.Degradations = append(r.out.Degradations, models.Degradation{
			Stage: "orchestrator", Reason: s.tool + " failed: " + trace.Err,
		})
		return
	}
	for _, rec := range res.Evidence {
		if r.byID[rec.SourceID] {
			continue
		}
		r.byID[rec.SourceID] = true
		r.evidence = append(r.evidence, rec)
		r.toolsHit[rec.Tool] = true
	}

	if len(res.Evidence) == 0 && !r.recovered && r.steps < r.budget {
		rec, ok := recoverStep(s, r.q)
		if ok && !r.seen[rec.args.Key(rec.tool)] {
			r.recovered = true
			r.seen[rec.args.Key(rec.tool)] = true
			r.steps++
			o.logger.Debug("recovery step", zap.String("from", s.tool), zap.String("to", rec.tool))
			recRes, recTrace := o.invoke(ctx, r, rec)
			o.merge(ctx, r, rec, recRes, recTrace)
		}
	}
}

// sufficient reports whether the run has gathered enough distinct evidence
// from enough distinct tools to stop early.
func (o *Orchestrator) sufficient(r *run) bool {
	return len(r.evidence) >= o.cfg.SufficientEvidence && len(r.toolsHit) >= o.cfg.MinDistinctTools
}

// finalize orders evidence by retrieval score and applies the reranker when
// the candidate set is large enough to need it.
func (o *Orchestrator) finalize(ctx context.Context, r *run) {
	sort.SliceStable(r.evidence, func(i, j int) bool {
		if r.evidence[i].Score != r.evidence[j].Score {
			return r.evidence[i].Score > r.evidence[j].Score
		}
		return r.evidence[i].SourceID < r.evidence[j].SourceID
	})
	if o.reranker != nil {
		reranked, deg := o.reranker.Rerank(ctx, r.q.Question, r.evidence, maxFinal)
		if deg != nil {
			r.out.Degradations = append(r.out.Degradations, *deg)
		}
		r.evidence = reranked
	}
	if len(r.evidence) > maxFinal {
		r.evidence = r.evidence[:maxFinal]
	}
	r.out.Evidence = r.evidence
}
