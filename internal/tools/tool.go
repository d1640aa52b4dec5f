// Package tools defines the closed set of retrieval operations available to
// the orchestrator. Dispatch is by fixed allowlist; there is no arbitrary
// string-to-function invocation.
package tools

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/civiclens/hansard/internal/models"
	"github.com/civiclens/hansard/internal/search"
	"github.com/civiclens/hansard/internal/store"
)

// Tool names, the complete allowlist.
const (
	NameFindDiscussions = "find_discussions"
	NameFindDecisions   = "find_decisions"
	NamePersonActivity  = "person_activity"
	NameSearchDocuments = "search_documents"
	NameMeetingContext  = "meeting_context"
	NameTopicTimeline   = "topic_timeline"
)

// defaultLimit is the per-tool result budget.
const defaultLimit = 10

// Args are the typed arguments for one tool invocation. Which fields are
// required depends on the tool; Validate on each tool enforces its contract.
type Args struct {
	Query       string `json:"query,omitempty"`
	Person      string `json:"person,omitempty"`
	PersonID    string `json:"person_id,omitempty"`
	MeetingID   string `json:"meeting_id,omitempty"`
	MeetingDate string `json:"meeting_date,omitempty"`
	MatterID    string `json:"matter_id,omitempty"`
	DocType     string `json:"doc_type,omitempty"`
	DateFrom    string `json:"date_from,omitempty"`
	DateTo      string `json:"date_to,omitempty"`
}

// Key returns a canonical identity for a (tool, args) pair, used by the
// orchestrator to enforce the no-identical-repeat invariant.
func (a Args) Key(tool string) string {
	return strings.Join([]string{
		tool, a.Query, a.Person, a.PersonID, a.MeetingID, a.MeetingDate,
		a.MatterID, a.DocType, a.DateFrom, a.DateTo,
	}, "|")
}

// filters converts the argument date strings into search filters, layered on
// top of the analysis date bounds. Malformed dates are argument errors.
func (a Args) filters(q *models.QueryAnalysis) (models.SearchFilters, error) {
	f := models.SearchFilters{From: q.DateFrom, To: q.DateTo, MatterID: a.MatterID, DocType: a.DocType}
	if a.DateFrom != "" {
		t, err := time.Parse("2006-01-02", a.DateFrom)
		if err != nil {
			return f, fmt.Errorf("invalid date_from %q: %w", a.DateFrom, err)
		}
		f.From = &t
	}
	if a.DateTo != "" {
		t, err := time.Parse("2006-01-02", a.DateTo)
		if err != nil {
			return f, fmt.Errorf("invalid date_to %q: %w", a.DateTo, err)
		}
		f.To = &t
	}
	return f, nil
}

// Result is one tool invocation's output: evidence records plus a
// human-readable summary block. Zero evidence with a "no matches" summary is a
// valid result, not an error; the orchestrator uses it for self-correction.
type Result struct {
	Evidence []models.EvidenceRecord
	Summary  string
}

func emptyResult(what string) *Result {
	return &Result{Summary: fmt.Sprintf("No matching %s were found.", what)}
}

// Tool is one named retrieval operation.
type Tool interface {
	Name() string
	Run(ctx context.Context, args Args, q *models.QueryAnalysis, scopeID string) (*Result, error)
}

// Registry is the fixed dispatch table of tools.
type Registry struct {
	tools map[string]Tool
}

// NewRegistry builds the complete tool set over the given engine and store.
func NewRegistry(engine *search.Engine, st store.Store, logger *zap.Logger) *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range []Tool{
		&FindDiscussions{engine: engine, store: st, logger: logger},
		&FindDecisions{engine: engine, store: st, logger: logger},
		&PersonActivity{engine: engine, store: st, logger: logger},
		&SearchDocuments{engine: engine, store: st},
		&MeetingContext{store: st},
		&TopicTimeline{engine: engine, store: st},
	} {
		r.tools[t.Name()] = t
	}
	return r
}

// Get returns the named tool; unknown names are rejected.
func (r *Registry) Get(name string) (Tool, error) {
	t, ok := r.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool %q", name)
	}
	return t, nil
}

// Names returns the allowlist in stable order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// hybridSearch runs one engine call for a tool and hydrates the ranking into
// evidence records. args.Query overrides the analysis rewrites when set.
func hybridSearch(ctx context.Context, engine *search.Engine, st store.Store, tool string,
	category models.Category, args Args, q *models.QueryAnalysis, scopeID string,
	filters models.SearchFilters) ([]models.EvidenceRecord, error) {

	semantic, lex := q.SemanticQuery, q.LexicalQuery
	if args.Query != "" {
		semantic, lex = args.Query, args.Query
	}
	res, err := engine.Search(ctx, search.Request{
		Category:      category,
		SemanticQuery: semantic,
		LexicalQuery:  lex,
		Embedding:     q.Embedding,
		ScopeID:       scopeID,
		Filters:       filters,
		Limit:         defaultLimit,
	})
	if err != nil {
		return nil, err
	}
	if len(res.Ranking) == 0 {
		return nil, nil
	}
	items, err := st.FetchByIDs(ctx, category, res.Ranking.IDs())
	if err != nil {
		return nil, fmt.Errorf("hydration failed: %w", err)
	}
	scores := make(map[string]float64, len(res.Ranking))
	for _, e := range res.Ranking {
		scores[e.ID] = e.Score
	}
	records := make([]models.EvidenceRecord, 0, len(items))
	for _, item := range items {
		records = append(records, Render(item, scores[item.ID], tool))
	}
	return records, nil
}
